package types

// ConversationStatus is the lifecycle state of a conversation record.
type ConversationStatus string

const (
	StatusPending ConversationStatus = "pending"
	StatusActive  ConversationStatus = "active"
	// StatusEnded is terminal: no transcript mutation is allowed afterwards.
	StatusEnded ConversationStatus = "ended"
)

// Speaker is the closed set of resolved speaker roles inside a conversation.
// Raw S1/S2 labels from the speech service never travel past the mapper.
type Speaker int

const (
	SpeakerInitiator Speaker = iota
	SpeakerParticipant
)

// Chunk-local speaker labels as returned by the speech recognition service.
// S1 is whoever spoke first within the chunk, S2 whoever spoke second.
const (
	LabelS1 = "S1"
	LabelS2 = "S2"
)

type User struct {
	ID              string `json:"id"`
	TokenIdentifier string `json:"token_identifier"`
	Name            string `json:"name,omitempty"`
	Email           string `json:"email,omitempty"`
	Image           string `json:"image,omitempty"`
	InviteCode      string `json:"invite_code,omitempty"`
	InvitedByCode   string `json:"invited_by_code,omitempty"`
	PhoneNumber     string `json:"phone_number,omitempty"`
}

type Conversation struct {
	ID                string             `json:"id"`
	Status            ConversationStatus `json:"status"`
	InitiatorUserID   string             `json:"initiator_user_id"`
	ParticipantUserID string             `json:"participant_user_id,omitempty"`
	AudioRef          string             `json:"audio_ref,omitempty"`
	InviteCode        string             `json:"invite_code,omitempty"`
	Location          string             `json:"location,omitempty"`
	Summary           string             `json:"summary,omitempty"`
	S1Facts           []string           `json:"s1_facts,omitempty"`
	S2Facts           []string           `json:"s2_facts,omitempty"`
}

// TranscriptTurn is one utterance attributed to a platform user.
type TranscriptTurn struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

// RawTurn is one diarized utterance as returned by the speech service,
// still carrying the chunk-local speaker label.
type RawTurn struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// ChunkResult is the speech service output for a single audio chunk.
type ChunkResult struct {
	Transcript []RawTurn `json:"transcript"`
	S1Facts    []string  `json:"s1_facts"`
	S2Facts    []string  `json:"s2_facts"`
	Summary    string    `json:"summary"`
}

// ImportResult is returned by the import pipeline.
type ImportResult struct {
	ConversationID string `json:"conversation_id"`
	Success        bool   `json:"success"`
}
