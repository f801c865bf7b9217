// Package importer drives the chunked transcription/import pipeline:
// create conversation, link participant, attach audio, transcribe, merge,
// remap speakers, persist. One invocation owns one conversation record; a
// failed run is never resumed, the caller starts over with a new record.
package importer

import (
	"context"

	"github.com/psycho-baller/audora/internal/errs"
	"github.com/psycho-baller/audora/internal/logger"
	"github.com/psycho-baller/audora/internal/speech"
	"github.com/psycho-baller/audora/internal/types"
)

const defaultLocation = "Imported from Mobile"

// Gateway is the conversation lifecycle surface of the record store. Each
// call is one round trip; nothing is retried here.
type Gateway interface {
	Create(ctx context.Context, initiatorID, location string) (conversationID, inviteCode string, err error)
	LinkParticipant(ctx context.Context, conversationID, participantID string) error
	AttachAudio(ctx context.Context, conversationID, storageRef string) error
	SaveTranscript(ctx context.Context, conversationID string, turns []types.TranscriptTurn, s1Facts, s2Facts []string, initiatorName, participantName, summary string) error
	SetStatus(ctx context.Context, conversationID string, status types.ConversationStatus) error
	GetUser(ctx context.Context, id string) (*types.User, error)
	GetUserByToken(ctx context.Context, tokenIdentifier string) (*types.User, error)
}

// SoloTranscriber produces a plain transcript for single-speaker audio.
type SoloTranscriber interface {
	TranscribeSolo(ctx context.Context, storageRef string) (string, error)
}

// Importer is the pipeline orchestrator. Collaborators are injected so
// tests can substitute fakes.
type Importer struct {
	gw     Gateway
	speech speech.Service
	solo   SoloTranscriber
	log    *logger.Logger
}

func New(gw Gateway, sp speech.Service, solo SoloTranscriber, log *logger.Logger) *Importer {
	return &Importer{gw: gw, speech: sp, solo: solo, log: log.WithComponent("importer")}
}

// ImportSingleFile runs the whole-file variant: the speech service both
// transcribes and persists. On transcription failure the conversation is
// force-ended so a failed import is still inspectable, then the typed
// error surfaces to the caller.
func (imp *Importer) ImportSingleFile(ctx context.Context, subject, storageRef, participantID, location string) (types.ImportResult, error) {
	cur, err := imp.currentUser(ctx, subject)
	if err != nil {
		return types.ImportResult{}, err
	}
	participant, err := imp.gw.GetUser(ctx, participantID)
	if err != nil {
		return types.ImportResult{}, err
	}

	convID, err := imp.openConversation(ctx, cur.ID, participantID, storageRef, location)
	if err != nil {
		return types.ImportResult{}, err
	}
	log := imp.log.WithConversation(convID)

	log.Info("starting batch transcription")
	err = imp.speech.BatchTranscribe(ctx, speech.BatchRequest{
		StorageRef:      storageRef,
		ConversationID:  convID,
		InitiatorName:   displayName(cur.Name, "You"),
		ParticipantName: displayName(participant.Name, "Friend"),
		UserEmail:       cur.Email,
		UserName:        cur.Name,
	})
	if err != nil {
		imp.endWithoutTranscript(ctx, convID)
		return types.ImportResult{ConversationID: convID}, errs.TranscriptionFailure(err)
	}

	log.Info("import completed")
	return types.ImportResult{ConversationID: convID, Success: true}, nil
}

// ImportChunked runs the pre-split variant: each chunk is transcribed
// independently (no persistence), results are merged in chunk order, and a
// single persistence call writes the transcript, facts, and summary.
// participantID may be empty for solo recordings.
func (imp *Importer) ImportChunked(ctx context.Context, subject string, storageRefs []string, participantID, location string) (types.ImportResult, error) {
	cur, err := imp.currentUser(ctx, subject)
	if err != nil {
		return types.ImportResult{}, err
	}
	var participant *types.User
	if participantID != "" {
		if participant, err = imp.gw.GetUser(ctx, participantID); err != nil {
			return types.ImportResult{}, err
		}
	}

	firstRef := ""
	if len(storageRefs) > 0 {
		firstRef = storageRefs[0]
	}
	convID, err := imp.openConversation(ctx, cur.ID, participantID, firstRef, location)
	if err != nil {
		return types.ImportResult{}, err
	}
	log := imp.log.WithConversation(convID).WithField("chunks", len(storageRefs))

	// Sequential on purpose: keeps the "Part i" labels and the S1/S2
	// mapping assumption stable and auditable across the whole run.
	results := make([]types.ChunkResult, 0, len(storageRefs))
	for i, ref := range storageRefs {
		log.WithField("chunk", i+1).Info("transcribing chunk")
		res, err := imp.speech.TranscribeChunk(ctx, ref)
		if err != nil {
			// nothing from any chunk is persisted on failure
			imp.endWithoutTranscript(ctx, convID)
			return types.ImportResult{ConversationID: convID}, errs.ChunkTranscriptionFailure(i+1, len(storageRefs), err)
		}
		results = append(results, res)
	}

	merged := aggregateChunks(results)
	participantUserID := ""
	if participant != nil {
		participantUserID = participant.ID
	}
	turns, err := mapSpeakers(results, cur.ID, participantUserID)
	if err != nil {
		imp.endWithoutTranscript(ctx, convID)
		return types.ImportResult{ConversationID: convID}, err
	}

	participantName := ""
	if participant != nil {
		participantName = displayName(participant.Name, "Friend")
	}
	err = imp.gw.SaveTranscript(ctx, convID, turns, merged.S1Facts, merged.S2Facts,
		displayName(cur.Name, "You"), participantName, merged.Summary)
	if err != nil {
		return types.ImportResult{ConversationID: convID}, err
	}

	log.Info("import completed")
	return types.ImportResult{ConversationID: convID, Success: true}, nil
}

// ImportSolo transcribes a single-speaker recording with Whisper and
// attributes every turn to the initiator.
func (imp *Importer) ImportSolo(ctx context.Context, subject, storageRef, location string) (types.ImportResult, error) {
	cur, err := imp.currentUser(ctx, subject)
	if err != nil {
		return types.ImportResult{}, err
	}
	convID, err := imp.openConversation(ctx, cur.ID, "", storageRef, location)
	if err != nil {
		return types.ImportResult{}, err
	}
	log := imp.log.WithConversation(convID)

	log.Info("starting solo transcription")
	text, err := imp.solo.TranscribeSolo(ctx, storageRef)
	if err != nil {
		imp.endWithoutTranscript(ctx, convID)
		return types.ImportResult{ConversationID: convID}, errs.TranscriptionFailure(err)
	}

	turns := []types.TranscriptTurn{{UserID: cur.ID, Text: text}}
	err = imp.gw.SaveTranscript(ctx, convID, turns, nil, nil,
		displayName(cur.Name, "You"), "", fallbackSummary)
	if err != nil {
		return types.ImportResult{ConversationID: convID}, err
	}

	log.Info("solo import completed")
	return types.ImportResult{ConversationID: convID, Success: true}, nil
}

// openConversation runs the shared create / link / attach prefix of both
// variants. participantID and storageRef may be empty.
func (imp *Importer) openConversation(ctx context.Context, initiatorID, participantID, storageRef, location string) (string, error) {
	if location == "" {
		location = defaultLocation
	}
	convID, _, err := imp.gw.Create(ctx, initiatorID, location)
	if err != nil {
		return "", err
	}
	if participantID != "" {
		if err := imp.gw.LinkParticipant(ctx, convID, participantID); err != nil {
			return "", err
		}
	}
	if storageRef != "" {
		if err := imp.gw.AttachAudio(ctx, convID, storageRef); err != nil {
			return "", err
		}
	}
	return convID, nil
}

func (imp *Importer) currentUser(ctx context.Context, subject string) (*types.User, error) {
	if subject == "" {
		return nil, errs.Unauthenticated()
	}
	cur, err := imp.gw.GetUserByToken(ctx, subject)
	if err != nil || cur == nil {
		return nil, errs.Unauthenticated()
	}
	return cur, nil
}

// endWithoutTranscript is the compensating transition applied uniformly on
// transcription-stage failure: the record stays, terminal and inspectable,
// with nothing persisted as if complete.
func (imp *Importer) endWithoutTranscript(ctx context.Context, conversationID string) {
	if err := imp.gw.SetStatus(ctx, conversationID, types.StatusEnded); err != nil {
		imp.log.WithConversation(conversationID).WithError(err).Warn("failed to end conversation after error")
	}
}

func displayName(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
