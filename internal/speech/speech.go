// Package speech is the client for the external speech recognition service.
// The service owns diarization, fact extraction, and summarization; this
// package only moves jobs and results over HTTP.
package speech

import (
	"context"

	"github.com/psycho-baller/audora/internal/types"
)

// BatchRequest asks the service to transcribe a whole recording and persist
// the result on its side.
type BatchRequest struct {
	StorageRef      string
	ConversationID  string
	InitiatorName   string
	ParticipantName string
	UserEmail       string
	UserName        string
}

// Service is the speech recognition collaborator.
type Service interface {
	// BatchTranscribe submits a whole-file job. The service persists the
	// result internally; only the error matters to the caller.
	BatchTranscribe(ctx context.Context, req BatchRequest) error

	// TranscribeChunk transcribes one chunk and returns the structured
	// result without persisting anything.
	TranscribeChunk(ctx context.Context, storageRef string) (types.ChunkResult, error)
}
