package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"

	openaigo "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/psycho-baller/audora/internal/logger"
)

// BlobGetter fetches an uploaded blob by storage reference.
type BlobGetter interface {
	Get(ctx context.Context, storageRef string) (io.ReadCloser, string, error)
}

// SoloTranscriber transcribes single-speaker recordings with Whisper.
// No diarization: every word belongs to the initiator.
type SoloTranscriber struct {
	client openaigo.Client
	blobs  BlobGetter
	log    *logger.Logger
}

func NewSoloTranscriber(apiKey string, blobs BlobGetter, log *logger.Logger) *SoloTranscriber {
	return &SoloTranscriber{
		client: openaigo.NewClient(option.WithAPIKey(apiKey)),
		blobs:  blobs,
		log:    log.WithComponent("whisper"),
	}
}

// Whisper accepts m4a, mp3, mp4, mpeg, mpga, wav, webm; the filename
// extension is how it learns the container format.
var extensionByMIME = map[string]string{
	"audio/m4a":   "m4a",
	"audio/x-m4a": "m4a",
	"audio/mp4":   "m4a",
	"audio/mpeg":  "mp3",
	"audio/mp3":   "mp3",
	"audio/wav":   "wav",
	"audio/wave":  "wav",
	"audio/webm":  "webm",
	"audio/ogg":   "ogg",
	"audio/aac":   "aac",
}

func filenameFor(mimeType string) string {
	ext, ok := extensionByMIME[mimeType]
	if !ok {
		ext = "m4a"
	}
	return "recording." + ext
}

func (t *SoloTranscriber) TranscribeSolo(ctx context.Context, storageRef string) (string, error) {
	rc, mimeType, err := t.blobs.Get(ctx, storageRef)
	if err != nil {
		return "", fmt.Errorf("fetch audio: %w", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}
	if mimeType == "" {
		mimeType = "audio/mpeg"
	}
	filename := filenameFor(mimeType)
	t.log.WithField("filename", filename).WithField("mime_type", mimeType).Info("transcribing solo audio")

	resp, err := t.client.Audio.Transcriptions.New(ctx, openaigo.AudioTranscriptionNewParams{
		File:  openaigo.File(bytes.NewReader(data), filename, mimeType),
		Model: openaigo.AudioModelWhisper1,
	})
	if err != nil {
		return "", fmt.Errorf("whisper transcription: %w", err)
	}
	return resp.Text, nil
}
