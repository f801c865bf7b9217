// Package errs defines the typed errors surfaced by the import pipeline.
// Every error carries a machine-readable code and a recommended HTTP status
// so handlers can map failures without string matching.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeUnauthenticated           Code = "UNAUTHENTICATED"
	CodeNotFound                  Code = "NOT_FOUND"
	CodeUploadFailure             Code = "UPLOAD_FAILURE"
	CodeTranscriptionFailure      Code = "TRANSCRIPTION_FAILURE"
	CodeChunkTranscriptionFailure Code = "CHUNK_TRANSCRIPTION_FAILURE"
	CodeMappingError              Code = "MAPPING_ERROR"
	CodePersistenceFailure        Code = "PERSISTENCE_FAILURE"
)

// Error is the unified application error type.
type Error struct {
	Code       Code           `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// WithDetail sets a single detail key and returns the receiver.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Unauthenticated means no caller identity could be resolved.
func Unauthenticated() *Error {
	return &Error{
		Code: CodeUnauthenticated, Message: "not authenticated",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NotFound means a referenced resource does not exist.
func NotFound(resource, id string) *Error {
	e := &Error{
		Code: CodeNotFound, Message: fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"resource": resource},
	}
	if id != "" {
		e.Details["id"] = id
	}
	return e
}

// UploadFailure means a blob could not be stored or an upload URL could not
// be issued.
func UploadFailure(cause error) *Error {
	return &Error{
		Code: CodeUploadFailure, Message: "audio upload failed",
		HTTPStatus: http.StatusBadGateway, Cause: cause,
	}
}

// TranscriptionFailure means the speech service rejected a whole-file job.
func TranscriptionFailure(cause error) *Error {
	return &Error{
		Code: CodeTranscriptionFailure, Message: "failed to process audio",
		HTTPStatus: http.StatusBadGateway, Cause: cause,
	}
}

// ChunkTranscriptionFailure means the speech service failed on one chunk.
// chunk is 1-indexed to match the user-facing "Part i" labeling.
func ChunkTranscriptionFailure(chunk, total int, cause error) *Error {
	return &Error{
		Code:       CodeChunkTranscriptionFailure,
		Message:    fmt.Sprintf("failed to process chunk %d/%d", chunk, total),
		HTTPStatus: http.StatusBadGateway, Cause: cause,
		Details:    map[string]any{"chunk": chunk, "total": total},
	}
}

// MappingError means the speech service returned a speaker label that is
// inconsistent with the conversation shape (e.g. S2 in a solo recording).
func MappingError(label string, chunk int) *Error {
	return &Error{
		Code:       CodeMappingError,
		Message:    fmt.Sprintf("speaker label %q cannot be mapped to a user", label),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"label": label, "chunk": chunk},
	}
}

// PersistenceFailure means the record store rejected a gateway call.
func PersistenceFailure(op string, cause error) *Error {
	return &Error{
		Code: CodePersistenceFailure, Message: fmt.Sprintf("record store %s failed", op),
		HTTPStatus: http.StatusInternalServerError, Cause: cause,
		Details: map[string]any{"op": op},
	}
}

// CodeOf extracts the error code, or empty for foreign errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HTTPStatusOf maps an error to a response status, defaulting to 500.
func HTTPStatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) && e.HTTPStatus != 0 {
		return e.HTTPStatus
	}
	return http.StatusInternalServerError
}
