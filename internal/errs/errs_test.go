package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestError_MessageAndCause(t *testing.T) {
	cause := errors.New("socket closed")
	err := TranscriptionFailure(cause)
	if !errors.Is(err, cause) {
		t.Error("cause should unwrap")
	}
	if !strings.Contains(err.Error(), "socket closed") {
		t.Errorf("cause missing from message: %q", err.Error())
	}
	if err.HTTPStatus != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", err.HTTPStatus)
	}
}

func TestChunkTranscriptionFailure_Details(t *testing.T) {
	err := ChunkTranscriptionFailure(2, 3, errors.New("boom"))
	if err.Details["chunk"] != 2 || err.Details["total"] != 3 {
		t.Errorf("unexpected details: %v", err.Details)
	}
	if !strings.Contains(err.Message, "chunk 2/3") {
		t.Errorf("unexpected message: %q", err.Message)
	}
}

func TestNotFound_OmitsEmptyID(t *testing.T) {
	err := NotFound("user", "")
	if _, ok := err.Details["id"]; ok {
		t.Error("empty id should not appear in details")
	}
	if err.Details["resource"] != "user" {
		t.Errorf("unexpected details: %v", err.Details)
	}
}

func TestCodeOf(t *testing.T) {
	if CodeOf(Unauthenticated()) != CodeUnauthenticated {
		t.Error("direct error code")
	}
	wrapped := fmt.Errorf("handler: %w", MappingError("S2", 1))
	if CodeOf(wrapped) != CodeMappingError {
		t.Error("wrapped error code")
	}
	if CodeOf(errors.New("plain")) != "" {
		t.Error("foreign errors have no code")
	}
}

func TestHTTPStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Unauthenticated(), http.StatusUnauthorized},
		{NotFound("user", "u1"), http.StatusNotFound},
		{MappingError("S2", 1), http.StatusUnprocessableEntity},
		{PersistenceFailure("create", errors.New("x")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatusOf(tc.err); got != tc.want {
			t.Errorf("%v: want %d, got %d", tc.err, tc.want, got)
		}
	}
}
