package store

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/psycho-baller/audora/internal/errs"
	"github.com/psycho-baller/audora/internal/identity"
	"github.com/psycho-baller/audora/internal/logger"
	"github.com/psycho-baller/audora/internal/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), logger.New())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s
}

func TestConversationLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, inviteCode, err := s.Create(ctx, "u1", "Cafe")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !regexp.MustCompile(`^\d{4}$`).MatchString(inviteCode) {
		t.Errorf("invite code should be 4 digits, got %q", inviteCode)
	}

	if err := s.LinkParticipant(ctx, id, "u2"); err != nil {
		t.Fatalf("link participant: %v", err)
	}
	if err := s.AttachAudio(ctx, id, "audio/ref-1"); err != nil {
		t.Fatalf("attach audio: %v", err)
	}

	conv, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if conv.Status != types.StatusActive {
		t.Errorf("expected active, got %s", conv.Status)
	}
	if conv.ParticipantUserID != "u2" || conv.AudioRef != "audio/ref-1" || conv.Location != "Cafe" {
		t.Errorf("unexpected record: %+v", conv)
	}
}

func TestConversationOps_NotFound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.LinkParticipant(ctx, "ghost", "u2"); errs.CodeOf(err) != errs.CodeNotFound {
		t.Errorf("link: expected NOT_FOUND, got %v", err)
	}
	if err := s.AttachAudio(ctx, "ghost", "ref"); errs.CodeOf(err) != errs.CodeNotFound {
		t.Errorf("attach: expected NOT_FOUND, got %v", err)
	}
	if err := s.SetStatus(ctx, "ghost", types.StatusEnded); errs.CodeOf(err) != errs.CodeNotFound {
		t.Errorf("set status: expected NOT_FOUND, got %v", err)
	}
	if _, err := s.Get(ctx, "ghost"); errs.CodeOf(err) != errs.CodeNotFound {
		t.Errorf("get: expected NOT_FOUND, got %v", err)
	}
}

func TestSaveTranscript_PersistsAndEnds(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id, _, _ := s.Create(ctx, "u1", "")

	turns := []types.TranscriptTurn{
		{UserID: "u1", Text: "hello"},
		{UserID: "u2", Text: "hi"},
		{UserID: "u1", Text: "bye"},
	}
	err := s.SaveTranscript(ctx, id, turns, []string{"a"}, []string{"b"}, "Rami", "Sam", "short summary")
	if err != nil {
		t.Fatalf("save transcript: %v", err)
	}

	conv, _ := s.Get(ctx, id)
	if conv.Status != types.StatusEnded {
		t.Errorf("persisted conversation should be ended, got %s", conv.Status)
	}
	if conv.Summary != "short summary" || len(conv.S1Facts) != 1 || len(conv.S2Facts) != 1 {
		t.Errorf("unexpected record: %+v", conv)
	}

	got, err := s.Turns(ctx, id)
	if err != nil {
		t.Fatalf("turns: %v", err)
	}
	if len(got) != len(turns) {
		t.Fatalf("expected %d turns, got %d", len(turns), len(got))
	}
	for i := range turns {
		if got[i] != turns[i] {
			t.Errorf("turn %d: want %+v, got %+v", i, turns[i], got[i])
		}
	}
}

func TestSaveTranscript_RefusesEndedConversation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id, _, _ := s.Create(ctx, "u1", "")
	if err := s.SetStatus(ctx, id, types.StatusEnded); err != nil {
		t.Fatalf("set status: %v", err)
	}

	err := s.SaveTranscript(ctx, id, nil, nil, nil, "", "", "late summary")
	if errs.CodeOf(err) != errs.CodePersistenceFailure {
		t.Fatalf("expected PERSISTENCE_FAILURE, got %v", err)
	}
	conv, _ := s.Get(ctx, id)
	if conv.Summary != "" {
		t.Error("ended conversation must not be mutated")
	}
}

func TestUpsertUser(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	ident := &identity.Identity{Subject: "tok-1", Name: "Rami", Email: "rami@example.com"}

	created, err := s.UpsertUser(ctx, ident, "1234")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !regexp.MustCompile(`^\d{4}$`).MatchString(created.InviteCode) {
		t.Errorf("invite code should be 4 digits, got %q", created.InviteCode)
	}
	if created.InvitedByCode != "1234" {
		t.Errorf("invited-by code not stored: %+v", created)
	}

	// second upsert with drifted profile refreshes fields, keeps identity
	ident.Name = "Rami B"
	again, err := s.UpsertUser(ctx, ident, "")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if again.ID != created.ID {
		t.Error("upsert should not create a second user")
	}
	if again.Name != "Rami B" {
		t.Errorf("profile should refresh, got %q", again.Name)
	}

	byToken, err := s.GetUserByToken(ctx, "tok-1")
	if err != nil || byToken.ID != created.ID {
		t.Errorf("lookup by token failed: %v %+v", err, byToken)
	}
	byCode, err := s.GetUserByInviteCode(ctx, created.InviteCode)
	if err != nil || byCode.ID != created.ID {
		t.Errorf("lookup by invite code failed: %v %+v", err, byCode)
	}
}

func TestUpdatePhoneNumber(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u, _ := s.UpsertUser(ctx, &identity.Identity{Subject: "tok-1"}, "")

	if err := s.UpdatePhoneNumber(ctx, u.ID, "+14165551234"); err != nil {
		t.Fatalf("valid number rejected: %v", err)
	}
	for _, bad := range []string{"4165551234", "+1416555123", "+441234567890", ""} {
		if err := s.UpdatePhoneNumber(ctx, u.ID, bad); err == nil {
			t.Errorf("number %q should be rejected", bad)
		}
	}
}

func TestRandomInviteCode_Format(t *testing.T) {
	re := regexp.MustCompile(`^\d{4}$`)
	for i := 0; i < 100; i++ {
		if code := randomInviteCode(); !re.MatchString(code) {
			t.Fatalf("bad code %q", code)
		}
	}
}
