package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/psycho-baller/audora/internal/errs"
	"github.com/psycho-baller/audora/internal/types"
)

// Create inserts a new conversation owned by the initiator and returns its
// id together with a short invite code for out-of-band joining.
func (s *Store) Create(ctx context.Context, initiatorID, location string) (string, string, error) {
	code, err := s.uniqueInviteCode(ctx, &conversationRecord{})
	if err != nil {
		return "", "", errs.PersistenceFailure("create", err)
	}
	rec := conversationRecord{
		ID:              uuid.New().String(),
		Status:          string(types.StatusActive),
		InitiatorUserID: initiatorID,
		InviteCode:      code,
		Location:        location,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return "", "", errs.PersistenceFailure("create", err)
	}
	s.log.WithConversation(rec.ID).Info("conversation created")
	return rec.ID, rec.InviteCode, nil
}

// LinkParticipant attaches the second participant to the conversation.
func (s *Store) LinkParticipant(ctx context.Context, conversationID, participantID string) error {
	return s.updateColumn(ctx, conversationID, "link_participant", "participant_user_id", participantID)
}

// AttachAudio points the conversation at its primary uploaded chunk.
func (s *Store) AttachAudio(ctx context.Context, conversationID, storageRef string) error {
	return s.updateColumn(ctx, conversationID, "attach_audio", "audio_ref", storageRef)
}

// SetStatus transitions the conversation lifecycle state.
func (s *Store) SetStatus(ctx context.Context, conversationID string, status types.ConversationStatus) error {
	return s.updateColumn(ctx, conversationID, "set_status", "status", string(status))
}

func (s *Store) updateColumn(ctx context.Context, conversationID, op, column string, value any) error {
	res := s.db.WithContext(ctx).Model(&conversationRecord{}).
		Where("id = ?", conversationID).Update(column, value)
	if res.Error != nil {
		return errs.PersistenceFailure(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("conversation", conversationID)
	}
	return nil
}

// SaveTranscript writes the full transcript, both fact sets, and the summary
// in one transaction, then moves the conversation to its terminal state.
// An already-ended conversation refuses further transcript mutation.
func (s *Store) SaveTranscript(ctx context.Context, conversationID string, turns []types.TranscriptTurn, s1Facts, s2Facts []string, initiatorName, participantName, summary string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec conversationRecord
		if err := tx.First(&rec, "id = ?", conversationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NotFound("conversation", conversationID)
			}
			return err
		}
		if rec.Status == string(types.StatusEnded) {
			return fmt.Errorf("conversation %s already ended", conversationID)
		}
		rec.Summary = summary
		rec.S1Facts = s1Facts
		rec.S2Facts = s2Facts
		rec.InitiatorName = initiatorName
		rec.ParticipantName = participantName
		rec.Status = string(types.StatusEnded)
		if err := tx.Save(&rec).Error; err != nil {
			return err
		}
		for i, t := range turns {
			row := transcriptTurnRecord{
				ConversationID: conversationID,
				Seq:            i,
				UserID:         t.UserID,
				Text:           t.Text,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var appErr *errs.Error
		if errors.As(err, &appErr) {
			return appErr
		}
		return errs.PersistenceFailure("save_transcript", err)
	}
	s.log.WithConversation(conversationID).WithField("turns", len(turns)).Info("transcript saved")
	return nil
}

// Get loads one conversation record.
func (s *Store) Get(ctx context.Context, conversationID string) (*types.Conversation, error) {
	var rec conversationRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", conversationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("conversation", conversationID)
		}
		return nil, errs.PersistenceFailure("get", err)
	}
	return &types.Conversation{
		ID:                rec.ID,
		Status:            types.ConversationStatus(rec.Status),
		InitiatorUserID:   rec.InitiatorUserID,
		ParticipantUserID: rec.ParticipantUserID,
		AudioRef:          rec.AudioRef,
		InviteCode:        rec.InviteCode,
		Location:          rec.Location,
		Summary:           rec.Summary,
		S1Facts:           rec.S1Facts,
		S2Facts:           rec.S2Facts,
	}, nil
}

// Turns returns the conversation transcript in append order.
func (s *Store) Turns(ctx context.Context, conversationID string) ([]types.TranscriptTurn, error) {
	var rows []transcriptTurnRecord
	if err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("seq asc").Find(&rows).Error; err != nil {
		return nil, errs.PersistenceFailure("turns", err)
	}
	out := make([]types.TranscriptTurn, 0, len(rows))
	for _, r := range rows {
		out = append(out, types.TranscriptTurn{UserID: r.UserID, Text: r.Text})
	}
	return out, nil
}
