package store

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/psycho-baller/audora/internal/errs"
	"github.com/psycho-baller/audora/internal/identity"
	"github.com/psycho-baller/audora/internal/types"
)

const inviteCodeAttempts = 20

var phoneRe = regexp.MustCompile(`^\+1\d{10}$`)

// GetUser loads a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (*types.User, error) {
	var rec userRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("user", id)
		}
		return nil, errs.PersistenceFailure("get_user", err)
	}
	return userFromRecord(&rec), nil
}

// GetUserByToken resolves a platform user from an identity subject.
func (s *Store) GetUserByToken(ctx context.Context, tokenIdentifier string) (*types.User, error) {
	var rec userRecord
	if err := s.db.WithContext(ctx).First(&rec, "token_identifier = ?", tokenIdentifier).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("user", "")
		}
		return nil, errs.PersistenceFailure("get_user_by_token", err)
	}
	return userFromRecord(&rec), nil
}

// UpsertUser creates the user on first login, or refreshes profile fields
// that drifted from the identity provider.
func (s *Store) UpsertUser(ctx context.Context, ident *identity.Identity, invitedByCode string) (*types.User, error) {
	var existing userRecord
	err := s.db.WithContext(ctx).First(&existing, "token_identifier = ?", ident.Subject).Error
	if err == nil {
		if existing.Name != ident.Name || existing.Email != ident.Email || existing.Image != ident.Picture {
			updates := map[string]any{"name": ident.Name, "email": ident.Email, "image": ident.Picture}
			if err := s.db.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
				return nil, errs.PersistenceFailure("upsert_user", err)
			}
			existing.Name, existing.Email, existing.Image = ident.Name, ident.Email, ident.Picture
		}
		return userFromRecord(&existing), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.PersistenceFailure("upsert_user", err)
	}

	code, err := s.uniqueInviteCode(ctx, &userRecord{})
	if err != nil {
		return nil, errs.PersistenceFailure("upsert_user", err)
	}
	rec := userRecord{
		ID:              uuid.New().String(),
		TokenIdentifier: ident.Subject,
		Name:            ident.Name,
		Email:           ident.Email,
		Image:           ident.Picture,
		InviteCode:      code,
		InvitedByCode:   invitedByCode,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, errs.PersistenceFailure("upsert_user", err)
	}
	s.log.WithField("invite_code", code).Info("user created")
	return userFromRecord(&rec), nil
}

// GetUserByInviteCode resolves a user from their short invite code.
func (s *Store) GetUserByInviteCode(ctx context.Context, code string) (*types.User, error) {
	var rec userRecord
	if err := s.db.WithContext(ctx).First(&rec, "invite_code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("user", "")
		}
		return nil, errs.PersistenceFailure("get_user_by_invite_code", err)
	}
	return userFromRecord(&rec), nil
}

// UpdatePhoneNumber validates and stores a US/Canada phone number.
func (s *Store) UpdatePhoneNumber(ctx context.Context, userID, phoneNumber string) error {
	if !phoneRe.MatchString(phoneNumber) {
		return fmt.Errorf("invalid phone number format, must be +1XXXXXXXXXX")
	}
	res := s.db.WithContext(ctx).Model(&userRecord{}).
		Where("id = ?", userID).Update("phone_number", phoneNumber)
	if res.Error != nil {
		return errs.PersistenceFailure("update_phone_number", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("user", userID)
	}
	return nil
}

// uniqueInviteCode draws random 4-digit codes until one is free in the given
// table, giving up after a fixed number of attempts.
func (s *Store) uniqueInviteCode(ctx context.Context, model any) (string, error) {
	for i := 0; i < inviteCodeAttempts; i++ {
		code := randomInviteCode()
		var count int64
		if err := s.db.WithContext(ctx).Model(model).
			Where("invite_code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique invite code after %d attempts", inviteCodeAttempts)
}

func randomInviteCode() string {
	return fmt.Sprintf("%04d", rand.Intn(10000))
}

func userFromRecord(rec *userRecord) *types.User {
	return &types.User{
		ID:              rec.ID,
		TokenIdentifier: rec.TokenIdentifier,
		Name:            rec.Name,
		Email:           rec.Email,
		Image:           rec.Image,
		InviteCode:      rec.InviteCode,
		InvitedByCode:   rec.InvitedByCode,
		PhoneNumber:     rec.PhoneNumber,
	}
}
