// Package store is the durable record store for conversations and users,
// backed by GORM. It also carries the conversation lifecycle operations the
// import pipeline drives: create, link participant, attach audio, save
// transcript, set status. Calls are single round trips with no internal
// retry; retry policy belongs to the caller.
package store

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/psycho-baller/audora/internal/logger"
)

type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

func Open(path string, log *logger.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&userRecord{}, &conversationRecord{}, &transcriptTurnRecord{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, log: log.WithComponent("store")}, nil
}

type conversationRecord struct {
	ID                string `gorm:"primaryKey"`
	Status            string `gorm:"index"`
	InitiatorUserID   string `gorm:"index"`
	ParticipantUserID string
	AudioRef          string
	InviteCode        string `gorm:"uniqueIndex"`
	Location          string
	Summary           string
	S1Facts           []string `gorm:"serializer:json"`
	S2Facts           []string `gorm:"serializer:json"`
	InitiatorName     string
	ParticipantName   string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (conversationRecord) TableName() string { return "conversations" }

type transcriptTurnRecord struct {
	ID             uint   `gorm:"primaryKey"`
	ConversationID string `gorm:"index"`
	Seq            int
	UserID         string
	Text           string
}

func (transcriptTurnRecord) TableName() string { return "transcript_turns" }

type userRecord struct {
	ID              string `gorm:"primaryKey"`
	TokenIdentifier string `gorm:"uniqueIndex"`
	Name            string
	Email           string
	Image           string
	InviteCode      string `gorm:"uniqueIndex"`
	InvitedByCode   string
	PhoneNumber     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (userRecord) TableName() string { return "users" }
