package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"infosec-dashboard/internal/model"
)

// TranscriptRepository stores the chat transcript audit trail.
type TranscriptRepository struct {
	db *gorm.DB
}

func NewTranscriptRepository(db *gorm.DB) *TranscriptRepository {
	return &TranscriptRepository{db: db}
}

// Save inserts msg. Redelivered messages with a known id are ignored.
func (r *TranscriptRepository) Save(ctx context.Context, msg *model.Message) error {
	if msg.ID == "" || msg.SessionID == "" {
		return errors.New("save transcript message failed: id and session id are required")
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(msg).Error; err != nil {
		return fmt.Errorf("save transcript message failed: %w", err)
	}
	return nil
}

func (r *TranscriptRepository) ListBySessionID(ctx context.Context, sessionID string, limit int) ([]model.Message, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}

	var messages []model.Message
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp ASC").
		Limit(limit).
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list transcript messages failed: %w", err)
	}
	return messages, nil
}
