package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/mockview/backend/internal/model/interview"
)

type MessageRepository interface {
	Create(ctx context.Context, m *interview.Message) error
	// ListByChat returns every message of the chat in insertion order.
	// Timestamps are not a reliable order: turns written in the same
	// commit share one.
	ListByChat(ctx context.Context, chatID string) ([]interview.Message, error)
	// ListRecent returns the newest limit messages, oldest first.
	ListRecent(ctx context.Context, chatID string, limit int) ([]interview.Message, error)
	CountByChat(ctx context.Context, chatID string) (int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, m *interview.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *messageRepository) ListByChat(ctx context.Context, chatID string) ([]interview.Message, error) {
	var msgs []interview.Message
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *messageRepository) ListRecent(ctx context.Context, chatID string, limit int) ([]interview.Message, error) {
	var msgs []interview.Message
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("id DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	// Flip back to chronological order.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (r *messageRepository) CountByChat(ctx context.Context, chatID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&interview.Message{}).
		Where("chat_id = ?", chatID).
		Count(&n).Error
	return n, err
}
