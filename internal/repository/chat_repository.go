package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mockview/backend/internal/model/interview"
)

// ErrChatNotFound is returned when a chat id does not resolve.
var ErrChatNotFound = errors.New("chat not found")

type ChatRepository interface {
	Create(ctx context.Context, c *interview.Chat) error
	FindByID(ctx context.Context, id string) (*interview.Chat, error)
	ListByUsername(ctx context.Context, username string) ([]interview.Chat, error)
	TouchActivity(ctx context.Context, id string) error
}

type chatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) Create(ctx context.Context, c *interview.Chat) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *chatRepository) FindByID(ctx context.Context, id string) (*interview.Chat, error) {
	var c interview.Chat
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *chatRepository) ListByUsername(ctx context.Context, username string) ([]interview.Chat, error) {
	var chats []interview.Chat
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		Order("started_at DESC").
		Find(&chats).Error
	if err != nil {
		return nil, err
	}
	return chats, nil
}

// TouchActivity bumps last_activity; dashboard ordering only.
func (r *chatRepository) TouchActivity(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&interview.Chat{}).
		Where("id = ?", id).
		Update("last_activity", time.Now().UTC()).Error
}
