package repository

import (
	"context"

	"github.com/damoang/angple-chat/internal/domain"
	"gorm.io/gorm"
)

// MessageRepository message data access interface
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	FindByChat(ctx context.Context, chatID string) ([]*domain.Message, error)
	FindByIDs(ctx context.Context, ids []string) ([]*domain.Message, error)
	FindLatest(ctx context.Context, chatID string) (*domain.Message, error)
	CountByChat(ctx context.Context, chatID string) (int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// FindByChat returns the chat history oldest first. Ids are UUIDv7, so the id
// tie-break follows insertion order for messages sharing a timestamp.
func (r *messageRepository) FindByChat(ctx context.Context, chatID string) ([]*domain.Message, error) {
	messages := []*domain.Message{}
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

func (r *messageRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Message, error) {
	var messages []*domain.Message
	if len(ids) == 0 {
		return messages, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&messages).Error
	return messages, err
}

func (r *messageRepository) FindLatest(ctx context.Context, chatID string) (*domain.Message, error) {
	var msg domain.Message
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at DESC, id DESC").
		First(&msg).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepository) CountByChat(ctx context.Context, chatID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Message{}).Where("chat_id = ?", chatID).Count(&count).Error
	return count, err
}
