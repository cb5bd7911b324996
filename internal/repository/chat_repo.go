package repository

import (
	"context"
	"time"

	"github.com/damoang/angple-chat/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatRepository conversation data access interface
type ChatRepository interface {
	CreateIfAbsent(ctx context.Context, chat *domain.Chat) (bool, error)
	FindByID(ctx context.Context, id string) (*domain.Chat, error)
	FindByPairKey(ctx context.Context, pairKey string) (*domain.Chat, error)
	FindByUser(ctx context.Context, userID string) ([]*domain.Chat, error)
	FindAllIDs(ctx context.Context) ([]string, error)
	AdvanceLatestMessage(ctx context.Context, chatID, messageID string, at time.Time) (bool, error)
	UpdateLatestMessage(ctx context.Context, chatID string, messageID *string, at time.Time) error
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new ChatRepository
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

// CreateIfAbsent inserts the chat unless one already exists for its pair.
// Returns false when another writer got there first.
func (r *chatRepository) CreateIfAbsent(ctx context.Context, chat *domain.Chat) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "pair_key"}}, DoNothing: true}).
		Create(chat)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *chatRepository) FindByID(ctx context.Context, id string) (*domain.Chat, error) {
	var chat domain.Chat
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&chat).Error; err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *chatRepository) FindByPairKey(ctx context.Context, pairKey string) (*domain.Chat, error) {
	var chat domain.Chat
	err := r.db.WithContext(ctx).
		Where("pair_key = ? AND is_group_chat = ?", pairKey, false).
		First(&chat).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// FindByUser returns the user's chats, most recently updated first
func (r *chatRepository) FindByUser(ctx context.Context, userID string) ([]*domain.Chat, error) {
	var chats []*domain.Chat
	err := r.db.WithContext(ctx).
		Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Order("updated_at DESC, id DESC").
		Find(&chats).Error
	return chats, err
}

func (r *chatRepository) FindAllIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&domain.Chat{}).Order("id ASC").Pluck("id", &ids).Error
	return ids, err
}

// AdvanceLatestMessage points the chat at messageID only if that message sorts after the
// current pointer (created_at, then id). false means a newer message already holds it.
func (r *chatRepository) AdvanceLatestMessage(ctx context.Context, chatID, messageID string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&domain.Chat{}).
		Where("id = ?", chatID).
		Where("latest_message_id IS NULL OR updated_at < ? OR (updated_at = ? AND latest_message_id < ?)", at, at, messageID).
		Updates(map[string]interface{}{
			"latest_message_id": messageID,
			"updated_at":        at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// UpdateLatestMessage overwrites the latest-message pointer. Re-running it with the same
// arguments is harmless, so callers may retry.
func (r *chatRepository) UpdateLatestMessage(ctx context.Context, chatID string, messageID *string, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&domain.Chat{}).
		Where("id = ?", chatID).
		Updates(map[string]interface{}{
			"latest_message_id": messageID,
			"updated_at":        at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
