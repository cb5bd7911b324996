package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/damoang/angple-chat/internal/common"
	"github.com/damoang/angple-chat/internal/domain"
	"github.com/damoang/angple-chat/internal/repository"
	"github.com/damoang/angple-chat/internal/ws"
	"github.com/damoang/angple-chat/pkg/logger"
	"github.com/google/uuid"
)

// RoomPublisher fans an event out to the connections subscribed to a room.
// *ws.Hub implements it.
type RoomPublisher interface {
	Publish(roomID string, event *ws.Event) int
}

// MessageService is the message ledger
type MessageService interface {
	Append(ctx context.Context, chatID, senderID, content string) (*domain.Message, error)
	History(ctx context.Context, chatID string) ([]*domain.Message, error)
	ReconcileLatest(ctx context.Context, chatID string) (bool, error)
	ReconcileAll(ctx context.Context) (int, error)
}

type messageService struct {
	messageRepo repository.MessageRepository
	chatRepo    repository.ChatRepository
	users       UserService
	publisher   RoomPublisher
	now         func() time.Time
}

// NewMessageService creates a new MessageService. publisher may be nil (no realtime fan-out).
func NewMessageService(
	messageRepo repository.MessageRepository,
	chatRepo repository.ChatRepository,
	users UserService,
	publisher RoomPublisher,
) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		chatRepo:    chatRepo,
		users:       users,
		publisher:   publisher,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Append stores a message and pushes it to the chat's room.
func (s *messageService) Append(ctx context.Context, chatID, senderID, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("message content is empty: %w", common.ErrInvalidArgument)
	}
	if _, err := uuid.Parse(chatID); err != nil {
		return nil, fmt.Errorf("chat %q: %w", chatID, common.ErrNotFound)
	}

	// the caller going away must not abort a half-done append
	ctx = context.WithoutCancel(ctx)

	chat, err := s.chatRepo.FindByID(ctx, chatID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("chat %q: %w", chatID, common.ErrNotFound)
		}
		return nil, storageError("find chat", err)
	}
	if !chat.HasParticipant(senderID) {
		return nil, fmt.Errorf("user is not a participant of chat %q: %w", chatID, common.ErrForbidden)
	}

	msg := &domain.Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		ChatID:    chatID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: s.now(),
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, storageError("insert message", err)
	}

	// 두 번째 쓰기 실패는 롤백하지 않음 (ReconcileLatest로 복구)
	moved, err := s.chatRepo.AdvanceLatestMessage(ctx, chatID, msg.ID, msg.CreatedAt)
	switch {
	case err != nil:
		logger.GetLogger().Warn().Err(err).
			Str("chat_id", chatID).
			Str("message_id", msg.ID).
			Msg("latest message pointer update failed")
	case !moved:
		logger.GetLogger().Debug().Str("chat_id", chatID).Str("message_id", msg.ID).
			Msg("latest message pointer already newer")
	}

	users, err := s.users.Summaries(ctx, []string{senderID})
	if err != nil {
		logger.GetLogger().Warn().Err(err).Str("user_id", senderID).Msg("sender lookup failed")
	} else {
		msg.Sender = senderSummary(users[senderID])
	}

	if s.publisher != nil {
		n := s.publisher.Publish(chatID, &ws.Event{
			Type:    ws.EventMessageReceived,
			RoomID:  chatID,
			Payload: msg,
		})
		logger.GetLogger().Debug().Str("chat_id", chatID).Int("delivered", n).Msg("message published")
	}
	return msg, nil
}

// History returns the chat's messages oldest first. An unknown but well-formed id yields
// an empty slice; only a malformed id is NotFound.
func (s *messageService) History(ctx context.Context, chatID string) ([]*domain.Message, error) {
	if _, err := uuid.Parse(chatID); err != nil {
		return nil, fmt.Errorf("chat %q: %w", chatID, common.ErrNotFound)
	}

	messages, err := s.messageRepo.FindByChat(ctx, chatID)
	if err != nil {
		return nil, storageError("load history", err)
	}
	if len(messages) == 0 {
		return messages, nil
	}

	senderIDs := make([]string, 0, len(messages))
	for _, m := range messages {
		senderIDs = append(senderIDs, m.SenderID)
	}
	users, err := s.users.Summaries(ctx, senderIDs)
	if err != nil {
		return nil, err
	}
	for _, m := range messages {
		m.Sender = senderSummary(users[m.SenderID])
	}
	return messages, nil
}

// ReconcileLatest recomputes the chat's latest-message pointer from the ledger.
// changed reports whether the stored pointer was stale.
func (s *messageService) ReconcileLatest(ctx context.Context, chatID string) (bool, error) {
	chat, err := s.chatRepo.FindByID(ctx, chatID)
	if err != nil {
		if isNotFound(err) {
			return false, fmt.Errorf("chat %q: %w", chatID, common.ErrNotFound)
		}
		return false, storageError("find chat", err)
	}

	var wantID *string
	at := chat.UpdatedAt
	latest, err := s.messageRepo.FindLatest(ctx, chatID)
	switch {
	case err == nil:
		wantID = &latest.ID
		at = latest.CreatedAt
	case !isNotFound(err):
		return false, storageError("find latest message", err)
	}

	if samePointer(chat.LatestMessageID, wantID) {
		return false, nil
	}
	if err := s.chatRepo.UpdateLatestMessage(ctx, chatID, wantID, at); err != nil {
		return false, storageError("repair latest message", err)
	}
	logger.GetLogger().Info().Str("chat_id", chatID).Msg("latest message pointer repaired")
	return true, nil
}

// ReconcileAll runs ReconcileLatest over every chat and returns how many were repaired
func (s *messageService) ReconcileAll(ctx context.Context) (int, error) {
	ids, err := s.chatRepo.FindAllIDs(ctx)
	if err != nil {
		return 0, storageError("list chats", err)
	}
	repaired := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return repaired, err
		}
		changed, err := s.ReconcileLatest(ctx, id)
		if err != nil {
			return repaired, err
		}
		if changed {
			repaired++
		}
	}
	return repaired, nil
}

func samePointer(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
