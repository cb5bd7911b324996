package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/damoang/angple-chat/internal/common"
	"github.com/damoang/angple-chat/internal/domain"
	"github.com/damoang/angple-chat/internal/repository"
	"github.com/damoang/angple-chat/pkg/logger"
	"github.com/google/uuid"
)

// ChatService is the conversation directory
type ChatService interface {
	ResolveOrCreate(ctx context.Context, requesterID, counterpartID string) (*domain.ChatView, bool, error)
	ListForUser(ctx context.Context, userID string) ([]*domain.ChatView, error)
	IsParticipant(ctx context.Context, chatID, userID string) (bool, error)
	// CanJoin satisfies ws.RoomAuthorizer
	CanJoin(ctx context.Context, userID, roomID string) (bool, error)
}

type chatService struct {
	chatRepo    repository.ChatRepository
	messageRepo repository.MessageRepository
	users       UserService
}

// NewChatService creates a new ChatService
func NewChatService(chatRepo repository.ChatRepository, messageRepo repository.MessageRepository, users UserService) ChatService {
	return &chatService{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		users:       users,
	}
}

// ResolveOrCreate returns the one-to-one chat between the two users, creating it
// when none exists. created reports whether this call inserted the row.
func (s *chatService) ResolveOrCreate(ctx context.Context, requesterID, counterpartID string) (*domain.ChatView, bool, error) {
	counterpartID = strings.TrimSpace(counterpartID)
	if counterpartID == "" {
		return nil, false, fmt.Errorf("counterpart user id is required: %w", common.ErrInvalidArgument)
	}
	if counterpartID == requesterID {
		return nil, false, fmt.Errorf("cannot open a chat with yourself: %w", common.ErrInvalidArgument)
	}

	users, err := s.users.Summaries(ctx, []string{requesterID, counterpartID})
	if err != nil {
		return nil, false, err
	}
	requester, counterpart := users[requesterID], users[counterpartID]
	if requester == nil || counterpart == nil {
		return nil, false, fmt.Errorf("user does not exist: %w", common.ErrNotFound)
	}

	pairKey := domain.PairKey(requesterID, counterpartID)
	existing, err := s.chatRepo.FindByPairKey(ctx, pairKey)
	switch {
	case err == nil:
		view, err := s.populateOne(ctx, existing)
		return view, false, err
	case !isNotFound(err):
		return nil, false, storageError("find chat", err)
	}

	now := time.Now().UTC()
	chat := &domain.Chat{
		ID:          uuid.Must(uuid.NewV7()).String(),
		Name:        requester.Name + " and " + counterpart.Name,
		IsGroupChat: false,
		UserAID:     requesterID,
		UserBID:     counterpartID,
		PairKey:     pairKey,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	inserted, err := s.chatRepo.CreateIfAbsent(ctx, chat)
	if err != nil {
		return nil, false, storageError("create chat", err)
	}
	if !inserted {
		// 동시 생성 경합: 먼저 생성된 대화를 반환
		winner, err := s.chatRepo.FindByPairKey(ctx, pairKey)
		if err != nil {
			return nil, false, storageError("find chat", err)
		}
		logger.GetLogger().Debug().Str("pair_key", pairKey).Msg("chat created concurrently, reusing")
		view, err := s.populateOne(ctx, winner)
		return view, false, err
	}

	created, err := s.chatRepo.FindByID(ctx, chat.ID)
	if err != nil {
		return nil, false, storageError("reload chat", err)
	}
	view, err := s.populateOne(ctx, created)
	return view, true, err
}

// ListForUser returns every chat the user participates in, most recently active first
func (s *chatService) ListForUser(ctx context.Context, userID string) ([]*domain.ChatView, error) {
	chats, err := s.chatRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, storageError("list chats", err)
	}
	return s.populate(ctx, chats)
}

// IsParticipant reports whether userID is a member of chatID. A missing chat is not an error.
func (s *chatService) IsParticipant(ctx context.Context, chatID, userID string) (bool, error) {
	if _, err := uuid.Parse(chatID); err != nil {
		return false, nil
	}
	chat, err := s.chatRepo.FindByID(ctx, chatID)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, storageError("find chat", err)
	}
	return chat.HasParticipant(userID), nil
}

func (s *chatService) CanJoin(ctx context.Context, userID, roomID string) (bool, error) {
	return s.IsParticipant(ctx, roomID, userID)
}

func (s *chatService) populateOne(ctx context.Context, chat *domain.Chat) (*domain.ChatView, error) {
	views, err := s.populate(ctx, []*domain.Chat{chat})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// populate attaches participant summaries and the latest message with two batched lookups
func (s *chatService) populate(ctx context.Context, chats []*domain.Chat) ([]*domain.ChatView, error) {
	views := make([]*domain.ChatView, 0, len(chats))
	if len(chats) == 0 {
		return views, nil
	}

	userIDs := make([]string, 0, len(chats)*2)
	messageIDs := make([]string, 0, len(chats))
	for _, c := range chats {
		userIDs = append(userIDs, c.UserAID, c.UserBID)
		if c.LatestMessageID != nil {
			messageIDs = append(messageIDs, *c.LatestMessageID)
		}
	}

	latest, err := s.messageRepo.FindByIDs(ctx, messageIDs)
	if err != nil {
		return nil, storageError("load latest messages", err)
	}
	latestByID := make(map[string]*domain.Message, len(latest))
	for _, m := range latest {
		latestByID[m.ID] = m
		userIDs = append(userIDs, m.SenderID)
	}

	users, err := s.users.Summaries(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	for _, c := range chats {
		view := &domain.ChatView{
			ID:          c.ID,
			Name:        c.Name,
			IsGroupChat: c.IsGroupChat,
			Users:       make([]*domain.UserSummary, 0, 2),
			CreatedAt:   c.CreatedAt,
			UpdatedAt:   c.UpdatedAt,
		}
		for _, id := range []string{c.UserAID, c.UserBID} {
			if u := users[id]; u != nil {
				view.Users = append(view.Users, u)
			}
		}
		if c.LatestMessageID != nil {
			if m := latestByID[*c.LatestMessageID]; m != nil {
				m.Sender = senderSummary(users[m.SenderID])
				view.LatestMessage = m
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// senderSummary trims a user summary to the fields embedded in messages
func senderSummary(u *domain.UserSummary) *domain.UserSummary {
	if u == nil {
		return nil
	}
	return &domain.UserSummary{ID: u.ID, Name: u.Name, ProfilePic: u.ProfilePic}
}
