package service

import (
	"context"

	"github.com/damoang/angple-chat/internal/domain"
	"github.com/damoang/angple-chat/internal/repository"
	"github.com/damoang/angple-chat/pkg/cache"
	"github.com/damoang/angple-chat/pkg/logger"
)

// UserService exposes credential-free user projections
type UserService interface {
	Contacts(ctx context.Context, userID string) ([]*domain.UserSummary, error)
	Summaries(ctx context.Context, ids []string) (map[string]*domain.UserSummary, error)
	Invalidate(ctx context.Context, userID string)
}

type userService struct {
	repo  repository.UserRepository
	cache cache.Service
}

// NewUserService creates a new UserService. cacheService may be backed by a nil redis client.
func NewUserService(repo repository.UserRepository, cacheService cache.Service) UserService {
	if cacheService == nil {
		cacheService = cache.NewService(nil)
	}
	return &userService{repo: repo, cache: cacheService}
}

// Contacts returns every user except userID, ordered by name
func (s *userService) Contacts(ctx context.Context, userID string) ([]*domain.UserSummary, error) {
	var all []*domain.UserSummary
	if err := s.cache.GetContacts(ctx, &all); err != nil {
		// id <> "" matches everyone; the directory is shared by all callers
		users, err := s.repo.FindAllExcept(ctx, "")
		if err != nil {
			return nil, storageError("list contacts", err)
		}
		all = make([]*domain.UserSummary, 0, len(users))
		for _, u := range users {
			all = append(all, u.Summary())
		}
		if err := s.cache.SetContacts(ctx, all); err != nil {
			logger.GetLogger().Warn().Err(err).Msg("contacts cache write failed")
		}
	}

	contacts := make([]*domain.UserSummary, 0, len(all))
	for _, u := range all {
		if u.ID != userID {
			contacts = append(contacts, u)
		}
	}
	return contacts, nil
}

// Summaries resolves user ids to summaries. Unknown ids are absent from the result.
func (s *userService) Summaries(ctx context.Context, ids []string) (map[string]*domain.UserSummary, error) {
	out := make(map[string]*domain.UserSummary, len(ids))
	var missing []string
	for _, id := range ids {
		if _, seen := out[id]; seen || id == "" {
			continue
		}
		var summary domain.UserSummary
		if err := s.cache.GetUser(ctx, id, &summary); err == nil {
			out[id] = &summary
			continue
		}
		out[id] = nil
		missing = append(missing, id)
	}

	if len(missing) > 0 {
		users, err := s.repo.FindByIDs(ctx, missing)
		if err != nil {
			return nil, storageError("load users", err)
		}
		for _, u := range users {
			summary := u.Summary()
			out[u.ID] = summary
			if err := s.cache.SetUser(ctx, u.ID, summary); err != nil {
				logger.GetLogger().Warn().Err(err).Str("user_id", u.ID).Msg("user cache write failed")
			}
		}
	}

	for id, summary := range out {
		if summary == nil {
			delete(out, id)
		}
	}
	return out, nil
}

// Invalidate drops cached projections after a profile change or sign-up
func (s *userService) Invalidate(ctx context.Context, userID string) {
	if userID != "" {
		if err := s.cache.InvalidateUser(ctx, userID); err != nil {
			logger.GetLogger().Warn().Err(err).Str("user_id", userID).Msg("user cache invalidate failed")
		}
	}
	if err := s.cache.InvalidateContacts(ctx); err != nil {
		logger.GetLogger().Warn().Err(err).Msg("contacts cache invalidate failed")
	}
}
