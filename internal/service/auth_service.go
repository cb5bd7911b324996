package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/damoang/angple-chat/internal/common"
	"github.com/damoang/angple-chat/internal/domain"
	"github.com/damoang/angple-chat/internal/repository"
	"github.com/damoang/angple-chat/pkg/jwt"
	"github.com/damoang/angple-chat/pkg/logger"
	"github.com/damoang/angple-chat/pkg/storage"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AvatarUploader stores profile pictures. *storage.S3Client implements it.
type AvatarUploader interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// AuthService authentication business logic
type AuthService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, userID string) error
	Me(ctx context.Context, userID string) (*domain.UserSummary, error)
	UploadAvatar(ctx context.Context, userID, filename, contentType string, body io.Reader) (*domain.UserSummary, error)
}

type authService struct {
	userRepo   repository.UserRepository
	users      UserService
	jwtManager *jwt.Manager
	uploader   AvatarUploader
	bcryptCost int
}

// NewAuthService creates a new AuthService. uploader may be nil when object storage is not configured.
func NewAuthService(userRepo repository.UserRepository, users UserService, jwtManager *jwt.Manager, uploader AvatarUploader) AuthService {
	return &authService{
		userRepo:   userRepo,
		users:      users,
		jwtManager: jwtManager,
		uploader:   uploader,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// Register creates an account and signs the user in
func (s *authService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("name is blank: %w", common.ErrInvalidArgument)
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, common.ErrUserAlreadyExists
	} else if !isNotFound(err) {
		return nil, storageError("find user", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:         uuid.Must(uuid.NewV7()).String(),
		Name:       name,
		Email:      email,
		Password:   string(hashed),
		ProfilePic: req.ProfilePic,
		Status:     domain.DefaultStatus,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// 동시 가입 경합: email unique 위반
		if _, findErr := s.userRepo.FindByEmail(ctx, email); findErr == nil {
			return nil, common.ErrUserAlreadyExists
		}
		return nil, storageError("create user", err)
	}

	// new contact for everyone else
	s.users.Invalidate(ctx, "")
	userLog := logger.WithUserID(user.ID)
	userLog.Info().Msg("user registered")

	return s.issueTokens(ctx, user)
}

// Login verifies credentials and issues a fresh token pair
func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if isNotFound(err) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, storageError("find user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, common.ErrInvalidCredentials
	}

	return s.issueTokens(ctx, user)
}

// Refresh exchanges the stored refresh token for a new access token
func (s *authService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", common.ErrUnauthorized
	}

	claims, err := s.jwtManager.VerifyRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrExpiredToken) {
			return "", common.ErrExpiredToken
		}
		return "", common.ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if isNotFound(err) {
			return "", common.ErrInvalidToken
		}
		return "", storageError("find user", err)
	}

	// 로그아웃 또는 재로그인으로 교체된 토큰 거부
	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		return "", common.ErrInvalidToken
	}

	return s.jwtManager.GenerateAccessToken(user.ID, user.Name)
}

// Logout revokes the stored refresh token
func (s *authService) Logout(ctx context.Context, userID string) error {
	if err := s.userRepo.UpdateRefreshToken(ctx, userID, nil); err != nil {
		if isNotFound(err) {
			return common.ErrNotFound
		}
		return storageError("clear refresh token", err)
	}
	return nil
}

// Me returns the caller's profile
func (s *authService) Me(ctx context.Context, userID string) (*domain.UserSummary, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, common.ErrNotFound
		}
		return nil, storageError("find user", err)
	}
	return user.Summary(), nil
}

// UploadAvatar stores a new profile picture and points the user at it
func (s *authService) UploadAvatar(ctx context.Context, userID, filename, contentType string, body io.Reader) (*domain.UserSummary, error) {
	if s.uploader == nil {
		return nil, fmt.Errorf("avatar storage is not configured: %w", common.ErrInternal)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("avatar must be an image: %w", common.ErrInvalidArgument)
	}

	key := storage.AvatarKey(userID, filename)
	url, err := s.uploader.Upload(ctx, key, body, contentType)
	if err != nil {
		logger.GetLogger().Error().Err(err).Str("user_id", userID).Msg("avatar upload failed")
		return nil, fmt.Errorf("upload avatar: %w", common.ErrInternal)
	}

	if err := s.userRepo.UpdateProfilePic(ctx, userID, url); err != nil {
		// 프로필에 연결되지 않은 객체 정리
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			logger.GetLogger().Warn().Err(delErr).Str("key", key).Msg("orphaned avatar cleanup failed")
		}
		if isNotFound(err) {
			return nil, common.ErrNotFound
		}
		return nil, storageError("update profile picture", err)
	}
	s.users.Invalidate(ctx, userID)

	return s.Me(ctx, userID)
}

func (s *authService) issueTokens(ctx context.Context, user *domain.User) (*domain.AuthResponse, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Name)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateRefreshToken(ctx, user.ID, &refreshToken); err != nil {
		return nil, storageError("store refresh token", err)
	}

	return &domain.AuthResponse{
		User:         user.Summary(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
