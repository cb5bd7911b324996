package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/damoang/angple-chat/internal/common"
	"github.com/damoang/angple-chat/internal/domain"
	"github.com/damoang/angple-chat/pkg/jwt"
	"github.com/damoang/angple-chat/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- Mock AvatarUploader ---

type mockUploader struct {
	mock.Mock
}

func (m *mockUploader) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	args := m.Called(ctx, key, body, contentType)
	return args.String(0), args.Error(1)
}

func (m *mockUploader) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func newAuthFixture(t *testing.T, uploader AvatarUploader) (*fixture, AuthService) {
	t.Helper()
	f := newFixture(t)
	svc := NewAuthService(f.userRepo, f.users, jwt.NewManager("test-secret", 15, 60), uploader)
	// 테스트 속도
	svc.(*authService).bcryptCost = bcrypt.MinCost
	return f, svc
}

func register(t *testing.T, svc AuthService, name, email string) *domain.AuthResponse {
	t.Helper()
	resp, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: "secret123",
	})
	require.NoError(t, err)
	return resp
}

func TestRegisterAndLogin(t *testing.T) {
	f, svc := newAuthFixture(t, nil)
	ctx := context.Background()

	resp := register(t, svc, "Alice", " Alice@Example.com ")
	assert.Equal(t, "alice@example.com", resp.User.Email)
	assert.Equal(t, domain.DefaultStatus, resp.User.Status)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	stored, err := f.userRepo.FindByID(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", stored.Password)
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, resp.RefreshToken, *stored.RefreshToken)

	_, err = svc.Register(ctx, &domain.RegisterRequest{Name: "Again", Email: "alice@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, common.ErrUserAlreadyExists)

	login, err := svc.Login(ctx, &domain.LoginRequest{Email: "ALICE@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)

	_, err = svc.Login(ctx, &domain.LoginRequest{Email: "alice@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)

	_, err = svc.Login(ctx, &domain.LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestRegister_BlankNameRejected(t *testing.T) {
	f, svc := newAuthFixture(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, &domain.RegisterRequest{Name: "   ", Email: "blank@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, common.ErrInvalidArgument)

	_, err = f.userRepo.FindByEmail(ctx, "blank@example.com")
	assert.Error(t, err)
}

func TestRegister_LogsUserID(t *testing.T) {
	_, svc := newAuthFixture(t, nil)

	var logs bytes.Buffer
	logger.SetOutput(&logs)
	defer logger.SetOutput(os.Stdout)

	resp := register(t, svc, " Alice ", "alice@example.com")
	assert.Equal(t, "Alice", resp.User.Name)
	assert.Contains(t, logs.String(), "user registered")
	assert.Contains(t, logs.String(), resp.User.ID)
}

func TestRefreshAndLogout(t *testing.T) {
	_, svc := newAuthFixture(t, nil)
	ctx := context.Background()
	resp := register(t, svc, "Alice", "alice@example.com")

	access, err := svc.Refresh(ctx, resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, access)

	// access token is not a refresh token
	_, err = svc.Refresh(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = svc.Refresh(ctx, "")
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	require.NoError(t, svc.Logout(ctx, resp.User.ID))
	_, err = svc.Refresh(ctx, resp.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestMe(t *testing.T) {
	_, svc := newAuthFixture(t, nil)
	resp := register(t, svc, "Alice", "alice@example.com")

	me, err := svc.Me(context.Background(), resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", me.Name)

	_, err = svc.Me(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUploadAvatar(t *testing.T) {
	uploader := new(mockUploader)
	f, svc := newAuthFixture(t, uploader)
	ctx := context.Background()
	resp := register(t, svc, "Alice", "alice@example.com")

	uploader.On("Upload", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, resp.User.ID+"/") && strings.HasSuffix(key, ".png")
	}), mock.Anything, "image/png").Return("https://cdn.example.com/avatars/a.png", nil).Once()

	user, err := svc.UploadAvatar(ctx, resp.User.ID, "me.PNG", "image/png", strings.NewReader("png"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/avatars/a.png", user.ProfilePic)

	stored, err := f.userRepo.FindByID(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ProfilePic, stored.ProfilePic)

	_, err = svc.UploadAvatar(ctx, resp.User.ID, "notes.txt", "text/plain", strings.NewReader("x"))
	assert.ErrorIs(t, err, common.ErrInvalidArgument)

	uploader.On("Upload", mock.Anything, mock.Anything, mock.Anything, "image/jpeg").
		Return("", errors.New("bucket gone")).Once()
	_, err = svc.UploadAvatar(ctx, resp.User.ID, "me.jpg", "image/jpeg", strings.NewReader("jpg"))
	assert.ErrorIs(t, err, common.ErrInternal)

	uploader.AssertExpectations(t)
}

func TestUploadAvatar_UnknownUserCleansUp(t *testing.T) {
	uploader := new(mockUploader)
	_, svc := newAuthFixture(t, uploader)

	uploader.On("Upload", mock.Anything, mock.Anything, mock.Anything, "image/png").
		Return("https://cdn.example.com/avatars/x.png", nil).Once()
	uploader.On("Delete", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "ghost/")
	})).Return(nil).Once()

	_, err := svc.UploadAvatar(context.Background(), "ghost", "x.png", "image/png", strings.NewReader("png"))
	assert.ErrorIs(t, err, common.ErrNotFound)
	uploader.AssertExpectations(t)
}

func TestUploadAvatarWithoutStorage(t *testing.T) {
	_, svc := newAuthFixture(t, nil)
	resp := register(t, svc, "Alice", "alice@example.com")

	_, err := svc.UploadAvatar(context.Background(), resp.User.ID, "me.png", "image/png", strings.NewReader("png"))
	assert.ErrorIs(t, err, common.ErrInternal)
}
