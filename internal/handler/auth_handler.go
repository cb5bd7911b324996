package handler

import (
	"errors"
	"net/http"

	"github.com/damoang/angple-chat/internal/common"
	"github.com/damoang/angple-chat/internal/domain"
	"github.com/damoang/angple-chat/internal/middleware"
	"github.com/damoang/angple-chat/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const (
	refreshCookieName = "refreshToken"
	maxAvatarSize     = 5 << 20
)

var requestValidator = validator.New()

// AuthHandler handles authentication requests
type AuthHandler struct {
	service      service.AuthService
	refreshTTL   int // seconds
	secureCookie bool
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service service.AuthService, refreshTTLSeconds int, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		service:      service,
		refreshTTL:   refreshTTLSeconds,
		secureCookie: secureCookie,
	}
}

// Register handles POST /api/auth/register
// @Summary 회원가입
// @Description 계정을 만들고 access token을 발급합니다 (refresh token은 cookie)
// @Tags auth
// @Accept json
// @Produce json
// @Param request body domain.RegisterRequest true "가입 정보"
// @Success 201 {object} domain.AuthResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := requestValidator.Struct(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Please fill all the fields correctly", err)
		return
	}

	resp, err := h.service.Register(c.Request.Context(), &req)
	if errors.Is(err, common.ErrUserAlreadyExists) {
		common.ErrorResponse(c, http.StatusBadRequest, "User already exists", err)
		return
	}
	if err != nil {
		common.ServiceError(c, "Registration failed", err)
		return
	}

	h.setRefreshTokenCookie(c, resp.RefreshToken)
	c.JSON(http.StatusCreated, resp)
}

// Login handles POST /api/auth/login
// refresh token은 httpOnly Cookie로, access token은 body로
// @Summary 로그인
// @Tags auth
// @Accept json
// @Produce json
// @Param request body domain.LoginRequest true "로그인 정보"
// @Success 200 {object} domain.AuthResponse
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := requestValidator.Struct(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Email and password are required", err)
		return
	}

	resp, err := h.service.Login(c.Request.Context(), &req)
	if errors.Is(err, common.ErrInvalidCredentials) {
		common.ErrorResponse(c, http.StatusUnauthorized, "Invalid email or password", err)
		return
	}
	if err != nil {
		common.ServiceError(c, "Login failed", err)
		return
	}

	h.setRefreshTokenCookie(c, resp.RefreshToken)
	c.JSON(http.StatusOK, resp)
}

// Refresh handles POST /api/auth/refresh
// @Summary 토큰 재발급
// @Description refreshToken cookie로 새 token pair를 발급합니다
// @Tags auth
// @Produce json
// @Success 200 {object} domain.AuthResponse
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshCookieName)
	if err != nil || refreshToken == "" {
		common.ErrorResponse(c, http.StatusUnauthorized, "Refresh token not found", common.ErrUnauthorized)
		return
	}

	accessToken, err := h.service.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrInvalidToken) || errors.Is(err, common.ErrExpiredToken) {
			h.clearRefreshTokenCookie(c)
		}
		common.ServiceError(c, "Invalid refresh token", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"accessToken": accessToken})
}

// Me handles GET /api/auth/user
// @Summary 내 정보 조회
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Security BearerAuth
// @Router /api/auth/user [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.service.Me(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		common.ServiceError(c, "User not found", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Logout handles POST /api/auth/logout
// @Summary 로그아웃
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Security BearerAuth
// @Router /api/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		common.ServiceError(c, "Logout failed", err)
		return
	}
	h.clearRefreshTokenCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// UploadAvatar handles POST /api/auth/avatar (multipart field "file")
// @Summary 프로필 이미지 업로드
// @Tags auth
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "이미지 (최대 5MB)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Security BearerAuth
// @Router /api/auth/avatar [post]
func (h *AuthHandler) UploadAvatar(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "File is required", err)
		return
	}
	if fileHeader.Size > maxAvatarSize {
		common.ErrorResponse(c, http.StatusBadRequest, "File is too large (max 5MB)", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Could not read file", err)
		return
	}
	defer file.Close()

	user, err := h.service.UploadAvatar(c.Request.Context(),
		middleware.GetUserID(c), fileHeader.Filename, fileHeader.Header.Get("Content-Type"), file)
	if err != nil {
		common.ServiceError(c, "Avatar upload failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// setRefreshTokenCookie sets refresh token as httpOnly cookie
func (h *AuthHandler) setRefreshTokenCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookieName, token, h.refreshTTL, "/", "", h.secureCookie, true)
}

// clearRefreshTokenCookie removes refresh token cookie
func (h *AuthHandler) clearRefreshTokenCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookieName, "", -1, "/", "", h.secureCookie, true)
}
