package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims is the payload carried by both access and refresh tokens
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_id"`
	Name      string `json:"name,omitempty"`
	TokenType string `json:"token_type"`
}

// Manager issues and verifies HMAC-signed tokens
type Manager struct {
	secretKey  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewManager creates a Manager. TTLs are given in minutes.
func NewManager(secret string, accessMinutes, refreshMinutes int) *Manager {
	return &Manager{
		secretKey:  []byte(secret),
		accessTTL:  time.Duration(accessMinutes) * time.Minute,
		refreshTTL: time.Duration(refreshMinutes) * time.Minute,
		now:        time.Now,
	}
}

// RefreshTTL is used for the refresh cookie max-age
func (m *Manager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

// GenerateAccessToken issues a short-lived access token
func (m *Manager) GenerateAccessToken(userID, name string) (string, error) {
	return m.sign(userID, name, TokenTypeAccess, m.accessTTL)
}

// GenerateRefreshToken issues a long-lived refresh token
func (m *Manager) GenerateRefreshToken(userID string) (string, error) {
	return m.sign(userID, "", TokenTypeRefresh, m.refreshTTL)
}

func (m *Manager) sign(userID, name, tokenType string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:    userID,
		Name:      name,
		TokenType: tokenType,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// VerifyToken verifies an access token
func (m *Manager) VerifyToken(tokenString string) (*Claims, error) {
	return m.verify(tokenString, TokenTypeAccess)
}

// VerifyRefreshToken verifies a refresh token
func (m *Manager) VerifyRefreshToken(tokenString string) (*Claims, error) {
	return m.verify(tokenString, TokenTypeRefresh)
}

func (m *Manager) verify(tokenString, tokenType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secretKey, nil
	}, jwt.WithTimeFunc(m.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	// 리프레시 토큰으로 API 호출 방지
	if claims.TokenType != tokenType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
