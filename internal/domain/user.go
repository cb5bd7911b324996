package domain

import "time"

// DefaultStatus is assigned to users who never set a status text
const DefaultStatus = "Hey there! I am using ChatApp"

// User represents a registered account (users table)
type User struct {
	ID           string    `gorm:"column:id;primaryKey;type:varchar(36)" json:"id"`
	Name         string    `gorm:"column:name;type:varchar(100);not null" json:"name"`
	Email        string    `gorm:"column:email;type:varchar(255);uniqueIndex;not null" json:"email"`
	Password     string    `gorm:"column:password;type:varchar(255);not null" json:"-"`
	ProfilePic   string    `gorm:"column:profile_pic;type:varchar(500)" json:"profilePic"`
	Status       string    `gorm:"column:status;type:varchar(255)" json:"status"`
	RefreshToken *string   `gorm:"column:refresh_token;type:text" json:"-"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// UserSummary is the credential-free projection embedded in chats, messages and contacts
type UserSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	ProfilePic string `json:"profilePic"`
	Status     string `json:"status,omitempty"`
}

// Summary converts User to UserSummary
func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		ProfilePic: u.ProfilePic,
		Status:     u.Status,
	}
}

// RegisterRequest represents a sign-up request
type RegisterRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	Email      string `json:"email" validate:"required,email,max=255"`
	Password   string `json:"password" validate:"required,min=6,max=72"`
	ProfilePic string `json:"profilePic" validate:"omitempty,url,max=500"`
}

// LoginRequest represents a sign-in request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by register/login
type AuthResponse struct {
	User         *UserSummary `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"-"`
}
