package domain

import "time"

// Chat represents a one-to-one conversation (chats table).
// PairKey carries a unique index so that at most one chat exists per unordered user pair.
type Chat struct {
	ID              string    `gorm:"column:id;primaryKey;type:varchar(36)"`
	Name            string    `gorm:"column:name;type:varchar(255)"`
	IsGroupChat     bool      `gorm:"column:is_group_chat;default:false"`
	UserAID         string    `gorm:"column:user_a_id;type:varchar(36);index;not null"`
	UserBID         string    `gorm:"column:user_b_id;type:varchar(36);index;not null"`
	PairKey         string    `gorm:"column:pair_key;type:varchar(80);uniqueIndex;not null"`
	LatestMessageID *string   `gorm:"column:latest_message_id;type:varchar(36)"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at;index"`
}

func (Chat) TableName() string {
	return "chats"
}

// PairKey returns the order-independent key for two user ids
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

// HasParticipant reports whether userID is one of the two members
func (c *Chat) HasParticipant(userID string) bool {
	return userID != "" && (c.UserAID == userID || c.UserBID == userID)
}

// ChatView is a chat with participants and latest message populated
type ChatView struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	IsGroupChat   bool           `json:"isGroupChat"`
	Users         []*UserSummary `json:"users"`
	LatestMessage *Message       `json:"latestMessage"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// NewChatRequest represents a resolve-or-create request
type NewChatRequest struct {
	UserID string `json:"userId"`
}
