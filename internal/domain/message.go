package domain

import "time"

// Message represents a chat message (messages table). Immutable once created.
type Message struct {
	ID        string       `gorm:"column:id;primaryKey;type:varchar(36)" json:"id"`
	ChatID    string       `gorm:"column:chat_id;type:varchar(36);not null;index:idx_messages_chat_created,priority:1" json:"chatId"`
	SenderID  string       `gorm:"column:sender_id;type:varchar(36);not null" json:"senderId"`
	Content   string       `gorm:"column:content;type:text;not null" json:"content"`
	CreatedAt time.Time    `gorm:"column:created_at;index:idx_messages_chat_created,priority:2" json:"createdAt"`
	Sender    *UserSummary `gorm:"-" json:"sender,omitempty"`
}

func (Message) TableName() string {
	return "messages"
}

// SendMessageRequest represents a send message request
type SendMessageRequest struct {
	Content string `json:"content"`
}
