package model

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the chat transcript. Messages are never mutated
// once appended. The gorm tags back the transcript audit table.
type Message struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	SessionID string    `gorm:"size:36;not null;index" json:"session_id"`
	Sender    Role      `gorm:"size:16;not null;index" json:"sender"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
}

func (Message) TableName() string {
	return "chat_transcript_messages"
}
