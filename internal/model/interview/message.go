package interview

import "time"

// Message roles. Multiple messages can share a timestamp, so the
// auto-increment ID is the authoritative conversation order.
const (
	RoleUser = "user"
	RoleAI   = "ai"
)

// Message persists a single interview turn. Messages are immutable once
// written.
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ChatID         string    `gorm:"not null;index" json:"chatId"`
	Role           string    `gorm:"size:16;not null" json:"role"`
	Body           string    `gorm:"column:message;type:text;not null" json:"message"`
	EmotionContext string    `gorm:"column:emotion_context;type:text" json:"emotionContext,omitempty"`
	Timestamp      time.Time `gorm:"autoCreateTime" json:"timestamp"`
}

func (Message) TableName() string { return "messages" }

// HasEmotionContext reports whether the message carries a usable emotion
// blob. Detectors send "{}" when nothing was recognized.
func (m Message) HasEmotionContext() bool {
	return m.EmotionContext != "" && m.EmotionContext != "{}"
}
