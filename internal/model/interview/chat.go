package interview

import "time"

// Chat is one interview conversation instance.
//
// LastActivity is touched on every message exchange or code submission and
// is used for dashboard ordering only, never for correctness.
type Chat struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"index" json:"username"`
	JDID         *uint     `gorm:"column:jd_id" json:"jdId,omitempty"`
	StartedAt    time.Time `json:"startedAt"`
	LastActivity time.Time `json:"lastActivity"`
}

// TableName keeps the historical table name.
func (Chat) TableName() string { return "chats" }
