package interview

import "time"

// ScoreType is an independent scoring dimension, each recorded at most once
// per chat.
type ScoreType string

const (
	ScoreTechnical ScoreType = "technical"
	ScoreEmotional ScoreType = "emotional"
	ScoreCode      ScoreType = "code"
)

// Valid reports whether t is one of the known dimensions.
func (t ScoreType) Valid() bool {
	switch t {
	case ScoreTechnical, ScoreEmotional, ScoreCode:
		return true
	}
	return false
}

// EvaluationScore is a single 0-10 score for one dimension of one chat.
// The composite unique index makes concurrent insert-if-absent writes
// collapse into a single surviving row.
type EvaluationScore struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ChatID    string    `gorm:"not null;uniqueIndex:idx_chat_score_type" json:"chatId"`
	Username  string    `gorm:"not null;index" json:"username"`
	ScoreType ScoreType `gorm:"size:16;not null;uniqueIndex:idx_chat_score_type" json:"scoreType"`
	Value     float64   `gorm:"column:score_value;not null" json:"scoreValue"`
	Timestamp time.Time `gorm:"autoCreateTime" json:"timestamp"`
}

func (EvaluationScore) TableName() string { return "evaluation_scores" }
