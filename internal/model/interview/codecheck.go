package interview

import "time"

// CodeCheck is the audit record of one coding-round evaluation, including
// the raw LLM verdict JSON.
type CodeCheck struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Username   string    `gorm:"index" json:"username"`
	Language   string    `gorm:"size:32" json:"language"`
	Question   string    `gorm:"column:question_context;type:text" json:"question"`
	Code       string    `gorm:"type:text" json:"code"`
	ResultJSON string    `gorm:"column:result_json;type:text" json:"resultJson"`
	Passed     bool      `json:"passed"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (CodeCheck) TableName() string { return "code_checks" }
