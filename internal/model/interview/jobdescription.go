package interview

import "time"

// JobDescription holds the already-extracted text and skills of an uploaded
// JD. Extraction (PDF/OCR) happens upstream; this service only stores and
// references the result.
type JobDescription struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Username   string    `gorm:"index" json:"username"`
	Filename   string    `gorm:"not null" json:"filename"`
	Text       string    `gorm:"column:jd_text;type:text" json:"jdText,omitempty"`
	Skills     string    `gorm:"column:jd_skills;type:text" json:"jdSkills,omitempty"`
	UploadedAt time.Time `gorm:"autoCreateTime" json:"uploadedAt"`
}

func (JobDescription) TableName() string { return "job_descriptions" }
