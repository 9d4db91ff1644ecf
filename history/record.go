package history

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Record statuses. Success and error mirror the response status; failed
// means the pipeline returned no response at all.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusFailed  = "failed"
)

// Record is one transcription attempt.
type Record struct {
	ID           string    `gorm:"primaryKey;type:text" json:"id"`
	RequestID    string    `json:"request_id,omitempty"`
	FileName     string    `json:"file_name"`
	Provider     string    `json:"provider"`
	ModelID      string    `json:"model_id,omitempty"`
	Source       string    `json:"source,omitempty"`
	Status       string    `json:"status"`
	LanguageCode string    `json:"language_code,omitempty"`
	Segments     int       `json:"segments"`
	ExecTime     float64   `json:"exec_time"`
	AuditKey     string    `json:"audit_key,omitempty"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Record) TableName() string { return "transcriptions" }

func (r *Record) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
