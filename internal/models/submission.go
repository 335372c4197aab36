package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultSubject = "New contact message"

// Submission is one accepted contact-form entry. Text fields hold the
// HTML-escaped values produced at ingestion time.
type Submission struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name          string    `gorm:"type:text;not null" json:"name"`
	Email         string    `gorm:"type:text;not null" json:"email"`
	Subject       string    `gorm:"type:text;not null" json:"subject"`
	Message       string    `gorm:"type:text;not null" json:"message"`
	ClientAddress string    `gorm:"not null" json:"client_address"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	Read          bool      `gorm:"not null;default:false;index" json:"read"`
}

func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (Submission) TableName() string {
	return "submissions"
}
