package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TemplateActive   = "active"
	TemplateInactive = "inactive"
)

type SystemTemplate struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Slug         string    `gorm:"size:100;not null;uniqueIndex" json:"slug"`
	EmailSubject string    `gorm:"size:255" json:"emailSubject"`
	EmailContent string    `gorm:"type:text" json:"emailContent"`
	Status       string    `gorm:"size:20;not null;default:'active'" json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t *SystemTemplate) IsActive() bool {
	return t.Status == TemplateActive
}
