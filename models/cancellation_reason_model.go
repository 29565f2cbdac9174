package models

import (
	"time"

	"github.com/google/uuid"
)

type CancellationReason struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Reason string    `gorm:"size:255;not null" json:"reason"`
	Active bool      `gorm:"default:true" json:"active"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
