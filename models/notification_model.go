package models

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	ID      uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Type    string     `gorm:"size:50;not null" json:"type"`
	Title   string     `gorm:"size:255" json:"title"`
	Message string     `gorm:"type:text" json:"message"`
	OrderID *uuid.UUID `gorm:"type:uuid;index" json:"orderId,omitempty"`
	IsRead  bool       `gorm:"default:false" json:"isRead"`

	CreatedAt time.Time `json:"createdAt"`
}
