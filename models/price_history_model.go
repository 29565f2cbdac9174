package models

import (
	"time"

	"github.com/google/uuid"
)

// PriceHistory is append-only: rows are never updated.
type PriceHistory struct {
	ID         uuid.UUID   `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	OrderID    uuid.UUID   `gorm:"type:uuid;not null;index" json:"orderId"`
	Price      float64     `gorm:"type:numeric(10,2)" json:"price"`
	Action     string      `gorm:"size:50;not null" json:"action"`
	Status     OrderStatus `json:"status"`
	ModifiedBy *string     `gorm:"size:255" json:"modifiedBy,omitempty"`
	Note       *string     `gorm:"type:text" json:"note,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}
