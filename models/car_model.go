package models

import (
	"time"

	"github.com/google/uuid"
)

type HostType int

const (
	HostTypeOwned      HostType = 1
	HostTypeAttachment HostType = 2
)

type HostDetails struct {
	Name  string `gorm:"size:255" json:"name,omitempty"`
	Email string `gorm:"size:255" json:"email,omitempty"`
	Phone string `gorm:"size:50" json:"phone,omitempty"`
}

type Host struct {
	Type    HostType    `gorm:"default:1" json:"type"`
	Details HostDetails `gorm:"embedded;embeddedPrefix:details_" json:"details"`
}

// Car is owned by the catalog; orders only snapshot its name and slug.
type Car struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name   string    `gorm:"size:255;not null" json:"name"`
	Slug   string    `gorm:"size:255;uniqueIndex" json:"slug"`
	Host   Host      `gorm:"embedded;embeddedPrefix:host_" json:"host"`
	Active bool      `gorm:"default:true" json:"active"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HostEmail returns the address to copy on lifecycle emails, empty when the host is not external.
func (c *Car) HostEmail() string {
	if c.Host.Type != HostTypeAttachment {
		return ""
	}
	return c.Host.Details.Email
}
