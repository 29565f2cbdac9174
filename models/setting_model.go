package models

import "time"

// Setting holds admin-managed configuration blobs. Sealed values are
// secretbox-encrypted JSON, hex encoded.
type Setting struct {
	Key       string    `gorm:"size:100;primary_key" json:"key"`
	Value     string    `gorm:"type:text" json:"-"`
	Sealed    bool      `gorm:"default:false" json:"sealed"`
	UpdatedAt time.Time `json:"updatedAt"`
}
