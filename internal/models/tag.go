package models

import (
	"strings"
	"time"
)

// Tag names are stored normalized (trimmed, lowercased) and are unique; the
// database index is what makes concurrent find-or-create safe to retry.
type Tag struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Name      string     `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Documents []Document `gorm:"many2many:document_tags" json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NormalizeTagName maps a free-text tag name to its uniqueness key.
func NormalizeTagName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
