package models

import "time"

// Document belongs to exactly one user and carries an optional stored file.
// FilePath addresses a blob in the storage directory; it is empty for
// documents created without an upload.
type Document struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Title         string     `gorm:"size:255;not null" json:"title"`
	Category      string     `gorm:"size:100" json:"category,omitempty"`
	FilePath      string     `gorm:"size:500" json:"-"`
	FileType      string     `gorm:"size:50" json:"file_type,omitempty"`
	FileSize      int64      `json:"file_size,omitempty"`
	ExtractedText string     `gorm:"type:text" json:"extracted_text,omitempty"`
	DocumentDate  *time.Time `json:"document_date,omitempty"`
	UserID        uint       `gorm:"not null;index" json:"user_id"`
	User          User       `gorm:"foreignKey:UserID" json:"-"`
	Tags          []Tag      `gorm:"many2many:document_tags" json:"tags"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// HasFile reports whether a stored blob backs this document.
func (d *Document) HasFile() bool {
	return d.FilePath != ""
}
