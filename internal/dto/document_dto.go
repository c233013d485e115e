package dto

import (
	"time"

	"docmanager/internal/models"
)

type CreateDocumentRequest struct {
	Title         string   `json:"title" validate:"required,max=255"`
	Category      string   `json:"category" validate:"omitempty,max=100"`
	ExtractedText string   `json:"extracted_text" validate:"omitempty"`
	DocumentDate  string   `json:"document_date" validate:"omitempty,datetime=2006-01-02"`
	Tags          []string `json:"tags" validate:"omitempty,dive,max=100"`
}

// UpdateDocumentRequest distinguishes "leave tags alone" (field absent) from
// "clear all tags" (empty array) via the pointer.
type UpdateDocumentRequest struct {
	Title         string    `json:"title" validate:"required,max=255"`
	Category      string    `json:"category" validate:"omitempty,max=100"`
	ExtractedText string    `json:"extracted_text" validate:"omitempty"`
	DocumentDate  string    `json:"document_date" validate:"omitempty,datetime=2006-01-02"`
	Tags          *[]string `json:"tags" validate:"omitempty,dive,max=100"`
}

type DocumentResponse struct {
	ID            uint       `json:"id"`
	Title         string     `json:"title"`
	Category      string     `json:"category,omitempty"`
	FileType      string     `json:"file_type,omitempty"`
	FileSize      int64      `json:"file_size,omitempty"`
	HasFile       bool       `json:"has_file"`
	ExtractedText string     `json:"extracted_text,omitempty"`
	DocumentDate  *time.Time `json:"document_date,omitempty"`
	UserID        uint       `json:"user_id"`
	Tags          []string   `json:"tags"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func DocumentFromModel(d *models.Document) DocumentResponse {
	tags := make([]string, 0, len(d.Tags))
	for _, t := range d.Tags {
		tags = append(tags, t.Name)
	}
	return DocumentResponse{
		ID:            d.ID,
		Title:         d.Title,
		Category:      d.Category,
		FileType:      d.FileType,
		FileSize:      d.FileSize,
		HasFile:       d.HasFile(),
		ExtractedText: d.ExtractedText,
		DocumentDate:  d.DocumentDate,
		UserID:        d.UserID,
		Tags:          tags,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func DocumentsFromModels(docs []models.Document) []DocumentResponse {
	out := make([]DocumentResponse, 0, len(docs))
	for i := range docs {
		out = append(out, DocumentFromModel(&docs[i]))
	}
	return out
}

type DocumentStatsResponse struct {
	TotalDocuments int64 `json:"total_documents"`
	TotalFileSize  int64 `json:"total_file_size"`
}
