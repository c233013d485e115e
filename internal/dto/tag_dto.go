package dto

import (
	"time"

	"docmanager/internal/models"
)

type CreateTagRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type UpdateTagRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type TagResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func TagFromModel(t *models.Tag) TagResponse {
	return TagResponse{ID: t.ID, Name: t.Name, CreatedAt: t.CreatedAt}
}

func TagsFromModels(tags []models.Tag) []TagResponse {
	out := make([]TagResponse, 0, len(tags))
	for i := range tags {
		out = append(out, TagFromModel(&tags[i]))
	}
	return out
}

type TagStatsResponse struct {
	TotalTags  int64 `json:"total_tags"`
	UsedTags   int64 `json:"used_tags"`
	UnusedTags int64 `json:"unused_tags"`
}
