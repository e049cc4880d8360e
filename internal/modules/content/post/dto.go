package post

import (
	"time"

	"github.com/lumen-agency/site-core/internal/models"
)

// CreatePostDTO is the request body for creating a post.
type CreatePostDTO struct {
	Slug       string   `json:"slug"        binding:"required"`
	Title      string   `json:"title"       binding:"required"`
	Body       string   `json:"body"`
	Excerpt    string   `json:"excerpt"`
	CoverImage string   `json:"cover_image"`
	Status     string   `json:"status"      binding:"omitempty,oneof=draft published archived"`
	Tags       []string `json:"tags"`
}

// UpdatePostDTO is the request body for updating a post (all fields optional).
type UpdatePostDTO struct {
	Slug       *string  `json:"slug"`
	Title      *string  `json:"title"`
	Body       *string  `json:"body"`
	Excerpt    *string  `json:"excerpt"`
	CoverImage *string  `json:"cover_image"`
	Status     *string  `json:"status"      binding:"omitempty,oneof=draft published archived"`
	Tags       []string `json:"tags"`
}

// ListQuery holds query params for listing posts.
type ListQuery struct {
	Status *string `form:"status"`
	Tag    *string `form:"tag"`
}

// postResponse is the API response shape for a post.
type postResponse struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Excerpt     string     `json:"excerpt"`
	Body        string     `json:"body,omitempty"`
	CoverImage  string     `json:"cover_image"`
	Status      string     `json:"status"`
	PublishedAt *time.Time `json:"published_at"`
	Tags        []string   `json:"tags"`
	Created     time.Time  `json:"created"`
	Modified    time.Time  `json:"modified"`
}

func toResponse(p *models.PostModel) postResponse {
	tags := []string(p.Tags)
	if tags == nil {
		tags = []string{}
	}
	return postResponse{
		ID:          p.ID,
		Slug:        p.Slug,
		Title:       p.Title,
		Excerpt:     p.Excerpt,
		Body:        p.Body,
		CoverImage:  p.CoverImage,
		Status:      p.Status,
		PublishedAt: p.PublishedAt,
		Tags:        tags,
		Created:     p.CreatedAt,
		Modified:    p.UpdatedAt,
	}
}
