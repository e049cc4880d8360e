package post

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lumen-agency/site-core/internal/models"
	"github.com/lumen-agency/site-core/internal/pkg/pagination"
	"github.com/lumen-agency/site-core/internal/pkg/response"
	"gorm.io/gorm"
)

// ErrSlugTaken is returned when another post already uses the slug.
var ErrSlugTaken = errors.New("slug already exists")

// Service provides blog post data operations.
type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// List returns posts ordered by newest first. Anonymous callers only see
// published posts regardless of the status filter.
func (s *Service) List(q pagination.Query, lq ListQuery, isAdmin bool) ([]models.PostModel, response.Pagination, error) {
	tx := s.db.Model(&models.PostModel{}).Order(q.Order("created_at DESC", "created_at", "published_at", "title"))
	switch {
	case !isAdmin:
		tx = tx.Where("status = ?", models.PostStatusPublished)
	case lq.Status != nil && *lq.Status != "":
		tx = tx.Where("status = ?", *lq.Status)
	}
	if lq.Tag != nil && *lq.Tag != "" {
		tx = tx.Where("tags LIKE ?", `%"`+*lq.Tag+`"%`)
	}

	var posts []models.PostModel
	pag, err := pagination.Paginate(tx, q, &posts)
	return posts, pag, err
}

// ListPublished returns the id/slug/status of every published post.
func (s *Service) ListPublished(ctx context.Context) ([]models.ContentRef, error) {
	var refs []models.ContentRef
	err := s.db.WithContext(ctx).Model(&models.PostModel{}).
		Select("id", "slug", "status").
		Where("status = ?", models.PostStatusPublished).
		Order("published_at DESC, created_at DESC").
		Scan(&refs).Error
	return refs, err
}

// GetByIdentifier finds a post by id or slug. Non-admins only see published posts.
func (s *Service) GetByIdentifier(identifier string, isAdmin bool) (*models.PostModel, error) {
	tx := s.db.Where("id = ? OR slug = ?", identifier, identifier)
	if !isAdmin {
		tx = tx.Where("status = ?", models.PostStatusPublished)
	}
	var p models.PostModel
	if err := tx.First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (s *Service) GetByID(id string) (*models.PostModel, error) {
	var p models.PostModel
	if err := s.db.First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (s *Service) Create(dto *CreatePostDTO) (*models.PostModel, error) {
	slug := strings.TrimSpace(dto.Slug)
	if err := s.ensureSlugFree(slug, ""); err != nil {
		return nil, err
	}
	status := dto.Status
	if status == "" {
		status = models.PostStatusDraft
	}
	p := models.PostModel{
		Title:      dto.Title,
		Slug:       slug,
		Excerpt:    dto.Excerpt,
		Body:       dto.Body,
		CoverImage: dto.CoverImage,
		Status:     status,
		Tags:       models.NewStringArray(dto.Tags),
	}
	if status == models.PostStatusPublished {
		now := time.Now()
		p.PublishedAt = &now
	}
	if err := s.db.Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Service) Update(id string, dto *UpdatePostDTO) (*models.PostModel, error) {
	p, err := s.GetByID(id)
	if err != nil || p == nil {
		return p, err
	}

	updates := map[string]interface{}{}
	if dto.Slug != nil {
		slug := strings.TrimSpace(*dto.Slug)
		if err := s.ensureSlugFree(slug, id); err != nil {
			return nil, err
		}
		updates["slug"] = slug
	}
	if dto.Title != nil {
		updates["title"] = *dto.Title
	}
	if dto.Body != nil {
		updates["body"] = *dto.Body
	}
	if dto.Excerpt != nil {
		updates["excerpt"] = *dto.Excerpt
	}
	if dto.CoverImage != nil {
		updates["cover_image"] = *dto.CoverImage
	}
	if dto.Tags != nil {
		updates["tags"] = models.NewStringArray(dto.Tags)
	}
	if dto.Status != nil {
		updates["status"] = *dto.Status
		if *dto.Status == models.PostStatusPublished && p.PublishedAt == nil {
			updates["published_at"] = time.Now()
		}
	}
	if len(updates) == 0 {
		return p, nil
	}
	if err := s.db.Model(p).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

func (s *Service) Delete(id string) error {
	return s.db.Delete(&models.PostModel{}, "id = ?", id).Error
}

func (s *Service) ensureSlugFree(slug, exceptID string) error {
	var count int64
	tx := s.db.Model(&models.PostModel{}).Where("slug = ?", slug)
	if exceptID != "" {
		tx = tx.Where("id <> ?", exceptID)
	}
	if err := tx.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrSlugTaken
	}
	return nil
}
