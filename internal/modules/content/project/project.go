package project

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lumen-agency/site-core/internal/middleware"
	"github.com/lumen-agency/site-core/internal/models"
	"github.com/lumen-agency/site-core/internal/pkg/pagination"
	"github.com/lumen-agency/site-core/internal/pkg/response"
	"gorm.io/gorm"
)

var ErrSlugTaken = errors.New("slug already exists")

type CreateProjectDTO struct {
	Title      string   `json:"title"       binding:"required"`
	Slug       string   `json:"slug"        binding:"required"`
	Client     string   `json:"client"`
	Summary    string   `json:"summary"`
	Body       string   `json:"body"`
	ProjectURL string   `json:"project_url"`
	Images     []string `json:"images"`
	Status     string   `json:"status"      binding:"omitempty,oneof=draft active archived"`
	SortOrder  int      `json:"sort_order"`
}

type UpdateProjectDTO struct {
	Title      *string  `json:"title"`
	Slug       *string  `json:"slug"`
	Client     *string  `json:"client"`
	Summary    *string  `json:"summary"`
	Body       *string  `json:"body"`
	ProjectURL *string  `json:"project_url"`
	Images     []string `json:"images"`
	Status     *string  `json:"status"      binding:"omitempty,oneof=draft active archived"`
	SortOrder  *int     `json:"sort_order"`
}

type projectResponse struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	Client     string    `json:"client"`
	Summary    string    `json:"summary"`
	Body       string    `json:"body"`
	ProjectURL string    `json:"project_url"`
	Images     []string  `json:"images"`
	Status     string    `json:"status"`
	SortOrder  int       `json:"sort_order"`
	Created    time.Time `json:"created"`
	Modified   time.Time `json:"modified"`
}

func toResponse(p *models.ProjectModel) projectResponse {
	images := []string(p.Images)
	if images == nil {
		images = []string{}
	}
	return projectResponse{
		ID: p.ID, Title: p.Title, Slug: p.Slug, Client: p.Client,
		Summary: p.Summary, Body: p.Body, ProjectURL: p.ProjectURL,
		Images: images, Status: p.Status, SortOrder: p.SortOrder,
		Created: p.CreatedAt, Modified: p.UpdatedAt,
	}
}

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) List(q pagination.Query, isAdmin bool) ([]models.ProjectModel, response.Pagination, error) {
	tx := s.db.Model(&models.ProjectModel{}).Order(q.Order("sort_order ASC, created_at DESC", "sort_order", "created_at", "title"))
	if !isAdmin {
		tx = tx.Where("status = ?", models.ProjectStatusActive)
	}
	var items []models.ProjectModel
	pag, err := pagination.Paginate(tx, q, &items)
	return items, pag, err
}

// ListActive returns the id/slug/status of every active project.
func (s *Service) ListActive(ctx context.Context) ([]models.ContentRef, error) {
	var refs []models.ContentRef
	err := s.db.WithContext(ctx).Model(&models.ProjectModel{}).
		Select("id", "slug", "status").
		Where("status = ?", models.ProjectStatusActive).
		Order("sort_order ASC, created_at DESC").
		Scan(&refs).Error
	return refs, err
}

func (s *Service) GetByIdentifier(identifier string, isAdmin bool) (*models.ProjectModel, error) {
	tx := s.db.Where("id = ? OR slug = ?", identifier, identifier)
	if !isAdmin {
		tx = tx.Where("status = ?", models.ProjectStatusActive)
	}
	var p models.ProjectModel
	if err := tx.First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (s *Service) Create(dto *CreateProjectDTO) (*models.ProjectModel, error) {
	slug := strings.TrimSpace(dto.Slug)
	if err := s.ensureSlugFree(slug, ""); err != nil {
		return nil, err
	}
	status := dto.Status
	if status == "" {
		status = models.ProjectStatusDraft
	}
	p := models.ProjectModel{
		Title: dto.Title, Slug: slug, Client: dto.Client, Summary: dto.Summary,
		Body: dto.Body, ProjectURL: dto.ProjectURL, Images: models.NewStringArray(dto.Images),
		Status: status, SortOrder: dto.SortOrder,
	}
	return &p, s.db.Create(&p).Error
}

func (s *Service) Update(id string, dto *UpdateProjectDTO) (*models.ProjectModel, error) {
	p, err := s.GetByIdentifier(id, true)
	if err != nil || p == nil {
		return p, err
	}
	updates := map[string]interface{}{}
	if dto.Title != nil {
		updates["title"] = *dto.Title
	}
	if dto.Slug != nil {
		slug := strings.TrimSpace(*dto.Slug)
		if err := s.ensureSlugFree(slug, p.ID); err != nil {
			return nil, err
		}
		updates["slug"] = slug
	}
	if dto.Client != nil {
		updates["client"] = *dto.Client
	}
	if dto.Summary != nil {
		updates["summary"] = *dto.Summary
	}
	if dto.Body != nil {
		updates["body"] = *dto.Body
	}
	if dto.ProjectURL != nil {
		updates["project_url"] = *dto.ProjectURL
	}
	if dto.Images != nil {
		updates["images"] = models.NewStringArray(dto.Images)
	}
	if dto.Status != nil {
		updates["status"] = *dto.Status
	}
	if dto.SortOrder != nil {
		updates["sort_order"] = *dto.SortOrder
	}
	if len(updates) == 0 {
		return p, nil
	}
	if err := s.db.Model(p).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetByIdentifier(p.ID, true)
}

func (s *Service) Delete(id string) error {
	return s.db.Delete(&models.ProjectModel{}, "id = ?", id).Error
}

func (s *Service) ensureSlugFree(slug, exceptID string) error {
	var count int64
	tx := s.db.Model(&models.ProjectModel{}).Where("slug = ?", slug)
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

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, optionalAuth gin.HandlerFunc) {
	g := rg.Group("/projects", optionalAuth)
	g.GET("", h.list)
	g.GET("/:identifier", h.get)

	a := g.Group("", authMW)
	a.POST("", h.create)
	a.PUT("/:identifier", h.update)
	a.DELETE("/:identifier", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	q := pagination.FromContext(c)
	items, pag, err := h.svc.List(q, middleware.IsAuthenticated(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	out := make([]projectResponse, len(items))
	for i := range items {
		out[i] = toResponse(&items[i])
	}
	response.Paged(c, out, pag)
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.svc.GetByIdentifier(c.Param("identifier"), middleware.IsAuthenticated(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if p == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, toResponse(p))
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateProjectDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	p, err := h.svc.Create(&dto)
	if err != nil {
		if errors.Is(err, ErrSlugTaken) {
			response.Conflict(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Created(c, toResponse(p))
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateProjectDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	p, err := h.svc.Update(c.Param("identifier"), &dto)
	if err != nil {
		if errors.Is(err, ErrSlugTaken) {
			response.Conflict(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	if p == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, toResponse(p))
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("identifier")); err != nil {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}
