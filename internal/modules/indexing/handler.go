package indexing

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lumen-agency/site-core/internal/models"
	"github.com/lumen-agency/site-core/internal/pkg/pagination"
	"github.com/lumen-agency/site-core/internal/pkg/response"
)

// Handler exposes the indexing service over HTTP. Every route is admin-only.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/indexing", authMW)

	g.POST("/token/refresh", h.refreshToken)
	g.POST("/inspect", h.inspect)
	g.POST("/submit", h.submit)
	g.GET("/health", h.health)
	g.GET("/urls", h.urls)

	g.GET("/status", h.listStatus)
	g.GET("/status/summary", h.statusSummary)
	g.GET("/status/lookup", h.getStatus)

	g.GET("/credential", h.getCredential)
	g.PUT("/credential", h.connect)
	g.DELETE("/credential", h.disconnect)
}

type submitDTO struct {
	URLs []string `json:"urls" binding:"required,min=1"`
}

type credentialResponse struct {
	ID             string     `json:"id"`
	ClientID       string     `json:"client_id"`
	SiteURL        string     `json:"site_url"`
	Scope          string     `json:"scope"`
	TokenExpiresAt *time.Time `json:"token_expires_at"`
	Created        time.Time  `json:"created"`
}

func toCredentialResponse(c *models.SearchConsoleCredential) credentialResponse {
	return credentialResponse{
		ID:             c.ID,
		ClientID:       c.ClientID,
		SiteURL:        c.SiteURL,
		Scope:          c.Scope,
		TokenExpiresAt: c.TokenExpiresAt,
		Created:        c.CreatedAt,
	}
}

// refreshToken POST /indexing/token/refresh[?force=true]
func (h *Handler) refreshToken(c *gin.Context) {
	force, _ := strconv.ParseBool(c.DefaultQuery("force", "false"))
	tok, err := h.svc.RefreshToken(c.Request.Context(), force)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, tok)
}

// inspect POST /indexing/inspect
func (h *Handler) inspect(c *gin.Context) {
	result, err := h.svc.InspectAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, result)
}

// submit POST /indexing/submit
func (h *Handler) submit(c *gin.Context) {
	var dto submitDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	result, err := h.svc.SubmitURLs(c.Request.Context(), dto.URLs)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, result)
}

// health GET /indexing/health
func (h *Handler) health(c *gin.Context) {
	report, err := h.svc.Health(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, gin.H{"healthy": report.Healthy(), "report": report})
}

// urls GET /indexing/urls
func (h *Handler) urls(c *gin.Context) {
	targets, err := h.svc.PreviewURLs(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, targets)
}

// listStatus GET /indexing/status?verdict=&page_type=
func (h *Handler) listStatus(c *gin.Context) {
	q := pagination.FromContext(c)
	var f StatusFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	rows, pag, err := h.svc.ListStatuses(c.Request.Context(), q, f)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, rows, pag)
}

// statusSummary GET /indexing/status/summary
func (h *Handler) statusSummary(c *gin.Context) {
	summary, err := h.svc.StatusSummary(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, summary)
}

// getStatus GET /indexing/status/lookup?url=
func (h *Handler) getStatus(c *gin.Context) {
	pageURL := c.Query("url")
	if pageURL == "" {
		response.BadRequest(c, "url is required")
		return
	}
	row, err := h.svc.GetStatus(c.Request.Context(), pageURL)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if row == nil {
		response.NotFoundMsg(c, "no status recorded for url")
		return
	}
	response.OK(c, row)
}

// getCredential GET /indexing/credential
func (h *Handler) getCredential(c *gin.Context) {
	cred, err := h.svc.Credential(c.Request.Context())
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			response.NotFoundMsg(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, toCredentialResponse(cred))
}

// connect PUT /indexing/credential
func (h *Handler) connect(c *gin.Context) {
	var in ConnectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	cred, err := h.svc.Connect(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, toCredentialResponse(cred))
}

// disconnect DELETE /indexing/credential
func (h *Handler) disconnect(c *gin.Context) {
	if err := h.svc.Disconnect(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	response.NoContent(c)
}

// writeError maps fatal run errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	var authErr *AuthError
	switch {
	case errors.Is(err, ErrNotConfigured), errors.Is(err, ErrDisabled), errors.Is(err, ErrMissingBaseURL):
		response.PreconditionFailed(c, err.Error())
	case errors.As(err, &authErr):
		response.BadGateway(c, err.Error())
	case errors.Is(err, ErrInvalidInput):
		response.BadRequest(c, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, err.Error())
	}
}
