package post

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/lumen-agency/site-core/internal/middleware"
	"github.com/lumen-agency/site-core/internal/pkg/pagination"
	"github.com/lumen-agency/site-core/internal/pkg/response"
)

// Handler handles post HTTP requests.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts post routes onto the given router group. optionalAuth
// marks admin callers on public routes without rejecting anonymous ones.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, optionalAuth gin.HandlerFunc) {
	posts := rg.Group("/posts", optionalAuth)

	posts.GET("", h.list)
	posts.GET("/:identifier", h.get)

	authed := posts.Group("", authMW)
	authed.POST("", h.create)
	authed.PUT("/:identifier", h.update)
	authed.DELETE("/:identifier", h.delete)
}

// list GET /posts
func (h *Handler) list(c *gin.Context) {
	q := pagination.FromContext(c)

	var lq ListQuery
	if err := c.ShouldBindQuery(&lq); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	posts, pag, err := h.svc.List(q, lq, middleware.IsAuthenticated(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}

	items := make([]postResponse, len(posts))
	for i := range posts {
		items[i] = toResponse(&posts[i])
		items[i].Body = ""
	}
	response.Paged(c, items, pag)
}

// get GET /posts/:identifier (id or slug)
func (h *Handler) get(c *gin.Context) {
	post, err := h.svc.GetByIdentifier(c.Param("identifier"), middleware.IsAuthenticated(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if post == nil {
		response.NotFoundMsg(c, "post not found")
		return
	}
	response.OK(c, toResponse(post))
}

// create POST /posts
func (h *Handler) create(c *gin.Context) {
	var dto CreatePostDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	post, err := h.svc.Create(&dto)
	if err != nil {
		if errors.Is(err, ErrSlugTaken) {
			response.Conflict(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Created(c, toResponse(post))
}

// update PUT /posts/:identifier
func (h *Handler) update(c *gin.Context) {
	var dto UpdatePostDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	post, err := h.svc.Update(c.Param("identifier"), &dto)
	if err != nil {
		if errors.Is(err, ErrSlugTaken) {
			response.Conflict(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	if post == nil {
		response.NotFoundMsg(c, "post not found")
		return
	}
	response.OK(c, toResponse(post))
}

// delete DELETE /posts/:identifier
func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("identifier")); err != nil {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}
