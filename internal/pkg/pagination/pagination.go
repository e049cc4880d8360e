package pagination

import (
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lumen-agency/site-core/internal/pkg/response"
	"gorm.io/gorm"
)

const (
	DefaultPage = 1
	DefaultSize = 10
	MaxSize     = 100
)

// Query holds parsed pagination and sort parameters. SortBy is untrusted
// input; pass it through Order before it reaches SQL.
type Query struct {
	Page   int
	Size   int
	SortBy string
	Asc    bool
}

// FromContext reads page, size, sort_by and sort_order from the query
// string, clamping page and size into range.
func FromContext(c *gin.Context) Query {
	q := Query{
		Page:   parseIntOr(c.Query("page"), DefaultPage),
		Size:   parseIntOr(c.Query("size"), DefaultSize),
		SortBy: strings.TrimSpace(c.Query("sort_by")),
		Asc:    strings.EqualFold(c.Query("sort_order"), "asc"),
	}
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Size < 1 {
		q.Size = DefaultSize
	}
	if q.Size > MaxSize {
		q.Size = MaxSize
	}
	return q
}

// Order returns the ORDER BY clause for q.SortBy when it names one of
// allowed, or fallback otherwise.
func (q Query) Order(fallback string, allowed ...string) string {
	if q.SortBy == "" || !slices.Contains(allowed, q.SortBy) {
		return fallback
	}
	if q.Asc {
		return q.SortBy + " ASC"
	}
	return q.SortBy + " DESC"
}

// Paginate counts the rows matched by db, then loads page q into dest.
func Paginate[T any](db *gorm.DB, q Query, dest *[]T) (response.Pagination, error) {
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return response.Pagination{}, err
	}

	if err := db.Offset((q.Page - 1) * q.Size).Limit(q.Size).Find(dest).Error; err != nil {
		return response.Pagination{}, err
	}

	totalPage := int((total + int64(q.Size) - 1) / int64(q.Size))
	return response.Pagination{
		Total:       total,
		CurrentPage: q.Page,
		TotalPage:   totalPage,
		Size:        q.Size,
		HasNextPage: q.Page < totalPage,
	}, nil
}

func parseIntOr(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
