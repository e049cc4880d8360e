package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		query string
		want  Query
	}{
		{query: "", want: Query{Page: 1, Size: DefaultSize}},
		{query: "?page=3&size=20", want: Query{Page: 3, Size: 20}},
		{query: "?page=-1&size=0", want: Query{Page: 1, Size: DefaultSize}},
		{query: "?page=abc&size=1000", want: Query{Page: 1, Size: MaxSize}},
		{query: "?sort_by=url&sort_order=ASC", want: Query{Page: 1, Size: DefaultSize, SortBy: "url", Asc: true}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/"+tt.query, nil)
			assert.Equal(t, tt.want, FromContext(c))
		})
	}
}

func TestOrder(t *testing.T) {
	const fallback = "created_at DESC"
	assert.Equal(t, fallback, Query{}.Order(fallback, "url"))
	assert.Equal(t, "url DESC", Query{SortBy: "url"}.Order(fallback, "url", "verdict"))
	assert.Equal(t, "verdict ASC", Query{SortBy: "verdict", Asc: true}.Order(fallback, "url", "verdict"))
	assert.Equal(t, fallback, Query{SortBy: "id; DROP TABLE x"}.Order(fallback, "url"))
}
