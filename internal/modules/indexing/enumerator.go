package indexing

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/lumen-agency/site-core/internal/models"
)

// PostSource lists blog posts that are publicly visible.
type PostSource interface {
	ListPublished(ctx context.Context) ([]models.ContentRef, error)
}

// ProjectSource lists portfolio projects that are publicly visible.
type ProjectSource interface {
	ListActive(ctx context.Context) ([]models.ContentRef, error)
}

var staticRoutes = []string{"/", "/about", "/services", "/portfolio", "/blog", "/contact"}

// Enumerator builds the set of public site URLs.
type Enumerator struct {
	baseURL  string
	posts    PostSource
	projects ProjectSource
}

func NewEnumerator(baseURL string, posts PostSource, projects ProjectSource) *Enumerator {
	return &Enumerator{
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		posts:    posts,
		projects: projects,
	}
}

// Enumerate returns static routes, then published posts, then active
// projects. Rows failing the visibility check or lacking a slug are
// dropped, and a URL seen twice keeps its first entry.
func (e *Enumerator) Enumerate(ctx context.Context) ([]Target, error) {
	if e.baseURL == "" {
		return nil, ErrMissingBaseURL
	}

	posts, err := e.posts.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("list published posts: %w", err)
	}
	projects, err := e.projects.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active projects: %w", err)
	}

	seen := make(map[string]struct{}, len(staticRoutes)+len(posts)+len(projects))
	targets := make([]Target, 0, len(staticRoutes)+len(posts)+len(projects))
	add := func(t Target) {
		if _, dup := seen[t.URL]; dup {
			return
		}
		seen[t.URL] = struct{}{}
		targets = append(targets, t)
	}

	for _, route := range staticRoutes {
		add(Target{URL: e.baseURL + route, PageType: models.PageTypeStatic})
	}
	for _, p := range posts {
		if p.Status != models.PostStatusPublished || strings.TrimSpace(p.Slug) == "" {
			continue
		}
		add(e.contentTarget("/blog/", models.PageTypeBlogPost, p))
	}
	for _, p := range projects {
		if p.Status != models.ProjectStatusActive || strings.TrimSpace(p.Slug) == "" {
			continue
		}
		add(e.contentTarget("/portfolio/", models.PageTypePortfolio, p))
	}
	return targets, nil
}

func (e *Enumerator) contentTarget(prefix, pageType string, ref models.ContentRef) Target {
	id := ref.ID
	return Target{
		URL:         e.baseURL + prefix + url.PathEscape(strings.TrimSpace(ref.Slug)),
		PageType:    pageType,
		ReferenceID: &id,
	}
}

// inferPageType guesses the page type of a caller-provided URL from its path.
func inferPageType(u *url.URL) string {
	path := strings.TrimRight(u.Path, "/")
	switch {
	case strings.HasPrefix(path, "/blog/"):
		return models.PageTypeBlogPost
	case strings.HasPrefix(path, "/portfolio/"):
		return models.PageTypePortfolio
	default:
		return models.PageTypeStatic
	}
}
