package models

import "time"

// Blog post lifecycle states. Only published posts are publicly visible.
const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
	PostStatusArchived  = "archived"
)

// PostModel is a blog post.
type PostModel struct {
	Base
	Title       string      `json:"title"        gorm:"not null"`
	Slug        string      `json:"slug"         gorm:"type:varchar(191);uniqueIndex;not null"`
	Excerpt     string      `json:"excerpt"`
	Body        string      `json:"body"         gorm:"type:longtext"`
	CoverImage  string      `json:"cover_image"`
	Status      string      `json:"status"       gorm:"type:varchar(16);default:draft;index"`
	PublishedAt *time.Time  `json:"published_at"`
	Tags        StringArray `json:"tags"         gorm:"type:text"`
}

func (PostModel) TableName() string { return "blog_posts" }

// IsPublic reports whether the post may appear on the public site.
func (p PostModel) IsPublic() bool { return p.Status == PostStatusPublished }
