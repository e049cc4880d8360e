package models

// Portfolio project lifecycle states. Only active projects are publicly visible.
const (
	ProjectStatusDraft    = "draft"
	ProjectStatusActive   = "active"
	ProjectStatusArchived = "archived"
)

// ProjectModel stores portfolio case studies.
type ProjectModel struct {
	Base
	Title      string      `json:"title"       gorm:"not null"`
	Slug       string      `json:"slug"        gorm:"type:varchar(191);uniqueIndex;not null"`
	Client     string      `json:"client"`
	Summary    string      `json:"summary"`
	Body       string      `json:"body"        gorm:"type:text"`
	ProjectURL string      `json:"project_url"`
	Images     StringArray `json:"images"      gorm:"type:text"`
	Status     string      `json:"status"      gorm:"type:varchar(16);default:draft;index"`
	SortOrder  int         `json:"sort_order"  gorm:"default:0"`
}

func (ProjectModel) TableName() string { return "portfolio_projects" }

// IsPublic reports whether the project may appear on the public site.
func (p ProjectModel) IsPublic() bool { return p.Status == ProjectStatusActive }
