package models

import "time"

// Article is a blog post or resource page.
type Article struct {
	OrderedModel

	Title         string     `gorm:"type:varchar(200);not null" json:"title" validate:"required,max=200"`
	Slug          string     `gorm:"type:varchar(160);not null;uniqueIndex" json:"slug" validate:"required,max=160,slug"`
	Summary       string     `gorm:"type:text" json:"summary,omitempty" validate:"max=600"`
	Body          string     `gorm:"type:text" json:"body,omitempty"`
	CoverImageURL string     `gorm:"type:varchar(500)" json:"coverImageUrl,omitempty" validate:"omitempty,url"`
	PublishedAt   *time.Time `json:"publishedAt,omitempty"`
}

// NewArticle returns an unsaved, active article.
func NewArticle() *Article {
	return &Article{OrderedModel: NewOrderedModel()}
}

// WithPosition returns a copy placed at order.
func (a *Article) WithPosition(order int) *Article {
	c := *a
	c.Order = order
	return &c
}

// Published reports whether the article is visible at now.
func (a *Article) Published(now time.Time) bool {
	return a.PublishedAt != nil && !a.PublishedAt.After(now)
}
