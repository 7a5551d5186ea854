package models

// Photo is a gallery image.
type Photo struct {
	OrderedModel

	URL     string `gorm:"type:varchar(500);not null" json:"url" validate:"required,url"`
	AltText string `gorm:"type:varchar(200)" json:"altText,omitempty" validate:"max=200"`
	Caption string `gorm:"type:varchar(300)" json:"caption,omitempty" validate:"max=300"`
}

// NewPhoto returns an unsaved, active photo.
func NewPhoto() *Photo {
	return &Photo{OrderedModel: NewOrderedModel()}
}

// WithPosition returns a copy placed at order.
func (p *Photo) WithPosition(order int) *Photo {
	c := *p
	c.Order = order
	return &c
}
