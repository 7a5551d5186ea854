package models

// Testimonial is a client quote shown on the public site.
type Testimonial struct {
	OrderedModel

	ClientName string `gorm:"type:varchar(120);not null" json:"clientName" validate:"required,max=120"`
	Role       string `gorm:"type:varchar(120)" json:"role,omitempty" validate:"max=120"`
	Quote      string `gorm:"type:text;not null" json:"quote" validate:"required"`
	Rating     int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
}

// NewTestimonial returns an unsaved, active testimonial.
func NewTestimonial() *Testimonial {
	return &Testimonial{OrderedModel: NewOrderedModel()}
}

// WithPosition returns a copy placed at order.
func (t *Testimonial) WithPosition(order int) *Testimonial {
	c := *t
	c.Order = order
	return &c
}
