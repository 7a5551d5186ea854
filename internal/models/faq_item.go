package models

// FAQItem is one question and answer pair.
type FAQItem struct {
	OrderedModel

	Question string `gorm:"type:varchar(300);not null" json:"question" validate:"required,max=300"`
	Answer   string `gorm:"type:text;not null" json:"answer" validate:"required"`
}

// TableName keeps the table name readable.
func (FAQItem) TableName() string { return "faq_items" }

// NewFAQItem returns an unsaved, active FAQ item.
func NewFAQItem() *FAQItem {
	return &FAQItem{OrderedModel: NewOrderedModel()}
}

// WithPosition returns a copy placed at order.
func (f *FAQItem) WithPosition(order int) *FAQItem {
	c := *f
	c.Order = order
	return &c
}
