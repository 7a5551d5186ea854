package models

import "time"

// OrderedModel provides the shared fields of every user-sortable content model.
type OrderedModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Order     int       `gorm:"column:sort_order;not null;index" json:"order"`
	IsActive  bool      `gorm:"not null" json:"isActive"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewOrderedModel returns the defaults for a record that has not been stored yet.
func NewOrderedModel() OrderedModel {
	return OrderedModel{IsActive: true}
}

func (m OrderedModel) EntityID() int64 { return m.ID }
func (m OrderedModel) Position() int   { return m.Order }
func (m OrderedModel) Active() bool    { return m.IsActive }

// SetPosition moves the record in place.
func (m *OrderedModel) SetPosition(order int) { m.Order = order }

// ClearID drops a client-supplied id so the database assigns one.
func (m *OrderedModel) ClearID() { m.ID = 0 }
