package models

import (
	"time"

	"gorm.io/gorm"
)

// Product represents an item offered in the store by its owner.
type Product struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title       string    `json:"title" gorm:"type:varchar(255);not null"`
	Description string    `json:"description"`
	Stock       int       `json:"stock"`
	Price       float64   `json:"price"`
	IsActive    bool      `json:"is_active"`
	OwnerID     string    `json:"owner_id" gorm:"type:varchar(36);index;not null"`
	Added       time.Time `json:"added" gorm:"index"`
	LastUpdated time.Time `json:"last_updated"`

	Owner *User `json:"-" gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
}

// ProductPatch carries optional product fields. Owner and timestamps are not
// patchable.
type ProductPatch struct {
	Title       *string
	Description *string
	Stock       *int
	Price       *float64
	IsActive    *bool
}

// Apply copies the present patch fields onto p.
func (p *Product) Apply(patch ProductPatch) {
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}
}

// Touch assigns the server-side timestamps. Added is set once; LastUpdated
// never moves backwards.
func (p *Product) Touch(now time.Time) {
	if p.Added.IsZero() {
		p.Added = now
	}
	if now.After(p.LastUpdated) {
		p.LastUpdated = now
	}
}

// BeforeSave stamps the product on every insert and update.
func (p *Product) BeforeSave(tx *gorm.DB) error {
	p.Touch(time.Now())
	return nil
}

// EntityID returns the primary key.
func (p Product) EntityID() string { return p.ID }

// Field returns the value stored under a column name.
func (p Product) Field(column string) (any, bool) {
	switch column {
	case "id":
		return p.ID, true
	case "title":
		return p.Title, true
	case "description":
		return p.Description, true
	case "stock":
		return p.Stock, true
	case "price":
		return p.Price, true
	case "is_active":
		return p.IsActive, true
	case "owner_id":
		return p.OwnerID, true
	}
	return nil, false
}
