package models

import "time"

// Image is an uploaded file. Image holds the stored file name.
type Image struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Image     string    `json:"image" gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `json:"-" gorm:"index"`
}

func (i Image) EntityID() string { return i.ID }

func (i Image) Field(column string) (any, bool) {
	switch column {
	case "id":
		return i.ID, true
	case "image":
		return i.Image, true
	}
	return nil, false
}

// ProductImage links an uploaded image to a product. An image backs at most
// one link.
type ProductImage struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID string    `json:"product_id" gorm:"type:varchar(36);index;not null"`
	ImageID   string    `json:"image_id" gorm:"type:varchar(36);uniqueIndex;not null"`
	CreatedAt time.Time `json:"-" gorm:"index"`

	Product *Product `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Image   *Image   `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

func (pi ProductImage) EntityID() string { return pi.ID }

func (pi ProductImage) Field(column string) (any, bool) {
	switch column {
	case "id":
		return pi.ID, true
	case "product_id":
		return pi.ProductID, true
	case "image_id":
		return pi.ImageID, true
	}
	return nil, false
}
