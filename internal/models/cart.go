package models

import "time"

// CartItem is one line in a user's cart. A user holds at most one line per
// product.
type CartItem struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID string    `json:"product_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_user_product"`
	UserID    string    `json:"user_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_user_product"`
	Amount    int       `json:"amount"`
	CreatedAt time.Time `json:"-" gorm:"index"`

	Product *Product `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	User    *User    `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// CartItemPatch carries the cart line fields the owner may replace.
type CartItemPatch struct {
	ProductID *string
	Amount    *int
}

// Apply copies the present patch fields onto c.
func (c *CartItem) Apply(p CartItemPatch) {
	if p.ProductID != nil {
		c.ProductID = *p.ProductID
	}
	if p.Amount != nil {
		c.Amount = *p.Amount
	}
}

func (c CartItem) EntityID() string { return c.ID }

func (c CartItem) Field(column string) (any, bool) {
	switch column {
	case "id":
		return c.ID, true
	case "product_id":
		return c.ProductID, true
	case "user_id":
		return c.UserID, true
	case "amount":
		return c.Amount, true
	}
	return nil, false
}
