package models

// All lists every persisted entity, in migration order.
func All() []any {
	return []any{&User{}, &Product{}, &Image{}, &ProductImage{}, &CartItem{}}
}
