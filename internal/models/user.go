package models

import "time"

// User represents a marketplace account.
type User struct {
	ID       string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username string `json:"username" gorm:"uniqueIndex;type:varchar(150);not null"`
	Password string `json:"-" gorm:"type:varchar(255);not null"` // bcrypt hash, never serialized
	FullName string `json:"full_name" gorm:"type:varchar(255)"`

	CreatedAt time.Time `json:"-" gorm:"index"`
}

// UserPatch carries the user fields an owner may change.
type UserPatch struct {
	FullName *string
}

// Apply copies the present patch fields onto u.
func (u *User) Apply(p UserPatch) {
	if p.FullName != nil {
		u.FullName = *p.FullName
	}
}

// EntityID returns the primary key.
func (u User) EntityID() string { return u.ID }

// Field returns the value stored under a column name.
func (u User) Field(column string) (any, bool) {
	switch column {
	case "id":
		return u.ID, true
	case "username":
		return u.Username, true
	case "full_name":
		return u.FullName, true
	}
	return nil, false
}

// Token is the bearer credential issued on login. It is never persisted.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// TokenTypeBearer is the only token type issued.
const TokenTypeBearer = "bearer"
