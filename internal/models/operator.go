package models

import "time"

// Operator is a till user for API auth. PINHash is bcrypt.
type Operator struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PINHash   string    `gorm:"size:255;not null" json:"-"`
	Role      string    `gorm:"size:20;not null;default:'OPERATOR'" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Operator) TableName() string {
	return "operators"
}
