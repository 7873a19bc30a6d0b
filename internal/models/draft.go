package models

import "time"

// PaymentIntentDraft records intent to charge an amount, captured while the
// till is offline or before a card is presented. The type carries no card
// fields; metadata is scrubbed before a draft is stored.
type PaymentIntentDraft struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	AmountCents int64     `gorm:"not null" json:"amount_cents"`
	Currency    string    `gorm:"size:3;not null" json:"currency"`
	Description string    `gorm:"size:255" json:"description"`
	Metadata    string    `gorm:"type:text" json:"metadata"` // JSON
	CreatedAt   time.Time `json:"created_at"`
}

func (PaymentIntentDraft) TableName() string {
	return "payment_intents"
}
