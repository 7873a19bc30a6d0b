package models

import "time"

// QueuedTransaction is a materialized draft awaiting or past its charge.
// The single-use token is held in memory by the queue manager for the
// lifetime of one processing attempt and is never written to this row.
type QueuedTransaction struct {
	ID                  string    `gorm:"primaryKey;size:36" json:"id"`
	UserID              uint      `gorm:"not null;index" json:"user_id"`
	AmountCents         int64     `gorm:"not null" json:"amount_cents"`
	Currency            string    `gorm:"size:3;not null" json:"currency"`
	Description         string    `gorm:"size:255" json:"description"`
	Metadata            string    `gorm:"type:text" json:"metadata"` // JSON
	IdempotencyKey      string    `gorm:"size:255;uniqueIndex" json:"-"`
	Attempts            int       `gorm:"not null;default:0" json:"attempts"`
	MaxAttempts         int       `gorm:"not null;default:3" json:"max_attempts"`
	NextRetry           time.Time `gorm:"index" json:"next_retry"`
	Status              string    `gorm:"size:20;not null;index" json:"status"` // draft, pending, processing, completed, failed
	Error               string    `gorm:"size:255" json:"error,omitempty"`
	RequiresCardReentry bool      `gorm:"not null;default:false" json:"requires_card_reentry"`
	ChargeID            string    `gorm:"size:64" json:"charge_id,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (QueuedTransaction) TableName() string {
	return "transactions"
}
