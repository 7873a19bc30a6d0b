package models

import "time"

// IdempotencyRecord caches the outcome of one logical charge attempt.
// Result holds the serialized response; Timestamp drives TTL expiry.
type IdempotencyRecord struct {
	Key       string    `gorm:"primaryKey;size:255" json:"key"`
	Result    string    `gorm:"type:text" json:"result"`
	Status    string    `gorm:"size:20;not null" json:"status"` // pending, completed, failed
	Timestamp time.Time `gorm:"index;not null" json:"timestamp"`
}

func (IdempotencyRecord) TableName() string {
	return "idempotency_records"
}
