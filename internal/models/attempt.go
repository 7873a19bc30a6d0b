package models

import "time"

// AttemptRecord is one charge attempt outcome for a (user, device, origin)
// tuple. Records outside the fraud window are pruned on write.
type AttemptRecord struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index:idx_attempt_key" json:"user_id"`
	DeviceID      string    `gorm:"size:64;index:idx_attempt_key" json:"device_id"`
	NetworkOrigin string    `gorm:"size:64;index:idx_attempt_key" json:"network_origin"`
	Success       bool      `gorm:"not null" json:"success"`
	Reason        string    `gorm:"size:64" json:"reason,omitempty"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

func (AttemptRecord) TableName() string {
	return "attempt_records"
}
