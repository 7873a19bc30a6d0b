package models

import "time"

// PaymentLock denies further attempts for a (user, device, origin) tuple
// until Until. Cleared on any successful attempt for the same tuple.
type PaymentLock struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;uniqueIndex:idx_lock_key" json:"user_id"`
	DeviceID      string    `gorm:"size:64;uniqueIndex:idx_lock_key" json:"device_id"`
	NetworkOrigin string    `gorm:"size:64;uniqueIndex:idx_lock_key" json:"network_origin"`
	Until         time.Time `gorm:"column:locked_until;not null" json:"until"`
	Reason        string    `gorm:"size:255" json:"reason"`
	CreatedAt     time.Time `json:"created_at"`
}

func (PaymentLock) TableName() string {
	return "payment_locks"
}
