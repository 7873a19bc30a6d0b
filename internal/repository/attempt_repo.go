package repository

import (
	"time"

	"gorm.io/gorm"

	"tillpay/internal/fraud"
	"tillpay/internal/models"
)

// AttemptRepository is the MySQL-backed fraud.AttemptStore.
type AttemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

func (r *AttemptRepository) Append(rec *models.AttemptRecord) error {
	return r.db.Create(rec).Error
}

func (r *AttemptRepository) ListSince(key fraud.Key, since time.Time) ([]models.AttemptRecord, error) {
	var out []models.AttemptRecord
	err := r.db.
		Where("user_id = ? AND device_id = ? AND network_origin = ? AND created_at >= ?",
			key.UserID, key.DeviceID, key.NetworkOrigin, since).
		Order("created_at").
		Find(&out).Error
	return out, err
}

func (r *AttemptRepository) ListAllSince(since time.Time) ([]models.AttemptRecord, error) {
	var out []models.AttemptRecord
	err := r.db.Where("created_at >= ?", since).Find(&out).Error
	return out, err
}

func (r *AttemptRepository) DeleteBefore(key fraud.Key, cutoff time.Time) error {
	return r.db.
		Where("user_id = ? AND device_id = ? AND network_origin = ? AND created_at < ?",
			key.UserID, key.DeviceID, key.NetworkOrigin, cutoff).
		Delete(&models.AttemptRecord{}).Error
}
