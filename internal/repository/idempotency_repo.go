package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"tillpay/internal/models"
)

// IdempotencyRepository is the MySQL-backed idempotency.RecordStore.
type IdempotencyRepository struct {
	db *gorm.DB
}

func NewIdempotencyRepository(db *gorm.DB) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

func (r *IdempotencyRepository) Get(key string) (*models.IdempotencyRecord, error) {
	var rec models.IdempotencyRecord
	err := r.db.Where("`key` = ?", key).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *IdempotencyRepository) Put(rec *models.IdempotencyRecord) error {
	return r.db.Save(rec).Error
}

func (r *IdempotencyRepository) Delete(key string) error {
	return r.db.Where("`key` = ?", key).Delete(&models.IdempotencyRecord{}).Error
}

func (r *IdempotencyRepository) DeleteBefore(cutoff time.Time) (int64, error) {
	res := r.db.Where("timestamp < ?", cutoff).Delete(&models.IdempotencyRecord{})
	return res.RowsAffected, res.Error
}
