package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tillpay/internal/fraud"
	"tillpay/internal/models"
)

// LockRepository is the MySQL-backed fraud.LockStore.
type LockRepository struct {
	db *gorm.DB
}

func NewLockRepository(db *gorm.DB) *LockRepository {
	return &LockRepository{db: db}
}

func (r *LockRepository) Get(key fraud.Key) (*models.PaymentLock, error) {
	var lock models.PaymentLock
	err := r.db.
		Where("user_id = ? AND device_id = ? AND network_origin = ?", key.UserID, key.DeviceID, key.NetworkOrigin).
		First(&lock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lock, nil
}

func (r *LockRepository) Put(lock *models.PaymentLock) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "device_id"}, {Name: "network_origin"}},
		DoUpdates: clause.AssignmentColumns([]string{"locked_until", "reason"}),
	}).Create(lock).Error
}

func (r *LockRepository) Delete(key fraud.Key) error {
	return r.db.
		Where("user_id = ? AND device_id = ? AND network_origin = ?", key.UserID, key.DeviceID, key.NetworkOrigin).
		Delete(&models.PaymentLock{}).Error
}

func (r *LockRepository) DeleteByUser(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.PaymentLock{}).Error
}

func (r *LockRepository) DeleteAll() error {
	return r.db.Where("1 = 1").Delete(&models.PaymentLock{}).Error
}

func (r *LockRepository) CountActive(now time.Time) (int, error) {
	var n int64
	err := r.db.Model(&models.PaymentLock{}).Where("locked_until > ?", now).Count(&n).Error
	return int(n), err
}
