package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"tillpay/internal/models"
)

// DraftRepository is the MySQL-backed queue.DraftStore.
type DraftRepository struct {
	db *gorm.DB
}

func NewDraftRepository(db *gorm.DB) *DraftRepository {
	return &DraftRepository{db: db}
}

func (r *DraftRepository) Put(d *models.PaymentIntentDraft) error {
	return r.db.Save(d).Error
}

func (r *DraftRepository) Get(id string) (*models.PaymentIntentDraft, error) {
	var d models.PaymentIntentDraft
	err := r.db.Where("id = ?", id).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DraftRepository) ListByUser(userID uint) ([]models.PaymentIntentDraft, error) {
	var out []models.PaymentIntentDraft
	err := r.db.Where("user_id = ?", userID).Order("created_at").Find(&out).Error
	return out, err
}

func (r *DraftRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&models.PaymentIntentDraft{}).Error
}

func (r *DraftRepository) DeleteBefore(cutoff time.Time) (int64, error) {
	res := r.db.Where("created_at < ?", cutoff).Delete(&models.PaymentIntentDraft{})
	return res.RowsAffected, res.Error
}

func (r *DraftRepository) Count() (int64, error) {
	var n int64
	err := r.db.Model(&models.PaymentIntentDraft{}).Count(&n).Error
	return n, err
}
