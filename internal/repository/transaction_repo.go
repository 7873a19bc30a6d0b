package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"tillpay/internal/domain"
	"tillpay/internal/models"
)

// TransactionRepository is the MySQL-backed queue.TransactionStore.
// Save replaces the whole row, so each state transition is one atomic
// upsert keyed by id.
type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Put(tx *models.QueuedTransaction) error {
	return r.db.Save(tx).Error
}

func (r *TransactionRepository) Get(id string) (*models.QueuedTransaction, error) {
	var tx models.QueuedTransaction
	err := r.db.Where("id = ?", id).First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *TransactionRepository) ListDue(status string, now time.Time) ([]models.QueuedTransaction, error) {
	var out []models.QueuedTransaction
	err := r.db.
		Where("status = ? AND next_retry <= ?", status, now).
		Order("next_retry").
		Find(&out).Error
	return out, err
}

func (r *TransactionRepository) CountPending(userID uint) (int64, error) {
	q := r.db.Model(&models.QueuedTransaction{}).
		Where("status IN ?", []string{domain.TxStatusPending, domain.TxStatusProcessing})
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}

func (r *TransactionRepository) DeleteCompletedBefore(cutoff time.Time) (int64, error) {
	res := r.db.
		Where("status = ? AND updated_at < ?", domain.TxStatusCompleted, cutoff).
		Delete(&models.QueuedTransaction{})
	return res.RowsAffected, res.Error
}
