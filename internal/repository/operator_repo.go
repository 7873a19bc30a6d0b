package repository

import (
	"errors"

	"gorm.io/gorm"

	"tillpay/internal/models"
)

// OperatorRepository is the MySQL-backed auth.OperatorStore.
type OperatorRepository struct {
	db *gorm.DB
}

func NewOperatorRepository(db *gorm.DB) *OperatorRepository {
	return &OperatorRepository{db: db}
}

func (r *OperatorRepository) GetByEmail(email string) (*models.Operator, error) {
	var op models.Operator
	err := r.db.Where("email = ?", email).First(&op).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &op, nil
}

func (r *OperatorRepository) Create(op *models.Operator) error {
	return r.db.Create(op).Error
}

func (r *OperatorRepository) Count() (int64, error) {
	var n int64
	err := r.db.Model(&models.Operator{}).Count(&n).Error
	return n, err
}
