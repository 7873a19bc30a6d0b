package auth

import (
	"errors"
	"log"

	"golang.org/x/crypto/bcrypt"

	"tillpay/config"
	"tillpay/internal/domain"
	"tillpay/internal/models"
)

// OperatorStore persists till operators. GetByEmail returns (nil, nil)
// when the operator does not exist.
type OperatorStore interface {
	GetByEmail(email string) (*models.Operator, error)
	Create(op *models.Operator) error
	Count() (int64, error)
}

var ErrInvalidCredentials = errors.New("invalid email or PIN")

type Service struct {
	cfg       *config.Config
	operators OperatorStore
}

func NewService(cfg *config.Config, operators OperatorStore) *Service {
	return &Service{cfg: cfg, operators: operators}
}

// Login verifies the operator PIN and issues an access token.
func (s *Service) Login(email, pin string) (string, *models.Operator, error) {
	op, err := s.operators.GetByEmail(email)
	if err != nil {
		return "", nil, err
	}
	if op == nil {
		return "", nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(op.PINHash), []byte(pin)) != nil {
		return "", nil, ErrInvalidCredentials
	}
	token, err := GenerateAccessToken(&s.cfg.JWT, op.ID, op.Email, op.Role)
	if err != nil {
		return "", nil, err
	}
	return token, op, nil
}

// SeedAdmin creates a default admin operator when the store is empty.
func (s *Service) SeedAdmin() {
	n, err := s.operators.Count()
	if err != nil || n > 0 {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("0000"), bcrypt.DefaultCost)
	if err != nil {
		return
	}
	if err := s.operators.Create(&models.Operator{
		Email:   "admin@tillpay.local",
		PINHash: string(hash),
		Role:    domain.RoleAdmin,
	}); err != nil {
		log.Printf("[auth] seed admin: %v", err)
		return
	}
	log.Printf("[auth] seeded default admin operator (change the PIN)")
}
