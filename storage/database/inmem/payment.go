package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/feedesk/core/payment"
)

type paymentRepository struct {
	db *DB
}

var _ payment.Repository = (*paymentRepository)(nil) // interface compliance check

func NewPaymentRepository(db *DB) payment.Repository {
	return &paymentRepository{db: db}
}

func (repo *paymentRepository) CreatePayment(_ context.Context, pay payment.Payment) (payment.Payment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if pay.GatewayPaymentID != "" {
		for _, p := range repo.db.payments {
			if p.GatewayPaymentID == pay.GatewayPaymentID {
				return payment.Payment{}, payment.ErrAlreadyVerified
			}
		}
	}
	pay.ID = uuid.NewString()
	repo.db.payments = append(repo.db.payments, pay)
	return pay, nil
}

func (repo *paymentRepository) GetPaymentByGatewayID(_ context.Context, gatewayPaymentID string) (payment.Payment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, p := range repo.db.payments {
		if p.GatewayPaymentID == gatewayPaymentID {
			return p, nil
		}
	}
	return payment.Payment{}, payment.ErrNotFound
}

func (repo *paymentRepository) QueryPaymentsByStudent(_ context.Context, studentID string) ([]payment.Payment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	pays := make([]payment.Payment, 0)
	for i := len(repo.db.payments) - 1; i >= 0; i-- {
		if p := repo.db.payments[i]; p.StudentID == studentID {
			pays = append(pays, p)
		}
	}
	sort.SliceStable(pays, func(i, j int) bool { return pays[i].CreatedAt.After(pays[j].CreatedAt) })
	return pays, nil
}
