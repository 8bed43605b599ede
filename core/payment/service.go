package payment

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/feedesk/core"
	"github.com/trezcool/feedesk/core/student"
)

var (
	ErrAlreadyVerified = core.NewConflictError("payment already verified")
	ErrOrderFailed     = errors.New("error creating order")
)

type (
	Repository interface {
		CreatePayment(ctx context.Context, pay Payment) (Payment, error)
		// GetPaymentByGatewayID returns ErrNotFound when no payment carries gatewayPaymentID.
		GetPaymentByGatewayID(ctx context.Context, gatewayPaymentID string) (Payment, error)
		// QueryPaymentsByStudent returns the student's payments, newest first.
		QueryPaymentsByStudent(ctx context.Context, studentID string) ([]Payment, error)
	}

	// Gateway is the payment gateway collaborator.
	Gateway interface {
		KeyID() string
		CreateOrder(ctx context.Context, amountPaise int64, receipt string) (Order, error)
		// VerifySignature returns a rejected *core.ExternalServiceError when signature does not match.
		VerifySignature(orderID, paymentID, signature string) error
	}

	// Ledger is the student side of a payment.
	Ledger interface {
		GetByUserID(ctx context.Context, userID string) (student.Student, error)
		ApplyGatewayPayment(ctx context.Context, usn, feeType string, amount int64, ref string) (student.Student, error)
	}

	Service struct {
		repo    Repository
		gateway Gateway
		ledger  Ledger
		mailSvc core.EmailService
	}
)

var ErrNotFound = core.NewNotFoundError("payment not found")

func NewService(repo Repository, gateway Gateway, ledger Ledger, mailSvc core.EmailService) *Service {
	return &Service{
		repo:    repo,
		gateway: gateway,
		ledger:  ledger,
		mailSvc: mailSvc,
	}
}

func (svc *Service) KeyID() string {
	return svc.gateway.KeyID()
}

func (svc *Service) CreateOrder(ctx context.Context, no NewOrder) (Order, error) {
	receipt := fmt.Sprintf("receipt_%d", time.Now().UnixNano()/int64(time.Millisecond))
	order, err := svc.gateway.CreateOrder(ctx, no.Paise(), receipt)
	if err != nil {
		return Order{}, err
	}
	if order.ID == "" {
		return Order{}, ErrOrderFailed
	}
	return order, nil
}

// Verify checks the gateway signature, allocates the payment on the ledger of the student owning userID,
// then records it. A rejected signature changes nothing.
// The ledger is credited at most once per gateway payment ID, so a verification that failed half-way can be retried.
func (svc *Service) Verify(ctx context.Context, userID string, v Verification) (Payment, error) {
	if err := svc.gateway.VerifySignature(v.OrderID, v.PaymentID, v.Signature); err != nil {
		return Payment{}, err
	}

	st, err := svc.ledger.GetByUserID(ctx, userID)
	if err != nil {
		return Payment{}, err
	}

	if _, err = svc.repo.GetPaymentByGatewayID(ctx, v.PaymentID); err == nil {
		return Payment{}, ErrAlreadyVerified
	} else if !core.IsNotFound(err) {
		return Payment{}, errors.Wrap(err, "finding payment by gateway ID")
	}

	if _, err = svc.ledger.ApplyGatewayPayment(ctx, st.USN, FeeType(v.PaymentType), v.Amount, v.PaymentID); err != nil {
		return Payment{}, errors.Wrap(err, "allocating payment")
	}

	now := time.Now().UTC()
	pay, err := svc.repo.CreatePayment(ctx, Payment{
		StudentID:          st.ID,
		Amount:             v.Amount,
		PaymentType:        v.PaymentType,
		ExamNotificationID: v.ExamNotificationID,
		GatewayOrderID:     v.OrderID,
		GatewayPaymentID:   v.PaymentID,
		GatewaySignature:   v.Signature,
		Status:             StatusCompleted,
		TransactionDate:    now,
		CreatedAt:          now,
	})
	if err != nil {
		return Payment{}, errors.Wrap(err, "creating payment")
	}

	svc.sendReceipt(st, pay)
	return pay, nil
}

func (svc *Service) sendReceipt(st student.Student, pay Payment) {
	if st.Email == "" {
		return
	}
	label := FeeLabel(pay.PaymentType)
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: st.Name, Address: st.Email}},
		Subject:      "Payment Successful - " + label,
		TemplateName: "payment_receipt",
		TemplateData: receiptData{
			Name:      st.Name,
			Amount:    pay.Amount,
			FeeLabel:  label,
			PaymentID: pay.GatewayPaymentID,
			Date:      pay.TransactionDate.Format("02 Jan 2006 15:04 MST"),
		},
	})
}

// History lists the payments of the student owning userID, newest first.
func (svc *Service) History(ctx context.Context, userID string) ([]Payment, error) {
	st, err := svc.ledger.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return svc.repo.QueryPaymentsByStudent(ctx, st.ID)
}
