package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/feedesk/core/payment"
)

const paymentColumns = `id, student_id, amount, payment_type, exam_notification_id, gateway_order_id,
	gateway_payment_id, gateway_signature, status, transaction_date, created_at`

type paymentRow struct {
	ID                 string      `db:"id"`
	StudentID          string      `db:"student_id"`
	Amount             int64       `db:"amount"`
	PaymentType        string      `db:"payment_type"`
	ExamNotificationID null.String `db:"exam_notification_id"`
	GatewayOrderID     string      `db:"gateway_order_id"`
	GatewayPaymentID   string      `db:"gateway_payment_id"`
	GatewaySignature   string      `db:"gateway_signature"`
	Status             string      `db:"status"`
	TransactionDate    time.Time   `db:"transaction_date"`
	CreatedAt          time.Time   `db:"created_at"`
}

func (r paymentRow) toPayment() payment.Payment {
	return payment.Payment{
		ID:                 r.ID,
		StudentID:          r.StudentID,
		Amount:             r.Amount,
		PaymentType:        r.PaymentType,
		ExamNotificationID: r.ExamNotificationID.String,
		GatewayOrderID:     r.GatewayOrderID,
		GatewayPaymentID:   r.GatewayPaymentID,
		GatewaySignature:   r.GatewaySignature,
		Status:             r.Status,
		TransactionDate:    r.TransactionDate.UTC(),
		CreatedAt:          r.CreatedAt.UTC(),
	}
}

type paymentRepository struct {
	db *sqlx.DB
}

var _ payment.Repository = (*paymentRepository)(nil) // interface compliance check

func NewPaymentRepository(db *sqlx.DB) payment.Repository {
	return &paymentRepository{db: db}
}

func (repo *paymentRepository) CreatePayment(ctx context.Context, pay payment.Payment) (payment.Payment, error) {
	pay.ID = uuid.NewString()
	row := paymentRow{
		ID:                 pay.ID,
		StudentID:          pay.StudentID,
		Amount:             pay.Amount,
		PaymentType:        pay.PaymentType,
		ExamNotificationID: null.NewString(pay.ExamNotificationID, pay.ExamNotificationID != ""),
		GatewayOrderID:     pay.GatewayOrderID,
		GatewayPaymentID:   pay.GatewayPaymentID,
		GatewaySignature:   pay.GatewaySignature,
		Status:             pay.Status,
		TransactionDate:    pay.TransactionDate.UTC(),
		CreatedAt:          pay.CreatedAt.UTC(),
	}
	q := `INSERT INTO payment (` + paymentColumns + `) VALUES (:id, :student_id, :amount, :payment_type,
		:exam_notification_id, :gateway_order_id, :gateway_payment_id, :gateway_signature, :status,
		:transaction_date, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		if isUniqueViolation(err) {
			return payment.Payment{}, payment.ErrAlreadyVerified
		}
		return payment.Payment{}, errors.Wrap(err, "inserting payment")
	}
	return pay, nil
}

func (repo *paymentRepository) GetPaymentByGatewayID(ctx context.Context, gatewayPaymentID string) (payment.Payment, error) {
	var row paymentRow
	q := `SELECT ` + paymentColumns + ` FROM payment WHERE gateway_payment_id = $1`
	if err := repo.db.GetContext(ctx, &row, q, gatewayPaymentID); err != nil {
		return payment.Payment{}, trapNoRowsErr(err, payment.ErrNotFound, "selecting payment")
	}
	return row.toPayment(), nil
}

func (repo *paymentRepository) QueryPaymentsByStudent(ctx context.Context, studentID string) ([]payment.Payment, error) {
	var rows []paymentRow
	q := `SELECT ` + paymentColumns + ` FROM payment WHERE student_id = $1 ORDER BY created_at DESC`
	if err := repo.db.SelectContext(ctx, &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "selecting payments")
	}
	pays := make([]payment.Payment, 0, len(rows))
	for _, row := range rows {
		pays = append(pays, row.toPayment())
	}
	return pays, nil
}
