package payment

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/trezcool/feedesk/core"
	"github.com/trezcool/feedesk/core/student"
)

// Payment types
const (
	TypeExamFee      = "exam_fee"
	TypeCollegeFee   = "college_fee"
	TypeTransportFee = "transport_fee"
)

// Payment statuses
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Payment is an immutable record of a gateway-settled transaction.
type Payment struct {
	ID                 string    `json:"id"`
	StudentID          string    `json:"studentId"`
	Amount             int64     `json:"amount"`
	PaymentType        string    `json:"paymentType"`
	ExamNotificationID string    `json:"examNotificationId,omitempty"`
	GatewayOrderID     string    `json:"razorpayOrderId"`
	GatewayPaymentID   string    `json:"razorpayPaymentId"`
	GatewaySignature   string    `json:"razorpaySignature"`
	Status             string    `json:"status"`
	TransactionDate    time.Time `json:"transactionDate"` // UTC
	CreatedAt          time.Time `json:"createdAt"`       // UTC
}

// FeeType is the ledger fee type a payment type settles.
func FeeType(paymentType string) string {
	switch paymentType {
	case TypeCollegeFee:
		return student.FeeCollege
	case TypeTransportFee:
		return student.FeeTransport
	default:
		return student.FeeOther
	}
}

// FeeLabel is the human readable name of a payment type.
func FeeLabel(paymentType string) string {
	switch paymentType {
	case TypeCollegeFee:
		return "College Fee"
	case TypeTransportFee:
		return "Transport Fee"
	case TypeExamFee:
		return "Exam Fee"
	default:
		return "Fee"
	}
}

// Order is a gateway order, amounts in paise.
type Order struct {
	ID       string `json:"id"`
	Entity   string `json:"entity"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// NewOrder is a student's request to pay; Amount is in rupees.
type NewOrder struct {
	Amount      decimal.Decimal `json:"amount"`
	PaymentType string          `json:"paymentType" validate:"omitempty,oneof=exam_fee college_fee transport_fee"`
}

func (no *NewOrder) Validate(validate *validator.Validate) error {
	if err := validate.Struct(no); err != nil {
		return err
	}
	if !no.Amount.IsPositive() {
		return core.NewValidationError(nil, core.FieldError{Field: "amount", Error: "amount must be positive"})
	}
	return nil
}

// Paise converts the rupee amount to the smallest currency unit.
func (no *NewOrder) Paise() int64 {
	return no.Amount.Shift(2).Round(0).IntPart()
}

// Verification is what the checkout hands back once the student paid.
type Verification struct {
	OrderID            string `json:"razorpayOrderId" validate:"required"`
	PaymentID          string `json:"razorpayPaymentId" validate:"required"`
	Signature          string `json:"signature"`
	PaymentType        string `json:"paymentType" validate:"required,oneof=exam_fee college_fee transport_fee"`
	Amount             int64  `json:"amount" validate:"required,min=1"`
	ExamNotificationID string `json:"examNotificationId"`
}

func (v *Verification) Validate(validate *validator.Validate) error {
	v.OrderID = core.CleanString(v.OrderID)
	v.PaymentID = core.CleanString(v.PaymentID)
	v.Signature = core.CleanString(v.Signature)
	return validate.Struct(v)
}

// receiptData feeds the payment_receipt email templates.
type receiptData struct {
	Name      string
	Amount    int64
	FeeLabel  string
	PaymentID string
	Date      string
}
