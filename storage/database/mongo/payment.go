package mongodb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/trezcool/feedesk/core/payment"
)

type paymentDoc struct {
	ID                 string    `bson:"_id"`
	StudentID          string    `bson:"student_id"`
	Amount             int64     `bson:"amount"`
	PaymentType        string    `bson:"payment_type"`
	ExamNotificationID string    `bson:"exam_notification_id,omitempty"`
	GatewayOrderID     string    `bson:"gateway_order_id"`
	GatewayPaymentID   string    `bson:"gateway_payment_id"`
	GatewaySignature   string    `bson:"gateway_signature"`
	Status             string    `bson:"status"`
	TransactionDate    time.Time `bson:"transaction_date"`
	CreatedAt          time.Time `bson:"created_at"`
}

func (d paymentDoc) toPayment() payment.Payment {
	pay := payment.Payment(d)
	pay.TransactionDate = d.TransactionDate.UTC()
	pay.CreatedAt = d.CreatedAt.UTC()
	return pay
}

type paymentRepository struct {
	col *mongo.Collection
}

var _ payment.Repository = (*paymentRepository)(nil) // interface compliance check

func NewPaymentRepository(db *DB) payment.Repository {
	return &paymentRepository{col: db.collection(colPayments)}
}

func (repo *paymentRepository) CreatePayment(ctx context.Context, pay payment.Payment) (payment.Payment, error) {
	pay.ID = uuid.NewString()
	if _, err := repo.col.InsertOne(ctx, paymentDoc(pay)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return payment.Payment{}, payment.ErrAlreadyVerified
		}
		return payment.Payment{}, errors.Wrap(err, "inserting payment")
	}
	return pay, nil
}

func (repo *paymentRepository) GetPaymentByGatewayID(ctx context.Context, gatewayPaymentID string) (payment.Payment, error) {
	var doc paymentDoc
	if err := repo.col.FindOne(ctx, bson.M{"gateway_payment_id": gatewayPaymentID}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return payment.Payment{}, payment.ErrNotFound
		}
		return payment.Payment{}, errors.Wrap(err, "finding payment")
	}
	return doc.toPayment(), nil
}

func (repo *paymentRepository) QueryPaymentsByStudent(ctx context.Context, studentID string) ([]payment.Payment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := repo.col.Find(ctx, bson.M{"student_id": studentID}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "finding payments")
	}
	defer func() { _ = cursor.Close(ctx) }()

	var docs []paymentDoc
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding payments")
	}
	pays := make([]payment.Payment, 0, len(docs))
	for _, d := range docs {
		pays = append(pays, d.toPayment())
	}
	return pays, nil
}
