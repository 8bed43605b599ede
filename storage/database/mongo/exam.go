package mongodb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/trezcool/feedesk/core/exam"
)

type notificationDoc struct {
	ID                  string    `bson:"_id"`
	Title               string    `bson:"title"`
	Year                int       `bson:"year"`
	Semester            *int      `bson:"semester,omitempty"`
	ExamFeeAmount       int64     `bson:"exam_fee_amount"`
	StartDate           time.Time `bson:"start_date"`
	EndDate             time.Time `bson:"end_date"`
	LastDateWithoutFine time.Time `bson:"last_date_without_fine"`
	LateFee             int64     `bson:"late_fee"`
	IsActive            bool      `bson:"is_active"`
	Description         string    `bson:"description"`
	CreatedAt           time.Time `bson:"created_at"`
	UpdatedAt           time.Time `bson:"updated_at"`
}

func (d notificationDoc) toNotification() exam.Notification {
	n := exam.Notification(d)
	n.StartDate, n.EndDate = d.StartDate.UTC(), d.EndDate.UTC()
	n.LastDateWithoutFine = d.LastDateWithoutFine.UTC()
	n.CreatedAt, n.UpdatedAt = d.CreatedAt.UTC(), d.UpdatedAt.UTC()
	return n
}

type examRepository struct {
	col *mongo.Collection
}

var _ exam.Repository = (*examRepository)(nil) // interface compliance check

func NewExamRepository(db *DB) exam.Repository {
	return &examRepository{col: db.collection(colNotifications)}
}

func (repo *examRepository) CreateNotification(ctx context.Context, n exam.Notification) (exam.Notification, error) {
	n.ID = uuid.NewString()
	if _, err := repo.col.InsertOne(ctx, notificationDoc(n)); err != nil {
		return exam.Notification{}, errors.Wrap(err, "inserting notification")
	}
	return n, nil
}

func (repo *examRepository) GetNotificationByID(ctx context.Context, id string) (exam.Notification, error) {
	var doc notificationDoc
	if err := repo.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return exam.Notification{}, exam.ErrNotFound
		}
		return exam.Notification{}, errors.Wrap(err, "finding notification")
	}
	return doc.toNotification(), nil
}

func (repo *examRepository) UpdateNotification(ctx context.Context, n exam.Notification) (exam.Notification, error) {
	update := bson.M{"$set": bson.M{
		"end_date":   n.EndDate.UTC(),
		"late_fee":   n.LateFee,
		"is_active":  n.IsActive,
		"updated_at": n.UpdatedAt.UTC(),
	}}
	res, err := repo.col.UpdateOne(ctx, bson.M{"_id": n.ID}, update)
	if err != nil {
		return exam.Notification{}, errors.Wrap(err, "updating notification")
	}
	if res.MatchedCount == 0 {
		return exam.Notification{}, exam.ErrNotFound
	}
	return n, nil
}

func (repo *examRepository) QueryActiveNotifications(ctx context.Context) ([]exam.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := repo.col.Find(ctx, bson.M{"is_active": true}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "finding notifications")
	}
	defer func() { _ = cursor.Close(ctx) }()

	var docs []notificationDoc
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding notifications")
	}
	ns := make([]exam.Notification, 0, len(docs))
	for _, d := range docs {
		ns = append(ns, d.toNotification())
	}
	return ns, nil
}
