// Package mongodb implements the repositories on MongoDB. Students are stored as one document
// embedding their ledger; concurrent updates are resolved with an optimistic version.
package mongodb

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/trezcool/feedesk/core"
)

const (
	colUsers         = "users"
	colStudents      = "students"
	colPayments      = "payments"
	colNotifications = "exam_notifications"
	colSettings      = "system_config"
)

type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open connects to conf.Database.MongoURI and uses the conf.Database.Name database.
func Open(ctx context.Context, conf *core.Config) (*DB, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(conf.Database.MongoURI))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "connecting to mongodb")
	}
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, pkgerrors.Wrap(err, "pinging mongodb")
	}
	return &DB{client: client, db: client.Database(conf.Database.Name)}, nil
}

func (db *DB) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}

func (db *DB) collection(name string) *mongo.Collection {
	return db.db.Collection(name)
}

// Migrate creates the indexes of every collection.
func (db *DB) Migrate(ctx context.Context) error {
	for col, models := range indexes() {
		if _, err := db.collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return pkgerrors.Wrapf(err, "creating %s indexes", col)
		}
	}
	return nil
}

func indexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colUsers: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		colStudents: {
			{Keys: bson.D{{Key: "usn", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "quota", Value: 1}, {Key: "current_year", Value: 1}}},
		},
		colPayments: {
			{
				Keys: bson.D{{Key: "gateway_payment_id", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"gateway_payment_id": bson.M{"$gt": ""}}),
			},
			{Keys: bson.D{{Key: "student_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		colNotifications: {
			{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
