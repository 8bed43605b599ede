package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/trezcool/feedesk/core/student"
)

const keyDefaultGovFee = "default_gov_fee"

type settingDoc struct {
	Key       string    `bson:"_id"`
	Value     int64     `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type settingsRepository struct {
	col *mongo.Collection
}

var _ student.SettingsRepository = (*settingsRepository)(nil) // interface compliance check

func NewSettingsRepository(db *DB) student.SettingsRepository {
	return &settingsRepository{col: db.collection(colSettings)}
}

func (repo *settingsRepository) DefaultGovFee(ctx context.Context) (int64, error) {
	var doc settingDoc
	if err := repo.col.FindOne(ctx, bson.M{"_id": keyDefaultGovFee}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "finding default gov fee")
	}
	return doc.Value, nil
}

func (repo *settingsRepository) SetDefaultGovFee(ctx context.Context, fee int64) error {
	update := bson.M{"$set": bson.M{"value": fee, "updated_at": time.Now().UTC()}}
	opts := options.UpdateOne().SetUpsert(true)
	if _, err := repo.col.UpdateOne(ctx, bson.M{"_id": keyDefaultGovFee}, update, opts); err != nil {
		return errors.Wrap(err, "saving default gov fee")
	}
	return nil
}
