package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/feedesk/core"
	"github.com/trezcool/feedesk/storage/database"
)

var errMongoMigrate = errors.New("mongodb has no migrations: indexes are created when the app connects")

// newMigrator runs goose commands against the postgres database.
func newMigrator(ctx context.Context, conf *core.Config) func(command string, args ...string) error {
	return func(command string, args ...string) error {
		if conf.Database.IsMongo() {
			return errMongoMigrate
		}
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return err
		}
		db, err := database.Open(ctx, conf)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		return database.Migrate(db, command, args...)
	}
}
