package database

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/feedesk/core"
	"github.com/trezcool/feedesk/core/exam"
	"github.com/trezcool/feedesk/core/payment"
	"github.com/trezcool/feedesk/core/student"
	"github.com/trezcool/feedesk/core/user"
	mongodb "github.com/trezcool/feedesk/storage/database/mongo"
	sqlxrepos "github.com/trezcool/feedesk/storage/database/sqlx"
)

// Repositories are the repositories of the configured engine.
type Repositories struct {
	Users         user.Repository
	Students      student.Repository
	Settings      student.SettingsRepository
	Payments      payment.Repository
	Notifications exam.Repository

	close func(ctx context.Context) error
}

func (r *Repositories) Close(ctx context.Context) error {
	if r.close == nil {
		return nil
	}
	return r.close(ctx)
}

// OpenRepositories connects to conf.Database.Engine and brings its schema up to date.
func OpenRepositories(ctx context.Context, conf *core.Config) (*Repositories, error) {
	if conf.Database.IsMongo() {
		return openMongo(ctx, conf)
	}
	return openPostgres(ctx, conf)
}

func openPostgres(ctx context.Context, conf *core.Config) (*Repositories, error) {
	if err := CreateIfNotExist(ctx, conf); err != nil {
		return nil, err
	}
	db, err := Open(ctx, conf)
	if err != nil {
		return nil, err
	}
	if err = Migrate(db, "up"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repositories{
		Users:         sqlxrepos.NewUserRepository(db),
		Students:      sqlxrepos.NewStudentRepository(db),
		Settings:      sqlxrepos.NewSettingsRepository(db),
		Payments:      sqlxrepos.NewPaymentRepository(db),
		Notifications: sqlxrepos.NewExamRepository(db),
		close:         func(context.Context) error { return db.Close() },
	}, nil
}

func openMongo(ctx context.Context, conf *core.Config) (*Repositories, error) {
	db, err := mongodb.Open(ctx, conf)
	if err != nil {
		return nil, err
	}
	if err = db.Migrate(ctx); err != nil {
		_ = db.Close(ctx)
		return nil, errors.Wrap(err, "creating mongodb indexes")
	}
	return &Repositories{
		Users:         mongodb.NewUserRepository(db),
		Students:      mongodb.NewStudentRepository(db),
		Settings:      mongodb.NewSettingsRepository(db),
		Payments:      mongodb.NewPaymentRepository(db),
		Notifications: mongodb.NewExamRepository(db),
		close:         db.Close,
	}, nil
}
