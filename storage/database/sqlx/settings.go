package sqlxrepos

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/feedesk/core/student"
)

const keyDefaultGovFee = "default_gov_fee"

type settingsRepository struct {
	db *sqlx.DB
}

var _ student.SettingsRepository = (*settingsRepository)(nil) // interface compliance check

func NewSettingsRepository(db *sqlx.DB) student.SettingsRepository {
	return &settingsRepository{db: db}
}

func (repo *settingsRepository) DefaultGovFee(ctx context.Context) (int64, error) {
	var value string
	err := repo.db.GetContext(ctx, &value, `SELECT value FROM system_config WHERE key = $1`, keyDefaultGovFee)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return 0, nil
		}
		return 0, errors.Wrap(err, "selecting default gov fee")
	}
	fee, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing default gov fee %q", value)
	}
	return fee, nil
}

func (repo *settingsRepository) SetDefaultGovFee(ctx context.Context, fee int64) error {
	q := `INSERT INTO system_config (key, value, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := repo.db.ExecContext(ctx, q, keyDefaultGovFee, strconv.FormatInt(fee, 10), time.Now().UTC()); err != nil {
		return errors.Wrap(err, "saving default gov fee")
	}
	return nil
}
