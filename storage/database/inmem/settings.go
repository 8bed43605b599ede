package inmemdb

import (
	"context"

	"github.com/trezcool/feedesk/core/student"
)

const keyDefaultGovFee = "default_gov_fee"

type settingsRepository struct {
	db *DB
}

var _ student.SettingsRepository = (*settingsRepository)(nil) // interface compliance check

func NewSettingsRepository(db *DB) student.SettingsRepository {
	return &settingsRepository{db: db}
}

func (repo *settingsRepository) DefaultGovFee(_ context.Context) (int64, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.db.settings[keyDefaultGovFee], nil
}

func (repo *settingsRepository) SetDefaultGovFee(_ context.Context, fee int64) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.settings[keyDefaultGovFee] = fee
	return nil
}
