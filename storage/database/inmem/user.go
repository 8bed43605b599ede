package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/feedesk/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

// createUser must be called with the write lock held.
func (db *DB) createUser(usr user.User) (user.User, error) {
	for _, u := range db.users {
		if u.Username == usr.Username {
			return user.User{}, user.ErrUsernameExists
		}
	}
	usr.ID = uuid.NewString()
	usr.Roles = append([]string(nil), usr.Roles...)
	db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	return repo.db.createUser(usr)
}

func (repo *userRepository) GetUserByID(_ context.Context, id string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if usr, ok := repo.db.users[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByUsername(_ context.Context, username string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.db.users {
		if usr.Username == username {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.users[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	usr.Roles = append([]string(nil), usr.Roles...)
	repo.db.users[usr.ID] = &usr
	return usr, nil
}
