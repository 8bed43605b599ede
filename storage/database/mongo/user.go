package mongodb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/trezcool/feedesk/core/user"
)

type userDoc struct {
	ID           string     `bson:"_id"`
	Name         string     `bson:"name"`
	Username     string     `bson:"username"`
	Email        string     `bson:"email,omitempty"`
	IsActive     bool       `bson:"is_active"`
	Roles        []string   `bson:"roles"`
	PasswordHash []byte     `bson:"password_hash"`
	CreatedAt    time.Time  `bson:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at"`
	LastLogin    *time.Time `bson:"last_login,omitempty"`
}

func toUserDoc(usr user.User) userDoc {
	doc := userDoc{
		ID:           usr.ID,
		Name:         usr.Name,
		Username:     usr.Username,
		Email:        usr.Email,
		IsActive:     usr.IsActive,
		Roles:        usr.Roles,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
	}
	if doc.Roles == nil {
		doc.Roles = []string{}
	}
	if !usr.LastLogin.IsZero() {
		t := usr.LastLogin.UTC()
		doc.LastLogin = &t
	}
	return doc
}

func (d userDoc) toUser() user.User {
	usr := user.User{
		ID:           d.ID,
		Name:         d.Name,
		Username:     d.Username,
		Email:        d.Email,
		IsActive:     d.IsActive,
		Roles:        d.Roles,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
	if d.LastLogin != nil {
		usr.LastLogin = d.LastLogin.UTC()
	}
	return usr
}

type userRepository struct {
	col *mongo.Collection
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{col: db.collection(colUsers)}
}

func insertUser(ctx context.Context, col *mongo.Collection, usr user.User) (user.User, error) {
	usr.ID = uuid.NewString()
	if _, err := col.InsertOne(ctx, toUserDoc(usr)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.User{}, user.ErrUsernameExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	return insertUser(ctx, repo.col, usr)
}

func (repo *userRepository) findOne(ctx context.Context, filter bson.M) (user.User, error) {
	var doc userDoc
	if err := repo.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "finding user")
	}
	return doc.toUser(), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.findOne(ctx, bson.M{"_id": id})
}

func (repo *userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	return repo.findOne(ctx, bson.M{"username": username})
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	res, err := repo.col.ReplaceOne(ctx, bson.M{"_id": usr.ID}, toUserDoc(usr))
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if res.MatchedCount == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}
