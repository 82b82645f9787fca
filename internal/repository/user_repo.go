package repository

import (
	"context"

	"claimdesk/internal/apperr"
	"claimdesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepository reads and writes the employee directory.
type UserRepository interface {
	FetchUsers(ctx context.Context) ([]model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FetchUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := GetDB(ctx, r.db).Order("name asc").Find(&users).Error; err != nil {
		return nil, apperr.Upstream("fetch users", err)
	}
	return users, nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "id = ?", id).Error; err != nil {
		if IsRecordNotFound(err) {
			return nil, apperr.NotFound("user", id.String())
		}
		return nil, apperr.Upstream("fetch user", err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "email = ?", email).Error; err != nil {
		if IsRecordNotFound(err) {
			return nil, apperr.NotFound("user", email)
		}
		return nil, apperr.Upstream("fetch user", err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if err := GetDB(ctx, r.db).Create(user).Error; err != nil {
		return apperr.Upstream("create user", err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	if err := GetDB(ctx, r.db).Save(user).Error; err != nil {
		return apperr.Upstream("update user", err)
	}
	return nil
}
