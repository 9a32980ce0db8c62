package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thisissairam/vidoo-backend/internal/domain"
	"github.com/thisissairam/vidoo-backend/internal/repository/model"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrUsernameExists = errors.New("user with username already exists")
)

type PostgresUserRepository struct {
	db *gorm.DB
}

func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return errors.New("user is nil")
	}

	userModel := toModelUser(user)

	if err := r.db.WithContext(ctx).Create(userModel).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUsernameExists
		}
		return err
	}
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user model.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return toDomainUser(&user), nil
}

func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user model.User
	err := r.db.WithContext(ctx).First(&user, "username = ?", username).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return toDomainUser(&user), nil
}

func (r *PostgresUserRepository) Update(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return errors.New("user is nil")
	}

	userModel := toModelUser(user)

	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userModel.ID).Updates(map[string]any{
		"name":          userModel.Name,
		"username":      userModel.Username,
		"password_hash": userModel.PasswordHash,
		"token":         userModel.Token,
		"updated_at":    userModel.UpdatedAt,
	})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return ErrUsernameExists
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func toModelUser(user *domain.User) *model.User {
	return &model.User{
		ID:           user.ID,
		Name:         user.Name,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		Token:        user.Token,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func toDomainUser(user *model.User) *domain.User {
	return &domain.User{
		ID:           user.ID,
		Name:         user.Name,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		Token:        user.Token,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}
