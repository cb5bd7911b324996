package repository

import (
	"context"

	"github.com/damoang/angple-chat/internal/domain"
	"gorm.io/gorm"
)

// UserRepository user data access interface
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]*domain.User, error)
	FindAllExcept(ctx context.Context, id string) ([]*domain.User, error)
	UpdateRefreshToken(ctx context.Context, id string, token *string) error
	UpdateProfilePic(ctx context.Context, id, url string) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	var users []*domain.User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, err
}

// FindAllExcept returns every user other than id, ordered by name
func (r *userRepository) FindAllExcept(ctx context.Context, id string) ([]*domain.User, error) {
	var users []*domain.User
	err := r.db.WithContext(ctx).
		Where("id <> ?", id).
		Order("name ASC, id ASC").
		Find(&users).Error
	return users, err
}

func (r *userRepository) UpdateRefreshToken(ctx context.Context, id string, token *string) error {
	return r.updateColumn(ctx, id, "refresh_token", token)
}

func (r *userRepository) UpdateProfilePic(ctx context.Context, id, url string) error {
	return r.updateColumn(ctx, id, "profile_pic", url)
}

func (r *userRepository) updateColumn(ctx context.Context, id, column string, value interface{}) error {
	result := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
