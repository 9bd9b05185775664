package repositories

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"peervote/internal/models/db_models"
)

type AdminUserRepository interface {
	Create(ctx context.Context, admin *db_models.AdminUser) error
	FindByUsername(ctx context.Context, username string) (*db_models.AdminUser, error)
}

type adminUserRepository struct {
	db *gorm.DB
}

func NewAdminUserRepository(db *gorm.DB) AdminUserRepository {
	return &adminUserRepository{db: db}
}

func (a *adminUserRepository) Create(ctx context.Context, admin *db_models.AdminUser) error {
	return errors.Wrap(a.db.WithContext(ctx).Create(admin).Error, "create admin user")
}

func (a *adminUserRepository) FindByUsername(ctx context.Context, username string) (*db_models.AdminUser, error) {
	var admin db_models.AdminUser
	err := a.db.WithContext(ctx).First(&admin, "username = ?", username).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find admin user")
	}
	return &admin, nil
}
