package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"peervote/internal/models/db_models"
	"peervote/internal/models/response_models"
	"peervote/internal/repositories"
	"peervote/pkg/utils"
)

type AdminAuthSettings struct {
	JWTSecret  []byte
	SessionTTL time.Duration
	BcryptCost int
}

type AdminAuthServiceInterface interface {
	Login(ctx context.Context, username, password string) (response_models.AdminSession, error)
	// EnsureAdmin creates the account when the username is free. It never
	// changes an existing account.
	EnsureAdmin(ctx context.Context, username, password, role string) (bool, error)
}

type AdminAuthService struct {
	adminRepo repositories.AdminUserRepository
	settings  AdminAuthSettings
	dummyHash string
}

func NewAdminAuthService(adminRepo repositories.AdminUserRepository, settings AdminAuthSettings) AdminAuthServiceInterface {
	dummy, err := utils.HashPassword("peervote-no-such-admin", settings.BcryptCost)
	if err != nil {
		log.Warn().Err(err).Msg("failed to prepare dummy password hash")
	}
	return &AdminAuthService{
		adminRepo: adminRepo,
		settings:  settings,
		dummyHash: dummy,
	}
}

func (a *AdminAuthService) Login(ctx context.Context, username, password string) (response_models.AdminSession, error) {
	admin, err := a.adminRepo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return response_models.AdminSession{}, storeFailure(err, "admin login")
	}

	if admin == nil {
		// Unknown usernames cost one bcrypt comparison as well.
		_ = utils.ComparePasswords(a.dummyHash, password)
		return response_models.AdminSession{}, utils.ErrInvalidCredentials
	}
	if err := utils.ComparePasswords(admin.PasswordHash, password); err != nil {
		return response_models.AdminSession{}, utils.ErrInvalidCredentials
	}

	expiresAt := time.Now().Add(a.settings.SessionTTL)
	token, err := utils.CreateAdminToken(a.settings.JWTSecret, admin.ID.String(), admin.Role, a.settings.SessionTTL)
	if err != nil {
		return response_models.AdminSession{}, err
	}

	log.Info().Str("admin_id", admin.ID.String()).Msg("admin logged in")
	return response_models.AdminSession{
		Token:     token,
		Username:  admin.Username,
		Role:      admin.Role,
		ExpiresAt: expiresAt.UTC(),
	}, nil
}

func (a *AdminAuthService) EnsureAdmin(ctx context.Context, username, password, role string) (bool, error) {
	username = strings.TrimSpace(username)
	existing, err := a.adminRepo.FindByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	hash, err := utils.HashPassword(password, a.settings.BcryptCost)
	if err != nil {
		return false, err
	}
	err = a.adminRepo.Create(ctx, &db_models.AdminUser{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
