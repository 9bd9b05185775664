package admin_fx

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"peervote/internal/repositories"
	"peervote/internal/services"
	"peervote/pkg/config"
	"peervote/pkg/utils"
)

var Module = fx.Options(
	fx.Provide(provideAdminAuthService),
	fx.Invoke(bootstrapAdmin),
)

func provideAdminAuthService(adminRepo repositories.AdminUserRepository, cfg *config.Config) services.AdminAuthServiceInterface {
	return services.NewAdminAuthService(adminRepo, services.AdminAuthSettings{
		JWTSecret:  []byte(cfg.Auth.JWTSecret),
		SessionTTL: cfg.Admin.SessionTTL,
		BcryptCost: cfg.Auth.BcryptCost,
	})
}

func bootstrapAdmin(lc fx.Lifecycle, cfg *config.Config, auth services.AdminAuthServiceInterface) {
	if cfg.Admin.BootstrapUsername == "" {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			created, err := auth.EnsureAdmin(ctx, cfg.Admin.BootstrapUsername, cfg.Admin.BootstrapPassword, utils.RoleAdmin)
			if err != nil {
				return err
			}
			if created {
				log.Info().Str("username", cfg.Admin.BootstrapUsername).Msg("bootstrap admin created")
			}
			return nil
		},
	})
}
