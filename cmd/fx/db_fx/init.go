package db_fx

import (
	"context"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"peervote/internal/infra"
	"peervote/pkg/config"
)

var Module = fx.Provide(provideDB)

func provideDB(lc fx.Lifecycle, cfg *config.Config) (*gorm.DB, error) {
	db, err := infra.InitPostgresql(&cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := infra.Migrate(db); err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return infra.ClosePostgresql(db)
		},
	})
	return db, nil
}
