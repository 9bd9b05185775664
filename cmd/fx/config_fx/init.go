package config_fx

import (
	"github.com/spf13/viper"
	"go.uber.org/fx"

	"peervote/internal/services"
	"peervote/pkg/config"
	"peervote/pkg/logger"
)

// Module expects the caller to supply the *viper.Viper with flags bound.
var Module = fx.Options(
	fx.Provide(provideConfig, provideTokenSettings),
	fx.Invoke(configureLogger),
)

func provideConfig(v *viper.Viper) (*config.Config, error) {
	return config.Load(v)
}

func provideTokenSettings(cfg *config.Config) services.TokenSettings {
	return services.TokenSettings{
		LookupKey:  cfg.Auth.TokenLookupKey,
		BcryptCost: cfg.Auth.BcryptCost,
	}
}

func configureLogger(cfg *config.Config) {
	logger.Configure(cfg.Log)
}
