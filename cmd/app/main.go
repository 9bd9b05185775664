package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/fx"

	"peervote/cmd/fx/admin_fx"
	"peervote/cmd/fx/config_fx"
	"peervote/cmd/fx/controllers_fx"
	"peervote/cmd/fx/db_fx"
	"peervote/cmd/fx/memcache_fx"
	"peervote/cmd/fx/metrics_fx"
	"peervote/cmd/fx/repositories_fx"
	"peervote/cmd/fx/survey_fx"
	"peervote/cmd/fx/token_fx"
	"peervote/cmd/fx/vote_fx"
	"peervote/internal/api"
	"peervote/internal/api/controllers"
	"peervote/pkg/config"
	"peervote/pkg/metrics"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	v, err := newViper(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("parse flags")
	}

	app := fx.New(
		fx.Supply(v),
		config_fx.Module,
		metrics_fx.Module,
		db_fx.Module,
		memcache_fx.Module,
		repositories_fx.Module,
		token_fx.Module,
		vote_fx.Module,
		survey_fx.Module,
		admin_fx.Module,
		controllers_fx.Module,

		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func newViper(args []string) (*viper.Viper, error) {
	flags := pflag.NewFlagSet("peervote", pflag.ContinueOnError)
	flags.String(config.FlagConfigPath, "", "optional config file (yaml, json, toml or env)")
	flags.String(config.FlagPort, "", "HTTP port, overrides PORT")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	if err := v.BindPFlag(config.FlagConfigPath, flags.Lookup(config.FlagConfigPath)); err != nil {
		return nil, err
	}
	if port, _ := flags.GetString(config.FlagPort); port != "" {
		v.Set(config.KeyPort, port)
	}
	return v, nil
}

func ProvideRouter(
	cfg *config.Config,
	ms *metrics.MetricService,
	voteController *controllers.VoteController,
	resultsController *controllers.ResultsController,
	tokenAdminController *controllers.TokenAdminController,
	surveyController *controllers.SurveyController,
	authController *controllers.AuthController) *gin.Engine {

	gin.SetMode(cfg.GinMode)
	return api.NewRouter(api.RouterParams{
		VoteController:       voteController,
		ResultsController:    resultsController,
		TokenAdminController: tokenAdminController,
		SurveyController:     surveyController,
		AuthController:       authController,
		Metrics:              ms,
		JWTSecret:            []byte(cfg.Auth.JWTSecret),
	})
}

func StartServer(lc fx.Lifecycle, cfg *config.Config, engine *gin.Engine) {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info().Str("addr", srv.Addr).Msg("Starting HTTP server")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal().Err(err).Msg("Failed to start server")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Stopping HTTP server")
			return srv.Shutdown(ctx)
		},
	})
}
