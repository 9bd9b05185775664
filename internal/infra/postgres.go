package infra

import (
	"context"
	"database/sql"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"peervote/internal/models/db_models"
	"peervote/pkg/config"
)

// WithStatementTimeout appends a server-side statement_timeout to a Postgres
// URL or key/value DSN. A non-positive timeout leaves the DSN untouched.
func WithStatementTimeout(dsn string, timeout time.Duration) string {
	if timeout <= 0 {
		return dsn
	}
	ms := strconv.FormatInt(timeout.Milliseconds(), 10)

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return dsn
		}
		q := u.Query()
		q.Set("statement_timeout", ms)
		u.RawQuery = q.Encode()
		return u.String()
	}

	if strings.Contains(dsn, "statement_timeout=") {
		return dsn
	}
	return strings.TrimSpace(dsn + " statement_timeout=" + ms)
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func InitPostgresql(cfg *config.DBConfig) (*gorm.DB, error) {
	dsn := WithStatementTimeout(cfg.URL, cfg.StatementTimeout)

	attempts := cfg.ConnectAttempts
	if attempts == 0 {
		attempts = 1
	}

	var db *gorm.DB
	err := retry.Do(func() error {
		var err error
		db, err = openPostgres(postgres.Open(dsn))
		return err
	},
		retry.Context(context.Background()),
		retry.Attempts(attempts),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().Err(err).Uint("attempt", n+1).Msg("postgres not reachable, retrying")
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "connect postgres")
	}

	if err := ConfigurePool(db, cfg); err != nil {
		return nil, err
	}
	return db, nil
}

// openPostgres opens and pings a pool. A pool that fails the ping is closed
// before the error is returned.
func openPostgres(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, gormConfig())
	if err == nil {
		var sqlDB *sql.DB
		if sqlDB, err = db.DB(); err == nil {
			err = sqlDB.Ping()
		}
	}
	if err != nil {
		closeQuietly(db)
		return nil, err
	}
	return db, nil
}

func closeQuietly(db *gorm.DB) {
	if db == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func ConfigurePool(db *gorm.DB, cfg *config.DBConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "get sql.DB")
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	return nil
}

// Migrate creates or updates the schema for every persisted model.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&db_models.AdminUser{},
		&db_models.Survey{},
		&db_models.Candidate{},
		&db_models.FeedbackOption{},
		&db_models.VoterToken{},
		&db_models.Vote{},
	)
	if err != nil {
		return errors.Wrap(err, "auto migrate")
	}
	return nil
}

func ClosePostgresql(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "get sql.DB")
	}
	if err := sqlDB.Close(); err != nil {
		return errors.Wrap(err, "close postgres")
	}
	log.Info().Msg("PostgreSQL database connection closed successfully")
	return nil
}
