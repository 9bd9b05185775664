package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Port    string
	GinMode string
	DB      DBConfig
	Auth    AuthConfig
	Vote    VoteConfig
	Admin   AdminConfig
	Log     LogConfig
}

type DBConfig struct {
	URL              string
	MaxOpenConns     int
	MaxIdleConns     int
	StatementTimeout time.Duration
	ConnectAttempts  uint
}

type AuthConfig struct {
	JWTSecret string
	// TokenLookupKey keys the HMAC index on voter tokens. Empty disables the
	// index and every resolution falls back to the bcrypt scan.
	TokenLookupKey string
	BcryptCost     int
}

type VoteConfig struct {
	TxTimeout      time.Duration
	IssuedTokenTTL time.Duration
}

type AdminConfig struct {
	SessionTTL time.Duration
	// BootstrapUsername and BootstrapPassword create the first admin account
	// at startup when both are set and the username is free.
	BootstrapUsername string
	BootstrapPassword string
}

type LogConfig struct {
	Level           string
	Filename        string
	UseFileLogger   bool
	MaxFileSizeInMB int
	MaxBackups      int
	MaxAgeInDays    int
	Compress        bool
}

func (cfg *LogConfig) Validate() error {
	if cfg.UseFileLogger {
		if cfg.Filename == "" {
			return fmt.Errorf("%s should not be empty if the file logger is enabled", KeyLogFile)
		}
		if cfg.MaxFileSizeInMB <= 0 {
			return fmt.Errorf("%s should be larger than 0 if the file logger is enabled", KeyLogMaxSizeMB)
		}
	}
	return nil
}

func (cfg *DBConfig) Validate() error {
	if cfg.URL == "" {
		return fmt.Errorf("%s is required", KeyPostgresURL)
	}
	if cfg.MaxOpenConns < 0 || cfg.MaxIdleConns < 0 {
		return fmt.Errorf("connection pool sizes must not be negative")
	}
	return nil
}

func (cfg *AuthConfig) Validate() error {
	if cfg.JWTSecret == "" {
		return fmt.Errorf("%s is required", KeyJWTSecret)
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("%s must be between %d and %d", KeyBcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

func (cfg *VoteConfig) Validate() error {
	if cfg.TxTimeout <= 0 {
		return fmt.Errorf("%s must be positive", KeyVoteTxTimeout)
	}
	if cfg.IssuedTokenTTL <= 0 {
		return fmt.Errorf("%s must be positive", KeyIssuedTokenTTL)
	}
	return nil
}

func (cfg *AdminConfig) Validate() error {
	if cfg.SessionTTL <= 0 {
		return fmt.Errorf("%s must be positive", KeyAdminSessionTTL)
	}
	if (cfg.BootstrapUsername == "") != (cfg.BootstrapPassword == "") {
		return fmt.Errorf("%s and %s must be set together", KeyAdminBootstrapUser, KeyAdminBootstrapPass)
	}
	return nil
}

func (cfg *Config) Validate() error {
	if cfg.Port == "" {
		return fmt.Errorf("%s is required", KeyPort)
	}
	for _, validate := range []func() error{
		cfg.DB.Validate,
		cfg.Auth.Validate,
		cfg.Vote.Validate,
		cfg.Admin.Validate,
		cfg.Log.Validate,
	} {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyPort, "5001")
	v.SetDefault(KeyGinMode, "release")
	v.SetDefault(KeyDBMaxOpenConns, 20)
	v.SetDefault(KeyDBMaxIdleConns, 5)
	v.SetDefault(KeyDBStatementTimeout, 5*time.Second)
	v.SetDefault(KeyDBConnectAttempts, 5)
	v.SetDefault(KeyBcryptCost, bcrypt.DefaultCost)
	v.SetDefault(KeyVoteTxTimeout, 5*time.Second)
	v.SetDefault(KeyIssuedTokenTTL, 15*time.Minute)
	v.SetDefault(KeyAdminSessionTTL, 8*time.Hour)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, "peervote.log")
	v.SetDefault(KeyLogUseFile, false)
	v.SetDefault(KeyLogMaxSizeMB, 10)
	v.SetDefault(KeyLogMaxBackups, 3)
	v.SetDefault(KeyLogMaxAgeDays, 28)
	v.SetDefault(KeyLogCompress, true)
}

// Load reads the environment (and an optional config file) through v. The
// returned config has already been validated.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	// An env key set to "" overrides its default.
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	if path := v.GetString(FlagConfigPath); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Port:    v.GetString(KeyPort),
		GinMode: v.GetString(KeyGinMode),
		DB: DBConfig{
			URL:              v.GetString(KeyPostgresURL),
			MaxOpenConns:     v.GetInt(KeyDBMaxOpenConns),
			MaxIdleConns:     v.GetInt(KeyDBMaxIdleConns),
			StatementTimeout: v.GetDuration(KeyDBStatementTimeout),
			ConnectAttempts:  v.GetUint(KeyDBConnectAttempts),
		},
		Auth: AuthConfig{
			JWTSecret:      v.GetString(KeyJWTSecret),
			TokenLookupKey: v.GetString(KeyTokenLookupKey),
			BcryptCost:     v.GetInt(KeyBcryptCost),
		},
		Vote: VoteConfig{
			TxTimeout:      v.GetDuration(KeyVoteTxTimeout),
			IssuedTokenTTL: v.GetDuration(KeyIssuedTokenTTL),
		},
		Admin: AdminConfig{
			SessionTTL:        v.GetDuration(KeyAdminSessionTTL),
			BootstrapUsername: v.GetString(KeyAdminBootstrapUser),
			BootstrapPassword: v.GetString(KeyAdminBootstrapPass),
		},
		Log: LogConfig{
			Level:           v.GetString(KeyLogLevel),
			Filename:        v.GetString(KeyLogFile),
			UseFileLogger:   v.GetBool(KeyLogUseFile),
			MaxFileSizeInMB: v.GetInt(KeyLogMaxSizeMB),
			MaxBackups:      v.GetInt(KeyLogMaxBackups),
			MaxAgeInDays:    v.GetInt(KeyLogMaxAgeDays),
			Compress:        v.GetBool(KeyLogCompress),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
