package config

const (
	FlagConfigPath = "config-path"
	FlagPort       = "port"

	KeyPort               = "PORT"
	KeyGinMode            = "GIN_MODE"
	KeyPostgresURL        = "POSTGRES_URL"
	KeyDBMaxOpenConns     = "DB_MAX_OPEN_CONNS"
	KeyDBMaxIdleConns     = "DB_MAX_IDLE_CONNS"
	KeyDBStatementTimeout = "DB_STATEMENT_TIMEOUT"
	KeyDBConnectAttempts  = "DB_CONNECT_ATTEMPTS"
	KeyJWTSecret          = "JWT_SECRET"
	KeyTokenLookupKey     = "TOKEN_LOOKUP_KEY"
	KeyBcryptCost         = "VOTER_TOKEN_BCRYPT_COST"
	KeyVoteTxTimeout      = "VOTE_TX_TIMEOUT"
	KeyIssuedTokenTTL     = "ISSUED_TOKEN_TTL"
	KeyAdminSessionTTL    = "ADMIN_SESSION_TTL"
	KeyAdminBootstrapUser = "ADMIN_BOOTSTRAP_USERNAME"
	KeyAdminBootstrapPass = "ADMIN_BOOTSTRAP_PASSWORD"
	KeyLogLevel           = "LOG_LEVEL"
	KeyLogFile            = "LOG_FILE"
	KeyLogUseFile         = "LOG_USE_FILE"
	KeyLogMaxSizeMB       = "LOG_MAX_SIZE_MB"
	KeyLogMaxBackups      = "LOG_MAX_BACKUPS"
	KeyLogMaxAgeDays      = "LOG_MAX_AGE_DAYS"
	KeyLogCompress        = "LOG_COMPRESS"
)
