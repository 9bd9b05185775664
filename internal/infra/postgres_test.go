package infra

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"peervote/pkg/config"
)

func TestWithStatementTimeout(t *testing.T) {
	tests := []struct {
		name    string
		dsn     string
		timeout time.Duration
		want    string
	}{
		{
			name:    "url without query",
			dsn:     "postgres://user:pw@localhost:5432/peervote",
			timeout: 5 * time.Second,
			want:    "postgres://user:pw@localhost:5432/peervote?statement_timeout=5000",
		},
		{
			name:    "url keeps existing query",
			dsn:     "postgres://user@localhost/peervote?sslmode=disable",
			timeout: 1500 * time.Millisecond,
			want:    "postgres://user@localhost/peervote?sslmode=disable&statement_timeout=1500",
		},
		{
			name:    "key value dsn",
			dsn:     "host=localhost user=peervote dbname=peervote",
			timeout: time.Second,
			want:    "host=localhost user=peervote dbname=peervote statement_timeout=1000",
		},
		{
			name:    "key value dsn already set",
			dsn:     "host=localhost statement_timeout=10",
			timeout: time.Second,
			want:    "host=localhost statement_timeout=10",
		},
		{
			name:    "disabled",
			dsn:     "postgres://localhost/peervote",
			timeout: 0,
			want:    "postgres://localhost/peervote",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WithStatementTimeout(tt.dsn, tt.timeout))
		})
	}
}

func TestOpenPostgres_ClosesPoolOnFailedPing(t *testing.T) {
	dialector := sqlite.Open("file:" + t.TempDir() + "/missing/peervote.db")

	db, err := openPostgres(dialector)
	require.Error(t, err)
	assert.Nil(t, db)
}

func TestCloseQuietly(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), gormConfig())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	closeQuietly(db)
	assert.ErrorContains(t, sqlDB.Ping(), "database is closed")

	closeQuietly(nil)
}

func TestInitPostgresql_UnreachableServer(t *testing.T) {
	_, err := InitPostgresql(&config.DBConfig{
		URL:             "postgres://peervote@127.0.0.1:1/peervote?sslmode=disable&connect_timeout=1",
		ConnectAttempts: 2,
	})
	assert.ErrorContains(t, err, "connect postgres")
}
