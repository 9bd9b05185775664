package testutil

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"peervote/internal/infra"
)

// DockerTestsEnv enables tests that start a real Postgres container.
const DockerTestsEnv = "PEERVOTE_DOCKER_TESTS"

// Database is a Postgres container started for a test suite.
type Database struct {
	DB *gorm.DB

	pool     *dockertest.Pool
	resource *dockertest.Resource
}

// RunPostgres skips the calling test unless DockerTestsEnv is set to 1.
func RunPostgres(t *testing.T) *Database {
	t.Helper()
	if os.Getenv(DockerTestsEnv) != "1" {
		t.Skipf("set %s=1 to run Postgres integration tests", DockerTestsEnv)
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("Failed to connect to docker: %v", err)
	}
	pool.MaxWait = 2 * time.Minute

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=peervote",
			"POSTGRES_PASSWORD=peervote",
			"POSTGRES_DB=peervote_test",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("Failed to start postgres: %v", err)
	}
	_ = resource.Expire(300)

	dsn := fmt.Sprintf("postgres://peervote:peervote@%s/peervote_test?sslmode=disable",
		resource.GetHostPort("5432/tcp"))

	var db *gorm.DB
	err = pool.Retry(func() error {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			TranslateError: true,
			Logger:         logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return err
		}
		conn, err := db.DB()
		if err != nil {
			return err
		}
		return conn.Ping()
	})
	if err != nil {
		_ = pool.Purge(resource)
		t.Fatalf("Postgres never became ready: %v", err)
	}

	if err := infra.Migrate(db); err != nil {
		_ = pool.Purge(resource)
		t.Fatalf("Failed to migrate postgres: %v", err)
	}

	return &Database{DB: db, pool: pool, resource: resource}
}

// Stop closes the pool and removes the container.
func (d *Database) Stop() error {
	if conn, err := d.DB.DB(); err == nil {
		_ = conn.Close()
	}
	return d.pool.Purge(d.resource)
}
