package testutil

// Package testutil provides shared helpers for tests that need real
// infrastructure (Postgres, Redis). Tests are skipped when the backing
// service is unavailable unless TEST_REQUIRE_INFRA is truthy.

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	// Import pgx driver for database/sql compatibility in tests.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/target/kb-ui-api/config"
	"github.com/target/kb-ui-api/internal/migrate"
)

// TestingTB is an interface that covers both *testing.T and *testing.B.
type TestingTB interface {
	Helper()
	Skip(args ...interface{})
	Skipf(format string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})
	Logf(format string, args ...interface{})
	Cleanup(func())
}

// TestDBConfig holds configuration for the test database.
type TestDBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// DefaultTestDBConfig returns default test database configuration.
// Defaults to port 55432 (local test DB from docker-compose test profile).
// CI/CD environments should set TEST_DB_PORT=5432 explicitly.
func DefaultTestDBConfig() TestDBConfig {
	return TestDBConfig{
		Host:     getEnvOrDefault("TEST_DB_HOST", "localhost"),
		Port:     getEnvOrDefault("TEST_DB_PORT", "55432"),
		User:     getEnvOrDefault("TEST_DB_USER", "knowledgebase"),
		Password: getEnvOrDefault("TEST_DB_PASSWORD", "knowledgebase"),
		DBName:   getEnvOrDefault("TEST_DB_NAME", "knowledgebase"),
	}
}

// SetupTestDB opens a test database connection, applies migrations, and
// clears existing rows. The test is skipped when no database is reachable.
func SetupTestDB(t TestingTB) *sql.DB {
	t.Helper()

	cfg := DefaultTestDBConfig()
	hostPort := net.JoinHostPort(cfg.Host, cfg.Port)
	dsn := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable",
		cfg.User, cfg.Password, hostPort, cfg.DBName)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		skipOrFail(t, "Test database not available:", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if pingErr := db.PingContext(ctx); pingErr != nil {
		if cerr := db.Close(); cerr != nil {
			t.Logf("test db close failed: %v", cerr)
		}
		skipOrFail(t, "Test database not available:", pingErr)
		return nil
	}

	// Run production migrations so the schema matches the application.
	if migrateErr := migrate.Run(ctx, db); migrateErr != nil {
		t.Fatal("Failed to run migrations:", migrateErr)
	}

	CleanupTestDB(t, db)
	t.Cleanup(func() {
		CleanupTestDB(t, db)
		if cerr := db.Close(); cerr != nil {
			t.Logf("test db close failed: %v", cerr)
		}
	})

	return db
}

// CleanupTestDB removes all test data from the database.
func CleanupTestDB(t TestingTB, db *sql.DB) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "DELETE FROM users"); err != nil {
		t.Fatalf("Failed to clean up table users: %v", err)
	}
}

// SetupTestRedis opens a Redis client against the test instance and flushes
// it. The test is skipped when Redis is unreachable.
func SetupTestRedis(t TestingTB) *redis.Client {
	t.Helper()

	addr := getEnvOrDefault("TEST_REDIS_ADDR", "localhost:6379")
	dbIndex, _ := strconv.Atoi(getEnvOrDefault("TEST_REDIS_DB", "9"))
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIndex,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		if cerr := client.Close(); cerr != nil {
			t.Logf("warning: failed to close redis client after ping error: %v", cerr)
		}
		skipOrFail(t, fmt.Sprintf("Redis not available for testing at %s:", addr), err)
		return nil
	}

	client.FlushDB(ctx)
	return client
}

// TestStorageConfig returns object storage configuration pointing at the
// local test MinIO instance, with a bucket reserved for tests.
func TestStorageConfig() config.StorageConfig {
	return config.StorageConfig{
		Endpoint:      getEnvOrDefault("TEST_MINIO_ENDPOINT", "localhost:9000"),
		AccessKey:     getEnvOrDefault("TEST_MINIO_ACCESS_KEY", "minioadmin"),
		SecretKey:     getEnvOrDefault("TEST_MINIO_SECRET_KEY", "minioadmin"),
		Bucket:        getEnvOrDefault("TEST_MINIO_BUCKET", "knowledgebase-test"),
		PresignExpiry: 15 * time.Minute,
	}
}

// SkipUnlessMinio skips the test when the test MinIO endpoint does not
// accept TCP connections. It avoids pulling the client library into the
// availability probe; construction errors surface in the test itself.
func SkipUnlessMinio(t TestingTB) {
	t.Helper()

	addr := getEnvOrDefault("TEST_MINIO_ENDPOINT", "localhost:9000")
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		skipOrFail(t, fmt.Sprintf("MinIO not available for testing at %s:", addr), err)
		return
	}
	if cerr := conn.Close(); cerr != nil {
		t.Logf("warning: failed to close probe connection: %v", cerr)
	}
}

// StringPtr returns a pointer to the given string value.
func StringPtr(s string) *string { return &s }

func skipOrFail(t TestingTB, msg string, err error) {
	t.Helper()
	if envBool("TEST_REQUIRE_INFRA") {
		t.Fatal(msg, err)
	}
	t.Skip(msg, err)
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
