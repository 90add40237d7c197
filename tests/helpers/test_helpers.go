package helpers

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"taskMateAPI/internal/account"
	"taskMateAPI/services"
)

// SetupTestDB connects to the test database, skipping the test when no
// database is configured.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL or DATABASE_URL must be set for database tests")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	return pool
}

// CleanupTestDB removes accounts created by the test helpers; friendships,
// profiles and tasks cascade.
func CleanupTestDB(t *testing.T, pool *pgxpool.Pool) {
	ctx := context.Background()
	_, err := pool.Exec(ctx, "DELETE FROM accounts WHERE email LIKE 'test%@example.com'")
	if err != nil {
		t.Logf("Warning: failed to cleanup test data: %v", err)
	}
	pool.Close()
}

// CreateTestAccount signs up a throwaway account with a unique test email.
func CreateTestAccount(t *testing.T, authService *services.AuthService, label string) *account.Account {
	t.Helper()

	email := fmt.Sprintf("test-%s-%d@example.com", label, time.Now().UnixNano())
	resp, err := authService.SignUp(context.Background(), &account.SignUpRequest{
		Email:    email,
		Password: "test-password",
	})
	if err != nil {
		t.Fatalf("Failed to create test account %s: %v", label, err)
	}

	return resp.Account
}
