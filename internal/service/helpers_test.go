package service

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/user-reports/internal/auth"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fastPasswords keeps bcrypt cheap in tests.
func fastPasswords() *auth.PasswordService {
	return auth.NewPasswordServiceWithCost(bcrypt.MinCost)
}

func testTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	ts, err := auth.NewTokenService("test-secret-0123456789abcdef")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }
