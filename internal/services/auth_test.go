package services

import (
	"testing"

	"github.com/promptgate/promptgate/internal/config"
	"github.com/promptgate/promptgate/internal/utils"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	utils.SetJWTSecret("test-secret-key-for-testing")
	return NewAuthService(newTestDB(t), &config.JWTConfig{
		Secret:     "test-secret-key-for-testing",
		ExpireHour: 24,
	})
}

func TestAuthService_CreateAdminIfNotExists(t *testing.T) {
	svc := newTestAuthService(t)

	if err := svc.CreateAdminIfNotExists(); err != nil {
		t.Fatalf("CreateAdminIfNotExists() error = %v", err)
	}
	// Second call is a no-op.
	if err := svc.CreateAdminIfNotExists(); err != nil {
		t.Fatalf("second CreateAdminIfNotExists() error = %v", err)
	}

	resp, err := svc.Login(&LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if resp.Token == "" {
		t.Error("Login() returned empty token")
	}
	if resp.User.Role != "admin" {
		t.Errorf("Role = %q, expected admin", resp.User.Role)
	}

	claims, err := utils.ParseToken(resp.Token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Username != "admin" {
		t.Errorf("token Username = %q, expected admin", claims.Username)
	}
}

func TestAuthService_LoginFailures(t *testing.T) {
	svc := newTestAuthService(t)
	if err := svc.CreateAdminIfNotExists(); err != nil {
		t.Fatalf("CreateAdminIfNotExists() error = %v", err)
	}

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "admin", "not-the-password"},
		{"unknown user", "ghost", "admin123"},
		{"empty password", "admin", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(&LoginRequest{Username: tt.username, Password: tt.password})
			if err == nil {
				t.Error("Login() should have failed")
			}
		})
	}
}
