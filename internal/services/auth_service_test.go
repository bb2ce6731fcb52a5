package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"expenseintel/internal/auth"
	"expenseintel/internal/core"
	"expenseintel/internal/storage/memory"
)

func newAuthFixture(t *testing.T) *AuthService {
	t.Helper()
	tokens, err := auth.NewTokenManager("access-secret", "refresh-secret", 30*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	return NewAuthService(memory.New().Users(), tokens)
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	svc := newAuthFixture(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Ada@Example.com", "s3cretpass", "Ada")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "ada@example.com" {
		t.Errorf("Email = %q, want lowercased", user.Email)
	}
	if user.HashedPassword == "s3cretpass" {
		t.Error("password must be stored hashed")
	}
	if !user.IsActive {
		t.Error("new users should be active")
	}

	pair, err := svc.Login(ctx, "ada@example.com", "s3cretpass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Error("Login should return both tokens")
	}
	if pair.TokenType != "bearer" {
		t.Errorf("TokenType = %q, want bearer", pair.TokenType)
	}
}

func TestAuthService_RegisterRejects(t *testing.T) {
	svc := newAuthFixture(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "not-an-email", "s3cretpass", ""); !errors.Is(err, core.ErrValidation) {
		t.Errorf("bad email error = %v, want ErrValidation", err)
	}
	if _, err := svc.Register(ctx, "a@b.com", "short", ""); !errors.Is(err, core.ErrValidation) {
		t.Errorf("short password error = %v, want ErrValidation", err)
	}

	if _, err := svc.Register(ctx, "dup@example.com", "s3cretpass", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, "DUP@example.com", "s3cretpass", ""); !errors.Is(err, core.ErrValidation) {
		t.Errorf("duplicate email error = %v, want ErrValidation", err)
	}
}

func TestAuthService_LoginFailures(t *testing.T) {
	svc := newAuthFixture(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "ada@example.com", "s3cretpass", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Wrong password and unknown email look identical to the caller.
	if _, err := svc.Login(ctx, "ada@example.com", "wrongpass"); !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("wrong password error = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.Login(ctx, "ghost@example.com", "s3cretpass"); !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("unknown email error = %v, want ErrUnauthorized", err)
	}
}

func TestAuthService_Refresh(t *testing.T) {
	svc := newAuthFixture(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "ada@example.com", "s3cretpass", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	pair, err := svc.Login(ctx, "ada@example.com", "s3cretpass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	fresh, err := svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if fresh.AccessToken == "" || fresh.RefreshToken == "" {
		t.Error("Refresh should return a full pair")
	}

	// An access token is not a refresh token.
	if _, err := svc.Refresh(ctx, pair.AccessToken); !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("access-as-refresh error = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.Refresh(ctx, "garbage"); !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("garbage token error = %v, want ErrUnauthorized", err)
	}
}

func TestAuthService_PasswordResetFlow(t *testing.T) {
	svc := newAuthFixture(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "ada@example.com", "s3cretpass", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.GenerateResetToken(ctx, "ghost@example.com"); !errors.Is(err, core.ErrValidation) {
		t.Errorf("unknown email error = %v, want ErrValidation", err)
	}

	// Email lookup follows the same normalization as login.
	token, err := svc.GenerateResetToken(ctx, "ADA@Example.com")
	if err != nil {
		t.Fatalf("GenerateResetToken: %v", err)
	}
	if token == "" {
		t.Fatal("reset token should not be empty")
	}

	if err := svc.ResetPassword(ctx, token, "tiny"); !errors.Is(err, core.ErrValidation) {
		t.Errorf("short password error = %v, want ErrValidation", err)
	}
	if err := svc.ResetPassword(ctx, "garbage", "newpassword"); !errors.Is(err, core.ErrValidation) {
		t.Errorf("garbage token error = %v, want ErrValidation", err)
	}

	// An access token is not a reset token, even though it parses.
	pair, err := svc.Login(ctx, "ada@example.com", "s3cretpass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := svc.ResetPassword(ctx, pair.AccessToken, "newpassword"); !errors.Is(err, core.ErrValidation) {
		t.Errorf("access-as-reset error = %v, want ErrValidation", err)
	}

	if err := svc.ResetPassword(ctx, token, "newpassword"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if _, err := svc.Login(ctx, "ada@example.com", "s3cretpass"); !errors.Is(err, core.ErrUnauthorized) {
		t.Error("old password should no longer work")
	}
	if _, err := svc.Login(ctx, "ada@example.com", "newpassword"); err != nil {
		t.Errorf("new password should work: %v", err)
	}
}

func TestAuthService_UpdateProfile(t *testing.T) {
	svc := newAuthFixture(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "ada@example.com", "s3cretpass", "Ada")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	name := "Ada Lovelace"
	currency := "EUR"
	updated, err := svc.UpdateProfile(ctx, user.ID, ProfileUpdate{FullName: &name, Currency: &currency})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.FullName != "Ada Lovelace" || updated.Currency != "EUR" {
		t.Errorf("profile = %q/%q, want Ada Lovelace/EUR", updated.FullName, updated.Currency)
	}
	if updated.Email != "ada@example.com" {
		t.Errorf("untouched email changed to %q", updated.Email)
	}

	bad := "not-an-email"
	if _, err := svc.UpdateProfile(ctx, user.ID, ProfileUpdate{Email: &bad}); !errors.Is(err, core.ErrValidation) {
		t.Errorf("bad email error = %v, want ErrValidation", err)
	}
	short := "tiny"
	if _, err := svc.UpdateProfile(ctx, user.ID, ProfileUpdate{Password: &short}); !errors.Is(err, core.ErrValidation) {
		t.Errorf("short password error = %v, want ErrValidation", err)
	}

	// Email changes are normalized like registration.
	email := "Countess@Example.com"
	updated, err = svc.UpdateProfile(ctx, user.ID, ProfileUpdate{Email: &email})
	if err != nil {
		t.Fatalf("UpdateProfile email: %v", err)
	}
	if updated.Email != "countess@example.com" {
		t.Errorf("Email = %q, want lowercased", updated.Email)
	}

	// A password set through the profile is hashed and usable.
	newPass := "newpassword"
	if _, err := svc.UpdateProfile(ctx, user.ID, ProfileUpdate{Password: &newPass}); err != nil {
		t.Fatalf("UpdateProfile password: %v", err)
	}
	if _, err := svc.Login(ctx, "countess@example.com", "newpassword"); err != nil {
		t.Errorf("new password should work: %v", err)
	}
}

func TestAuthService_ChangePassword(t *testing.T) {
	svc := newAuthFixture(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "ada@example.com", "s3cretpass", "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := svc.ChangePassword(ctx, user.ID, "wrongpass", "newpassword"); !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("wrong current password error = %v, want ErrUnauthorized", err)
	}
	if err := svc.ChangePassword(ctx, user.ID, "s3cretpass", "tiny"); !errors.Is(err, core.ErrValidation) {
		t.Errorf("short new password error = %v, want ErrValidation", err)
	}
	if err := svc.ChangePassword(ctx, uuid.New(), "s3cretpass", "newpassword"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown user error = %v, want ErrNotFound", err)
	}

	if err := svc.ChangePassword(ctx, user.ID, "s3cretpass", "newpassword"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := svc.Login(ctx, "ada@example.com", "s3cretpass"); !errors.Is(err, core.ErrUnauthorized) {
		t.Error("old password should no longer work")
	}
	if _, err := svc.Login(ctx, "ada@example.com", "newpassword"); err != nil {
		t.Errorf("new password should work: %v", err)
	}
}
