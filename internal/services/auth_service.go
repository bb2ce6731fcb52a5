package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"expenseintel/internal/auth"
	"expenseintel/internal/core"
	"expenseintel/internal/storage"
)

const minPasswordLen = 8

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type AuthService struct {
	users  storage.UserRepository
	tokens *auth.TokenManager
}

func NewAuthService(users storage.UserRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

func (s *AuthService) Register(ctx context.Context, email, password, fullName string) (core.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return core.User{}, fmt.Errorf("%w: invalid email address", core.ErrValidation)
	}
	if len(password) < minPasswordLen {
		return core.User{}, fmt.Errorf("%w: password must be at least %d characters", core.ErrValidation, minPasswordLen)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, core.User{
		Email:          email,
		HashedPassword: string(hashed),
		FullName:       strings.TrimSpace(fullName),
		IsActive:       true,
	})
	if err != nil {
		return core.User{}, err
	}
	return user, nil
}

// Login never distinguishes a wrong password from an unknown email.
func (s *AuthService) Login(ctx context.Context, email, password string) (TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return TokenPair{}, fmt.Errorf("%w: invalid credentials", core.ErrUnauthorized)
		}
		return TokenPair{}, fmt.Errorf("look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return TokenPair{}, fmt.Errorf("%w: invalid credentials", core.ErrUnauthorized)
	}
	if !user.IsActive {
		return TokenPair{}, fmt.Errorf("%w: account is deactivated", core.ErrUnauthorized)
	}

	return s.issueTokens(user.ID)
}

// Refresh exchanges a valid refresh token for a fresh pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	userID, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, err
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return TokenPair{}, fmt.Errorf("%w: unknown user", core.ErrUnauthorized)
		}
		return TokenPair{}, fmt.Errorf("look up user: %w", err)
	}
	if !user.IsActive {
		return TokenPair{}, fmt.Errorf("%w: account is deactivated", core.ErrUnauthorized)
	}

	return s.issueTokens(user.ID)
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(current)); err != nil {
		return fmt.Errorf("%w: current password is incorrect", core.ErrUnauthorized)
	}
	if len(next) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", core.ErrValidation, minPasswordLen)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.users.UpdatePassword(ctx, userID, string(hashed))
}

// GenerateResetToken mints a short-lived reset token for the account behind
// the email. Delivery is the caller's concern; no mail is sent here.
func (s *AuthService) GenerateResetToken(ctx context.Context, email string) (string, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", fmt.Errorf("%w: no user found with this email", core.ErrValidation)
		}
		return "", fmt.Errorf("look up user: %w", err)
	}
	return s.tokens.NewResetToken(user.ID)
}

// ResetPassword redeems a reset token for a new credential. A bad or expired
// token is a validation failure, not an auth one; the caller is anonymous.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	userID, err := s.tokens.VerifyResetToken(token)
	if err != nil {
		return fmt.Errorf("%w: invalid or expired reset token", core.ErrValidation)
	}
	if len(newPassword) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", core.ErrValidation, minPasswordLen)
	}

	if _, err := s.users.Get(ctx, userID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("%w: invalid or expired reset token", core.ErrValidation)
		}
		return fmt.Errorf("look up user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.UpdatePassword(ctx, userID, string(hashed))
}

// ProfileUpdate carries the optional profile fields a user can change about
// themselves. Password arrives in plaintext and is hashed here.
type ProfileUpdate struct {
	Email    *string `json:"email"`
	FullName *string `json:"full_name"`
	Currency *string `json:"currency"`
	Password *string `json:"password"`
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, upd ProfileUpdate) (core.User, error) {
	stored := core.UserUpdate{
		FullName: upd.FullName,
		Currency: upd.Currency,
	}

	if upd.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*upd.Email))
		if _, err := mail.ParseAddress(email); err != nil {
			return core.User{}, fmt.Errorf("%w: invalid email address", core.ErrValidation)
		}
		stored.Email = &email
	}
	if upd.Password != nil {
		if len(*upd.Password) < minPasswordLen {
			return core.User{}, fmt.Errorf("%w: password must be at least %d characters", core.ErrValidation, minPasswordLen)
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*upd.Password), bcrypt.DefaultCost)
		if err != nil {
			return core.User{}, fmt.Errorf("hash password: %w", err)
		}
		h := string(hashed)
		stored.HashedPassword = &h
	}

	return s.users.Update(ctx, userID, stored)
}

func (s *AuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (core.User, error) {
	return s.users.Get(ctx, userID)
}

func (s *AuthService) issueTokens(userID uuid.UUID) (TokenPair, error) {
	access, err := s.tokens.NewAccessToken(userID)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.tokens.NewRefreshToken(userID)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}
