package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fuziondot/auth-api/internal/domain"
	"github.com/fuziondot/auth-api/internal/infrastructure/email"
	jwtinfra "github.com/fuziondot/auth-api/internal/infrastructure/jwt"
	"github.com/fuziondot/auth-api/internal/pkg/id"
	"github.com/fuziondot/auth-api/internal/pkg/password"
	pkgtoken "github.com/fuziondot/auth-api/internal/pkg/token"
)

// User record attribute names used in partial update maps.
const (
	fieldVerified     = "verified"
	fieldPasswordHash = "password_hash"
)

// RegisterResult reports the outcome of a registration, including whether the
// confirmation email actually went out. Registration is not rolled back on
// delivery failure; the resend-confirmation flow covers that gap.
type RegisterResult struct {
	User           *domain.User
	EmailDelivered bool
}

type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*RegisterResult, error)
	ConfirmEmail(ctx context.Context, token string) error
	Login(ctx context.Context, req domain.LoginRequest) (bearer string, err error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResendConfirmation(ctx context.Context, email string) error
	CompletePasswordReset(ctx context.Context, token, newPassword string) error
	CurrentUser(ctx context.Context, userID string) (*domain.User, error)
}

type userStore interface {
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	AttachResetToken(ctx context.Context, userID, token string, expiresAt int64) error
	ConsumeResetToken(ctx context.Context, token string, now time.Time) (*domain.User, error)
}

type mailer interface {
	SendEmail(to, subject, htmlBody string) error
}

type tokenProvider interface {
	Sign(userID string, purpose jwtinfra.Purpose) (string, error)
	Verify(token string, expected jwtinfra.Purpose) (*jwtinfra.Claims, error)
}

type service struct {
	repo          userStore
	mailer        mailer
	tokens        tokenProvider
	resetTokenTTL time.Duration
	publicBaseURL string
}

type ServiceDeps struct {
	UserRepo      userStore
	Mailer        mailer
	Tokens        tokenProvider
	ResetTokenTTL time.Duration
	PublicBaseURL string
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:          deps.UserRepo,
		mailer:        deps.Mailer,
		tokens:        deps.Tokens,
		resetTokenTTL: deps.ResetTokenTTL,
		publicBaseURL: deps.PublicBaseURL,
	}
}

func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (*RegisterResult, error) {
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
		Verified:     false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Put(ctx, u); err != nil {
		return nil, err
	}

	result := &RegisterResult{User: u, EmailDelivered: true}
	if err := s.sendConfirmation(u); err != nil {
		// The user is registered either way; report the failed delivery
		// so the client can offer a resend.
		slog.Error("confirmation email delivery failed", "user_id", u.UserID, "err", err)
		result.EmailDelivered = false
	}
	return result, nil
}

func (s *service) ConfirmEmail(ctx context.Context, token string) error {
	claims, err := s.tokens.Verify(token, jwtinfra.PurposeEmailConfirm)
	if err != nil {
		return fmt.Errorf("invalid token: %w", domain.ErrUnauthorized)
	}
	u, err := s.repo.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("invalid token: %w", domain.ErrUnauthorized)
		}
		return err
	}
	// Confirming an already-verified user is a harmless repeat.
	if u.Verified {
		return nil
	}
	return s.repo.Update(ctx, u.UserID, map[string]interface{}{fieldVerified: true})
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (string, error) {
	u, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Same response as a wrong password so valid emails can't be enumerated.
			return "", fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
		}
		return "", err
	}
	if !password.Verify(req.Password, u.PasswordHash) {
		return "", fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if !u.Verified {
		return "", fmt.Errorf("confirm your email before logging in: %w", domain.ErrEmailNotVerified)
	}
	return s.tokens.Sign(u.UserID, jwtinfra.PurposeSession)
}

func (s *service) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	u, err := s.repo.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Outwardly indistinguishable from the success path.
			slog.Debug("password reset requested for unknown email")
			return nil
		}
		return err
	}
	tok, err := pkgtoken.NewResetToken()
	if err != nil {
		return err
	}
	expiresAt := time.Now().Add(s.resetTokenTTL).Unix()
	if err := s.repo.AttachResetToken(ctx, u.UserID, tok, expiresAt); err != nil {
		return err
	}
	link := s.publicBaseURL + "/api/auth/reset/" + tok
	body, err := email.PasswordReset(u.FirstName, link)
	if err != nil {
		return err
	}
	if err := s.mailer.SendEmail(u.Email, "Password Reset Request", body); err != nil {
		slog.Error("password reset email delivery failed", "user_id", u.UserID, "err", err)
	}
	return nil
}

func (s *service) ResendConfirmation(ctx context.Context, emailAddr string) error {
	u, err := s.repo.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if u.Verified {
		return nil
	}
	if err := s.sendConfirmation(u); err != nil {
		slog.Error("confirmation email delivery failed", "user_id", u.UserID, "err", err)
	}
	return nil
}

func (s *service) CompletePasswordReset(ctx context.Context, token, newPassword string) error {
	u, err := s.repo.ConsumeResetToken(ctx, token, time.Now())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("invalid or expired reset token: %w", domain.ErrUnauthorized)
		}
		return err
	}
	hash, err := password.Hash(newPassword)
	if err != nil {
		return err
	}
	// The consume already cleared the token pair atomically; only the hash remains.
	return s.repo.Update(ctx, u.UserID, map[string]interface{}{fieldPasswordHash: hash})
}

func (s *service) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

func (s *service) sendConfirmation(u *domain.User) error {
	tok, err := s.tokens.Sign(u.UserID, jwtinfra.PurposeEmailConfirm)
	if err != nil {
		return err
	}
	link := s.publicBaseURL + "/api/auth/confirm/" + tok
	body, err := email.Confirmation(u.FirstName, link)
	if err != nil {
		return err
	}
	return s.mailer.SendEmail(u.Email, "Confirm your email", body)
}
