package service

import (
	"context"
	"errors"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/civiops/helpdesk-service/internal/auth"
	"github.com/civiops/helpdesk-service/internal/config"
	"github.com/civiops/helpdesk-service/internal/domain"
	"github.com/civiops/helpdesk-service/internal/events"
	"github.com/civiops/helpdesk-service/internal/repository"
	apperrors "github.com/civiops/helpdesk-service/pkg/util"
)

// AuthService fronts the directory: credential verification, account
// recovery and password management. Recovery codes are single-use and live in
// the recovery store with a TTL; the "email" carrying a code is simulated
// through the notification pipeline.
type AuthService struct {
	identities repository.IdentityRepository
	recovery   repository.RecoveryCodeStore
	dispatcher events.Dispatcher
	tokenMgr   *auth.TokenManager
	bcryptCost int
	recoverTTL time.Duration
	minPwLen   int
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	IdentityRepo repository.IdentityRepository
	RecoveryRepo repository.RecoveryCodeStore
	Dispatcher   events.Dispatcher
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		identities: deps.IdentityRepo,
		recovery:   deps.RecoveryRepo,
		dispatcher: deps.Dispatcher,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
		recoverTTL: time.Duration(cfg.Auth.RecoveryCodeTTLMinutes) * time.Minute,
		minPwLen:   cfg.Auth.MinPasswordLength,
	}
}

// Login verifies a credential pair and returns the role-tagged identity with
// a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Identity, string, time.Time, error) {
	identity, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(identity.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(identity.ID, identity.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return identity, token, exp, nil
}

// RequestRecovery issues a single-use recovery code for the account and
// emits the simulated recovery email event. An unknown email is reported as
// not found; no code is issued.
func (s *AuthService) RequestRecovery(ctx context.Context, email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return apperrors.NewValidationError("malformed email address", nil)
	}
	identity, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("identity", map[string]any{"email": email})
		}
		return apperrors.MapError(err)
	}

	code := uuid.NewString()
	if err := s.recovery.Put(ctx, code, identity.ID, s.recoverTTL); err != nil {
		return apperrors.MapError(err)
	}
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventRecoveryRequested,
			Actor:     events.Actor{IdentityID: identity.ID, Role: identity.Role},
			Timestamp: time.Now(),
			Payload:   events.RecoveryRequestedPayload{Email: identity.Email},
		})
	}
	return nil
}

// ConfirmRecovery consumes a recovery code and sets the new password. The
// first-login flag is cleared: the account holder has proven control of the
// mailbox and chosen their own secret.
func (s *AuthService) ConfirmRecovery(ctx context.Context, code, newPassword string) error {
	if err := s.checkPasswordStrength(newPassword); err != nil {
		return err
	}
	identityID, err := s.recovery.Consume(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrCodeNotFound) {
			return apperrors.NewNotFound("recovery code", nil)
		}
		return apperrors.MapError(err)
	}
	identity, err := s.identities.GetByID(ctx, identityID)
	if err != nil {
		s.restoreCode(ctx, code, identityID)
		return apperrors.MapError(err)
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		s.restoreCode(ctx, code, identityID)
		return apperrors.MapError(err)
	}
	identity.PasswordHash = hash
	identity.FirstLogin = false
	if err := s.identities.Update(ctx, identity); err != nil {
		s.restoreCode(ctx, code, identityID)
		return apperrors.MapError(err)
	}
	return nil
}

// restoreCode puts a consumed code back when the password change did not go
// through, so the holder can retry instead of restarting the whole flow. The
// TTL restarts; best effort.
func (s *AuthService) restoreCode(ctx context.Context, code, identityID string) {
	_ = s.recovery.Put(ctx, code, identityID, s.recoverTTL)
}

// ChangePassword verifies the current secret before updating to a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, actor *domain.Identity, currentPassword, newPassword string) error {
	if err := s.checkPasswordStrength(newPassword); err != nil {
		return err
	}
	identity, err := s.identities.GetByID(ctx, actor.ID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if err := auth.ComparePassword(identity.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}
	identity.PasswordHash = hash
	identity.FirstLogin = false
	if err := s.identities.Update(ctx, identity); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *AuthService) checkPasswordStrength(password string) error {
	minLen := s.minPwLen
	if minLen <= 0 {
		minLen = 8
	}
	if len(password) < minLen {
		return apperrors.NewValidationError("password too short", map[string]any{"min_length": minLen})
	}
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
