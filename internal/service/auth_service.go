package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"

	"statsboard/internal/auth"
	"statsboard/internal/entity"
	"statsboard/internal/observability"
	"statsboard/internal/repository"
)

// ErrInvalidCredentials covers both an unknown username and a wrong password.
var ErrInvalidCredentials = errors.New("invalid username or password")

type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	UpdatePasswordHash(ctx context.Context, id int, hash string) error
}

type AuthService struct {
	users   UserStore
	hasher  auth.PasswordHasher
	logger  *slog.Logger
	metrics *observability.Metrics

	// dummyHash is verified for unknown usernames.
	dummyHash string
}

func NewAuthService(users UserStore, hasher auth.PasswordHasher, logger *slog.Logger, metrics *observability.Metrics) *AuthService {
	s := &AuthService{
		users:   users,
		hasher:  hasher,
		logger:  logger,
		metrics: metrics,
	}
	s.dummyHash = s.buildDummy()
	return s
}

// Authenticate returns the user whose username and password match.
// Unknown users and wrong passwords both yield ErrInvalidCredentials, and an
// unknown user still pays for one hash verification.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*entity.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.metrics.RecordLogin(observability.LoginError)
		return nil, oops.Code("AUTH_LOGIN_FAILED").With("operation", "get user by username").Wrap(err)
	}

	exists := err == nil
	target := s.dummyHash
	if exists {
		target = user.PasswordHash
	}

	valid, verifyErr := s.hasher.Verify(password, target)
	if verifyErr != nil {
		if exists {
			s.logger.WarnContext(ctx, "stored password hash is unusable", "user_id", user.ID, "error", verifyErr)
		}
		valid = false
	}

	if !exists || !valid {
		s.metrics.RecordLogin(observability.LoginInvalid)
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	if s.hasher.NeedsUpgrade(user.PasswordHash) {
		s.upgradeHash(ctx, user, password)
	}

	s.metrics.RecordLogin(observability.LoginSuccess)
	return user, nil
}

// upgradeHash is best effort: login succeeds even if the rewrite fails.
func (s *AuthService) upgradeHash(ctx context.Context, user *entity.User, password string) {
	newHash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.WarnContext(ctx, "password rehash failed", "user_id", user.ID, "error", err)
		return
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, newHash); err != nil {
		s.logger.WarnContext(ctx, "storing upgraded password hash failed", "user_id", user.ID, "error", err)
		return
	}
	user.PasswordHash = newHash
	s.logger.InfoContext(ctx, "password hash upgraded", "user_id", user.ID)
}

// buildDummy hashes a fixed password with the configured hasher so that
// verifying an unknown user costs the same as verifying a known one.
func (s *AuthService) buildDummy() string {
	h, err := s.hasher.Hash("statsboard-dummy-password")
	if err != nil {
		s.logger.Error("building dummy password hash failed", "error", err)
		return ""
	}
	return h
}
