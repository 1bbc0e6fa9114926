package service

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/dexquiz/dexquiz/internal/events"
	"github.com/dexquiz/dexquiz/internal/hash"
	"github.com/dexquiz/dexquiz/internal/logging"
	"github.com/dexquiz/dexquiz/internal/metrics"
	"github.com/dexquiz/dexquiz/internal/models"
	"github.com/dexquiz/dexquiz/internal/repo"
	"github.com/dexquiz/dexquiz/internal/tokens"
)

const (
	minUsernameLen = 5
	maxUsernameLen = 100
	minPasswordLen = 8
	maxPasswordLen = 100
)

type UserStore interface {
	AddUser(ctx context.Context, username, passwordHash string) (*models.User, error)
	GetUser(ctx context.Context, username string) (*models.User, error)
}

type AuthService struct {
	Users   UserStore
	Tokens  *tokens.Service
	Events  events.Publisher
	Metrics *metrics.Metrics
}

func validateCredentials(username, password string) error {
	if n := utf8.RuneCountInString(username); n < minUsernameLen || n > maxUsernameLen {
		return fmt.Errorf("%w: username must be between %d and %d characters", ErrValidation, minUsernameLen, maxUsernameLen)
	}
	if n := utf8.RuneCountInString(password); n < minPasswordLen || n > maxPasswordLen {
		return fmt.Errorf("%w: password must be between %d and %d characters", ErrValidation, minPasswordLen, maxPasswordLen)
	}
	return nil
}

func (s *AuthService) Register(ctx context.Context, username, password string) error {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if err := validateCredentials(username, password); err != nil {
		l.Warn("register_error", "status", 400, "reason", err.Error())
		return err
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return err
	}

	if _, err := s.Users.AddUser(ctx, username, pwHash); err != nil {
		switch {
		case errors.Is(err, repo.ErrDuplicateUsername):
			l.Warn("register_error", "status", 409, "reason", "user already exists")
			return fmt.Errorf("%w: %v", ErrConflict, err)
		case errors.Is(err, repo.ErrEmptyField):
			l.Warn("register_error", "status", 400, "reason", "empty field")
			return fmt.Errorf("%w: %v", ErrValidation, err)
		default:
			l.Error("register_error", "status", 500, "error", err)
			return err
		}
	}

	s.publish(ctx, events.New(events.TypeUserRegistered, username))
	l.Info("user_registered", "username", username)
	return nil
}

// Login checks credentials and returns a fresh token pair.
func (s *AuthService) Login(ctx context.Context, username, password string) (*tokens.Pair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	user, err := s.Users.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			s.Metrics.Login(false)
			l.Warn("login_failed", "status", 401, "reason", "unknown user")
			return nil, ErrUnauthenticated
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		s.Metrics.Login(false)
		l.Warn("login_failed", "status", 401, "reason", "wrong password")
		return nil, ErrUnauthenticated
	}

	pair, err := s.Tokens.IssuePair(user.Username)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}

	s.Metrics.Login(true)
	s.publish(ctx, events.New(events.TypeUserLoggedIn, user.Username))
	l.Info("login_successful")
	return pair, nil
}

// Refresh rotates both tokens. Unknown subjects map to ErrUserNotFound,
// every other token problem to ErrUnauthenticated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*tokens.Pair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	pair, err := s.Tokens.Refresh(ctx, refreshToken, s.Users)
	switch {
	case err == nil:
		l.Info("token_refreshed", "username", pair.Subject)
		return pair, nil
	case errors.Is(err, repo.ErrUserNotFound):
		l.Warn("refresh_failed", "status", 401, "reason", "user not found")
		return nil, ErrUserNotFound
	case errors.Is(err, tokens.ErrInvalidToken), errors.Is(err, tokens.ErrMissingSubject):
		l.Warn("refresh_failed", "status", 401, "reason", err.Error())
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	default:
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, err
	}
}

// Authenticate resolves an access token to a stored user.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	if accessToken == "" {
		return nil, ErrUnauthenticated
	}
	subject, err := s.Tokens.Verify(accessToken, tokens.TypeAccess)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	user, err := s.Users.GetUser(ctx, subject)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) publish(ctx context.Context, e events.Event) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, e); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "type", e.Type, "error", err)
	}
}
