package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dexquiz/dexquiz/internal/models"
)

const (
	AccessTTL  = 30 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour

	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = fmt.Errorf("token expired: %w", ErrInvalidToken)
	ErrMissingSubject = errors.New("token has no subject")
	ErrMissingSecret  = errors.New("signing secret is not configured")
)

type Claims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// Pair is a freshly minted access/refresh token couple for one subject.
type Pair struct {
	Subject      string
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

type UserLookup interface {
	GetUser(ctx context.Context, username string) (*models.User, error)
}

type Service struct {
	Secret []byte
	Now    func() time.Time
}

func NewService(secret []byte) (*Service, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}
	return &Service{Secret: secret, Now: time.Now}, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) IssueAccessToken(subject string) (string, time.Time, error) {
	return s.issue(subject, TypeAccess, AccessTTL)
}

func (s *Service) IssueRefreshToken(subject string) (string, time.Time, error) {
	return s.issue(subject, TypeRefresh, RefreshTTL)
}

// IssuePair mints both tokens for subject.
func (s *Service) IssuePair(subject string) (*Pair, error) {
	access, accessExp, err := s.IssueAccessToken(subject)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.IssueRefreshToken(subject)
	if err != nil {
		return nil, err
	}
	return &Pair{
		Subject:      subject,
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}

func (s *Service) issue(subject, typ string, ttl time.Duration) (string, time.Time, error) {
	if len(s.Secret) == 0 {
		return "", time.Time{}, ErrMissingSecret
	}
	now := s.now()
	exp := now.Add(ttl)
	claims := Claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, exp, nil
}

// Verify checks signature, expiry and token type and returns the subject.
// An empty wantType accepts either type.
func (s *Service) Verify(tokenStr, wantType string) (string, error) {
	claims, err := s.parse(tokenStr)
	if err != nil {
		return "", err
	}
	if wantType != "" && claims.Type != wantType {
		return "", fmt.Errorf("%w: expected %s token", ErrInvalidToken, wantType)
	}
	if claims.Subject == "" {
		return "", ErrMissingSubject
	}
	return claims.Subject, nil
}

func (s *Service) parse(tokenStr string) (*Claims, error) {
	if len(s.Secret) == 0 {
		return nil, ErrMissingSecret
	}
	var claims Claims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return s.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tkn.Valid {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// Refresh rotates both tokens. The old refresh token must verify and its
// subject must still exist; lookup errors are returned wrapped.
func (s *Service) Refresh(ctx context.Context, oldRefresh string, users UserLookup) (*Pair, error) {
	subject, err := s.Verify(oldRefresh, TypeRefresh)
	if err != nil {
		return nil, err
	}
	if _, err := users.GetUser(ctx, subject); err != nil {
		return nil, fmt.Errorf("refresh subject %q: %w", subject, err)
	}
	return s.IssuePair(subject)
}
