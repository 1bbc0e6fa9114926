package tokens

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexquiz/dexquiz/internal/models"
)

var errNoUser = errors.New("no such user")

type fakeUsers map[string]bool

func (f fakeUsers) GetUser(_ context.Context, username string) (*models.User, error) {
	if f[username] {
		return &models.User{Username: username}, nil
	}
	return nil, errNoUser
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService([]byte("test-secret"))
	require.NoError(t, err)
	return svc
}

func TestNewService_MissingSecret(t *testing.T) {
	t.Parallel()

	svc, err := NewService(nil)
	assert.Nil(t, svc)
	assert.ErrorIs(t, err, ErrMissingSecret)

	_, _, err = (&Service{}).IssueAccessToken("trainer1")
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestIssueAccessToken_VerifiesWithSubject(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	before := time.Now()

	token, exp, err := svc.IssueAccessToken("trainer1")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, before.Add(AccessTTL), exp, 2*time.Second)

	sub, err := svc.Verify(token, TypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "trainer1", sub)
}

func TestIssueRefreshToken_Lifetime(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	before := time.Now()

	token, exp, err := svc.IssueRefreshToken("trainer1")
	require.NoError(t, err)
	assert.WithinDuration(t, before.Add(RefreshTTL), exp, 2*time.Second)

	sub, err := svc.Verify(token, TypeRefresh)
	require.NoError(t, err)
	assert.Equal(t, "trainer1", sub)
}

func TestVerify_Failures(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	access, _, err := svc.IssueAccessToken("trainer1")
	require.NoError(t, err)

	other, err := NewService([]byte("another-secret"))
	require.NoError(t, err)
	foreign, _, err := other.IssueAccessToken("trainer1")
	require.NoError(t, err)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Type: TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Type:             TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "trainer1"},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		Type: TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "trainer1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name     string
		token    string
		wantType string
		wantErr  error
	}{
		{name: "garbage", token: "not-a-jwt", wantType: TypeAccess, wantErr: ErrInvalidToken},
		{name: "foreign signature", token: foreign, wantType: TypeAccess, wantErr: ErrInvalidToken},
		{name: "wrong type", token: access, wantType: TypeRefresh, wantErr: ErrInvalidToken},
		{name: "missing subject", token: noSub, wantType: TypeAccess, wantErr: ErrMissingSubject},
		{name: "missing expiry", token: noExp, wantType: TypeAccess, wantErr: ErrInvalidToken},
		{name: "other algorithm", token: hs512, wantType: TypeAccess, wantErr: ErrInvalidToken},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sub, err := svc.Verify(tt.token, tt.wantType)
			assert.Empty(t, sub)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	issuedAt := time.Now().Add(-time.Hour)
	svc.Now = func() time.Time { return issuedAt }

	token, _, err := svc.IssueAccessToken("trainer1")
	require.NoError(t, err)

	svc.Now = time.Now
	_, err = svc.Verify(token, TypeAccess)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefresh_RotatesPair(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	old, err := svc.IssuePair("trainer1")
	require.NoError(t, err)

	pair, err := svc.Refresh(context.Background(), old.RefreshToken, fakeUsers{"trainer1": true})
	require.NoError(t, err)
	assert.Equal(t, "trainer1", pair.Subject)
	assert.NotEqual(t, old.RefreshToken, pair.RefreshToken)
	assert.NotEqual(t, old.AccessToken, pair.AccessToken)

	sub, err := svc.Verify(pair.AccessToken, TypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "trainer1", sub)

	sub, err = svc.Verify(pair.RefreshToken, TypeRefresh)
	require.NoError(t, err)
	assert.Equal(t, "trainer1", sub)

	// stateless: the old refresh token still verifies on its own
	_, err = svc.Verify(old.RefreshToken, TypeRefresh)
	assert.NoError(t, err)
}

func TestRefresh_Failures(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	pair, err := svc.IssuePair("ghost")
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), pair.RefreshToken, fakeUsers{})
	assert.ErrorIs(t, err, errNoUser)

	_, err = svc.Refresh(context.Background(), pair.AccessToken, fakeUsers{"ghost": true})
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Refresh(context.Background(), "", fakeUsers{"ghost": true})
	assert.ErrorIs(t, err, ErrInvalidToken)
}
