package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satheeshds/invoicing/billing"
	"github.com/satheeshds/invoicing/models"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type stubMembers struct {
	members map[string]models.Member
}

func (s *stubMembers) MemberByUsername(ctx context.Context, username string) (models.Member, error) {
	m, ok := s.members[strings.ToLower(username)]
	if !ok {
		return models.Member{}, billing.ErrNotFound
	}
	return m, nil
}

func newAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	members := &stubMembers{members: map[string]models.Member{
		"admin":  {ID: 7, Username: "admin", Role: models.RoleAdmin, Status: models.MemberActive, PasswordHash: hash},
		"former": {ID: 8, Username: "former", Role: models.RoleMember, Status: models.MemberInactive, PasswordHash: hash},
	}}
	return NewAuthenticator(members, testSecret, time.Hour)
}

func TestAuthenticate(t *testing.T) {
	a := newAuthenticator(t)
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	a.WithClock(func() time.Time { return now })

	session, err := a.Authenticate(context.Background(), "Admin", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, int64(7), session.Member.ID)
	assert.Equal(t, now.Add(time.Hour), session.ExpiresAt)

	claims, err := a.ParseToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, int64(7), claims.MemberID())
	assert.NotEmpty(t, claims.ID)
}

func TestAuthenticateRejects(t *testing.T) {
	a := newAuthenticator(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"unknown user", "nobody", "correct horse"},
		{"wrong password", "admin", "battery staple"},
		{"inactive member", "former", "correct horse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Authenticate(ctx, tt.username, tt.password)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	a := newAuthenticator(t)
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	a.WithClock(func() time.Time { return now })

	session, err := a.Issue(models.Member{ID: 1, Role: models.RoleMember})
	require.NoError(t, err)

	a.WithClock(func() time.Time { return now.Add(2 * time.Hour) })
	_, err = a.ParseToken(session.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenRejectsForeignSignature(t *testing.T) {
	a := newAuthenticator(t)
	other := NewAuthenticator(&stubMembers{}, strings.Repeat("x", 32), time.Hour)

	session, err := other.Issue(models.Member{ID: 1, Role: models.RoleAdmin})
	require.NoError(t, err)
	_, err = a.ParseToken(session.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenRejectsNoneAlgorithm(t *testing.T) {
	a := newAuthenticator(t)
	claims := Claims{Role: models.RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = a.ParseToken(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)
	assert.True(t, CheckPassword(hash, "s3cret-pass"))
	assert.False(t, CheckPassword(hash, "other"))
}
