// Package auth authenticates members and issues signed session tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/satheeshds/invoicing/billing"
	"github.com/satheeshds/invoicing/models"
)

var (
	// ErrInvalidCredentials is returned for an unknown user, a wrong password or an
	// inactive member.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrInvalidToken is returned when a session token cannot be verified.
	ErrInvalidToken = errors.New("invalid or expired session token")
)

const issuer = "invoicing"

// MemberFinder looks members up by login name.
type MemberFinder interface {
	MemberByUsername(ctx context.Context, username string) (models.Member, error)
}

// Claims are carried by every session token.
type Claims struct {
	Role     string `json:"role"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// MemberID returns the member id stored in the subject claim.
func (c *Claims) MemberID() int64 {
	id, _ := strconv.ParseInt(c.Subject, 10, 64)
	return id
}

// Session is the explicit result of a successful login.
type Session struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	Member    models.Member `json:"member"`
}

// Authenticator verifies credentials and issues HS256 tokens.
type Authenticator struct {
	members MemberFinder
	secret  []byte
	ttl     time.Duration
	nowFn   func() time.Time
}

// NewAuthenticator returns an Authenticator signing with secret.
func NewAuthenticator(members MemberFinder, secret string, ttl time.Duration) *Authenticator {
	return &Authenticator{
		members: members,
		secret:  []byte(secret),
		ttl:     ttl,
		nowFn:   time.Now,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (a *Authenticator) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		a.nowFn = nowFn
	}
}

// Authenticate checks username and password and opens a session.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (Session, error) {
	member, err := a.members.MemberByUsername(ctx, username)
	if errors.Is(err, billing.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if member.Status != models.MemberActive || !CheckPassword(member.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}
	return a.Issue(member)
}

// Issue signs a session token for member.
func (a *Authenticator) Issue(member models.Member) (Session, error) {
	now := a.nowFn()
	expiration := now.Add(a.ttl)
	claims := Claims{
		Role:     member.Role,
		Username: member.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   strconv.FormatInt(member.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiration),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return Session{}, fmt.Errorf("signing session token: %w", err)
	}
	return Session{Token: signed, ExpiresAt: expiration, Member: member}, nil
}

// ParseToken verifies a token and returns its claims.
func (a *Authenticator) ParseToken(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(a.nowFn),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
