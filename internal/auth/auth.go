// Package auth turns admin credentials into a signed session.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned for any username/password mismatch.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrInvalidToken is returned when a session token cannot be verified.
	ErrInvalidToken = errors.New("invalid session token")
)

// Credentials is what the admin login form submits
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Identity is the verified admin
type Identity struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Session is returned to the client after a successful login
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Identity  Identity  `json:"identity"`
}

// Verifier checks credentials. Implementations must not reveal which field was wrong.
type Verifier interface {
	Verify(ctx context.Context, creds Credentials) (Identity, error)
}

// StaticVerifier accepts a single configured account.
type StaticVerifier struct {
	username string
	password []byte // plain text, used when hash is empty
	hash     []byte // bcrypt
}

// NewStaticVerifier builds a verifier for one account. When passwordHash is set
// it must be a bcrypt hash and password is ignored.
func NewStaticVerifier(username, password, passwordHash string) (*StaticVerifier, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("admin username is empty")
	}
	v := &StaticVerifier{username: username}
	if passwordHash != "" {
		if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
			return nil, err
		}
		v.hash = []byte(passwordHash)
		return v, nil
	}
	if password == "" {
		return nil, errors.New("admin password is empty")
	}
	v.password = []byte(password)
	return v, nil
}

func (v *StaticVerifier) Verify(_ context.Context, creds Credentials) (Identity, error) {
	userOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(creds.Username)), []byte(v.username)) == 1
	var passOK bool
	if v.hash != nil {
		passOK = bcrypt.CompareHashAndPassword(v.hash, []byte(creds.Password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(creds.Password), v.password) == 1
	}
	if !userOK || !passOK {
		return Identity{}, ErrInvalidCredentials
	}
	return Identity{Username: v.username, Role: "admin"}, nil
}

// Claims is the JWT payload of an admin session
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator verifies credentials and issues HS256 session tokens.
type Authenticator struct {
	verifier Verifier
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

func NewAuthenticator(verifier Verifier, secret string, ttl time.Duration) *Authenticator {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Authenticator{verifier: verifier, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Secret returns the signing key, shared with the JWT middleware.
func (a *Authenticator) Secret() []byte {
	return a.secret
}

// Login verifies creds and returns a signed session.
func (a *Authenticator) Login(ctx context.Context, creds Credentials) (Session, error) {
	id, err := a.verifier.Verify(ctx, creds)
	if err != nil {
		zap.L().Warn("admin login rejected",
			zap.String("namespace", "auth"),
			zap.String("username", creds.Username))
		return Session{}, err
	}

	now := a.now()
	exp := now.Add(a.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return Session{}, err
	}

	zap.L().Info("admin login",
		zap.String("namespace", "auth"),
		zap.String("username", id.Username))
	return Session{Token: signed, ExpiresAt: exp, Identity: id}, nil
}

// Parse validates a session token and returns its identity.
func (a *Authenticator) Parse(tokenString string) (Identity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	return IdentityFromClaims(claims), nil
}

// IdentityFromClaims maps verified claims to an Identity
func IdentityFromClaims(c *Claims) Identity {
	return Identity{Username: c.Subject, Role: c.Role}
}
