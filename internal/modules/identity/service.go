package identity

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Service defines authentication and identity resolution.
type Service interface {
	// Login verifies credentials and issues a signed token.
	Login(ctx context.Context, email, password string) (string, error)

	// Verify parses a token and returns the authenticated identity.
	Verify(tokenString string) (*Identity, error)

	// FromRequest resolves the caller: the bearer token's identity when one
	// is present and valid, otherwise a guest bound to the session id.
	FromRequest(r *http.Request, sessionID string) *Identity
}

type claims struct {
	jwt.StandardClaims
	Permissions []string `json:"permissions,omitempty"`
}

type service struct {
	userRepo Repository
	secret   []byte
}

// NewService creates a new identity service.
func NewService(userRepo Repository, secret []byte) Service {
	return &service{userRepo: userRepo, secret: secret}
}

func (s *service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return "", errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", errors.New("invalid credentials")
	}

	expirationTime := time.Now().Add(24 * time.Hour)
	c := &claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   user.ID.String(),
			ExpiresAt: expirationTime.Unix(),
		},
		Permissions: user.Permissions,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(s.secret)
}

func (s *service) Verify(tokenString string) (*Identity, error) {
	c := &claims{}
	token, err := jwt.ParseWithClaims(tokenString, c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, errors.New("invalid token subject")
	}
	return &Identity{CustomerID: id, Permissions: c.Permissions}, nil
}

func (s *service) FromRequest(r *http.Request, sessionID string) *Identity {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		if ident, err := s.Verify(strings.TrimPrefix(header, "Bearer ")); err == nil {
			return ident
		}
	}
	return GuestIdentity(sessionID)
}
