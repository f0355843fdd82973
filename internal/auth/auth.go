package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// TokenTTL is the fixed session window; tokens are never refreshed in
// place, expiry forces a new login.
const TokenTTL = 24 * time.Hour

// CredentialStore is the slice of the credential store the login state
// machine needs.
type CredentialStore interface {
	GetByIdentifier(ctx context.Context, identifier string) (*Credential, error)
	RecordFailure(ctx context.Context, userID int64) (int, error)
	RecordSuccess(ctx context.Context, userID int64, at time.Time) error
}

type Service struct {
	store  CredentialStore
	secret []byte
	now    func() time.Time
}

func NewService(store CredentialStore, secret string) *Service {
	return &Service{
		store:  store,
		secret: []byte(secret),
		now:    time.Now,
	}
}

var ErrAccountLocked = errors.New("account locked")

// BadPasswordError carries the attempts left after a failed password check;
// the count is surfaced to the caller in the response message.
type BadPasswordError struct {
	Remaining int
}

func (e *BadPasswordError) Error() string {
	return fmt.Sprintf("bad password, %d attempts remaining", e.Remaining)
}

// Login runs the full attempt state machine: lookup, lockout short-circuit,
// password check, counter bookkeeping, token issuance. A locked account is
// rejected before any password work.
func (s *Service) Login(ctx context.Context, identifier, password string) (Identity, string, error) {
	cred, err := s.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		return Identity{}, "", err
	}
	if !cred.Active {
		return Identity{}, "", ErrAccountLocked
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		remaining, ferr := s.store.RecordFailure(ctx, cred.UserID)
		if ferr != nil {
			return Identity{}, "", ferr
		}
		if remaining <= 0 {
			return Identity{}, "", ErrAccountLocked
		}
		return Identity{}, "", &BadPasswordError{Remaining: remaining}
	}
	now := s.now().UTC()
	if err := s.store.RecordSuccess(ctx, cred.UserID, now); err != nil {
		return Identity{}, "", err
	}
	id := cred.Identity()
	token, err := s.issueToken(id, now)
	if err != nil {
		return Identity{}, "", err
	}
	return id, token, nil
}

type Claims struct {
	DipendenteID int64  `json:"id_dipendente"`
	Nome         string `json:"nome"`
	Cognome      string `json:"cognome"`
	Ruolo        Ruolo  `json:"ruolo"`
	IsAdmin      bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

func (c *Claims) Identity() Identity {
	return Identity{
		DipendenteID: c.DipendenteID,
		Nome:         c.Nome,
		Cognome:      c.Cognome,
		Email:        c.Subject,
		Ruolo:        c.Ruolo,
		IsAdmin:      c.IsAdmin,
	}
}

func (s *Service) issueToken(id Identity, now time.Time) (string, error) {
	claims := Claims{
		DipendenteID: id.DipendenteID,
		Nome:         id.Nome,
		Cognome:      id.Cognome,
		Ruolo:        id.Ruolo,
		IsAdmin:      id.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(s.secret)
}

// ParseToken verifies signature and expiry; it is a pure function of the
// token and the server secret, no store lookup happens.
func (s *Service) ParseToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(func() time.Time {
		return s.now()
	}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
