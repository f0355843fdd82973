package auth

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

const bcryptCost = 12

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("user already exists")
)

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (class 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// NormalizeIdentifier maps an email to its local part so email and username
// are interchangeable at login: "mario.rossi@company.com" -> "mario.rossi".
// Bare usernames pass through unchanged.
func NormalizeIdentifier(identifier string) string {
	if at := strings.Index(identifier, "@"); at >= 0 {
		return identifier[:at]
	}
	return identifier
}

func (s *Store) GetByIdentifier(ctx context.Context, identifier string) (*Credential, error) {
	username := NormalizeIdentifier(identifier)
	const q = `
		SELECT u.id_user, u.username, u.password_hash, u.id_dipendente, u.is_admin,
		       u.tentativi_accesso_rimasti, u.is_active, u.ultimo_accesso,
		       d.nome, d.cognome, d.email, d.ruolo
		FROM users u
		JOIN dipendenti d ON d.id_dipendente = u.id_dipendente
		WHERE u.username = $1 OR d.email = $2
	`
	row := s.db.QueryRowContext(ctx, q, username, identifier)
	c := &Credential{}
	var lastLogin sql.NullTime
	if err := row.Scan(&c.UserID, &c.Username, &c.PasswordHash, &c.DipendenteID, &c.IsAdmin,
		&c.RemainingAttempts, &c.Active, &lastLogin,
		&c.Nome, &c.Cognome, &c.Email, &c.Ruolo); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		c.LastLogin = &t
	}
	return c, nil
}

// RecordFailure decrements the attempt counter and deactivates the account
// when it hits zero. The conditional UPDATE makes the read-decide-write a
// single statement, so concurrent failures cannot push the counter below
// zero. Returns the attempts left after the decrement.
func (s *Store) RecordFailure(ctx context.Context, userID int64) (int, error) {
	const q = `
		UPDATE users
		SET tentativi_accesso_rimasti = tentativi_accesso_rimasti - 1,
		    is_active = tentativi_accesso_rimasti - 1 > 0
		WHERE id_user = $1 AND tentativi_accesso_rimasti > 0
		RETURNING tentativi_accesso_rimasti
	`
	var remaining int
	if err := s.db.QueryRowContext(ctx, q, userID).Scan(&remaining); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Counter was already at zero; the account is locked.
			return 0, nil
		}
		return 0, err
	}
	return remaining, nil
}

func (s *Store) RecordSuccess(ctx context.Context, userID int64, at time.Time) error {
	const q = `
		UPDATE users
		SET tentativi_accesso_rimasti = $2, is_active = TRUE, ultimo_accesso = $3
		WHERE id_user = $1
	`
	_, err := s.db.ExecContext(ctx, q, userID, MaxLoginAttempts, at)
	return err
}

type NewUser struct {
	Email        string
	Password     string
	Username     string
	DipendenteID int64
	IsAdmin      bool
}

func (s *Store) Create(ctx context.Context, nu NewUser) (*Credential, error) {
	username := nu.Username
	if username == "" {
		username = NormalizeIdentifier(nu.Email)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(nu.Password), bcryptCost)
	if err != nil {
		return nil, err
	}
	const q = `
		INSERT INTO users (username, password_hash, id_dipendente, is_admin,
		                   tentativi_accesso_rimasti, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6)
		RETURNING id_user
	`
	var userID int64
	if err := s.db.QueryRowContext(ctx, q,
		username, string(hash), nu.DipendenteID, nu.IsAdmin,
		MaxLoginAttempts, time.Now().UTC()).Scan(&userID); err != nil {
		// A concurrent registration can win the race after the pre-insert
		// check; surface it as a conflict, not a server fault.
		if isUniqueViolation(err) {
			return nil, ErrDuplicateUser
		}
		return nil, err
	}
	return s.GetByIdentifier(ctx, username)
}

// ConflictingField reports which unique field an existing credential already
// claims, or "" when registration can proceed.
func (s *Store) ConflictingField(ctx context.Context, email, username string, dipendenteID int64) (string, error) {
	const q = `
		SELECT u.username, d.email, u.id_dipendente
		FROM users u
		JOIN dipendenti d ON d.id_dipendente = u.id_dipendente
		WHERE d.email = $1 OR u.username = $2 OR u.id_dipendente = $3
		LIMIT 1
	`
	var gotUsername, gotEmail string
	var gotDipendente int64
	if err := s.db.QueryRowContext(ctx, q, email, username, dipendenteID).
		Scan(&gotUsername, &gotEmail, &gotDipendente); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	switch {
	case gotEmail == email:
		return "email", nil
	case gotUsername == username:
		return "username", nil
	default:
		return "id_dipendente", nil
	}
}

func (s *Store) DipendenteExists(ctx context.Context, dipendenteID int64) (bool, error) {
	const q = `SELECT 1 FROM dipendenti WHERE id_dipendente = $1`
	var one int
	if err := s.db.QueryRowContext(ctx, q, dipendenteID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

type usersFile struct {
	Users []struct {
		Email        string `yaml:"email"`
		Password     string `yaml:"password"`
		Username     string `yaml:"username"`
		DipendenteID int64  `yaml:"id_dipendente"`
		IsAdmin      bool   `yaml:"is_admin"`
	} `yaml:"users"`
}

func (s *Store) SeedFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var uf usersFile
	if err := yaml.Unmarshal(data, &uf); err != nil {
		return err
	}
	for _, u := range uf.Users {
		if u.Email == "" || u.Password == "" {
			continue
		}
		if _, err := s.GetByIdentifier(ctx, u.Email); err == nil {
			continue
		} else if !errors.Is(err, ErrUserNotFound) {
			return err
		}
		if _, err := s.Create(ctx, NewUser{
			Email:        u.Email,
			Password:     u.Password,
			Username:     u.Username,
			DipendenteID: u.DipendenteID,
			IsAdmin:      u.IsAdmin,
		}); err != nil {
			return err
		}
	}
	return nil
}
