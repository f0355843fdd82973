package auth

import "time"

type Ruolo string

const (
	RuoloResponsabile Ruolo = "responsabile"
	RuoloDipendente   Ruolo = "dipendente"
	RuoloContabile    Ruolo = "contabile"
	RuoloEsterno      Ruolo = "esterno"
)

// MaxLoginAttempts is the counter a credential starts with and is reset to
// after a successful login. Reaching zero deactivates the account.
const MaxLoginAttempts = 5

// Credential is a users row joined to its dipendente record.
type Credential struct {
	UserID            int64
	Username          string
	PasswordHash      string
	DipendenteID      int64
	IsAdmin           bool
	RemainingAttempts int
	Active            bool
	LastLogin         *time.Time
	Nome              string
	Cognome           string
	Email             string
	Ruolo             Ruolo
}

// Identity is the tuple embedded in the session token and handed to
// handlers; once issued, no further credential lookup happens.
type Identity struct {
	DipendenteID int64  `json:"id_dipendente"`
	Nome         string `json:"nome"`
	Cognome      string `json:"cognome"`
	Email        string `json:"email"`
	Ruolo        Ruolo  `json:"ruolo"`
	IsAdmin      bool   `json:"is_admin"`
}

func (c *Credential) Identity() Identity {
	return Identity{
		DipendenteID: c.DipendenteID,
		Nome:         c.Nome,
		Cognome:      c.Cognome,
		Email:        c.Email,
		Ruolo:        c.Ruolo,
		IsAdmin:      c.IsAdmin,
	}
}
