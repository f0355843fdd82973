package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"log/slog"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

type LoginHandler struct {
	Service       *Service
	Logger        *slog.Logger
	SecureCookies bool
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMessage(w, http.StatusMethodNotAllowed, "Metodo non consentito")
		return
	}
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		writeMessage(w, http.StatusUnsupportedMediaType, "Content-Type non valido")
		return
	}
	var req struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Payload non valido")
		return
	}
	if req.Identifier == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Username o Password mancanti")
		return
	}

	identity, token, err := h.Service.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		var badPassword *BadPasswordError
		switch {
		case errors.Is(err, ErrUserNotFound):
			h.Logger.Info("login failed", "reason", "not_found", "identifier", NormalizeIdentifier(req.Identifier))
			writeMessage(w, http.StatusUnauthorized, "Utente non trovato")
		case errors.As(err, &badPassword):
			h.Logger.Info("login failed", "reason", "bad_password", "identifier", NormalizeIdentifier(req.Identifier), "remaining", badPassword.Remaining)
			writeMessage(w, http.StatusUnauthorized,
				fmt.Sprintf("Password errata. Tentativi rimanenti: %d", badPassword.Remaining))
		case errors.Is(err, ErrAccountLocked):
			h.Logger.Info("login failed", "reason", "locked", "identifier", NormalizeIdentifier(req.Identifier))
			writeMessage(w, http.StatusLocked, "Account bloccato, troppi tentativi errati. Contatta il reparto ICT.")
		default:
			h.Logger.Error("login", "err", err)
			writeMessage(w, http.StatusInternalServerError, "Errore del server")
		}
		return
	}

	setSessionCookie(w, token, h.SecureCookies)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Login effettuato con successo",
		"user":    identity,
	})
}

func setSessionCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(TokenTTL.Seconds()),
		HttpOnly: false, // the frontend reads this cookie to render the session
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

type LogoutHandler struct {
	SecureCookies bool
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMessage(w, http.StatusMethodNotAllowed, "Metodo non consentito")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// UserRegistry is the slice of the credential store registration needs;
// tests substitute fakes.
type UserRegistry interface {
	DipendenteExists(ctx context.Context, dipendenteID int64) (bool, error)
	ConflictingField(ctx context.Context, email, username string, dipendenteID int64) (string, error)
	Create(ctx context.Context, nu NewUser) (*Credential, error)
}

type RegisterHandler struct {
	Store  UserRegistry
	Logger *slog.Logger
}

func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMessage(w, http.StatusMethodNotAllowed, "Metodo non consentito")
		return
	}
	var req struct {
		Email        string `json:"email"`
		Password     string `json:"password"`
		Username     string `json:"username"`
		DipendenteID int64  `json:"id_dipendente"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Payload non valido")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "E-mail e password sono obbligatorie")
		return
	}
	if req.DipendenteID == 0 {
		writeMessage(w, http.StatusBadRequest, "Devi essere associato a un dipendente. Usa la mail aziendale.")
		return
	}
	if req.Username == "" {
		req.Username = NormalizeIdentifier(req.Email)
	}

	exists, err := h.Store.DipendenteExists(r.Context(), req.DipendenteID)
	if err != nil {
		h.Logger.Error("check dipendente", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Errore del server")
		return
	}
	if !exists {
		writeMessage(w, http.StatusBadRequest, "Dipendente non trovato")
		return
	}

	conflict, err := h.Store.ConflictingField(r.Context(), req.Email, req.Username, req.DipendenteID)
	if err != nil {
		h.Logger.Error("check existing user", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Errore del server")
		return
	}
	if conflict != "" {
		writeMessage(w, http.StatusConflict,
			fmt.Sprintf("Un utente con questo %s esiste già", conflict))
		return
	}

	if _, err := h.Store.Create(r.Context(), NewUser{
		Email:        req.Email,
		Password:     req.Password,
		Username:     req.Username,
		DipendenteID: req.DipendenteID,
	}); err != nil {
		// A concurrent registration may slip past ConflictingField and
		// surface here as a unique violation.
		if errors.Is(err, ErrDuplicateUser) {
			writeMessage(w, http.StatusConflict, "Un utente con questi dati esiste già")
			return
		}
		h.Logger.Error("create user", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Errore in fase di registrazione")
		return
	}
	writeMessage(w, http.StatusCreated, "Utente creato con successo")
}

// AccountHandler returns the identity embedded in the caller's session.
type AccountHandler struct{}

func (h *AccountHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMessage(w, http.StatusMethodNotAllowed, "Metodo non consentito")
		return
	}
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		unauthorized(w)
		return
	}
	writeJSON(w, http.StatusOK, id)
}
