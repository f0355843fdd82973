package auth

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"log/slog"

	"github.com/stretchr/testify/assert"
)

type fakeUserRegistry struct {
	conflict  string
	createErr error
	created   *NewUser
}

func (f *fakeUserRegistry) DipendenteExists(ctx context.Context, dipendenteID int64) (bool, error) {
	return true, nil
}

func (f *fakeUserRegistry) ConflictingField(ctx context.Context, email, username string, dipendenteID int64) (string, error) {
	return f.conflict, nil
}

func (f *fakeUserRegistry) Create(ctx context.Context, nu NewUser) (*Credential, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = &nu
	return &Credential{}, nil
}

func registerRequest(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
}

const registerBody = `{"email": "mario.rossi@company.com", "password": "segretissima", "id_dipendente": 10}`

func TestRegisterCreatesUser(t *testing.T) {
	store := &fakeUserRegistry{}
	h := &RegisterHandler{Store: store, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, registerRequest(registerBody))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NotNil(t, store.created)
	assert.Equal(t, "mario.rossi", store.created.Username)
}

func TestRegisterConflictDetectedUpFront(t *testing.T) {
	store := &fakeUserRegistry{conflict: "email"}
	h := &RegisterHandler{Store: store, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, registerRequest(registerBody))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "email")
}

func TestRegisterConcurrentDuplicateIsConflict(t *testing.T) {
	// The pre-insert check passes but the INSERT itself loses a race with
	// another registration; the caller still gets 409, not 500.
	store := &fakeUserRegistry{createErr: ErrDuplicateUser}
	h := &RegisterHandler{Store: store, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, registerRequest(registerBody))

	assert.Equal(t, http.StatusConflict, rec.Code)
}
