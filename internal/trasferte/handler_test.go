package trasferte

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"log/slog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notaspese/internal/auth"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStorage holds one trip (id 7) whose responsabile is dipendente 20.
type fakeStorage struct {
	trip    *TrasfertaDetail
	getErr  error
	created *Trasferta
	updated *Trasferta
}

func (f *fakeStorage) List(ctx context.Context) ([]TrasfertaDetail, error) { return nil, nil }

func (f *fakeStorage) GetByID(ctx context.Context, id int64) (*TrasfertaDetail, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.trip, nil
}

func (f *fakeStorage) Create(ctx context.Context, t *Trasferta) error {
	f.created = t
	return nil
}

func (f *fakeStorage) Update(ctx context.Context, t *Trasferta) error {
	f.updated = t
	return nil
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{trip: &TrasfertaDetail{
		Trasferta: Trasferta{ID: 7, UUID: "uuid-7", ProgettoID: 3, Luogo: "Milano", ResponsabileID: 20, Budget: 1000},
		Progetto:  "P1",
	}}
}

func updateRequest(t *testing.T, body string, id auth.Identity) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/trasferte/7", strings.NewReader(body))
	return req.WithContext(auth.WithIdentity(req.Context(), id))
}

const validUpdateBody = `{
	"id_progetto": 3,
	"luogo": "Torino",
	"data_inizio": "2026-04-01",
	"budget": 1500
}`

func TestCreateRequiresLuogoAndProgetto(t *testing.T) {
	h := &ListHandler{Store: newFakeStorage(), Logger: discardLogger()}

	body := `{"budget": 100}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/trasferte", strings.NewReader(body))
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{DipendenteID: 10}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateDefaultsResponsabileToCaller(t *testing.T) {
	store := newFakeStorage()
	h := &ListHandler{Store: store, Logger: discardLogger()}

	body := `{"id_progetto": 3, "luogo": "Milano", "budget": 100}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/trasferte", strings.NewReader(body))
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{DipendenteID: 10}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, store.created)
	assert.Equal(t, int64(10), store.created.ResponsabileID)
}

func TestUpdateByResponsabile(t *testing.T) {
	store := newFakeStorage()
	h := &DetailHandler{Store: store, Logger: discardLogger()}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, updateRequest(t, validUpdateBody, auth.Identity{DipendenteID: 20, Ruolo: auth.RuoloResponsabile}))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, store.updated)
	assert.Equal(t, int64(7), store.updated.ID)
	assert.Equal(t, "Torino", store.updated.Luogo)
	assert.Equal(t, 1500.0, store.updated.Budget)
	// The responsabile is kept when the payload omits it.
	assert.Equal(t, int64(20), store.updated.ResponsabileID)
	assert.Contains(t, rec.Body.String(), "Trasferta aggiornata con successo")
}

func TestUpdateByAdmin(t *testing.T) {
	store := newFakeStorage()
	h := &DetailHandler{Store: store, Logger: discardLogger()}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, updateRequest(t, validUpdateBody, auth.Identity{DipendenteID: 1, IsAdmin: true}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, store.updated)
}

func TestUpdateForbiddenForOthers(t *testing.T) {
	store := newFakeStorage()
	h := &DetailHandler{Store: store, Logger: discardLogger()}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, updateRequest(t, validUpdateBody, auth.Identity{DipendenteID: 99}))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, store.updated)
}

func TestUpdateMissingTrasferta(t *testing.T) {
	store := &fakeStorage{getErr: ErrTrasfertaNotFound}
	h := &DetailHandler{Store: store, Logger: discardLogger()}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, updateRequest(t, validUpdateBody, auth.Identity{DipendenteID: 1, IsAdmin: true}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateRejectsNegativeBudget(t *testing.T) {
	store := newFakeStorage()
	h := &DetailHandler{Store: store, Logger: discardLogger()}

	body := `{"id_progetto": 3, "luogo": "Torino", "budget": -5}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, updateRequest(t, body, auth.Identity{DipendenteID: 1, IsAdmin: true}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, store.updated)
}
