package spese

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

// fakeStorage holds one expense owned by dipendente 10 on a trip whose
// responsabile is dipendente 20.
type fakeStorage struct {
	ownership    Ownership
	ownershipErr error
	updated      *Update
	updateErr    error
	stato        Stato
	deleted      bool
	deleteErr    error
}

func (f *fakeStorage) List(ctx context.Context, id auth.Identity) ([]SpesaDetail, error) {
	return nil, nil
}

func (f *fakeStorage) GetByUUID(ctx context.Context, uuidStr string) (*SpesaDetail, error) {
	return &SpesaDetail{}, nil
}

func (f *fakeStorage) Insert(ctx context.Context, sp *Spesa) error { return nil }

func (f *fakeStorage) Update(ctx context.Context, uuidStr string, upd Update) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = &upd
	return nil
}

func (f *fakeStorage) Ownership(ctx context.Context, uuidStr string) (Ownership, error) {
	if f.ownershipErr != nil {
		return Ownership{}, f.ownershipErr
	}
	return f.ownership, nil
}

func (f *fakeStorage) SetStato(ctx context.Context, uuidStr string, stato Stato) error {
	f.stato = stato
	return nil
}

func (f *fakeStorage) SoftDelete(ctx context.Context, uuidStr string, dipendenteID int64, isAdmin bool) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = true
	return nil
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{ownership: Ownership{DipendenteID: 10, ResponsabileID: 20}}
}

func detailRequest(t *testing.T, method, body string, id auth.Identity) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, "/api/v1/spese/abc-123", strings.NewReader(body))
	return req.WithContext(auth.WithIdentity(req.Context(), id))
}

const validUpdateBody = `{
	"id_categoria": 2,
	"data_spesa": "2026-03-15",
	"descrizione": "Taxi aeroporto",
	"importo": "42.00",
	"stato_approvazione": "presentata"
}`

func TestValidStato(t *testing.T) {
	assert.True(t, ValidStato(StatoPresentata))
	assert.True(t, ValidStato(StatoApprovata))
	assert.True(t, ValidStato(StatoRespinta))
	assert.False(t, ValidStato("bozza"))
}

func TestCreateRejectsNegativeImporto(t *testing.T) {
	h := &ListHandler{Logger: discardLogger()}

	body := `{"id_trasferta": 1, "id_categoria": 2, "importo": "-12.50"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/spese", strings.NewReader(body))
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{DipendenteID: 10}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateRejectsUnparseableImporto(t *testing.T) {
	h := &ListHandler{Logger: discardLogger()}

	body := `{"id_trasferta": 1, "id_categoria": 2, "importo": "dodici"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/spese", strings.NewReader(body))
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{DipendenteID: 10}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateRequiresTrasfertaAndCategoria(t *testing.T) {
	h := &ListHandler{Logger: discardLogger()}

	body := `{"importo": "10"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/spese", strings.NewReader(body))
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{DipendenteID: 10}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateBySubmitter(t *testing.T) {
	store := newFakeStorage()
	h := &DetailHandler{Store: store, Logger: discardLogger()}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, detailRequest(t, http.MethodPut, validUpdateBody, auth.Identity{DipendenteID: 10}))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, store.updated)
	assert.Equal(t, "Taxi aeroporto", store.updated.Descrizione)
	assert.Equal(t, "42.00", store.updated.Importo)
	assert.Equal(t, StatoPresentata, store.updated.Stato)
	assert.Contains(t, rec.Body.String(), "Spesa aggiornata con successo")
}

func TestUpdateByResponsabile(t *testing.T) {
	store := newFakeStorage()
	h := &DetailHandler{Store: store, Logger: discardLogger()}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, detailRequest(t, http.MethodPut, validUpdateBody, auth.Identity{DipendenteID: 20, Ruolo: auth.RuoloResponsabile}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, store.updated)
}

func TestUpdateForbiddenForOthers(t *testing.T) {
	store := newFakeStorage()
	h := &DetailHandler{Store: store, Logger: discardLogger()}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, detailRequest(t, http.MethodPut, validUpdateBody, auth.Identity{DipendenteID: 99}))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, store.updated)
}

func TestUpdateMissingSpesa(t *testing.T) {
	store := &fakeStorage{ownershipErr: ErrSpesaNotFound}
	h := &DetailHandler{Store: store, Logger: discardLogger()}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, detailRequest(t, http.MethodPut, validUpdateBody, auth.Identity{DipendenteID: 10}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateMissingRequiredFields(t *testing.T) {
	store := newFakeStorage()
	h := &DetailHandler{Store: store, Logger: discardLogger()}

	body := `{"id_categoria": 2, "importo": "42.00"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, detailRequest(t, http.MethodPut, body, auth.Identity{DipendenteID: 10}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Campi obbligatori mancanti")
}

func TestUpdateRejectsUnknownStato(t *testing.T) {
	store := newFakeStorage()
	h := &DetailHandler{Store: store, Logger: discardLogger()}

	body := `{
		"id_categoria": 2,
		"data_spesa": "2026-03-15",
		"descrizione": "Taxi",
		"importo": "42.00",
		"stato_approvazione": "bozza"
	}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, detailRequest(t, http.MethodPut, body, auth.Identity{DipendenteID: 10}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, store.updated)
}

func TestSetStatoRejectsUnknownStato(t *testing.T) {
	h := &DetailHandler{Store: newFakeStorage(), Logger: discardLogger()}

	body := `{"stato": "presentata"}`
	req := detailRequest(t, http.MethodPatch, body, auth.Identity{DipendenteID: 1, IsAdmin: true})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	// Only approvata and respinta are valid decisions.
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetStatoByResponsabile(t *testing.T) {
	store := newFakeStorage()
	h := &DetailHandler{Store: store, Logger: discardLogger()}

	body := `{"stato": "approvata"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, detailRequest(t, http.MethodPatch, body, auth.Identity{DipendenteID: 20, Ruolo: auth.RuoloResponsabile}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StatoApprovata, store.stato)
}

func TestSetStatoForbiddenForNonResponsabile(t *testing.T) {
	store := newFakeStorage()
	h := &DetailHandler{Store: store, Logger: discardLogger()}

	body := `{"stato": "approvata"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, detailRequest(t, http.MethodPatch, body, auth.Identity{DipendenteID: 10}))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, store.stato)
}

func TestDeleteForbiddenForNonOwner(t *testing.T) {
	store := &fakeStorage{deleteErr: ErrNotOwner}
	h := &DetailHandler{Store: store, Logger: discardLogger()}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, detailRequest(t, http.MethodDelete, "", auth.Identity{DipendenteID: 99}))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteMissingSpesa(t *testing.T) {
	store := &fakeStorage{deleteErr: ErrSpesaNotFound}
	h := &DetailHandler{Store: store, Logger: discardLogger()}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, detailRequest(t, http.MethodDelete, "", auth.Identity{DipendenteID: 10}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteBySubmitter(t *testing.T) {
	store := newFakeStorage()
	h := &DetailHandler{Store: store, Logger: discardLogger()}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, detailRequest(t, http.MethodDelete, "", auth.Identity{DipendenteID: 10}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, store.deleted)
}

func TestDetailRequiresIdentity(t *testing.T) {
	h := &DetailHandler{Logger: discardLogger()}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/spese/abc-123", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
