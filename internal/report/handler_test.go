package report

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"log/slog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notaspese/internal/auth"
)

type fakeRowSource struct {
	rows []ExpenseRow
	err  error
	seen auth.Identity
}

func (f *fakeRowSource) Rows(ctx context.Context, id auth.Identity) ([]ExpenseRow, error) {
	f.seen = id
	return f.rows, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStatsHandler(t *testing.T) {
	src := &fakeRowSource{rows: exampleRows()}
	h := &StatsHandler{Store: src, Logger: discardLogger()}

	id := auth.Identity{DipendenteID: 10, Ruolo: auth.RuoloDipendente}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/report", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), id))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, src.seen)

	var body struct {
		Stats   Stats `json:"stats"`
		IsAdmin bool  `json:"isAdmin"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.False(t, body.IsAdmin)
	assert.Equal(t, 150.0, body.Stats.TotalSpese)
	assert.Equal(t, 500.0, body.Stats.TotalBudget)
	assert.NotEmpty(t, body.Stats.SpeseByStato)
}

func TestStatsHandlerAdminOmitsStato(t *testing.T) {
	src := &fakeRowSource{rows: exampleRows()}
	h := &StatsHandler{Store: src, Logger: discardLogger()}

	id := auth.Identity{DipendenteID: 1, IsAdmin: true}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/report", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), id))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&raw))
	var stats map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw["stats"], &stats))
	_, present := stats["speseByStato"]
	assert.False(t, present)
}

func TestStatsHandlerNoIdentity(t *testing.T) {
	h := &StatsHandler{Store: &fakeRowSource{}, Logger: discardLogger()}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/report", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStatsHandlerStorageFault(t *testing.T) {
	src := &fakeRowSource{err: errors.New("connection refused")}
	h := &StatsHandler{Store: src, Logger: discardLogger()}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/report", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{DipendenteID: 10}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	// No internal error text leaks to the caller.
	assert.NotContains(t, rec.Body.String(), "connection refused")
}
