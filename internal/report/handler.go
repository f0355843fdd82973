package report

import (
	"context"
	"encoding/json"
	"net/http"

	"log/slog"

	"golang.org/x/sync/errgroup"

	"notaspese/internal/auth"
)

// RowSource abstracts the scoped row fetch so handler tests can use fakes.
type RowSource interface {
	Rows(ctx context.Context, id auth.Identity) ([]ExpenseRow, error)
}

type StatsHandler struct {
	Store  RowSource
	Logger *slog.Logger
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	rows, err := h.Store.Rows(r.Context(), id)
	if err != nil {
		h.Logger.Error("fetch report rows", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	stats := Aggregate(rows, id.IsAdmin)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"stats":   stats,
		"isAdmin": id.IsAdmin,
	})
}

type DashboardHandler struct {
	Store  *Store
	Logger *slog.Logger
}

func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := auth.IdentityFromContext(r.Context()); !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var (
		totalTrasferte int64
		totalSpese     float64
		totalBudget    float64
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		totalTrasferte, err = h.Store.CountTrasferte(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		totalSpese, err = h.Store.SumSpese(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		totalBudget, err = h.Store.SumBudget(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		h.Logger.Error("dashboard totals", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	remaining := totalBudget - totalSpese
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"totalTrasferte": totalTrasferte,
		"totalSpese":     totalSpese,
		"totalBudget":    totalBudget,
		"remaining":      remaining,
		"overBudget":     remaining < 0,
	})
}
