package categorie

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"

	"log/slog"
)

type Categoria struct {
	ID   int64  `json:"id_categoria"`
	Nome string `json:"nome"`
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) List(ctx context.Context) ([]Categoria, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id_categoria, nome FROM categorie_spesa ORDER BY nome`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Categoria
	for rows.Next() {
		var c Categoria
		if err := rows.Scan(&c.ID, &c.Nome); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

type Handler struct {
	Store  *Store
	Logger *slog.Logger
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	categorie, err := h.Store.List(r.Context())
	if err != nil {
		h.Logger.Error("list categorie", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if categorie == nil {
		categorie = []Categoria{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(categorie)
}
