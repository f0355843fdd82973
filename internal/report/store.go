package report

import (
	"context"
	"database/sql"

	"notaspese/internal/auth"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Rows fetches the expense rows the caller is allowed to see: admins get
// every non-deleted expense, everyone else gets trips they are responsible
// for plus expenses they submitted.
func (s *Store) Rows(ctx context.Context, id auth.Identity) ([]ExpenseRow, error) {
	q := `
		SELECT t.id_trasferta, t.luogo, p.nome, c.nome,
		       s.importo::text, s.stato_approvazione, t.budget, s.id_dipendente
		FROM spesa s
		JOIN trasferte t ON t.id_trasferta = s.id_trasferta
		JOIN progetti p ON p.id_progetto = t.id_progetto
		JOIN categorie_spesa c ON c.id_categoria = s.id_categoria
		WHERE s.is_deleted = FALSE
	`
	args := []interface{}{}
	if !id.IsAdmin {
		q += ` AND (t.id_responsabile = $1 OR s.id_dipendente = $1)`
		args = append(args, id.DipendenteID)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ExpenseRow
	for rows.Next() {
		var r ExpenseRow
		if err := rows.Scan(&r.TrasfertaID, &r.Trasferta, &r.Progetto, &r.Categoria,
			&r.Importo, &r.Stato, &r.Budget, &r.DipendenteID); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func (s *Store) CountTrasferte(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trasferte`).Scan(&n)
	return n, err
}

func (s *Store) SumSpese(ctx context.Context) (float64, error) {
	var total float64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(importo), 0) FROM spesa WHERE is_deleted = FALSE`).Scan(&total)
	return total, err
}

func (s *Store) SumBudget(ctx context.Context) (float64, error) {
	var total float64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(budget), 0) FROM trasferte`).Scan(&total)
	return total, err
}
