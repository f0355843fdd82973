package progetti

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrProgettoNotFound = errors.New("progetto not found")

type Progetto struct {
	ID         int64      `json:"id_progetto"`
	Nome       string     `json:"nome"`
	DataInizio time.Time  `json:"data_inizio"`
	DataFine   *time.Time `json:"data_fine"`
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) List(ctx context.Context) ([]Progetto, error) {
	const q = `SELECT id_progetto, nome, data_inizio, data_fine FROM progetti ORDER BY data_inizio DESC`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Progetto
	for rows.Next() {
		var p Progetto
		var fine sql.NullTime
		if err := rows.Scan(&p.ID, &p.Nome, &p.DataInizio, &fine); err != nil {
			return nil, err
		}
		if fine.Valid {
			t := fine.Time
			p.DataFine = &t
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *Store) Create(ctx context.Context, p *Progetto) error {
	if p.DataInizio.IsZero() {
		p.DataInizio = time.Now().UTC()
	}
	const q = `INSERT INTO progetti (nome, data_inizio, data_fine) VALUES ($1, $2, $3) RETURNING id_progetto`
	return s.db.QueryRowContext(ctx, q, p.Nome, p.DataInizio, p.DataFine).Scan(&p.ID)
}

func (s *Store) Update(ctx context.Context, p *Progetto) error {
	const q = `UPDATE progetti SET nome = $2, data_inizio = $3, data_fine = $4 WHERE id_progetto = $1`
	res, err := s.db.ExecContext(ctx, q, p.ID, p.Nome, p.DataInizio, p.DataFine)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrProgettoNotFound
	}
	return nil
}
