package trasferte

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

var ErrTrasfertaNotFound = errors.New("trasferta not found")

const detailQuery = `
	SELECT t.id_trasferta, t.uuid_trasferta, t.id_progetto, t.luogo,
	       t.data_inizio, t.data_fine, t.id_responsabile, t.budget,
	       COALESCE(t.motivo_viaggio, ''), COALESCE(t.note, ''),
	       p.nome, d.nome || ' ' || d.cognome
	FROM trasferte t
	JOIN progetti p ON p.id_progetto = t.id_progetto
	JOIN dipendenti d ON d.id_dipendente = t.id_responsabile
`

func scanDetail(row interface{ Scan(...interface{}) error }) (*TrasfertaDetail, error) {
	td := &TrasfertaDetail{}
	var fine sql.NullTime
	if err := row.Scan(&td.ID, &td.UUID, &td.ProgettoID, &td.Luogo,
		&td.DataInizio, &fine, &td.ResponsabileID, &td.Budget,
		&td.MotivoViaggio, &td.Note,
		&td.Progetto, &td.Responsabile); err != nil {
		return nil, err
	}
	if fine.Valid {
		t := fine.Time
		td.DataFine = &t
	}
	return td, nil
}

func (s *Store) List(ctx context.Context) ([]TrasfertaDetail, error) {
	rows, err := s.db.QueryContext(ctx, detailQuery+` ORDER BY t.data_inizio DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TrasfertaDetail
	for rows.Next() {
		td, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *td)
	}
	return result, rows.Err()
}

func (s *Store) GetByID(ctx context.Context, id int64) (*TrasfertaDetail, error) {
	td, err := scanDetail(s.db.QueryRowContext(ctx, detailQuery+` WHERE t.id_trasferta = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTrasfertaNotFound
		}
		return nil, err
	}
	return td, nil
}

func (s *Store) Create(ctx context.Context, t *Trasferta) error {
	t.UUID = uuid.NewString()
	if t.DataInizio.IsZero() {
		t.DataInizio = time.Now().UTC()
	}
	const q = `
		INSERT INTO trasferte (uuid_trasferta, id_progetto, luogo, data_inizio,
		                       data_fine, id_responsabile, budget, motivo_viaggio, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id_trasferta
	`
	return s.db.QueryRowContext(ctx, q,
		t.UUID, t.ProgettoID, t.Luogo, t.DataInizio,
		t.DataFine, t.ResponsabileID, t.Budget, t.MotivoViaggio, t.Note,
	).Scan(&t.ID)
}

func (s *Store) Update(ctx context.Context, t *Trasferta) error {
	const q = `
		UPDATE trasferte
		SET id_progetto = $2, luogo = $3, data_inizio = $4, data_fine = $5,
		    id_responsabile = $6, budget = $7, motivo_viaggio = $8, note = $9
		WHERE id_trasferta = $1
	`
	res, err := s.db.ExecContext(ctx, q,
		t.ID, t.ProgettoID, t.Luogo, t.DataInizio, t.DataFine,
		t.ResponsabileID, t.Budget, t.MotivoViaggio, t.Note)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTrasfertaNotFound
	}
	return nil
}
