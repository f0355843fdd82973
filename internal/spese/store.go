package spese

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"notaspese/internal/auth"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

var (
	ErrSpesaNotFound = errors.New("spesa not found")
	ErrNotOwner      = errors.New("not the submitter of this spesa")
)

const detailColumns = `
	s.id_spesa, s.uuid_spesa, s.id_trasferta, s.id_categoria, s.id_dipendente,
	s.data_spesa, s.descrizione, s.importo::text, s.scontrino_url,
	s.stato_approvazione, s.created_at, s.updated_at,
	c.nome, t.luogo, d.nome || ' ' || d.cognome
`

const detailJoins = `
	FROM spesa s
	JOIN categorie_spesa c ON c.id_categoria = s.id_categoria
	JOIN trasferte t ON t.id_trasferta = s.id_trasferta
	JOIN dipendenti d ON d.id_dipendente = s.id_dipendente
`

func scanDetail(row interface{ Scan(...interface{}) error }) (*SpesaDetail, error) {
	sd := &SpesaDetail{}
	var scontrino sql.NullString
	if err := row.Scan(&sd.ID, &sd.UUID, &sd.TrasfertaID, &sd.CategoriaID, &sd.DipendenteID,
		&sd.DataSpesa, &sd.Descrizione, &sd.Importo, &scontrino,
		&sd.Stato, &sd.CreatedAt, &sd.UpdatedAt,
		&sd.Categoria, &sd.Trasferta, &sd.Dipendente); err != nil {
		return nil, err
	}
	if scontrino.Valid {
		v := scontrino.String
		sd.ScontrinoURL = &v
	}
	return sd, nil
}

// List returns the expenses the caller may see, newest first. Admins see
// everything not deleted; others see their own submissions and the trips
// they are responsible for.
func (s *Store) List(ctx context.Context, id auth.Identity) ([]SpesaDetail, error) {
	q := `SELECT ` + detailColumns + detailJoins + ` WHERE s.is_deleted = FALSE`
	args := []interface{}{}
	if !id.IsAdmin {
		q += ` AND (t.id_responsabile = $1 OR s.id_dipendente = $1)`
		args = append(args, id.DipendenteID)
	}
	q += ` ORDER BY s.data_spesa DESC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []SpesaDetail
	for rows.Next() {
		sd, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *sd)
	}
	return result, rows.Err()
}

func (s *Store) GetByUUID(ctx context.Context, uuidStr string) (*SpesaDetail, error) {
	q := `SELECT ` + detailColumns + detailJoins + ` WHERE s.uuid_spesa = $1 AND s.is_deleted = FALSE`
	sd, err := scanDetail(s.db.QueryRowContext(ctx, q, uuidStr))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSpesaNotFound
		}
		return nil, err
	}
	return sd, nil
}

// Insert creates the expense in stato presentata with a fresh uuid.
func (s *Store) Insert(ctx context.Context, sp *Spesa) error {
	if sp.DataSpesa.IsZero() {
		sp.DataSpesa = time.Now().UTC()
	}
	sp.UUID = uuid.NewString()
	sp.Stato = StatoPresentata
	const q = `
		INSERT INTO spesa (uuid_spesa, id_trasferta, id_categoria, id_dipendente,
		                   data_spesa, descrizione, importo, scontrino_url,
		                   stato_approvazione, is_deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE, $10, $10)
		RETURNING id_spesa, created_at, updated_at
	`
	row := s.db.QueryRowContext(ctx, q,
		sp.UUID, sp.TrasfertaID, sp.CategoriaID, sp.DipendenteID,
		sp.DataSpesa, sp.Descrizione, sp.Importo, sp.ScontrinoURL,
		sp.Stato, time.Now().UTC(),
	)
	return row.Scan(&sp.ID, &sp.CreatedAt, &sp.UpdatedAt)
}

// Update carries the editable fields of an expense.
type Update struct {
	CategoriaID  int64
	DataSpesa    time.Time
	Descrizione  string
	Importo      string
	ScontrinoURL *string
	Stato        Stato
}

func (s *Store) Update(ctx context.Context, uuidStr string, upd Update) error {
	const q = `
		UPDATE spesa
		SET descrizione = $2, importo = $3, data_spesa = $4, stato_approvazione = $5,
		    scontrino_url = $6, id_categoria = $7, updated_at = $8
		WHERE uuid_spesa = $1 AND is_deleted = FALSE
	`
	res, err := s.db.ExecContext(ctx, q, uuidStr,
		upd.Descrizione, upd.Importo, upd.DataSpesa, upd.Stato,
		upd.ScontrinoURL, upd.CategoriaID, time.Now().UTC())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSpesaNotFound
	}
	return nil
}

// Ownership identifies who may touch an expense: its submitter and the
// responsabile of its trip.
type Ownership struct {
	DipendenteID   int64
	ResponsabileID int64
}

func (s *Store) Ownership(ctx context.Context, uuidStr string) (Ownership, error) {
	const q = `
		SELECT s.id_dipendente, t.id_responsabile
		FROM spesa s
		JOIN trasferte t ON t.id_trasferta = s.id_trasferta
		WHERE s.uuid_spesa = $1 AND s.is_deleted = FALSE
	`
	var own Ownership
	if err := s.db.QueryRowContext(ctx, q, uuidStr).Scan(&own.DipendenteID, &own.ResponsabileID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Ownership{}, ErrSpesaNotFound
		}
		return Ownership{}, err
	}
	return own, nil
}

func (s *Store) SetStato(ctx context.Context, uuidStr string, stato Stato) error {
	const q = `
		UPDATE spesa SET stato_approvazione = $2, updated_at = $3
		WHERE uuid_spesa = $1 AND is_deleted = FALSE
	`
	res, err := s.db.ExecContext(ctx, q, uuidStr, stato, time.Now().UTC())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSpesaNotFound
	}
	return nil
}

// SoftDelete hides the expense. Only the submitter or an admin may do it;
// a row that exists but belongs to someone else yields ErrNotOwner so the
// caller can answer 403 rather than 404.
func (s *Store) SoftDelete(ctx context.Context, uuidStr string, dipendenteID int64, isAdmin bool) error {
	own, err := s.Ownership(ctx, uuidStr)
	if err != nil {
		return err
	}
	if !isAdmin && own.DipendenteID != dipendenteID {
		return ErrNotOwner
	}
	const q = `
		UPDATE spesa SET is_deleted = TRUE, updated_at = $2
		WHERE uuid_spesa = $1 AND is_deleted = FALSE
	`
	res, err := s.db.ExecContext(ctx, q, uuidStr, time.Now().UTC())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSpesaNotFound
	}
	return nil
}
