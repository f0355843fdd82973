package spese

import "time"

type Stato string

const (
	StatoPresentata Stato = "presentata"
	StatoApprovata  Stato = "approvata"
	StatoRespinta   Stato = "respinta"
)

// ValidStato reports whether s is one of the known approval states.
func ValidStato(s Stato) bool {
	switch s {
	case StatoPresentata, StatoApprovata, StatoRespinta:
		return true
	}
	return false
}

type Spesa struct {
	ID           int64     `json:"id_spesa"`
	UUID         string    `json:"uuid_spesa"`
	TrasfertaID  int64     `json:"id_trasferta"`
	CategoriaID  int64     `json:"id_categoria"`
	DipendenteID int64     `json:"id_dipendente"`
	DataSpesa    time.Time `json:"data_spesa"`
	Descrizione  string    `json:"descrizione"`
	Importo      string    `json:"importo"`
	ScontrinoURL *string   `json:"scontrino_url"`
	Stato        Stato     `json:"stato_approvazione"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SpesaDetail adds the joined names the grid views show.
type SpesaDetail struct {
	Spesa
	Categoria  string `json:"nome_categoria"`
	Trasferta  string `json:"nome_trasferta"`
	Dipendente string `json:"nome_dipendente"`
}
