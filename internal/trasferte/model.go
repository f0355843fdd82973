package trasferte

import "time"

type Trasferta struct {
	ID             int64      `json:"id_trasferta"`
	UUID           string     `json:"uuid_trasferta"`
	ProgettoID     int64      `json:"id_progetto"`
	Luogo          string     `json:"luogo"`
	DataInizio     time.Time  `json:"data_inizio"`
	DataFine       *time.Time `json:"data_fine"`
	ResponsabileID int64      `json:"id_responsabile"`
	Budget         float64    `json:"budget"`
	MotivoViaggio  string     `json:"motivo_viaggio"`
	Note           string     `json:"note"`
}

// TrasfertaDetail adds the joined names shown in the trip grid.
type TrasfertaDetail struct {
	Trasferta
	Progetto     string `json:"nome_progetto"`
	Responsabile string `json:"nome_responsabile"`
}
