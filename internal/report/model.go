package report

// ExpenseRow is one expense joined to its trip, project and category,
// already scoped to what the caller may see. Importo arrives as the
// DECIMAL's text form and is parsed during reduction; a malformed value
// counts as zero rather than failing the whole report.
type ExpenseRow struct {
	TrasfertaID  int64
	Trasferta    string
	Progetto     string
	Categoria    string
	Importo      string
	Stato        string
	Budget       float64
	DipendenteID int64
}

type CategoriaGroup struct {
	Categoria string  `json:"categoria"`
	Total     float64 `json:"total"`
	Count     int     `json:"count"`
}

type TrasfertaGroup struct {
	Trasferta string  `json:"trasferta"`
	Progetto  string  `json:"progetto"`
	Total     float64 `json:"total"`
	Count     int     `json:"count"`
}

type StatoGroup struct {
	Stato string  `json:"stato"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

type ProgettoGroup struct {
	Progetto string  `json:"progetto"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}

// Stats carries the reduced report. SpeseByStato is a pointer so the field
// stays present (as an empty array) for non-admins even with no rows, while
// admins get no speseByStato key at all.
type Stats struct {
	TotalSpese       float64          `json:"totalSpese"`
	TotalBudget      float64          `json:"totalBudget"`
	SpeseByCategoria []CategoriaGroup `json:"speseByCategoria"`
	SpeseByTrasferta []TrasfertaGroup `json:"speseByTrasferta"`
	SpeseByStato     *[]StatoGroup    `json:"speseByStato,omitempty"`
	SpeseByProgetto  []ProgettoGroup  `json:"speseByProgetto"`
}

// Remaining is informational only; a negative value flags over-budget but
// triggers no enforcement.
func (s Stats) Remaining() float64 {
	return s.TotalBudget - s.TotalSpese
}

func (s Stats) OverBudget() bool {
	return s.Remaining() < 0
}
