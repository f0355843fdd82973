package report

import (
	"strconv"
	"strings"
)

// Aggregate reduces the scoped expense rows into report statistics in a
// single order-independent pass. Each trip's budget is counted exactly once
// no matter how many rows it contributes. Rows with an empty key for a
// dimension are left out of that dimension's groups but still count toward
// the totals. Group order follows first occurrence in the input.
//
// The per-status breakdown is only produced for non-administrators; admins
// see organization-wide aggregates without it.
func Aggregate(rows []ExpenseRow, isAdmin bool) Stats {
	st := Stats{
		SpeseByCategoria: []CategoriaGroup{},
		SpeseByTrasferta: []TrasfertaGroup{},
		SpeseByProgetto:  []ProgettoGroup{},
	}
	if !isAdmin {
		byStato := []StatoGroup{}
		st.SpeseByStato = &byStato
	}

	countedTrips := make(map[int64]bool)
	categoriaIdx := make(map[string]int)
	trasfertaIdx := make(map[string]int)
	statoIdx := make(map[string]int)
	progettoIdx := make(map[string]int)

	for _, r := range rows {
		amount := parseImporto(r.Importo)
		st.TotalSpese += amount

		if !countedTrips[r.TrasfertaID] {
			countedTrips[r.TrasfertaID] = true
			st.TotalBudget += r.Budget
		}

		if r.Categoria != "" {
			i, ok := categoriaIdx[r.Categoria]
			if !ok {
				i = len(st.SpeseByCategoria)
				categoriaIdx[r.Categoria] = i
				st.SpeseByCategoria = append(st.SpeseByCategoria, CategoriaGroup{Categoria: r.Categoria})
			}
			st.SpeseByCategoria[i].Total += amount
			st.SpeseByCategoria[i].Count++
		}

		if r.Trasferta != "" {
			i, ok := trasfertaIdx[r.Trasferta]
			if !ok {
				i = len(st.SpeseByTrasferta)
				trasfertaIdx[r.Trasferta] = i
				st.SpeseByTrasferta = append(st.SpeseByTrasferta, TrasfertaGroup{
					Trasferta: r.Trasferta,
					Progetto:  r.Progetto,
				})
			}
			st.SpeseByTrasferta[i].Total += amount
			st.SpeseByTrasferta[i].Count++
		}

		if !isAdmin && r.Stato != "" {
			i, ok := statoIdx[r.Stato]
			if !ok {
				i = len(*st.SpeseByStato)
				statoIdx[r.Stato] = i
				*st.SpeseByStato = append(*st.SpeseByStato, StatoGroup{Stato: r.Stato})
			}
			(*st.SpeseByStato)[i].Total += amount
			(*st.SpeseByStato)[i].Count++
		}

		if r.Progetto != "" {
			i, ok := progettoIdx[r.Progetto]
			if !ok {
				i = len(st.SpeseByProgetto)
				progettoIdx[r.Progetto] = i
				st.SpeseByProgetto = append(st.SpeseByProgetto, ProgettoGroup{Progetto: r.Progetto})
			}
			st.SpeseByProgetto[i].Total += amount
			st.SpeseByProgetto[i].Count++
		}
	}
	return st
}

func parseImporto(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
