package progetti

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"
)

func writeMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}

// Storage is the slice of the project store the HTTP handlers use; tests
// substitute fakes.
type Storage interface {
	List(ctx context.Context) ([]Progetto, error)
	Create(ctx context.Context, p *Progetto) error
	Update(ctx context.Context, p *Progetto) error
}

type progettoRequest struct {
	Nome       string `json:"nome"`
	DataInizio string `json:"data_inizio"`
	DataFine   string `json:"data_fine"`
}

func (req *progettoRequest) toProgetto() (*Progetto, string) {
	if req.Nome == "" {
		return nil, "Nome progetto obbligatorio"
	}
	p := &Progetto{Nome: req.Nome}
	if req.DataInizio != "" {
		d, err := time.Parse("2006-01-02", req.DataInizio)
		if err != nil {
			return nil, "Data inizio non valida"
		}
		p.DataInizio = d
	}
	if req.DataFine != "" {
		d, err := time.Parse("2006-01-02", req.DataFine)
		if err != nil {
			return nil, "Data fine non valida"
		}
		p.DataFine = &d
	}
	return p, ""
}

// Handler serves GET (list) and POST (create) on /api/v1/progetti. Creation
// is restricted to admins by the router.
type Handler struct {
	Store  Storage
	Logger *slog.Logger
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		writeMessage(w, http.StatusMethodNotAllowed, "Metodo non consentito")
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	progetti, err := h.Store.List(r.Context())
	if err != nil {
		h.Logger.Error("list progetti", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Errore del server")
		return
	}
	if progetti == nil {
		progetti = []Progetto{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(progetti)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req progettoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Payload non valido")
		return
	}
	p, msg := req.toProgetto()
	if msg != "" {
		writeMessage(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.Store.Create(r.Context(), p); err != nil {
		h.Logger.Error("create progetto", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Errore del server")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(p)
}

// DetailHandler serves PUT on /api/v1/progetti/{id}. The router restricts it
// to admins.
type DetailHandler struct {
	Store  Storage
	Logger *slog.Logger
}

func (h *DetailHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeMessage(w, http.StatusMethodNotAllowed, "Metodo non consentito")
		return
	}
	idStr := strings.TrimPrefix(r.URL.Path, "/api/v1/progetti/")
	projectID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Identificativo progetto non valido")
		return
	}

	var req progettoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Payload non valido")
		return
	}
	p, msg := req.toProgetto()
	if msg != "" {
		writeMessage(w, http.StatusBadRequest, msg)
		return
	}
	p.ID = projectID

	if err := h.Store.Update(r.Context(), p); err != nil {
		if errors.Is(err, ErrProgettoNotFound) {
			writeMessage(w, http.StatusNotFound, "Progetto non trovato")
			return
		}
		h.Logger.Error("update progetto", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Errore del server")
		return
	}
	writeMessage(w, http.StatusOK, "Progetto aggiornato con successo")
}
