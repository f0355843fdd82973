package trasferte

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"notaspese/internal/auth"
)

func writeMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}

// Storage is the slice of the trip store the HTTP handlers use; tests
// substitute fakes.
type Storage interface {
	List(ctx context.Context) ([]TrasfertaDetail, error)
	GetByID(ctx context.Context, id int64) (*TrasfertaDetail, error)
	Create(ctx context.Context, t *Trasferta) error
	Update(ctx context.Context, t *Trasferta) error
}

type ListHandler struct {
	Store  Storage
	Logger *slog.Logger
}

func (h *ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		writeMessage(w, http.StatusMethodNotAllowed, "Metodo non consentito")
	}
}

func (h *ListHandler) list(w http.ResponseWriter, r *http.Request) {
	trasferte, err := h.Store.List(r.Context())
	if err != nil {
		h.Logger.Error("list trasferte", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Errore del server")
		return
	}
	if trasferte == nil {
		trasferte = []TrasfertaDetail{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(trasferte)
}

// trasfertaRequest is the wire shape shared by create and update.
type trasfertaRequest struct {
	ProgettoID     int64   `json:"id_progetto"`
	Luogo          string  `json:"luogo"`
	DataInizio     string  `json:"data_inizio"`
	DataFine       string  `json:"data_fine"`
	ResponsabileID int64   `json:"id_responsabile"`
	Budget         float64 `json:"budget"`
	MotivoViaggio  string  `json:"motivo_viaggio"`
	Note           string  `json:"note"`
}

// toTrasferta validates the request and builds the record. A non-nil error
// message means 400.
func (req *trasfertaRequest) toTrasferta() (*Trasferta, string) {
	if req.Luogo == "" || req.ProgettoID == 0 {
		return nil, "Luogo e progetto sono obbligatori"
	}
	if req.Budget < 0 {
		return nil, "Budget non valido"
	}
	t := &Trasferta{
		ProgettoID:     req.ProgettoID,
		Luogo:          req.Luogo,
		ResponsabileID: req.ResponsabileID,
		Budget:         req.Budget,
		MotivoViaggio:  req.MotivoViaggio,
		Note:           req.Note,
	}
	if req.DataInizio != "" {
		d, err := time.Parse("2006-01-02", req.DataInizio)
		if err != nil {
			return nil, "Data inizio non valida"
		}
		t.DataInizio = d
	}
	if req.DataFine != "" {
		d, err := time.Parse("2006-01-02", req.DataFine)
		if err != nil {
			return nil, "Data fine non valida"
		}
		t.DataFine = &d
	}
	return t, ""
}

func (h *ListHandler) create(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	var req trasfertaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Payload non valido")
		return
	}
	if req.ResponsabileID == 0 {
		// Default the responsabile to whoever opens the trip.
		req.ResponsabileID = id.DipendenteID
	}
	t, msg := req.toTrasferta()
	if msg != "" {
		writeMessage(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.Store.Create(r.Context(), t); err != nil {
		h.Logger.Error("create trasferta", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Errore del server")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(t)
}

type DetailHandler struct {
	Store  Storage
	Logger *slog.Logger
}

func (h *DetailHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/v1/trasferte/")
	tripID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Identificativo trasferta non valido")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, tripID)
	case http.MethodPut:
		h.update(w, r, tripID)
	default:
		writeMessage(w, http.StatusMethodNotAllowed, "Metodo non consentito")
	}
}

func (h *DetailHandler) get(w http.ResponseWriter, r *http.Request, tripID int64) {
	td, err := h.Store.GetByID(r.Context(), tripID)
	if err != nil {
		if errors.Is(err, ErrTrasfertaNotFound) {
			writeMessage(w, http.StatusNotFound, "Trasferta non trovata")
			return
		}
		h.Logger.Error("get trasferta", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Errore del server")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(td)
}

// update rewrites a trip. Admins and the trip's current responsabile may
// edit; anyone else gets 403.
func (h *DetailHandler) update(w http.ResponseWriter, r *http.Request, tripID int64) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	var req trasfertaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Payload non valido")
		return
	}

	current, err := h.Store.GetByID(r.Context(), tripID)
	if err != nil {
		if errors.Is(err, ErrTrasfertaNotFound) {
			writeMessage(w, http.StatusNotFound, "Trasferta non trovata")
			return
		}
		h.Logger.Error("get trasferta", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Errore del server")
		return
	}
	if !id.IsAdmin && current.ResponsabileID != id.DipendenteID {
		writeMessage(w, http.StatusForbidden, "Operazione non consentita")
		return
	}

	if req.ResponsabileID == 0 {
		req.ResponsabileID = current.ResponsabileID
	}
	t, msg := req.toTrasferta()
	if msg != "" {
		writeMessage(w, http.StatusBadRequest, msg)
		return
	}
	t.ID = tripID
	t.UUID = current.UUID

	if err := h.Store.Update(r.Context(), t); err != nil {
		if errors.Is(err, ErrTrasfertaNotFound) {
			writeMessage(w, http.StatusNotFound, "Trasferta non trovata")
			return
		}
		h.Logger.Error("update trasferta", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Errore del server")
		return
	}
	writeMessage(w, http.StatusOK, "Trasferta aggiornata con successo")
}
