package spese

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

// Storage is the slice of the expense store the HTTP handlers use; tests
// substitute fakes.
type Storage interface {
	List(ctx context.Context, id auth.Identity) ([]SpesaDetail, error)
	GetByUUID(ctx context.Context, uuidStr string) (*SpesaDetail, error)
	Insert(ctx context.Context, sp *Spesa) error
	Update(ctx context.Context, uuidStr string, upd Update) error
	Ownership(ctx context.Context, uuidStr string) (Ownership, error)
	SetStato(ctx context.Context, uuidStr string, stato Stato) error
	SoftDelete(ctx context.Context, uuidStr string, dipendenteID int64, isAdmin bool) error
}

// ListHandler serves GET (scoped list) and POST (create) on /api/v1/spese.
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
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	spese, err := h.Store.List(r.Context(), id)
	if err != nil {
		h.Logger.Error("list spese", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Errore del server")
		return
	}
	if spese == nil {
		spese = []SpesaDetail{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(spese)
}

func (h *ListHandler) create(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	var req struct {
		TrasfertaID  int64   `json:"id_trasferta"`
		CategoriaID  int64   `json:"id_categoria"`
		DataSpesa    string  `json:"data_spesa"`
		Descrizione  string  `json:"descrizione"`
		Importo      string  `json:"importo"`
		ScontrinoURL *string `json:"scontrino_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Payload non valido")
		return
	}
	if req.TrasfertaID == 0 || req.CategoriaID == 0 {
		writeMessage(w, http.StatusBadRequest, "Trasferta e categoria sono obbligatorie")
		return
	}
	importo, err := strconv.ParseFloat(strings.TrimSpace(req.Importo), 64)
	if err != nil || importo < 0 {
		writeMessage(w, http.StatusBadRequest, "Importo non valido")
		return
	}

	sp := &Spesa{
		TrasfertaID:  req.TrasfertaID,
		CategoriaID:  req.CategoriaID,
		DipendenteID: id.DipendenteID,
		Descrizione:  req.Descrizione,
		Importo:      req.Importo,
		ScontrinoURL: req.ScontrinoURL,
	}
	if req.DataSpesa != "" {
		t, err := time.Parse("2006-01-02", req.DataSpesa)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "Data spesa non valida")
			return
		}
		sp.DataSpesa = t
	}

	if err := h.Store.Insert(r.Context(), sp); err != nil {
		h.Logger.Error("insert spesa", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Errore del server")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(sp)
}

// DetailHandler serves GET, PUT (edit), PATCH (approval decision) and
// DELETE on /api/v1/spese/{uuid}.
type DetailHandler struct {
	Store  Storage
	Logger *slog.Logger
}

func (h *DetailHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	uuidStr := strings.TrimPrefix(r.URL.Path, "/api/v1/spese/")
	if uuidStr == "" || strings.Contains(uuidStr, "/") {
		writeMessage(w, http.StatusBadRequest, "Identificativo spesa non valido")
		return
	}
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, uuidStr)
	case http.MethodPut:
		h.update(w, r, uuidStr, id)
	case http.MethodPatch:
		h.setStato(w, r, uuidStr, id)
	case http.MethodDelete:
		h.delete(w, r, uuidStr, id)
	default:
		writeMessage(w, http.StatusMethodNotAllowed, "Metodo non consentito")
	}
}

func (h *DetailHandler) get(w http.ResponseWriter, r *http.Request, uuidStr string) {
	sd, err := h.Store.GetByUUID(r.Context(), uuidStr)
	if err != nil {
		if errors.Is(err, ErrSpesaNotFound) {
			writeMessage(w, http.StatusNotFound, "Spesa non trovata")
			return
		}
		h.Logger.Error("get spesa", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Errore del server")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(sd)
}

// update edits an expense's fields. The submitter, the trip's responsabile
// and admins may edit; anyone else gets 403.
func (h *DetailHandler) update(w http.ResponseWriter, r *http.Request, uuidStr string, id auth.Identity) {
	var req struct {
		CategoriaID  int64   `json:"id_categoria"`
		DataSpesa    string  `json:"data_spesa"`
		Descrizione  string  `json:"descrizione"`
		Importo      string  `json:"importo"`
		ScontrinoURL *string `json:"scontrino_url"`
		Stato        Stato   `json:"stato_approvazione"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Payload non valido")
		return
	}
	if req.Descrizione == "" || req.Importo == "" || req.DataSpesa == "" {
		writeMessage(w, http.StatusBadRequest, "Campi obbligatori mancanti")
		return
	}
	if req.CategoriaID == 0 {
		writeMessage(w, http.StatusBadRequest, "Categoria obbligatoria")
		return
	}
	importo, err := strconv.ParseFloat(strings.TrimSpace(req.Importo), 64)
	if err != nil || importo < 0 {
		writeMessage(w, http.StatusBadRequest, "Importo non valido")
		return
	}
	if !ValidStato(req.Stato) {
		writeMessage(w, http.StatusBadRequest, "Stato non valido")
		return
	}
	dataSpesa, err := time.Parse("2006-01-02", req.DataSpesa)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Data spesa non valida")
		return
	}

	own, err := h.Store.Ownership(r.Context(), uuidStr)
	if err != nil {
		if errors.Is(err, ErrSpesaNotFound) {
			writeMessage(w, http.StatusNotFound, "Spesa non trovata")
			return
		}
		h.Logger.Error("lookup ownership", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Errore del server")
		return
	}
	if !id.IsAdmin && own.DipendenteID != id.DipendenteID && own.ResponsabileID != id.DipendenteID {
		writeMessage(w, http.StatusForbidden, "Non hai i permessi per modificare questa spesa")
		return
	}

	upd := Update{
		CategoriaID:  req.CategoriaID,
		DataSpesa:    dataSpesa,
		Descrizione:  req.Descrizione,
		Importo:      req.Importo,
		ScontrinoURL: req.ScontrinoURL,
		Stato:        req.Stato,
	}
	if err := h.Store.Update(r.Context(), uuidStr, upd); err != nil {
		if errors.Is(err, ErrSpesaNotFound) {
			writeMessage(w, http.StatusNotFound, "Spesa non trovata")
			return
		}
		h.Logger.Error("update spesa", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Errore del server")
		return
	}
	writeMessage(w, http.StatusOK, "Spesa aggiornata con successo")
}

// setStato moves an expense to approvata or respinta. Only an admin or the
// trip's responsabile may decide.
func (h *DetailHandler) setStato(w http.ResponseWriter, r *http.Request, uuidStr string, id auth.Identity) {
	var req struct {
		Stato Stato `json:"stato"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Payload non valido")
		return
	}
	if req.Stato != StatoApprovata && req.Stato != StatoRespinta {
		writeMessage(w, http.StatusBadRequest, "Stato non valido")
		return
	}

	if !id.IsAdmin {
		own, err := h.Store.Ownership(r.Context(), uuidStr)
		if err != nil {
			if errors.Is(err, ErrSpesaNotFound) {
				writeMessage(w, http.StatusNotFound, "Spesa non trovata")
				return
			}
			h.Logger.Error("lookup ownership", "err", err)
			writeMessage(w, http.StatusInternalServerError, "Errore del server")
			return
		}
		if own.ResponsabileID != id.DipendenteID {
			writeMessage(w, http.StatusForbidden, "Operazione non consentita")
			return
		}
	}

	if err := h.Store.SetStato(r.Context(), uuidStr, req.Stato); err != nil {
		if errors.Is(err, ErrSpesaNotFound) {
			writeMessage(w, http.StatusNotFound, "Spesa non trovata")
			return
		}
		h.Logger.Error("update stato spesa", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Errore del server")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"uuid_spesa": uuidStr, "stato": req.Stato})
}

func (h *DetailHandler) delete(w http.ResponseWriter, r *http.Request, uuidStr string, id auth.Identity) {
	if err := h.Store.SoftDelete(r.Context(), uuidStr, id.DipendenteID, id.IsAdmin); err != nil {
		switch {
		case errors.Is(err, ErrSpesaNotFound):
			writeMessage(w, http.StatusNotFound, "Spesa non trovata")
		case errors.Is(err, ErrNotOwner):
			writeMessage(w, http.StatusForbidden, "Operazione non consentita")
		default:
			h.Logger.Error("delete spesa", "err", err)
			writeMessage(w, http.StatusInternalServerError, "Errore del server")
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
}
