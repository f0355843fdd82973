package httpserver

import (
	"encoding/json"
	"net/http"

	"log/slog"

	"notaspese/internal/auth"
	"notaspese/internal/categorie"
	"notaspese/internal/progetti"
	"notaspese/internal/report"
	"notaspese/internal/spese"
	"notaspese/internal/trasferte"
)

type Stores struct {
	Auth      *auth.Store
	Report    *report.Store
	Spese     *spese.Store
	Trasferte *trasferte.Store
	Progetti  *progetti.Store
	Categorie *categorie.Store
}

func NewRouter(
	logger *slog.Logger,
	authSvc *auth.Service,
	stores Stores,
	secureCookies bool,
) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	// Auth endpoints stay outside the session gate.
	mux.Handle("/api/v1/auth/login", &auth.LoginHandler{
		Service:       authSvc,
		Logger:        logger,
		SecureCookies: secureCookies,
	})
	mux.Handle("/api/v1/auth/logout", &auth.LogoutHandler{SecureCookies: secureCookies})
	mux.Handle("/api/v1/auth/register", &auth.RegisterHandler{
		Store:  stores.Auth,
		Logger: logger,
	})

	secured := auth.SessionMiddleware(authSvc)

	mux.Handle("/api/v1/account", secured(&auth.AccountHandler{}))

	// Reporting
	mux.Handle("/api/v1/report", secured(&report.StatsHandler{
		Store:  stores.Report,
		Logger: logger,
	}))
	mux.Handle("/api/v1/dashboard", secured(&report.DashboardHandler{
		Store:  stores.Report,
		Logger: logger,
	}))

	// Spese
	mux.Handle("/api/v1/spese", secured(&spese.ListHandler{
		Store:  stores.Spese,
		Logger: logger,
	}))
	mux.Handle("/api/v1/spese/", secured(&spese.DetailHandler{
		Store:  stores.Spese,
		Logger: logger,
	}))

	// Trasferte
	mux.Handle("/api/v1/trasferte", secured(&trasferte.ListHandler{
		Store:  stores.Trasferte,
		Logger: logger,
	}))
	mux.Handle("/api/v1/trasferte/", secured(&trasferte.DetailHandler{
		Store:  stores.Trasferte,
		Logger: logger,
	}))

	// Progetti: anyone logged in can read, only admins create or edit.
	progettiHandler := &progetti.Handler{Store: stores.Progetti, Logger: logger}
	mux.Handle("/api/v1/progetti", secured(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			auth.RequireAdmin(progettiHandler).ServeHTTP(w, r)
			return
		}
		progettiHandler.ServeHTTP(w, r)
	})))
	mux.Handle("/api/v1/progetti/", secured(auth.RequireAdmin(&progetti.DetailHandler{
		Store:  stores.Progetti,
		Logger: logger,
	})))

	mux.Handle("/api/v1/categorie", secured(&categorie.Handler{
		Store:  stores.Categorie,
		Logger: logger,
	}))

	// CORS wrapper (simple, for local UI/tools).
	return withCORS(mux)
}
