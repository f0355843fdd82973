package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"notaspese/internal/auth"
	"notaspese/internal/categorie"
	"notaspese/internal/config"
	"notaspese/internal/db"
	"notaspese/internal/httpserver"
	"notaspese/internal/logging"
	"notaspese/internal/progetti"
	"notaspese/internal/report"
	"notaspese/internal/spese"
	"notaspese/internal/trasferte"
)

func main() {
	ctx := context.Background()
	logger := logging.New()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	dbConn, err := db.Open(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer dbConn.Close()

	if err := db.RunMigrations(ctx, dbConn, "sql"); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	authStore := auth.NewStore(dbConn)
	if err := authStore.SeedFromFile(ctx, cfg.UsersPath); err != nil {
		log.Fatalf("seed users: %v", err)
	}
	authSvc := auth.NewService(authStore, cfg.JWTSecret)

	stores := httpserver.Stores{
		Auth:      authStore,
		Report:    report.NewStore(dbConn),
		Spese:     spese.NewStore(dbConn),
		Trasferte: trasferte.NewStore(dbConn),
		Progetti:  progetti.NewStore(dbConn),
		Categorie: categorie.NewStore(dbConn),
	}

	handler := httpserver.NewRouter(logger, authSvc, stores, cfg.Production())
	server := httpserver.New(cfg.HTTPAddr, handler, logger)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("http server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
