// Command tmgated is the hosted TMGate service.
// It serves the scoring API, batch runs with progress polling, and
// per-project calibration artifacts, backed by Postgres and blob storage.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	_ "github.com/lib/pq"

	"github.com/tmgate/tmgate/internal/api"
	"github.com/tmgate/tmgate/internal/artifact"
	"github.com/tmgate/tmgate/internal/platform"
	"github.com/tmgate/tmgate/internal/runstore"
	"github.com/tmgate/tmgate/pkg/config"
)

type serverConfig struct {
	Port        string
	DatabaseURL string
	ConfigPath  string
	APIKey      string
	Workers     int
}

func loadServerConfig() serverConfig {
	workers := 4
	if v := os.Getenv("BATCH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			workers = n
		}
	}
	return serverConfig{
		Port:        envOrDefault("PORT", "8080"),
		DatabaseURL: envOrDefault("DATABASE_URL", "postgres://localhost:5432/tmgate?sslmode=disable"),
		ConfigPath:  os.Getenv("TMGATE_CONFIG"),
		APIKey:      os.Getenv("API_KEY"),
		Workers:     workers,
	}
}

func main() {
	srvCfg := loadServerConfig()

	cfg, err := config.Load(srvCfg.ConfigPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	aggregator, err := cfg.Aggregator()
	if err != nil {
		log.Fatalf("scoring config: %v", err)
	}

	db, err := sql.Open("postgres", srvCfg.DatabaseURL)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("ping database: %v", err)
	}
	if err := platform.AutoMigrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := artifact.FromConfig(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	store := runstore.NewService(db)
	handler := api.NewHandler(db, store, storage, aggregator, srvCfg.Workers, log.Default())

	apiMux := http.NewServeMux()
	handler.RegisterRoutes(apiMux)

	// Health stays outside the API key check so probes keep working.
	mux := http.NewServeMux()
	mux.Handle("/api/", api.APIKeyAuth(srvCfg.APIKey)(apiMux))
	mux.HandleFunc("GET /healthz", healthHandler(db))

	srv := &http.Server{
		Addr:    ":" + srvCfg.Port,
		Handler: api.CORS(mux),
	}

	go func() {
		log.Printf("starting tmgated on :%s", srvCfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down...")
	if err := srv.Shutdown(context.Background()); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
