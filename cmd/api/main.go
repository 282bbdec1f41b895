package main

import (
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nsetools/project-scheduler/internal/auth"
	"github.com/nsetools/project-scheduler/internal/config"
	"github.com/nsetools/project-scheduler/internal/db"
	"github.com/nsetools/project-scheduler/internal/handlers"
	"github.com/nsetools/project-scheduler/internal/middleware"
	"github.com/nsetools/project-scheduler/internal/repo"
	"github.com/nsetools/project-scheduler/internal/scheduler"
)

func main() {
	// Optional .env for local development; real deployments set env vars.
	_ = godotenv.Load()

	cfg := config.Load()

	setupLogger(cfg.LogFormat)

	// A default or empty signing secret makes every issued token forgeable.
	// Hard error in prod, loud warning in dev.
	if cfg.InsecureSecret() {
		if cfg.Env == "prod" {
			log.Fatal("JWT_SECRET must be set to a non-default value when ENV=prod")
		}
		slog.Warn("running with an insecure default JWT_SECRET; do not use in production")
	}

	database, err := db.Connect(cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser, cfg.DBPass)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	database.SetMaxOpenConns(cfg.DBMaxOpenConns)
	database.SetMaxIdleConns(cfg.DBMaxIdleConns)

	if err := db.Run(db.URL(cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser, cfg.DBPass)); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	slog.Info("connected to database", "host", cfg.DBHost, "name", cfg.DBName)

	go func() {
		if err := scheduler.Run(repo.NewProjectRepo(database), cfg.ProgressSyncCron); err != nil {
			slog.Error("progress scheduler failed to start", "err", err)
		}
	}()

	r := newRouter(database, cfg)

	addr := ":" + cfg.Port
	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		slog.Info("starting server with TLS", "addr", addr)
		log.Fatal(http.ListenAndServeTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile, r))
	}
	slog.Info("starting server", "addr", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}

// newRouter wires the full HTTP surface. Kept separate from main so the
// integration tests can mount it over a mock database.
func newRouter(database *sql.DB, cfg config.Config) http.Handler {
	userRepo := repo.NewUserRepo(database)
	projectRepo := repo.NewProjectRepo(database)
	auditRepo := repo.NewAuditRepo(database)

	issuer := auth.NewIssuer(cfg.JWTSecret, time.Duration(cfg.JWTExpireHours)*time.Hour)

	authHandler := &handlers.AuthHandler{UserRepo: userRepo, AuditRepo: auditRepo, Issuer: issuer}
	projectHandler := &handlers.ProjectHandler{Repo: projectRepo, AuditRepo: auditRepo}
	auditHandler := &handlers.AuditHandler{Repo: auditRepo}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))

	r.Get("/health", handlers.Health)
	r.Get("/ready", handlers.Ready(database))
	r.Handle("/metrics", promhttp.Handler())

	// Credential endpoints are rate limited per IP.
	authLimiter := middleware.AuthRateLimiter()
	r.Group(func(r chi.Router) {
		r.Use(authLimiter.Middleware)
		r.Post("/auth/signup", authHandler.Signup)
		r.Post("/auth/login", authHandler.Login)
	})

	// Everything below requires a valid bearer token.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(issuer))

		r.Get("/auth/profile", authHandler.GetProfile)
		r.Put("/auth/profile", authHandler.UpdateProfile)

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", projectHandler.ListProjects)
			r.Post("/", projectHandler.CreateProject)
			r.Get("/{id}", projectHandler.GetProject)
			r.Put("/{id}", projectHandler.UpdateProject)
			r.Delete("/{id}", projectHandler.DeleteProject)
			r.Patch("/{id}/progress", projectHandler.UpdateProgress)
			r.Post("/{id}/team", projectHandler.AddTeamMember)
			r.Delete("/{id}/team/{memberId}", projectHandler.RemoveTeamMember)
			r.Post("/{id}/phases", projectHandler.AddPhase)
		})

		r.Get("/audit", auditHandler.ListAudit)
	})

	return r
}

func setupLogger(format string) {
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(handler))
}
