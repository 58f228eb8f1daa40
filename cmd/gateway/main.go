package main

import (
	"context"
	"log"
	"net/http"
	"time"

	api "github.com/thanitrachkul/NPSS/internal/api/http"
	"github.com/thanitrachkul/NPSS/internal/audit"
	auth "github.com/thanitrachkul/NPSS/internal/auth/middleware"
	"github.com/thanitrachkul/NPSS/internal/config"
	"github.com/thanitrachkul/NPSS/internal/db"
	"github.com/thanitrachkul/NPSS/internal/placement"
	"github.com/thanitrachkul/NPSS/internal/rbac"
	"github.com/thanitrachkul/NPSS/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := placement.NewSQLStore(dbh, cfg.DBDriver)

	// --- Run archive + audit log ---
	blobs, err := storage.NewFSStore(cfg.SnapshotBasePath)
	if err != nil {
		log.Fatalf("snapshot store: %v", err)
	}
	runLog := audit.NewRunLog(dbh)

	svc := placement.NewService(store,
		placement.WithSnapshots(blobs),
		placement.WithEventLog(runLog),
	)

	// --- Auth ---
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)
	creds := &auth.CredentialChecker{DB: dbh, AdminUser: cfg.AdminUser, AdminPassHash: cfg.AdminPassHash}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, creds))

	// Protected API (JWT → subject+role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		// Cohort management (registrar)
		pr.With(rbac.Require("student:create")).
			Post("/students", api.PutStudentHandler(store))
		pr.With(rbac.Require("students:bulk_upsert")).
			Post("/students/bulk", api.BulkUpsertStudentsHandler(store))
		pr.With(rbac.Require("student:view")).
			Get("/students", api.ListStudentsHandler(store))
		pr.With(rbac.Require("student:view")).
			Get("/students/{studentID}", api.GetStudentHandler(store))
		pr.With(rbac.Require("student:delete")).
			Delete("/students/{studentID}", api.DeleteStudentHandler(store))

		// Track quotas; students may read the track list while choosing.
		pr.With(rbac.Require("track:manage")).
			Put("/tracks/{trackName}", api.PutTrackHandler(store))
		pr.With(rbac.RequireAny("track:manage", "placement:view")).
			Get("/tracks", api.ListTracksHandler(store))
		pr.With(rbac.Require("track:manage")).
			Delete("/tracks/{trackName}", api.DeleteTrackHandler(store))

		// Exam subject configuration
		pr.With(rbac.RequireAny("subject:manage", "placement:view")).
			Get("/subjects", api.ListSubjectsHandler(store))
		pr.With(rbac.Require("subject:manage")).
			Put("/subjects", api.ReplaceSubjectsHandler(store))

		// Placement
		pr.With(rbac.Require("placement:run")).
			Post("/placement/run", api.RunPlacementHandler(svc))
		pr.With(rbac.Require("placement:view")).
			Get("/placement/results", api.GetResultsHandler(svc))
		pr.With(rbac.Require("placement:export")).
			Get("/placement/export", api.ExportPlacementHandler(svc))
		pr.With(rbac.Require("placement:export")).
			Get("/placement/runs/{runID}/snapshot", api.GetRunSnapshotHandler(blobs))
		pr.With(rbac.Require("placement:run")).
			Get("/placement/runs", api.ListRunsHandler(runLog))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
