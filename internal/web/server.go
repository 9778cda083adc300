package web

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hanul-clinic/clinicboard/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// NewHandler builds the board's routes and middleware.
func NewHandler(db *sql.DB, cfg *config.Config, version string) http.Handler {
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		logrus.WithError(err).Fatal("failed to create template sub-FS")
	}
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		logrus.WithError(err).Fatal("failed to create static sub-FS")
	}

	metrics := NewMetrics()
	h := &Handlers{
		db:        db,
		cfg:       cfg,
		renderer:  NewRenderer(templateSub, version, metrics),
		sanitizer: NewSanitizer(),
		metrics:   metrics,
	}

	mux := http.NewServeMux()

	// Public board
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/notices", http.StatusFound)
	})
	mux.HandleFunc("GET /notices", h.HandleList)
	mux.HandleFunc("GET /notices/search", h.HandleSearch)
	mux.HandleFunc("GET /notices/{id}", h.HandleDetail)

	// Admin API
	mux.HandleFunc("GET /api/notices", h.HandleAPIList)
	mux.HandleFunc("POST /api/notices", h.HandleAPIStore)
	mux.HandleFunc("GET /api/notices/{id}", h.HandleAPIFetch)
	mux.HandleFunc("PUT /api/notices/{id}", h.HandleAPIUpdate)
	mux.HandleFunc("DELETE /api/notices/{id}", h.HandleAPIDelete)
	mux.HandleFunc("POST /api/notices/{id}/publish", h.HandleAPIPublish)
	mux.HandleFunc("POST /api/notices/{id}/unpublish", h.HandleAPIUnpublish)
	mux.HandleFunc("POST /api/preview", h.HandleAPIPreview)
	mux.HandleFunc("GET /api/categories", h.HandleAPIListCategories)
	mux.HandleFunc("POST /api/categories", h.HandleAPICreateCategory)
	mux.HandleFunc("POST /api/rebuild", h.HandleAPIRebuild)
	mux.HandleFunc("POST /api/purge", h.HandleAPIPurge)

	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", h.HandleHealth)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticSub)))

	return requestID(accessLog(securityHeaders(metrics.Middleware(mux))))
}

// NewServer creates the HTTP server for the board.
func NewServer(db *sql.DB, cfg *config.Config, version string) *http.Server {
	return &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           NewHandler(db, cfg, version),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run starts the HTTP server and shuts it down gracefully on SIGINT/SIGTERM
// or when ctx is cancelled.
func Run(ctx context.Context, srv *http.Server) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logrus.WithField("addr", srv.Addr).Info("clinicboard listening")
	if strings.HasPrefix(srv.Addr, "0.0.0.0") || strings.HasPrefix(srv.Addr, ":") || strings.Contains(srv.Addr, "[::]") {
		logrus.Warn("server is binding to all interfaces; the admin API has no authentication")
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logrus.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
