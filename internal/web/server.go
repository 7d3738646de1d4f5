// Package web serves the billing form used in place of the desktop window.
// The server keeps no bill state: the lines of the bill being built travel in
// hidden form fields and every request rebuilds its own ledger.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/vijaylaxmi/flourmill/internal/billing"
	"github.com/vijaylaxmi/flourmill/internal/model"
	logx "github.com/vijaylaxmi/flourmill/pkg/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

type RecordAppender interface {
	Append(bill *model.Bill) error
}

type PDFWriter interface {
	Write(w io.Writer, bill *model.Bill) error
}

type Deps struct {
	Catalog *billing.Catalog
	Options billing.Options
	Notify  model.NotifyConfig
	Records RecordAppender
	PDF     PDFWriter
	Now     func() time.Time
}

type Server struct {
	deps   Deps
	tmpl   *template.Template
	router *mux.Router
}

func NewServer(deps Deps) (*Server, error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	tmpl, err := template.New("form.html").
		Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
		ParseFS(templateFS, "templates/form.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{deps: deps, tmpl: tmpl, router: mux.NewRouter()}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.router.HandleFunc("/", s.indexHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/items", s.addItemHandler).Methods(http.MethodPost)
	s.router.HandleFunc("/bill", s.billHandler).Methods(http.MethodPost)
	s.router.HandleFunc("/bill.pdf", s.pdfHandler).Methods(http.MethodPost)
	s.router.HandleFunc("/catalog", s.catalogHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.healthHandler).Methods(http.MethodGet)
	s.router.Use(logRequests)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logx.Info().Str("component", "web").Str("addr", addr).Msg("billing form listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logx.Info().Str("component", "web").Msg("shutting down billing form")
		return srv.Shutdown(shutdownCtx)
	}
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logx.Debug().
			Str("component", "web").
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
