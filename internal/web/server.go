package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"ytsummarizer/internal/domain"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second

	requestIDHeader = "X-Request-ID"

	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

//go:embed templates/*.html
var templatesFS embed.FS

// Summarizer runs the transcript-to-summary pipeline for one URL.
type Summarizer interface {
	Run(ctx context.Context, rawURL string) (*domain.Result, error)
}

type HistoryLister interface {
	RecentSummaries(ctx context.Context, limit int) ([]domain.SummaryRecord, error)
}

type Server struct {
	summarizer   Summarizer
	history      HistoryLister
	historyLimit int
	page         *template.Template
	log          *slog.Logger
}

// NewServer builds the web shell. history may be nil.
func NewServer(
	summarizer Summarizer,
	history HistoryLister,
	historyLimit int,
	log *slog.Logger,
) (*Server, error) {
	page, err := template.ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	if historyLimit < 0 {
		historyLimit = defaultHistoryLimit
	}

	return &Server{
		summarizer:   summarizer,
		history:      history,
		historyLimit: historyLimit,
		page:         page,
		log:          log,
	}, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/summaries", s.handleListSummaries)
	mux.HandleFunc("POST /api/summaries", s.handleCreateSummary)

	return s.logRequests(mux)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		next.ServeHTTP(rec, r)

		s.log.InfoContext(r.Context(), "Request is served",
			"requestID", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"durationSeconds", time.Since(start).Seconds())
	})
}

func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindNone:
		return http.StatusOK
	case domain.KindURLParse:
		return http.StatusBadRequest
	case domain.KindTranscriptUnavailable:
		return http.StatusNotFound
	case domain.KindGeneration:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
