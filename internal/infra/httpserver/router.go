package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	appfeedback "github.com/bryanwahyu/phishscan/internal/application/feedback"
	appscans "github.com/bryanwahyu/phishscan/internal/application/scans"
	"github.com/bryanwahyu/phishscan/internal/domain/feedback"
	domain "github.com/bryanwahyu/phishscan/internal/domain/scans"
	"github.com/bryanwahyu/phishscan/internal/middleware"
)

// maxBodyBytes caps request bodies on every route.
const maxBodyBytes = 1 << 20

// ScanService is the part of *appscans.Service the router uses.
type ScanService interface {
	Scan(ctx context.Context, url string) (appscans.ScanResult, error)
	History(ctx context.Context) ([]*domain.ScanRecord, error)
}

// FeedbackService is the part of *appfeedback.Service the router uses.
type FeedbackService interface {
	Submit(ctx context.Context, cmd appfeedback.SubmitCommand) (appfeedback.SubmitResult, error)
	Latest(ctx context.Context) ([]*feedback.Event, error)
}

type Options struct {
	AllowedOrigins []string
	APIKeys        []string
	// RateLimit is nil to disable limiting.
	RateLimit func(http.Handler) http.Handler
	Health    map[string]middleware.HealthChecker
	Log       *slog.Logger
}

type Router struct {
	scansSvc    ScanService
	feedbackSvc FeedbackService
	log         *slog.Logger
}

func NewRouter(scansSvc ScanService, feedbackSvc FeedbackService, opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	r := &Router{scansSvc: scansSvc, feedbackSvc: feedbackSvc, log: log}
	mux := chi.NewRouter()

	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(middleware.Logging(log))
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.Metrics)
	mux.Use(chimw.RequestSize(maxBodyBytes))
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		ExposedHeaders:   []string{middleware.ErrorCodeHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	mux.Get("/health", middleware.LivenessHandler)
	mux.Get("/healthz", middleware.HealthHandler(opts.Health))
	mux.Get("/readyz", middleware.ReadinessHandler)
	mux.Method(http.MethodGet, "/metrics", middleware.MetricsHandler())

	mux.Route("/api", func(rt chi.Router) {
		if opts.RateLimit != nil {
			rt.Use(opts.RateLimit)
		}
		rt.Use(middleware.APIKeyAuth(opts.APIKeys))

		rt.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte("API is running"))
		})
		rt.Post("/scan", r.wrap("Scan failed", r.handleScan))
		rt.Get("/history", r.wrap("Could not fetch history", r.handleHistory))
		rt.Post("/feedback", r.wrap("Server side error", r.handleFeedback))
		rt.Get("/feedback", r.wrap("Could not fetch feedback", r.handleFeedbackList))
		rt.Post("/feedback/deepscan", r.handleDeepScan)
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap maps invalid input to 400 with its message and everything else to
// 500 with the route's generic message. The error class goes to the
// X-Error-Code header and the log.
func (r *Router) wrap(generic string, h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		code := domain.ErrorCode(err)
		if errors.Is(err, domain.ErrInvalidInput) {
			middleware.WriteError(w, http.StatusBadRequest, code, validationMessage(err))
			return
		}
		r.log.ErrorContext(req.Context(), "request failed",
			"path", req.URL.Path,
			"error_code", code,
			"err", err,
		)
		middleware.WriteError(w, http.StatusInternalServerError, code, generic)
	}
}

func validationMessage(err error) string {
	return strings.TrimPrefix(err.Error(), domain.ErrInvalidInput.Error()+": ")
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, msg)
}

func decodeBody(req *http.Request, v any) error {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return invalid("request body too large")
		}
		return invalid("invalid JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}

// POST /api/scan
// Body: {"url": "<url>"}
func (r *Router) handleScan(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		URL string `json:"url"`
	}
	if err := decodeBody(req, &body); err != nil {
		return err
	}
	if err := middleware.ValidateScanURL(body.URL); err != nil {
		return invalid(err.Error())
	}

	res, err := r.scansSvc.Scan(req.Context(), body.URL)
	if err != nil {
		return err
	}
	return writeJSON(w, res)
}

// GET /api/history
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	list, err := r.scansSvc.History(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, list)
}

// POST /api/feedback
// Body: {"url": "<url>", "userFeedback": "<text>", "type": "phishing|safe"}
func (r *Router) handleFeedback(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		URL          string `json:"url"`
		UserFeedback string `json:"userFeedback"`
		Type         string `json:"type"`
	}
	if err := decodeBody(req, &body); err != nil {
		return err
	}
	if err := middleware.ValidateScanURL(body.URL); err != nil {
		return invalid(err.Error())
	}

	res, err := r.feedbackSvc.Submit(req.Context(), appfeedback.SubmitCommand{
		URL:          body.URL,
		UserFeedback: middleware.SanitizeString(body.UserFeedback),
		Type:         body.Type,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, res)
}

// GET /api/feedback
func (r *Router) handleFeedbackList(w http.ResponseWriter, req *http.Request) error {
	list, err := r.feedbackSvc.Latest(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, list)
}

// POST /api/feedback/deepscan
func (r *Router) handleDeepScan(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteError(w, http.StatusNotImplemented, "not_implemented", "deep scan is not implemented")
}
