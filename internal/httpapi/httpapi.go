package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"reportanalysis/internal/domain"
	"reportanalysis/internal/metrics"
	"reportanalysis/internal/service"
	"reportanalysis/internal/store"
)

const generateAck = "Reports generated from Inventory and POS."

type API struct {
	service       *service.Service
	auth          *TokenVerifier
	metrics       *metrics.Metrics
	allowedOrigin string
	logger        *zap.Logger
}

func New(svc *service.Service, auth *TokenVerifier, m *metrics.Metrics, allowedOrigin string, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return &API{
		service:       svc,
		auth:          auth,
		metrics:       m,
		allowedOrigin: allowedOrigin,
		logger:        logger,
	}
}

func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{a.allowedOrigin},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(a.withMiddleware)
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, errors.New("not found"))
	})

	r.Get("/healthz", a.handleHealth)
	r.Method(http.MethodGet, "/metrics", a.metrics.Handler())

	r.Route("/api/reports", func(r chi.Router) {
		r.Use(a.requireAuth)
		r.Get("/", a.handleListReports)
		r.Post("/generate", a.handleGenerate)
		r.Get("/weekly", a.handleWeekly)
		r.Get("/monthly", a.handleMonthly)
		r.Get("/snapshot", a.handleSnapshot)
		r.Get("/{item}", a.handleReportByItem)
	})

	return r
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := a.service.ListReports(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (a *API) handleReportByItem(w http.ResponseWriter, r *http.Request) {
	item := chi.URLParam(r, "item")
	var err error
	if r.URL.RawPath != "" {
		item, err = url.PathUnescape(item)
	}
	if err != nil || strings.TrimSpace(item) == "" {
		writeError(w, http.StatusBadRequest, errors.New("invalid item name"))
		return
	}

	resp, err := a.service.GetReportByItem(r.Context(), item)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, errors.New("item not found"))
			return
		}
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var offset *int
	if raw := strings.TrimSpace(r.URL.Query().Get("offsetHours")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("offsetHours must be an integer"))
			return
		}
		offset = &parsed
	}

	result, err := a.service.GenerateReports(r.Context(), offset)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.GenerateResponse{
		Message:          generateAck,
		GenerationResult: result,
	})
}

func (a *API) handleWeekly(w http.ResponseWriter, r *http.Request) {
	buckets, err := a.service.WeeklySales(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, buckets)
}

func (a *API) handleMonthly(w http.ResponseWriter, r *http.Request) {
	buckets, err := a.service.MonthlySales(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, buckets)
}

func (a *API) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := a.service.Snapshot(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrNoSnapshot) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot.Info())
}

func (a *API) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidOffset):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, store.ErrNotFound), errors.Is(err, service.ErrNoSnapshot):
		writeError(w, http.StatusNotFound, err)
	default:
		a.logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
	}
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		startedAt := time.Now()
		next.ServeHTTP(ww, r)
		a.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(startedAt)),
			zap.String("request_id", chimw.GetReqID(r.Context())),
		)
	})
}

func writeError(w http.ResponseWriter, status int, err error) {
	// 5xx bodies stay generic; the cause is logged by the caller.
	msg := err.Error()
	if status >= 500 {
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
