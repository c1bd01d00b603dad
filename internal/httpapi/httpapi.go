// Package httpapi exposes the summary renderer over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"pkt.systems/clinpdf"
	"pkt.systems/clinpdf/pdf"
)

// DefaultMaxBody bounds request bodies.
const DefaultMaxBody = 8 << 20

// Service renders summaries posted as JSON.
type Service struct {
	cfg     pdf.Config
	logger  *slog.Logger
	maxBody int64
	newID   func() string
}

// Option adjusts a Service.
type Option func(*Service)

// WithMaxBody sets the request body limit in bytes.
func WithMaxBody(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// New returns a Service rendering with cfg. A nil logger means
// slog.Default().
func New(cfg pdf.Config, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	s := &Service{
		cfg:     cfg,
		logger:  logger,
		maxBody: DefaultMaxBody,
		newID:   func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns a chi router with the service endpoints mounted.
func (s *Service) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	s.RegisterHTTP(r)
	return r
}

// RegisterHTTP mounts the endpoints on r.
func (s *Service) RegisterHTTP(r chi.Router) {
	r.Get("/healthz", s.handleHealth)
	r.Post("/v1/parse", s.handleParse)
	r.Post("/v1/render", s.handleRender)
}

type renderRequest struct {
	Markdown string         `json:"markdown"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Theme    string         `json:"theme,omitempty"`
	Title    string         `json:"title,omitempty"`
}

type parseResponse struct {
	Blocks   []clinpdf.Block `json:"blocks"`
	Metadata *metadataJSON   `json:"metadata,omitempty"`
}

type metadataJSON struct {
	Filename         string     `json:"filename,omitempty"`
	Model            string     `json:"model,omitempty"`
	GeneratedAt      *time.Time `json:"generated_at,omitempty"`
	TotalTokens      *int64     `json:"total_tokens,omitempty"`
	EstimatedCostUSD *float64   `json:"estimated_cost_usd,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) handleParse(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	doc := clinpdf.ParseDocument([]byte(req.Markdown))
	meta := requestMetadata(req, doc)
	resp := parseResponse{Blocks: doc.Blocks}
	if resp.Blocks == nil {
		resp.Blocks = []clinpdf.Block{}
	}
	if !meta.IsZero() {
		resp.Metadata = toMetadataJSON(meta)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handleRender(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	id := s.newID()
	doc := clinpdf.ParseDocument([]byte(req.Markdown))
	meta := requestMetadata(req, doc)
	cfg := s.cfg.Merge(pdf.Config{
		Theme:  req.Theme,
		Title:  req.Title,
		Logger: s.cfg.Logger.With("render_id", id),
	})
	out, err := pdf.Generate(doc.Blocks, meta, cfg)
	if err != nil {
		if errors.Is(err, pdf.ErrUnknownTheme) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("render failed", "render_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	s.logger.Info("rendered summary", "render_id", id, "pages", out.Pages, "bytes", len(out.Data), "blocks", len(doc.Blocks))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Data)))
	w.Header().Set("X-Render-Id", id)
	w.Header().Set("X-Page-Count", strconv.Itoa(out.Pages))
	w.WriteHeader(http.StatusOK)
	if _, err := out.WriteTo(w); err != nil {
		s.logger.Warn("write response", "render_id", id, "error", err)
	}
}

// decode reads and validates a JSON request body. It writes the error
// response itself and reports false when the request is unusable.
func (s *Service) decode(w http.ResponseWriter, r *http.Request) (renderRequest, bool) {
	var req renderRequest
	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return req, false
		}
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return req, false
	}
	if err := clinpdf.ValidateInput([]byte(req.Markdown)); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return req, false
	}
	return req, true
}

// requestMetadata prefers the request's metadata object over front matter.
// ParseDocument only keeps front matter that decodes, so the front matter
// error is always nil here.
func requestMetadata(req renderRequest, doc clinpdf.Document) clinpdf.Metadata {
	if len(req.Metadata) > 0 {
		return clinpdf.MetadataFromMap(req.Metadata)
	}
	meta, _ := doc.Metadata()
	return meta
}

func toMetadataJSON(m clinpdf.Metadata) *metadataJSON {
	out := &metadataJSON{
		Filename:         m.Filename,
		Model:            m.Model,
		TotalTokens:      m.TokenUsage.TotalTokens,
		EstimatedCostUSD: m.TokenUsage.EstimatedCostUSD,
	}
	if !m.GeneratedAt.IsZero() {
		ts := m.GeneratedAt
		out.GeneratedAt = &ts
	}
	return out
}

func (s *Service) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
