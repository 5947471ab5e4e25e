package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	gochi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ftquery/internal/domain"
	"github.com/kailas-cloud/ftquery/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/ftquery/internal/usecase/health"
	searchuc "github.com/kailas-cloud/ftquery/internal/usecase/search"
)

const maxBodyBytes = 1 << 20

type errorCode string

const (
	codeBadRequest       errorCode = "bad_request"
	codeUnauthorized     errorCode = "unauthorized"
	codeValidationFailed errorCode = "validation_failed"
	codeIndexNotFound    errorCode = "index_not_found"
	codeCursorNotFound   errorCode = "cursor_not_found"
	codeProtocolError    errorCode = "protocol_error"
	codeInternalError    errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

type aggregateResponse struct {
	Total  int64            `json:"total"`
	Rows   []map[string]any `json:"rows"`
	Cursor *int64           `json:"cursor,omitempty"`
}

type healthResponse struct {
	Status  healthuc.Status                 `json:"status"`
	Checks  map[string]healthuc.CheckResult `json:"checks"`
	Version string                          `json:"version,omitempty"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the query API over chi.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	version       string
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search *searchuc.Service, health *healthuc.Service, version string, logger *zap.Logger) *Server {
	s := &Server{
		search:  search,
		health:  health,
		version: version,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidArgument, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrIndexNotFound, http.StatusNotFound, codeIndexNotFound),
		sentinelHandler(domain.ErrCursorNotFound, http.StatusNotFound, codeCursorNotFound),
		sentinelHandler(domain.ErrProtocol, http.StatusBadGateway, codeProtocolError),
	}
	return s
}

// Routes registers the API on r.
func (s *Server) Routes(r gochi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/indexes/{index}", func(r gochi.Router) {
		r.Post("/search", s.Search)
		r.Post("/aggregate", s.Aggregate)
		r.Get("/info", s.Info)
		r.Get("/cursors/{cursor}", s.ReadCursor)
		r.Delete("/cursors/{cursor}", s.DeleteCursor)
	})
}

// Search handles POST /indexes/{index}/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	q, err := req.toQuery()
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	res, err := s.search.Search(r.Context(), gochi.URLParam(r, "index"), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if res.Docs == nil {
		res.Docs = []result.Document{}
	}
	writeJSON(w, http.StatusOK, res)
}

// Aggregate handles POST /indexes/{index}/aggregate.
func (s *Server) Aggregate(w http.ResponseWriter, r *http.Request) {
	var req aggregateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	agg, err := req.toAggregation()
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	res, err := s.search.Aggregate(r.Context(), gochi.URLParam(r, "index"), agg)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, aggregationToResponse(res))
}

// ReadCursor handles GET /indexes/{index}/cursors/{cursor}?count=n.
func (s *Server) ReadCursor(w http.ResponseWriter, r *http.Request) {
	cursorID, ok := cursorParam(w, r)
	if !ok {
		return
	}

	count := 0
	if v := r.URL.Query().Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, codeBadRequest, "count must be a non-negative integer")
			return
		}
		count = n
	}

	res, err := s.search.ReadCursor(r.Context(), gochi.URLParam(r, "index"), cursorID, count)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, aggregationToResponse(res))
}

// DeleteCursor handles DELETE /indexes/{index}/cursors/{cursor}.
func (s *Server) DeleteCursor(w http.ResponseWriter, r *http.Request) {
	cursorID, ok := cursorParam(w, r)
	if !ok {
		return
	}
	if err := s.search.DeleteCursor(r.Context(), gochi.URLParam(r, "index"), cursorID); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Info handles GET /indexes/{index}/info.
func (s *Server) Info(w http.ResponseWriter, r *http.Request) {
	info, err := s.search.Info(r.Context(), gochi.URLParam(r, "index"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, healthResponse{
		Status:  report.Status,
		Checks:  report.Checks,
		Version: s.version,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func aggregationToResponse(res *result.AggregationResult) aggregateResponse {
	rows := make([]map[string]any, len(res.Rows))
	for i, row := range res.Rows {
		rows[i] = row.Map()
	}
	return aggregateResponse{Total: res.Total, Rows: rows, Cursor: res.Cursor}
}

func cursorParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(gochi.URLParam(r, "cursor"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, codeBadRequest, "cursor must be a positive integer")
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidArgument,
		domain.ErrIndexNotFound,
		domain.ErrCursorNotFound,
		domain.ErrProtocol,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
