package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/iwvelando/franchise-forecast/internal/brand"
	"github.com/iwvelando/franchise-forecast/internal/export"
	"github.com/iwvelando/franchise-forecast/internal/optimizer"
	"github.com/iwvelando/franchise-forecast/internal/projection"
	"github.com/iwvelando/franchise-forecast/internal/store"
	"github.com/iwvelando/franchise-forecast/pkg/constants"
	"github.com/iwvelando/franchise-forecast/pkg/engine"
	"github.com/iwvelando/franchise-forecast/pkg/output"
	"github.com/iwvelando/franchise-forecast/pkg/validation"
)

type handler struct {
	logger        *zap.Logger
	service       *projection.Service
	limiter       *rate.Limiter
	maxUploadSize int64
	version       string
}

// NewHandler constructs the HTTP handler that serves the projection API.
// A nil cfg uses the server defaults.
func NewHandler(logger *zap.Logger, service *projection.Service, cfg *Config, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if service == nil {
		service = projection.NewService(nil, logger)
	}
	if cfg == nil {
		cfg = &Config{}
		// An empty config always normalizes.
		_ = cfg.normalize()
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:        logger,
		service:       service,
		limiter:       rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		maxUploadSize: cfg.UploadSizeBytes(),
		version:       trimmedVersion,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /api/version", h.handleVersion)

	// Stateless projection of a complete engine input
	mux.HandleFunc("POST /api/projection", h.handleProjection)

	// Brands, plans, and persisted runs
	mux.HandleFunc("GET /api/brands", h.handleListBrands)
	mux.HandleFunc("POST /api/brands", h.handleImportBrand)
	mux.HandleFunc("GET /api/brands/{id}/plans", h.handleListPlans)
	mux.HandleFunc("POST /api/plans", h.handleCreatePlan)
	mux.HandleFunc("PATCH /api/plans/{id}/fields", h.handleUpdateField)
	mux.HandleFunc("POST /api/plans/{id}/projection", h.handleRunPlan)
	mux.HandleFunc("POST /api/plans/{id}/optimize", h.handleOptimizePlan)
	mux.HandleFunc("GET /api/runs/{id}", h.handleGetRun)

	return h.rateLimit(mux)
}

func (h *handler) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" && !h.limiter.Allow() {
			h.respondErrorWithOp(w, http.StatusTooManyRequests, "rate limit exceeded", "server.rateLimit")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type projectionResponse struct {
	Output       engine.EngineOutput `json:"output"`
	ChecksPassed bool                `json:"checksPassed"`
	Warnings     []string            `json:"warnings,omitempty"`
	CSV          string              `json:"csv"`
	Duration     string              `json:"duration"`
}

type errorResponse struct {
	Error  string             `json:"error"`
	Issues []validation.Issue `json:"issues,omitempty"`
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) handleVersion(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

// handleProjection computes a projection for an engine input posted as JSON.
// The format query parameter selects json (default), csv, xlsx, or pdf.
func (h *handler) handleProjection(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleProjection"
	start := time.Now()

	format := r.URL.Query().Get("format")
	if format == "" {
		format = constants.OutputFormatJSON
	}
	if format == constants.OutputFormatPretty {
		h.respondErrorWithOp(w, http.StatusBadRequest, "pretty output is only available from the CLI", op)
		return
	}
	if err := validation.ValidateOutputFormat(format); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	var input engine.EngineInput
	if !h.decodeBody(w, r, &input, op) {
		return
	}

	out, err := h.service.Compute(input)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}

	elapsed := time.Since(start)
	h.logger.Info("projection computed",
		zap.String("op", op),
		zap.String("format", format),
		zap.Bool("checks_passed", out.AllChecksPassed()),
		zap.Duration("duration", elapsed),
	)

	switch format {
	case constants.OutputFormatCSV:
		h.writeAttachment(w, "text/csv", "projection.csv", op, func(wr io.Writer) error {
			return output.CSVFormat(wr, out)
		})
	case constants.OutputFormatXLSX:
		h.writeAttachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "projection.xlsx", op, func(wr io.Writer) error {
			return export.WriteXLSX(wr, out)
		})
	case constants.OutputFormatPDF:
		h.writeAttachment(w, "application/pdf", "projection.pdf", op, func(wr io.Writer) error {
			return export.WritePDF(wr, "Five-Year Projection", out)
		})
	default:
		h.writeJSON(w, http.StatusOK, projectionResponse{
			Output:       out,
			ChecksPassed: out.AllChecksPassed(),
			Warnings:     validation.Warnings(input),
			CSV:          output.CSVString(out),
			Duration:     elapsed.String(),
		})
	}
}

func (h *handler) handleListBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.service.ListBrands(r.Context())
	if err != nil {
		h.respondServiceError(w, err, "server.handleListBrands")
		return
	}
	if brands == nil {
		brands = []brand.Brand{}
	}
	h.writeJSON(w, http.StatusOK, brands)
}

// handleImportBrand accepts a brand definition as YAML or JSON.
func (h *handler) handleImportBrand(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleImportBrand"

	data, ok := h.readBody(w, r, op)
	if !ok {
		return
	}
	b, err := brand.ParseBrand(data)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	if err := h.service.ImportBrand(r.Context(), b); err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusCreated, b)
}

func (h *handler) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.service.ListPlans(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondServiceError(w, err, "server.handleListPlans")
		return
	}
	if plans == nil {
		plans = []store.Plan{}
	}
	h.writeJSON(w, http.StatusOK, plans)
}

type createPlanRequest struct {
	BrandID string `json:"brandId"`
	Name    string `json:"name"`
}

func (h *handler) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCreatePlan"

	var req createPlanRequest
	if !h.decodeBody(w, r, &req, op) {
		return
	}
	if strings.TrimSpace(req.BrandID) == "" || strings.TrimSpace(req.Name) == "" {
		h.respondErrorWithOp(w, http.StatusBadRequest, "brandId and name are required", op)
		return
	}

	plan, err := h.service.CreatePlan(r.Context(), req.BrandID, req.Name)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusCreated, plan)
}

// updateFieldRequest edits one plan field. A null value restores the brand
// default.
type updateFieldRequest struct {
	Path  string   `json:"path"`
	Value *float64 `json:"value"`
}

func (h *handler) handleUpdateField(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpdateField"

	var req updateFieldRequest
	if !h.decodeBody(w, r, &req, op) {
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		h.respondErrorWithOp(w, http.StatusBadRequest, "path is required", op)
		return
	}

	var (
		plan *store.Plan
		err  error
	)
	if req.Value == nil {
		plan, err = h.service.ResetPlanField(r.Context(), r.PathValue("id"), req.Path)
	} else {
		plan, err = h.service.UpdatePlanField(r.Context(), r.PathValue("id"), req.Path, *req.Value)
	}
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, plan)
}

func (h *handler) handleRunPlan(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.RunPlan(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondServiceError(w, err, "server.handleRunPlan")
		return
	}
	h.writeJSON(w, http.StatusCreated, run)
}

func (h *handler) handleOptimizePlan(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleOptimizePlan"

	var target optimizer.Target
	if !h.decodeBody(w, r, &target, op) {
		return
	}
	summary, err := h.service.OptimizePlan(r.Context(), r.PathValue("id"), target)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

func (h *handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.GetRun(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondServiceError(w, err, "server.handleGetRun")
		return
	}
	h.writeJSON(w, http.StatusOK, run)
}

func (h *handler) readBody(w http.ResponseWriter, r *http.Request, op string) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds limit of %d bytes", h.maxUploadSize), op)
			return nil, false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to read request: %v", err), op)
		return nil, false
	}
	return data, true
}

func (h *handler) decodeBody(w http.ResponseWriter, r *http.Request, dst any, op string) bool {
	data, ok := h.readBody(w, r, op)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

// respondServiceError maps projection service errors onto HTTP statuses.
func (h *handler) respondServiceError(w http.ResponseWriter, err error, op string) {
	var vErr *validation.ValidationError
	switch {
	case errors.As(err, &vErr):
		h.logger.Warn("projection input rejected",
			zap.String("op", op),
			zap.Int("issues", len(vErr.Issues)),
		)
		h.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: vErr.Error(), Issues: vErr.Issues})
	case eris.Is(err, store.ErrNotFound):
		h.respondErrorWithOp(w, http.StatusNotFound, err.Error(), op)
	case eris.Is(err, brand.ErrUnknownField), eris.Is(err, optimizer.ErrInvalidTarget):
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
	default:
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
	}
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("projection request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, errorResponse{Error: msg})
}

func (h *handler) writeAttachment(w http.ResponseWriter, contentType, filename, op string, write func(io.Writer) error) {
	// Render fully before writing headers so a failure can still become a 500.
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Error("failed to write attachment", zap.String("op", op), zap.Error(err))
	}
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
