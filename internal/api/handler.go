package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/load-planner/internal/calculation"
	"github.com/eugenenazirov/load-planner/internal/catalog"
	"github.com/eugenenazirov/load-planner/internal/export"
	"github.com/eugenenazirov/load-planner/internal/packing"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Handler wires the catalog and calculation service into HTTP handlers.
type Handler struct {
	service *calculation.Service
	catalog catalog.Catalog
	logger  *zap.Logger

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithHandlerLogger sets the logger used for unexpected failures.
func WithHandlerLogger(logger *zap.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(service *calculation.Service, cat catalog.Catalog, opts ...HandlerOption) *Handler {
	h := &Handler{
		service: service,
		catalog: cat,
		logger:  zap.NewNop(),
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.ItemTypes(r.Context())
	if err != nil {
		h.writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse{Items: items})
}

func (h *Handler) handleListContainers(w http.ResponseWriter, r *http.Request) {
	containers, err := h.catalog.ContainerTypes(r.Context())
	if err != nil {
		h.writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, containersResponse{Containers: containers})
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCalculationRequest(w, r)
	if !ok {
		return
	}

	start := time.Now()
	result, err := h.service.Preview(r.Context(), req.Label, req.Items, req.ContainerTypeID)
	if err != nil {
		h.writeCalculationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, previewResponse{
		Result:            result,
		CalculationTimeMs: time.Since(start).Milliseconds(),
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCalculationRequest(w, r)
	if !ok {
		return
	}

	rec, err := h.service.Create(r.Context(), req.Label, req.Items, req.ContainerTypeID)
	if err != nil {
		h.writeCalculationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context())
	if err != nil {
		h.writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, calculationsResponse{Calculations: records})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeCalculationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	label := strings.TrimSpace(r.URL.Query().Get("label"))
	if label == "" {
		writeError(w, http.StatusBadRequest, "Invalid request", "label query parameter is required")
		return
	}

	records, err := h.service.SearchPlanned(r.Context(), label)
	if err != nil {
		h.writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Calculations: records,
		Exists:       len(records) > 0,
	})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	patch, err := req.patch()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	rec, err := h.service.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		h.writeCalculationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleManifest(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeCalculationError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteManifest(&buf, rec); err != nil {
		if errors.Is(err, export.ErrNoResult) {
			writeError(w, http.StatusUnprocessableEntity, "Nothing to export", err.Error())
			return
		}
		h.writeInternalError(w, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(rec)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}
	if req.RemainingVolume < 0 || req.RemainingWeight < 0 {
		writeError(w, http.StatusBadRequest, "Invalid request", "remainingVolume and remainingWeight must not be negative")
		return
	}

	recs, err := h.service.Recommend(r.Context(), req.RemainingVolume, req.RemainingWeight)
	if err != nil {
		h.writeInternalError(w, err)
		return
	}
	if recs == nil {
		recs = []packing.Recommendation{}
	}
	writeJSON(w, http.StatusOK, recommendationsResponse{Recommendations: recs})
}

func decodeCalculationRequest(w http.ResponseWriter, r *http.Request) (calculationRequest, bool) {
	var req calculationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return req, false
	}

	req.Label = strings.TrimSpace(req.Label)
	switch {
	case req.Label == "":
		writeError(w, http.StatusBadRequest, "Invalid request", "label is required")
		return req, false
	case len(req.Items) == 0:
		writeError(w, http.StatusBadRequest, "Invalid request", "items must contain at least one line")
		return req, false
	case strings.TrimSpace(req.ContainerTypeID) == "":
		writeError(w, http.StatusBadRequest, "Invalid request", "containerTypeId is required")
		return req, false
	}
	return req, true
}

func (h *Handler) writeCalculationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, calculation.ErrInvalidQuantity), errors.Is(err, calculation.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, calculation.ErrRecordNotFound):
		writeError(w, http.StatusNotFound, "Not found", err.Error())
	case errors.Is(err, packing.ErrOversizedItem):
		writeError(w, http.StatusUnprocessableEntity, "Item does not fit", err.Error(), "Choose a larger container type")
	case errors.Is(err, packing.ErrInvalidContainer):
		writeError(w, http.StatusUnprocessableEntity, "Invalid container type", err.Error())
	case errors.Is(err, calculation.ErrTooManyUnits):
		writeError(w, http.StatusUnprocessableEntity, "Too many units", err.Error(), "Split the shipment into several calculations")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "Request cancelled", err.Error())
	default:
		h.writeInternalError(w, err)
	}
}

func (h *Handler) writeInternalError(w http.ResponseWriter, err error) {
	h.logger.Error("request failed", zap.Error(err))
	writeInternalError(w, err)
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type calculationRequest struct {
	Label           string                    `json:"label"`
	ContainerTypeID string                    `json:"containerTypeId"`
	Items           []calculation.LineRequest `json:"items"`
}

type updateRequest struct {
	Label           *string                   `json:"label"`
	Status          *string                   `json:"status"`
	ContainerTypeID *string                   `json:"containerTypeId"`
	Items           []calculation.LineRequest `json:"items"`
}

func (r updateRequest) patch() (calculation.Patch, error) {
	var p calculation.Patch
	if r.Label != nil {
		label := strings.TrimSpace(*r.Label)
		if label == "" {
			return p, errors.New("label must not be empty")
		}
		p.Label = &label
	}
	if r.Status != nil {
		status, err := calculation.ParseStatus(*r.Status)
		if err != nil {
			return p, err
		}
		p.Status = &status
	}
	if r.ContainerTypeID != nil {
		if strings.TrimSpace(*r.ContainerTypeID) == "" {
			return p, errors.New("containerTypeId must not be empty")
		}
		p.ContainerTypeID = r.ContainerTypeID
	}
	if r.Items != nil {
		if len(r.Items) == 0 {
			return p, errors.New("items must contain at least one line")
		}
		p.Lines = r.Items
	}
	return p, nil
}

type recommendationRequest struct {
	RemainingVolume float64 `json:"remainingVolume"`
	RemainingWeight float64 `json:"remainingWeight"`
}

type previewResponse struct {
	*calculation.Result
	CalculationTimeMs int64 `json:"calculationTimeMs"`
}

type itemsResponse struct {
	Items []packing.ItemType `json:"items"`
}

type containersResponse struct {
	Containers []packing.ContainerType `json:"containers"`
}

type calculationsResponse struct {
	Calculations []calculation.Record `json:"calculations"`
}

type searchResponse struct {
	Calculations []calculation.Record `json:"calculations"`
	Exists       bool                 `json:"exists"`
}

type recommendationsResponse struct {
	Recommendations []packing.Recommendation `json:"recommendations"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
