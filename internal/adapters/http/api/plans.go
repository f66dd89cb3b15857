package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/okian/swingiq/internal/domain/plan"
	"github.com/okian/swingiq/internal/domain/types"
)

// IdempotencyHeader carries the client key that makes note submission
// safe to retry.
const IdempotencyHeader = "Idempotency-Key"

const maxBodyBytes = 64 << 10

// PlanHandler serves development plans and their notes.
type PlanHandler struct {
	deps Dependencies
}

// NewPlanHandler creates a new plan handler.
func NewPlanHandler(deps Dependencies) *PlanHandler {
	return &PlanHandler{deps: deps}
}

// HandleGetPlan handles GET /api/v1/players/{id}/plan.
func (h *PlanHandler) HandleGetPlan(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Plan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleReanalyze handles POST /api/v1/players/{id}/plan/reanalyze.
// With ?sync=true the plan is regenerated before responding.
func (h *PlanHandler) HandleReanalyze(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sync := false
	if raw := r.URL.Query().Get("sync"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: sync must be a boolean", ErrBadRequest))
			return
		}
		sync = b
	}

	if sync {
		v, err := h.deps.Reanalyze(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
		return
	}

	ack, err := h.deps.RequestReanalysis(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ack)
}

// noteRequest mirrors the OpenAPI schema for POST /players/{id}/notes.
type noteRequest struct {
	Author string `json:"author"`
	Text   string `json:"text"`
}

// HandleAddNote handles POST /api/v1/players/{id}/notes.
func (h *PlanHandler) HandleAddNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	ack, err := h.deps.AddNote(r.Context(), chi.URLParam(r, "id"), types.NoteInput{
		Author:         req.Author,
		Text:           req.Text,
		IdempotencyKey: r.Header.Get(IdempotencyHeader),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	status := http.StatusCreated
	if ack.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, ack)
}

// previewRequest mirrors plan.Metrics with every field required.
type previewRequest struct {
	AvgExitVelocity *float64 `json:"avg_exit_velocity"`
	MaxExitVelocity *float64 `json:"max_exit_velocity"`
	AvgBatSpeed     *float64 `json:"avg_bat_speed"`
	SwingCount      *float64 `json:"swing_count"`
}

func (p previewRequest) metrics() (plan.Metrics, error) {
	switch {
	case p.AvgExitVelocity == nil:
		return plan.Metrics{}, fmt.Errorf("%w: missing avg_exit_velocity", ErrBadRequest)
	case p.MaxExitVelocity == nil:
		return plan.Metrics{}, fmt.Errorf("%w: missing max_exit_velocity", ErrBadRequest)
	case p.AvgBatSpeed == nil:
		return plan.Metrics{}, fmt.Errorf("%w: missing avg_bat_speed", ErrBadRequest)
	case p.SwingCount == nil:
		return plan.Metrics{}, fmt.Errorf("%w: missing swing_count", ErrBadRequest)
	}
	m := plan.Metrics{
		AvgExitVelocity: *p.AvgExitVelocity,
		MaxExitVelocity: *p.MaxExitVelocity,
		AvgBatSpeed:     *p.AvgBatSpeed,
		SwingCount:      *p.SwingCount,
	}
	if !m.Encodable() {
		return plan.Metrics{}, fmt.Errorf("%w: metrics out of range", ErrBadRequest)
	}
	return m, nil
}

// HandlePreview handles POST /api/v1/plans/preview.
func (h *PlanHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	m, err := req.metrics()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Preview(r.Context(), m))
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrMissingBody
		}
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}
