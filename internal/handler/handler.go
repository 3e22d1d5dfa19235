// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"workshopd/internal/model"
	"workshopd/internal/repository"
	"workshopd/internal/service"
)

// RemoteUserHeader carries the authenticated user's email, set by the
// upstream auth proxy. Empty means an anonymous viewer.
const RemoteUserHeader = "X-Remote-User"

// ScheduleHandler holds all HTTP handlers for the scheduling API.
type ScheduleHandler struct {
	svc *service.ScheduleService
}

// NewScheduleHandler constructs a ScheduleHandler.
func NewScheduleHandler(svc *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{svc: svc}
}

// ItemResponse wraps a saved item with any non-blocking warnings.
type ItemResponse struct {
	Item     *model.ScheduleItem `json:"item"`
	Warnings []string            `json:"warnings,omitempty"`
}

// ValidationResponse is the 422 body for field-scoped errors; the
// attempted input is echoed back so the form can be re-displayed.
type ValidationResponse struct {
	Errors   model.ValidationErrors `json:"errors"`
	Warnings []string               `json:"warnings,omitempty"`
}

// UpdateRequest is the payload for updating an item.
type UpdateRequest struct {
	model.ItemAttrs
	PropagateToSimilar bool `json:"propagate_to_similar"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeServiceError maps sentinel and validation errors onto HTTP
// statuses; anything unrecognised is a 500.
func writeServiceError(w http.ResponseWriter, err error, warnings []string) {
	var verrs model.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusUnprocessableEntity, ValidationResponse{Errors: verrs, Warnings: warnings})
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "not authorized to manage this schedule")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func remoteUser(r *http.Request) string {
	return r.Header.Get(RemoteUserHeader)
}

// ListSchedule handles GET /events/{code}/schedule
func (h *ScheduleHandler) ListSchedule(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	items, err := h.svc.ListSchedule(r.Context(), remoteUser(r), code)
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}
	if items == nil {
		items = []model.ScheduleItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

// GetDefaults handles GET /events/{code}/schedule/defaults?day=YYYY-MM-DD
func (h *ScheduleHandler) GetDefaults(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	day, err := time.Parse("2006-01-02", r.URL.Query().Get("day"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "day must be formatted YYYY-MM-DD")
		return
	}

	defaults, err := h.svc.GetDefaultsForNewItem(r.Context(), code, day)
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"start_time":       defaults.StartTime,
		"duration_minutes": int(defaults.Duration.Minutes()),
		"location":         defaults.Location,
	})
}

// CreateItem handles POST /events/{code}/schedule
func (h *ScheduleHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var attrs model.ItemAttrs
	if err := decodeJSON(r, &attrs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	item, warnings, err := h.svc.CreateItem(r.Context(), remoteUser(r), code, attrs)
	if err != nil {
		writeServiceError(w, err, warnings)
		return
	}
	writeJSON(w, http.StatusCreated, ItemResponse{Item: item, Warnings: warnings})
}

// FindConflicts handles GET /events/{code}/schedule/conflicts
// Query params: start and end (RFC 3339), optional exclude (item id)
// and lecture=true to classify for a lecture-backed candidate.
func (h *ScheduleHandler) FindConflicts(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	q := r.URL.Query()

	start, err := time.Parse(time.RFC3339, q.Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "start must be an RFC 3339 timestamp")
		return
	}
	end, err := time.Parse(time.RFC3339, q.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "end must be an RFC 3339 timestamp")
		return
	}

	kind := model.KindGeneric
	if q.Get("lecture") == "true" {
		kind = model.KindLecture
	}

	conflicts, err := h.svc.FindOverlaps(r.Context(), code, start, end, q.Get("exclude"), kind)
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"conflicts": conflicts})
}

// ProjectTemplate handles POST /events/{code}/schedule/template
// Seeds an empty event's schedule from its location's template.
func (h *ScheduleHandler) ProjectTemplate(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	items, err := h.svc.ProjectTemplate(r.Context(), remoteUser(r), code)
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}
	if items == nil {
		items = []model.ScheduleItem{}
	}
	writeJSON(w, http.StatusCreated, items)
}

// UpdateItem handles PUT /schedule/{id}
func (h *ScheduleHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	item, warnings, err := h.svc.UpdateItem(r.Context(), remoteUser(r), id, req.ItemAttrs, req.PropagateToSimilar)
	if err != nil {
		writeServiceError(w, err, warnings)
		return
	}
	writeJSON(w, http.StatusOK, ItemResponse{Item: item, Warnings: warnings})
}

// DeleteItem handles DELETE /schedule/{id}
func (h *ScheduleHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.svc.DeleteItem(r.Context(), remoteUser(r), id); err != nil {
		writeServiceError(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
