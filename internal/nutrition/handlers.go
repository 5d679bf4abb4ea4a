package nutrition

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Handler handles HTTP requests for nutrition goals and logs.
type Handler struct {
	service *Service
}

// NewHandler creates a new nutrition handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandlePreview handles POST /v1/nutrition/goals/preview
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	var req UserProfile
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body")
		return
	}

	goals, err := h.service.Preview(req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

// HandleCompute handles POST /v1/nutrition/goals/compute
func (h *Handler) HandleCompute(w http.ResponseWriter, r *http.Request) {
	goals, err := h.service.ComputeFromProfile(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, GetGoalsResponse{Goals: goals})
}

// HandleGetGoals handles GET /v1/nutrition/goals
func (h *Handler) HandleGetGoals(w http.ResponseWriter, r *http.Request) {
	goals, isDefault, err := h.service.GetOrDefault(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, GetGoalsResponse{Goals: goals, IsDefault: isDefault})
}

// HandlePutGoals handles PUT /v1/nutrition/goals
func (h *Handler) HandlePutGoals(w http.ResponseWriter, r *http.Request) {
	var req UpsertGoalsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body")
		return
	}

	goals, err := h.service.SetManual(r.Context(), req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, GetGoalsResponse{Goals: goals})
}

// HandleCreateLog handles POST /v1/nutrition/logs
func (h *Handler) HandleCreateLog(w http.ResponseWriter, r *http.Request) {
	var req CreateLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body")
		return
	}

	entry, err := h.service.CreateLog(r.Context(), req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// HandleListLogs handles GET /v1/nutrition/logs?from=&to=
func (h *Handler) HandleListLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries, err := h.service.ListLogs(r.Context(), strings.TrimSpace(q.Get("from")), strings.TrimSpace(q.Get("to")))
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListLogsResponse{Logs: entries})
}

// HandleDeleteLog handles DELETE /v1/nutrition/logs/{id}
func (h *Handler) HandleDeleteLog(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid id")
		return
	}

	if err := h.service.DeleteLog(r.Context(), id); err != nil {
		h.handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSummary handles GET /v1/nutrition/summary?date=YYYY-MM-DD
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context(), strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, ErrProfileNotFound):
		writeError(w, http.StatusNotFound, "profile_not_found", "Profile not found")
	case errors.Is(err, ErrLogNotFound):
		writeError(w, http.StatusNotFound, "log_not_found", "Log entry not found")
	default:
		log.WithError(err).Error("nutrition: internal error")
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
