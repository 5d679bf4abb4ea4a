package profiles

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fdg312/fithub/internal/nutrition"
	log "github.com/sirupsen/logrus"
)

// Handler содержит HTTP обработчики для профиля
type Handler struct {
	service *Service
}

// NewHandler создаёт новый handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleGet обрабатывает GET /v1/profile
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.GetProfile(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, profile)
}

// HandlePut обрабатывает PUT /v1/profile
func (h *Handler) HandlePut(w http.ResponseWriter, r *http.Request) {
	var req nutrition.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON")
		return
	}

	resp, err := h.service.UpdateProfile(r.Context(), req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		h.sendError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
	case errors.Is(err, ErrNotFound):
		h.sendError(w, http.StatusNotFound, "profile_not_found", "Profile not found")
	case errors.Is(err, nutrition.ErrInvalidInput):
		h.sendError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		log.WithError(err).Error("profiles: internal error")
		h.sendError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

func (h *Handler) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) sendError(w http.ResponseWriter, status int, code, message string) {
	h.sendJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
