// Package api exposes HTTP handlers for the activities service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"example.com/mergington/internal/domain"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
	logger  *zap.Logger
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /activities", h.listActivities)
	mux.HandleFunc("POST /activities/{activity}/signup", h.signup)
	mux.HandleFunc("DELETE /activities/{activity}/unregister", h.unregister)
	mux.HandleFunc("GET /healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := h.service.ListActivities(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	resp := make(ListActivitiesResponse, len(activities))
	for name, activity := range activities {
		resp[name] = toActivityView(activity)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("activity")
	email, ok := emailParam(w, r)
	if !ok {
		return
	}

	message, err := h.service.Signup(r.Context(), name, email)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: message})
}

func (h *Handler) unregister(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("activity")
	email, ok := emailParam(w, r)
	if !ok {
		return
	}

	message, err := h.service.Unregister(r.Context(), name, email)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: message})
}

// emailParam extracts the required email query parameter. The value itself is
// opaque and passed through unchanged.
func emailParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	query := r.URL.Query()
	if !query.Has("email") {
		writeError(w, http.StatusBadRequest, "validation_failed", "email query parameter is required")
		return "", false
	}
	return query.Get("email"), true
}

// ActivityView is the wire representation of an activity; the name is the map key.
type ActivityView struct {
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// ListActivitiesResponse maps activity name to its details.
type ListActivitiesResponse map[string]ActivityView

// MessageResponse confirms a roster mutation.
type MessageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrActivityNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Activity not found")
	case errors.Is(err, domain.ErrAlreadyRegistered):
		writeError(w, http.StatusBadRequest, "already_registered", "Student already signed up")
	case errors.Is(err, domain.ErrNotRegistered):
		writeError(w, http.StatusBadRequest, "not_registered", "Student is not signed up for this activity")
	case errors.Is(err, domain.ErrActivityFull):
		writeError(w, http.StatusBadRequest, "activity_full", "Activity is full")
	default:
		h.logger.Error("unexpected service error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error", "internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toActivityView(activity domain.Activity) ActivityView {
	participants := activity.Participants
	if participants == nil {
		participants = []string{}
	}
	return ActivityView{
		Description:     activity.Description,
		Schedule:        activity.Schedule,
		MaxParticipants: activity.MaxParticipants,
		Participants:    participants,
	}
}
