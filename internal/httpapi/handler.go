package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"visitq/queue-service/internal/models"
	"visitq/queue-service/internal/queue"
	"visitq/queue-service/internal/store"
)

// Coordinator is the queue coordinator surface the transport needs.
type Coordinator interface {
	RegisterVisitor(ctx context.Context, input queue.RegisterInput) (models.Visitor, error)
	ListToday(ctx context.Context) ([]models.Visitor, error)
	AdvanceStatus(ctx context.Context, id, requestedStatus string) (models.Visitor, error)
}

type Handler struct {
	coordinator Coordinator
}

type createVisitorRequest struct {
	Name    string `json:"name"`
	Age     *int   `json:"age"`
	Purpose string `json:"purpose"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error responseError `json:"error"`
}

type responseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewHandler(coordinator Coordinator) *Handler {
	return &Handler{coordinator: coordinator}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/api/visitors", h.handleVisitors)
	mux.HandleFunc("/api/visitors/today", h.handleListToday)
	mux.HandleFunc("/api/visitors/", h.handleVisitorStatus)
	return mux
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleVisitors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req createVisitorRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}

	visitor, err := h.coordinator.RegisterVisitor(r.Context(), queue.RegisterInput{
		Name:    req.Name,
		Age:     req.Age,
		Purpose: req.Purpose,
	})
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}

	writeJSON(w, http.StatusCreated, visitor)
}

func (h *Handler) handleListToday(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	visitors, err := h.coordinator.ListToday(r.Context())
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}
	if visitors == nil {
		visitors = []models.Visitor{}
	}
	writeJSON(w, http.StatusOK, visitors)
}

func (h *Handler) handleVisitorStatus(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/visitors/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "status" {
		writeError(w, http.StatusNotFound, "not_found", "resource not found")
		return
	}
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	visitorID := parts[0]

	var req updateStatusRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}

	req.Status = strings.TrimSpace(req.Status)
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "status is required")
		return
	}

	visitor, err := h.coordinator.AdvanceStatus(r.Context(), visitorID, req.Status)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, visitor)
}

func mapError(err error) (int, string, string) {
	var validationErr *queue.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, "invalid_request", validationErr.Error()
	case errors.Is(err, queue.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition", "visitor status does not allow this change"
	case errors.Is(err, store.ErrVisitorNotFound):
		return http.StatusNotFound, "visitor_not_found", "visitor not found"
	default:
		return http.StatusInternalServerError, "internal_error", "internal server error"
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Error: responseError{
			Code:    code,
			Message: message,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
