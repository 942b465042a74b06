package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/screener/internal/interfaces"
	"github.com/ternarybob/screener/internal/models"
	"github.com/ternarybob/screener/internal/services/environments"
)

// EnvironmentService defines the methods needed from the environment service
type EnvironmentService interface {
	List(ctx context.Context) ([]*models.Environment, error)
	Get(ctx context.Context, id string) (*models.Environment, error)
	Create(ctx context.Context, req environments.CreateRequest) (*models.Environment, error)
	Update(ctx context.Context, id string, req environments.UpdateRequest) (*models.Environment, error)
	Delete(ctx context.Context, id string) error
	Run(ctx context.Context, id string) (*models.RunResponse, error)
}

// EnvironmentHandler handles environment HTTP requests
type EnvironmentHandler struct {
	service EnvironmentService
	logger  arbor.ILogger
}

// NewEnvironmentHandler creates a new EnvironmentHandler
func NewEnvironmentHandler(service EnvironmentService, logger arbor.ILogger) *EnvironmentHandler {
	return &EnvironmentHandler{
		service: service,
		logger:  logger,
	}
}

// EnvironmentPrefix is the item route prefix
const EnvironmentPrefix = "/api/environments/"

// ListHandler handles GET /api/environments
func (h *EnvironmentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	envs, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list environments")
		WriteError(w, http.StatusInternalServerError, ErrCodeInternal)
		return
	}
	if envs == nil {
		envs = []*models.Environment{}
	}
	WriteJSON(w, http.StatusOK, envs)
}

// CreateHandler handles POST /api/environments
func (h *EnvironmentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var req environments.CreateRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteValidationError(w, err)
		return
	}

	env, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err, "create")
		return
	}
	WriteJSON(w, http.StatusCreated, env)
}

// GetHandler handles GET /api/environments/{id}
func (h *EnvironmentHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.environmentID(w, r)
	if !ok {
		return
	}
	env, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, "get")
		return
	}
	WriteJSON(w, http.StatusOK, env)
}

// UpdateHandler handles PUT /api/environments/{id}
func (h *EnvironmentHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.environmentID(w, r)
	if !ok {
		return
	}
	var req environments.UpdateRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteValidationError(w, err)
		return
	}

	env, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.writeServiceError(w, err, "update")
		return
	}
	WriteJSON(w, http.StatusOK, env)
}

// DeleteHandler handles DELETE /api/environments/{id}
func (h *EnvironmentHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.environmentID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, err, "delete")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// RunHandler handles POST /api/environments/{id}/run
func (h *EnvironmentHandler) RunHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	id, ok := h.environmentID(w, r)
	if !ok {
		return
	}

	resp, err := h.service.Run(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, "run")
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (h *EnvironmentHandler) environmentID(w http.ResponseWriter, r *http.Request) (string, bool) {
	segments := PathSegments(r.URL.Path, EnvironmentPrefix)
	if len(segments) == 0 || segments[0] == "" {
		WriteError(w, http.StatusNotFound, ErrCodeNotFound)
		return "", false
	}
	return segments[0], true
}

func (h *EnvironmentHandler) writeServiceError(w http.ResponseWriter, err error, op string) {
	var verr *environments.ValidationError
	switch {
	case errors.Is(err, interfaces.ErrEnvironmentNotFound):
		WriteError(w, http.StatusNotFound, ErrCodeNotFound)
	case errors.Is(err, environments.ErrNoTickers):
		WriteError(w, http.StatusBadRequest, ErrCodeNoTickers)
	case errors.As(err, &verr):
		WriteValidationError(w, verr)
	default:
		h.logger.Error().Err(err).Str("op", op).Msg("Environment request failed")
		WriteError(w, http.StatusInternalServerError, ErrCodeInternal)
	}
}
