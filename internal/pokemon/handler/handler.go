package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pokegate/internal/pokemon/models"
	dErrors "pokegate/pkg/domain-errors"
	"pokegate/pkg/platform/httputil"
	"pokegate/pkg/requestcontext"
)

// Service defines the interface for pokemon lookups.
type Service interface {
	Lookup(ctx context.Context, name models.Name) (*models.Pokemon, error)
}

// Handler wires pokemon endpoints to the lookup service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a pokemon handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts pokemon endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/v1/pokemon", h.HandleLookup)
}

// HandleLookup handles GET /v1/pokemon?name=<name>.
func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	name, err := models.ParseName(r.URL.Query().Get("name"))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	pokemon, err := h.service.Lookup(ctx, name)
	if err != nil {
		h.logFailure(ctx, requestID, name, err)
		httputil.WriteError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "pokemon served",
		"request_id", requestID,
		"name", name.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromPokemon(pokemon))
}

func (h *Handler) logFailure(ctx context.Context, requestID string, name models.Name, err error) {
	attrs := []any{
		"request_id", requestID,
		"name", name.String(),
		"error", err,
	}
	switch dErrors.CodeOf(err) {
	case dErrors.CodeNotFound, dErrors.CodeValidation:
		h.logger.InfoContext(ctx, "pokemon lookup rejected", attrs...)
	default:
		h.logger.ErrorContext(ctx, "pokemon lookup failed", attrs...)
	}
}
