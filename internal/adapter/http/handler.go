package http

import (
	"context"
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/flightplan-tool/flightplan-sub000/internal/adapter/http/middleware"
	"github.com/flightplan-tool/flightplan-sub000/internal/adapter/http/response"
	"github.com/flightplan-tool/flightplan-sub000/internal/adapter/storage/sqlite"
	"github.com/flightplan-tool/flightplan-sub000/internal/domain"
)

// AwardStore is the read side of the award storage.
type AwardStore interface {
	ListAwards(ctx context.Context, q sqlite.AwardQuery) ([]*domain.Award, error)
	ListRequests(ctx context.Context, q sqlite.RequestQuery) ([]sqlite.RequestRow, error)
	GetRequest(ctx context.Context, id string) (sqlite.RequestRow, error)
}

// AwardHandler handles the award API.
type AwardHandler struct {
	store    AwardStore
	registry *domain.Registry
}

// NewAwardHandler creates a handler over store. The registry lists the
// configured engines.
func NewAwardHandler(store AwardStore, registry *domain.Registry) *AwardHandler {
	return &AwardHandler{
		store:    store,
		registry: registry,
	}
}

// ListAwards handles GET /api/v1/awards.
func (h *AwardHandler) ListAwards(c echo.Context) error {
	req, err := BindAwardsRequest(c)
	if err != nil {
		return h.handleBindError(c, err)
	}
	if err := req.Validate(); err != nil {
		return h.handleValidationError(c, err)
	}
	if req.Engine != "" {
		if _, err := h.registry.Get(req.Engine); err != nil {
			return response.ValidationError(c, map[string]string{"engine": err.Error()})
		}
	}

	stored, err := h.store.ListAwards(c.Request().Context(), ToStoreQuery(req))
	if err != nil {
		return h.handleError(c, err)
	}

	query := ToAwardQuery(req)
	awards := query.Select(stored)
	return response.OK(c, &AwardsResponseDTO{
		Metadata: AwardsMetadataDTO{
			Stored:       len(stored),
			TotalResults: len(awards),
			SortBy:       string(query.SortBy),
		},
		Awards: ToAwardDTOs(awards),
	})
}

// ListRequests handles GET /api/v1/requests.
func (h *AwardHandler) ListRequests(c echo.Context) error {
	req := &RequestsRequest{}
	err := echo.QueryParamsBinder(c).
		String("engine", &req.Engine).
		Int("limit", &req.Limit).
		BindError()
	if err != nil {
		return h.handleBindError(c, err)
	}
	if err := req.Validate(); err != nil {
		return h.handleValidationError(c, err)
	}

	rows, err := h.store.ListRequests(c.Request().Context(), sqlite.RequestQuery{Engine: req.Engine, Limit: req.Limit})
	if err != nil {
		return h.handleError(c, err)
	}
	out := make([]RequestDTO, len(rows))
	for i, row := range rows {
		out[i] = ToRequestDTO(row)
	}
	return response.Items(c, len(out), out)
}

// GetRequest handles GET /api/v1/requests/:id.
func (h *AwardHandler) GetRequest(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	row, err := h.store.GetRequest(ctx, id)
	if err != nil {
		return h.handleError(c, err)
	}
	awards, err := h.store.ListAwards(ctx, sqlite.AwardQuery{RequestID: id, Limit: sqlite.DefaultLimit * 10})
	if err != nil {
		return h.handleError(c, err)
	}
	return response.OK(c, &RequestDetailDTO{
		RequestDTO: ToRequestDTO(row),
		Awards:     ToAwardDTOs(awards),
	})
}

// ListEngines handles GET /api/v1/engines.
func (h *AwardHandler) ListEngines(c echo.Context) error {
	ids := h.registry.IDs()
	out := make([]EngineDTO, len(ids))
	for i, id := range ids {
		out[i] = ToEngineDTO(h.registry.Config(id))
	}
	return response.Items(c, len(out), out)
}

// Health handles GET /health.
func (h *AwardHandler) Health(c echo.Context) error {
	return response.Health(c, h.registry.Len())
}

func (h *AwardHandler) handleBindError(c echo.Context, err error) error {
	var bindErr *echo.BindingError
	if errors.As(err, &bindErr) {
		return response.InvalidQuery(c, map[string]string{bindErr.Field: "invalid value " + firstValue(bindErr.Values)})
	}
	return response.BadRequest(c, err.Error())
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return `""`
	}
	return `"` + values[0] + `"`
}

// handleValidationError handles validation errors and returns a 400 response.
func (h *AwardHandler) handleValidationError(c echo.Context, err error) error {
	var validationErrs *ValidationErrors
	if errors.As(err, &validationErrs) {
		return response.ValidationError(c, validationErrs.ToMap())
	}
	return response.ValidationErrorWithMessage(c, err.Error())
}

// handleError maps storage and context errors to HTTP responses.
func (h *AwardHandler) handleError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, sqlite.ErrRequestNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return response.GatewayTimeout(c)
	case errors.Is(err, context.Canceled):
		return response.RequestCancelled(c)
	case domain.Classify(err) == domain.KindIntegrity:
		// a stored row no longer validates
		middleware.Logger(c).Error().Err(err).Msg("corrupt award row")
		return response.InternalServerError(c)
	default:
		middleware.Logger(c).Error().Err(err).Msg("award storage failed")
		return response.ServiceUnavailable(c)
	}
}
