package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Leganyst/clinic-booking/internal/metrics"
	"github.com/Leganyst/clinic-booking/internal/middleware"
	"github.com/Leganyst/clinic-booking/internal/model"
	"github.com/Leganyst/clinic-booking/internal/service"
)

type BookingHandler struct {
	booking *service.BookingService
	metrics *metrics.Metrics
}

func NewBookingHandler(booking *service.BookingService, m *metrics.Metrics) *BookingHandler {
	return &BookingHandler{booking: booking, metrics: m}
}

type reserveRequest struct {
	OfferingID string    `json:"offering_id"`
	ProviderID string    `json:"provider_id"`
	SlotID     string    `json:"slot_id"`
	StartsAt   time.Time `json:"starts_at"`
}

type reservationResponse struct {
	ID          string     `json:"id"`
	OfferingID  string     `json:"offering_id"`
	ProviderID  string     `json:"provider_id"`
	SlotID      string     `json:"slot_id"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      time.Time  `json:"ends_at"`
	Status      string     `json:"status"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

func toReservationResponse(r *model.Reservation) reservationResponse {
	return reservationResponse{
		ID:          r.ID.String(),
		OfferingID:  r.OfferingID.String(),
		ProviderID:  r.ProviderID.String(),
		SlotID:      r.SlotID.String(),
		StartsAt:    r.StartsAt,
		EndsAt:      r.EndsAt,
		Status:      string(r.Status),
		CancelledAt: r.CancelledAt,
	}
}

// Reserve — POST /api/v1/reservations.
func (h *BookingHandler) Reserve(c echo.Context) error {
	scope, ok := middleware.ScopeFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "code": "unauthorized", "message": "authentication required"})
	}

	var req reserveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "code": service.CodeInvalidArgument, "message": "invalid request body"})
	}

	in := service.ReserveInput{StartsAt: req.StartsAt}
	var err error
	if in.OfferingID, err = uuid.Parse(req.OfferingID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "code": service.CodeInvalidArgument, "message": "offering_id must be a UUID"})
	}
	if in.ProviderID, err = uuid.Parse(req.ProviderID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "code": service.CodeInvalidArgument, "message": "provider_id must be a UUID"})
	}
	if in.SlotID, err = uuid.Parse(req.SlotID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "code": service.CodeInvalidArgument, "message": "slot_id must be a UUID"})
	}

	res, err := h.booking.Reserve(c.Request().Context(), scope, in)
	if err != nil {
		return respondError(c, h.metrics, err)
	}

	h.metrics.RecordReservation()
	return respondOK(c, http.StatusCreated, toReservationResponse(res))
}

type transitionRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Transition — POST /api/v1/reservations/:id/transitions.
// Клиент присылает ожидаемый текущий статус: несовпадение — конфликт,
// строка не меняется.
func (h *BookingHandler) Transition(c echo.Context) error {
	scope, ok := middleware.ScopeFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "code": "unauthorized", "message": "authentication required"})
	}

	reservationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "code": service.CodeInvalidArgument, "message": "reservation id must be a UUID"})
	}

	var req transitionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "code": service.CodeInvalidArgument, "message": "invalid request body"})
	}
	if req.From == "" || req.To == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "code": service.CodeInvalidArgument, "message": "from and to are required"})
	}

	res, err := h.booking.Transition(
		c.Request().Context(),
		scope,
		reservationID,
		model.ReservationStatus(req.From),
		model.ReservationStatus(req.To),
	)
	if err != nil {
		return respondError(c, h.metrics, err)
	}

	h.metrics.RecordTransition(req.To)
	return respondOK(c, http.StatusOK, toReservationResponse(res))
}

// List — GET /api/v1/reservations.
// Без provider_id — собственные брони принципала; provider_id доступен
// только персоналу.
func (h *BookingHandler) List(c echo.Context) error {
	scope, ok := middleware.ScopeFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "code": "unauthorized", "message": "authentication required"})
	}

	from, to, err := parseTimeWindow(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "code": service.CodeInvalidArgument, "message": err.Error()})
	}

	var filter service.ReservationFilter
	if raw := c.QueryParam("provider_id"); raw != "" {
		if !scope.Staff() {
			return c.JSON(http.StatusForbidden, echo.Map{"success": false, "code": "forbidden", "message": "staff role required to list provider reservations"})
		}
		providerID, err := uuid.Parse(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "code": service.CodeInvalidArgument, "message": "provider_id must be a UUID"})
		}
		filter.ProviderID = &providerID
	}

	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 20)

	result, err := h.booking.ListReservations(c.Request().Context(), scope, filter, from, to, page, pageSize)
	if err != nil {
		return respondError(c, h.metrics, err)
	}

	items := make([]reservationResponse, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, toReservationResponse(&result.Items[i]))
	}

	return respondOK(c, http.StatusOK, echo.Map{
		"items":     items,
		"page":      result.Page,
		"page_size": result.PageSize,
		"total":     result.Total,
	})
}

func parseTimeWindow(c echo.Context) (time.Time, time.Time, error) {
	from, err := time.Parse(time.RFC3339, c.QueryParam("from"))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("from must be RFC3339")
	}
	to, err := time.Parse(time.RFC3339, c.QueryParam("to"))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("to must be RFC3339")
	}
	return from, to, nil
}

func queryInt(c echo.Context, name string, def int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
