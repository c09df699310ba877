package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Leganyst/clinic-booking/internal/metrics"
	"github.com/Leganyst/clinic-booking/internal/middleware"
	"github.com/Leganyst/clinic-booking/internal/model"
	"github.com/Leganyst/clinic-booking/internal/service"
)

type AvailabilityHandler struct {
	booking  *service.BookingService
	schedule *service.ScheduleService
	metrics  *metrics.Metrics
}

func NewAvailabilityHandler(
	booking *service.BookingService,
	schedule *service.ScheduleService,
	m *metrics.Metrics,
) *AvailabilityHandler {
	return &AvailabilityHandler{booking: booking, schedule: schedule, metrics: m}
}

type slotResponse struct {
	ID        string    `json:"id"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	Capacity  int       `json:"capacity"`
	Remaining int       `json:"remaining"`
	Status    string    `json:"status"`
}

func toSlotResponse(s *model.TimeSlot) slotResponse {
	return slotResponse{
		ID:        s.ID.String(),
		StartsAt:  s.StartsAt,
		EndsAt:    s.EndsAt,
		Capacity:  s.Capacity,
		Remaining: s.Remaining(),
		Status:    string(s.Status),
	}
}

// ListSlots — GET /api/v1/slots: свободные слоты специалиста в интервале.
func (h *AvailabilityHandler) ListSlots(c echo.Context) error {
	scope, ok := middleware.ScopeFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "code": "unauthorized", "message": "authentication required"})
	}

	providerID, err := uuid.Parse(c.QueryParam("provider_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "code": service.CodeInvalidArgument, "message": "provider_id must be a UUID"})
	}

	from, to, err := parseTimeWindow(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "code": service.CodeInvalidArgument, "message": err.Error()})
	}

	slots, err := h.booking.ListAvailableSlots(c.Request().Context(), scope, providerID, from, to)
	if err != nil {
		return respondError(c, h.metrics, err)
	}

	items := make([]slotResponse, 0, len(slots))
	for i := range slots {
		items = append(items, toSlotResponse(&slots[i]))
	}
	return respondOK(c, http.StatusOK, echo.Map{"items": items})
}

type generateSlotsRequest struct {
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	SlotMinutes  int       `json:"slot_minutes"`
	AlignMinutes int       `json:"align_minutes"`
	Capacity     int       `json:"capacity"`
}

// GenerateSlots — POST /api/v1/providers/:id/slots (персонал).
// Разбивает рабочее окно на слоты; пересечения с существующими
// слотами пропускаются.
func (h *AvailabilityHandler) GenerateSlots(c echo.Context) error {
	scope, ok := middleware.ScopeFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "code": "unauthorized", "message": "authentication required"})
	}

	providerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "code": service.CodeInvalidArgument, "message": "provider id must be a UUID"})
	}

	var req generateSlotsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "code": service.CodeInvalidArgument, "message": "invalid request body"})
	}

	created, err := h.schedule.GenerateSlots(c.Request().Context(), scope, service.GenerateSlotsInput{
		ProviderID:   providerID,
		Start:        req.Start,
		End:          req.End,
		SlotDuration: time.Duration(req.SlotMinutes) * time.Minute,
		AlignMinutes: req.AlignMinutes,
		Capacity:     req.Capacity,
	})
	if err != nil {
		return respondError(c, h.metrics, err)
	}

	items := make([]slotResponse, 0, len(created))
	for i := range created {
		items = append(items, toSlotResponse(&created[i]))
	}
	return respondOK(c, http.StatusCreated, echo.Map{"items": items, "created": len(items)})
}

// CloseSlot — POST /api/v1/slots/:id/unavailable (персонал).
// Снимает слот с записи; существующие брони не трогаются.
func (h *AvailabilityHandler) CloseSlot(c echo.Context) error {
	scope, ok := middleware.ScopeFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "code": "unauthorized", "message": "authentication required"})
	}

	slotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "code": service.CodeInvalidArgument, "message": "slot id must be a UUID"})
	}

	slot, err := h.schedule.CloseSlot(c.Request().Context(), scope, slotID)
	if err != nil {
		return respondError(c, h.metrics, err)
	}
	return respondOK(c, http.StatusOK, toSlotResponse(slot))
}

// ListProviderSlots — GET /api/v1/providers/:id/slots (персонал).
// Все слоты специалиста за период, включая закрытые и занятые.
func (h *AvailabilityHandler) ListProviderSlots(c echo.Context) error {
	scope, ok := middleware.ScopeFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "code": "unauthorized", "message": "authentication required"})
	}

	providerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "code": service.CodeInvalidArgument, "message": "provider id must be a UUID"})
	}

	from, to, err := parseTimeWindow(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "code": service.CodeInvalidArgument, "message": err.Error()})
	}

	slots, err := h.schedule.ListProviderSlots(c.Request().Context(), scope, providerID, from, to)
	if err != nil {
		return respondError(c, h.metrics, err)
	}

	items := make([]slotResponse, 0, len(slots))
	for i := range slots {
		items = append(items, toSlotResponse(&slots[i]))
	}
	return respondOK(c, http.StatusOK, echo.Map{"items": items})
}

type createScheduleRequest struct {
	TimeZone string          `json:"time_zone"`
	Rules    json.RawMessage `json:"rules"`
}

// CreateSchedule — POST /api/v1/providers/:id/schedules (персонал).
// Сохраняет правило повторения; слоты из него генерируются отдельным
// запросом.
func (h *AvailabilityHandler) CreateSchedule(c echo.Context) error {
	scope, ok := middleware.ScopeFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "code": "unauthorized", "message": "authentication required"})
	}

	providerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "code": service.CodeInvalidArgument, "message": "provider id must be a UUID"})
	}

	var req createScheduleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "code": service.CodeInvalidArgument, "message": "invalid request body"})
	}

	sched, err := h.schedule.CreateSchedule(c.Request().Context(), scope, service.CreateScheduleInput{
		ProviderID: providerID,
		TimeZone:   req.TimeZone,
		Rules:      req.Rules,
	})
	if err != nil {
		return respondError(c, h.metrics, err)
	}

	return respondOK(c, http.StatusCreated, echo.Map{
		"id":          sched.ID.String(),
		"provider_id": sched.ProviderID.String(),
		"time_zone":   sched.TimeZone,
	})
}

// GenerateFromSchedules — POST /api/v1/providers/:id/slots/from-schedules
// (персонал). Разворачивает сохранённые расписания в окна внутри
// интервала и генерирует слоты для каждого окна.
func (h *AvailabilityHandler) GenerateFromSchedules(c echo.Context) error {
	scope, ok := middleware.ScopeFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "code": "unauthorized", "message": "authentication required"})
	}

	providerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "code": service.CodeInvalidArgument, "message": "provider id must be a UUID"})
	}

	from, to, err := parseTimeWindow(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "code": service.CodeInvalidArgument, "message": err.Error()})
	}

	created, err := h.schedule.GenerateFromSchedules(c.Request().Context(), scope, providerID, from, to)
	if err != nil {
		return respondError(c, h.metrics, err)
	}

	items := make([]slotResponse, 0, len(created))
	for i := range created {
		items = append(items, toSlotResponse(&created[i]))
	}
	return respondOK(c, http.StatusCreated, echo.Map{"items": items, "created": len(items)})
}
