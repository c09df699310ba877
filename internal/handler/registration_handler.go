package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Leganyst/clinic-booking/internal/metrics"
	"github.com/Leganyst/clinic-booking/internal/middleware"
	"github.com/Leganyst/clinic-booking/internal/model"
	"github.com/Leganyst/clinic-booking/internal/service"
)

type RegistrationHandler struct {
	registration *service.RegistrationService
	metrics      *metrics.Metrics
}

func NewRegistrationHandler(registration *service.RegistrationService, m *metrics.Metrics) *RegistrationHandler {
	return &RegistrationHandler{registration: registration, metrics: m}
}

type registrationStatusResponse struct {
	Registered bool   `json:"registered"`
	RealName   string `json:"real_name,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Role       string `json:"role,omitempty"`
}

func statusResponse(m *model.Membership, registered bool) registrationStatusResponse {
	resp := registrationStatusResponse{Registered: registered}
	if m != nil {
		resp.RealName = m.RealName
		resp.Phone = m.Phone
		resp.Role = string(m.Role)
	}
	return resp
}

// Check — GET /api/v1/registration.
// Непривязанный принципал — обычный ответ Registered=false, не ошибка.
func (h *RegistrationHandler) Check(c echo.Context) error {
	scope, ok := middleware.ScopeFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "code": "unauthorized", "message": "authentication required"})
	}

	status, err := h.registration.CheckRegistration(c.Request().Context(), scope.LineUserID, scope.TenantID)
	if err != nil {
		return respondError(c, h.metrics, err)
	}

	return respondOK(c, http.StatusOK, statusResponse(status.Membership, status.Registered))
}

type registerRequest struct {
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	RealName    string `json:"real_name"`
	Phone       string `json:"phone"`
}

// Register — POST /api/v1/registration: онбординг принципала в тенанте.
// Идемпотентен: повторный вызов обновляет анкету, не плодя строк.
func (h *RegistrationHandler) Register(c echo.Context) error {
	scope, ok := middleware.ScopeFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "code": "unauthorized", "message": "authentication required"})
	}

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "code": service.CodeInvalidArgument, "message": "invalid request body"})
	}

	m, err := h.registration.Register(c.Request().Context(), service.RegisterInput{
		LineUserID:  scope.LineUserID,
		DisplayName: req.DisplayName,
		AvatarURL:   req.AvatarURL,
		TenantID:    scope.TenantID,
		RealName:    req.RealName,
		Phone:       req.Phone,
	})
	if err != nil {
		return respondError(c, h.metrics, err)
	}

	h.metrics.RecordRegistration()
	return respondOK(c, http.StatusCreated, statusResponse(m, m.Registered))
}
