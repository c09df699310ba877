package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/jwtutil"
	"github.com/Leganyst/clinic-booking/internal/repository"
	"github.com/Leganyst/clinic-booking/internal/service"
)

// SessionHandler выпускает сессионные токены после аутентификации
// во внешнем провайдере. Профиль принципала приходит от шлюза
// аутентификации, уже проверившего подпись провайдера.
type SessionHandler struct {
	tenants           repository.TenantRepository
	registration      *service.RegistrationService
	signer            *jwtutil.Signer
	defaultTenantSlug string
}

func NewSessionHandler(
	tenants repository.TenantRepository,
	registration *service.RegistrationService,
	signer *jwtutil.Signer,
	defaultTenantSlug string,
) *SessionHandler {
	return &SessionHandler{
		tenants:           tenants,
		registration:      registration,
		signer:            signer,
		defaultTenantSlug: defaultTenantSlug,
	}
}

type createSessionRequest struct {
	LineUserID string `json:"line_user_id"`
	TenantSlug string `json:"tenant_slug"`
}

type createSessionResponse struct {
	Token      string `json:"token"`
	TenantID   string `json:"tenant_id"`
	TenantSlug string `json:"tenant_slug"`
	Registered bool   `json:"registered"`
	Role       string `json:"role,omitempty"`
}

// Create — POST /api/v1/sessions.
// Разрешает тенанта по слагу, проверяет привязку и выпускает токен.
// Роль в токене берётся из membership; непривязанный принципал получает
// токен без роли и может только пройти онбординг.
func (h *SessionHandler) Create(c echo.Context) error {
	var req createSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "code": service.CodeInvalidArgument, "message": "invalid request body"})
	}
	if req.LineUserID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "code": service.CodeInvalidArgument, "message": "line_user_id is required"})
	}

	slug := req.TenantSlug
	if slug == "" {
		slug = h.defaultTenantSlug
	}
	if slug == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "code": service.CodeInvalidArgument, "message": "tenant_slug is required"})
	}

	ctx := c.Request().Context()

	tenant, err := h.tenants.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, nil, service.ErrTenantInactive)
		}
		return respondError(c, nil, err)
	}
	if !tenant.Active {
		return respondError(c, nil, service.ErrTenantInactive)
	}

	status, err := h.registration.CheckRegistration(ctx, req.LineUserID, tenant.ID)
	if err != nil {
		return respondError(c, nil, err)
	}

	role := ""
	if status.Registered {
		role = string(status.Membership.Role)
	}

	token, err := h.signer.Issue(req.LineUserID, tenant.ID, tenant.Slug, role)
	if err != nil {
		return respondError(c, nil, err)
	}

	return respondOK(c, http.StatusCreated, createSessionResponse{
		Token:      token,
		TenantID:   tenant.ID.String(),
		TenantSlug: tenant.Slug,
		Registered: status.Registered,
		Role:       role,
	})
}
