package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Leganyst/clinic-booking/internal/metrics"
	"github.com/Leganyst/clinic-booking/internal/middleware"
	"github.com/Leganyst/clinic-booking/internal/model"
	"github.com/Leganyst/clinic-booking/internal/repository"
)

// CatalogHandler отдаёт витрину клиники: услуги и специалистов.
// Только чтение, видимость ограничена тенантом из Scope.
type CatalogHandler struct {
	offerings   repository.OfferingRepository
	providers   repository.ProviderRepository
	memberships repository.MembershipRepository
	metrics     *metrics.Metrics
}

func NewCatalogHandler(
	offerings repository.OfferingRepository,
	providers repository.ProviderRepository,
	memberships repository.MembershipRepository,
	m *metrics.Metrics,
) *CatalogHandler {
	return &CatalogHandler{
		offerings:   offerings,
		providers:   providers,
		memberships: memberships,
		metrics:     m,
	}
}

type offeringResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	DurationMin int64  `json:"duration_min"`
	PriceCents  int64  `json:"price_cents"`
}

// ListOfferings — GET /api/v1/offerings: активные услуги тенанта.
func (h *CatalogHandler) ListOfferings(c echo.Context) error {
	scope, ok := middleware.ScopeFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "code": "unauthorized", "message": "authentication required"})
	}

	offerings, err := h.offerings.ListActive(c.Request().Context(), scope.TenantID)
	if err != nil {
		return respondError(c, h.metrics, err)
	}

	items := make([]offeringResponse, 0, len(offerings))
	for _, o := range offerings {
		items = append(items, offeringResponse{
			ID:          o.ID.String(),
			Name:        o.Name,
			Description: o.Description,
			DurationMin: o.DurationMin,
			PriceCents:  o.PriceCents,
		})
	}
	return respondOK(c, http.StatusOK, echo.Map{"items": items})
}

type providerResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
}

// ListProviders — GET /api/v1/providers: специалисты тенанта.
func (h *CatalogHandler) ListProviders(c echo.Context) error {
	scope, ok := middleware.ScopeFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "code": "unauthorized", "message": "authentication required"})
	}

	providers, err := h.providers.ListByTenant(c.Request().Context(), scope.TenantID)
	if err != nil {
		return respondError(c, h.metrics, err)
	}

	items := make([]providerResponse, 0, len(providers))
	for _, p := range providers {
		items = append(items, providerResponse{
			ID:          p.ID.String(),
			DisplayName: p.DisplayName,
			Description: p.Description,
		})
	}
	return respondOK(c, http.StatusOK, echo.Map{"items": items})
}

type memberResponse struct {
	ID       string `json:"id"`
	RealName string `json:"real_name"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

// ListMembers — GET /api/v1/members?role= (персонал): участники тенанта
// с заданной ролью.
func (h *CatalogHandler) ListMembers(c echo.Context) error {
	scope, ok := middleware.ScopeFromEcho(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "code": "unauthorized", "message": "authentication required"})
	}

	role := model.MembershipRole(c.QueryParam("role"))
	if role == "" {
		role = model.MembershipRoleCustomer
	}

	members, err := h.memberships.ListByTenantAndRole(c.Request().Context(), scope.TenantID, role)
	if err != nil {
		return respondError(c, h.metrics, err)
	}

	items := make([]memberResponse, 0, len(members))
	for _, m := range members {
		items = append(items, memberResponse{
			ID:       m.ID.String(),
			RealName: m.RealName,
			Phone:    m.Phone,
			Role:     string(m.Role),
		})
	}
	return respondOK(c, http.StatusOK, echo.Map{"items": items})
}
