package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Leganyst/clinic-booking/internal/jwtutil"
	"github.com/Leganyst/clinic-booking/internal/logger"
	"github.com/Leganyst/clinic-booking/internal/model"
	"github.com/Leganyst/clinic-booking/internal/tenantctx"
)

const scopeContextKey = "tenant_scope"

// Auth проверяет Bearer-токен и собирает tenantctx.Scope.
// Scope кладётся и в echo.Context, и в context.Context запроса:
// сервисный слой получает его явно, без обращения к транспорту.
func Auth(signer *jwtutil.Signer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				log.Warn("missing authorization header")
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "code": "unauthorized", "message": "missing authorization token"})
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				log.Warn("invalid authorization header format")
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "code": "unauthorized", "message": "expected Bearer token"})
			}

			claims, err := signer.Validate(parts[1])
			if err != nil {
				log.Warn("invalid session token", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "code": "unauthorized", "message": "invalid or expired token"})
			}

			tenantID, err := claims.TenantUUID()
			if err != nil {
				log.Warn("token without valid tenant_id", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "code": "unauthorized", "message": "token has no tenant context"})
			}

			scope := &tenantctx.Scope{
				TenantID:   tenantID,
				LineUserID: claims.LineUserID,
				Role:       model.MembershipRole(claims.Role),
			}
			c.Set(scopeContextKey, scope)
			c.SetRequest(c.Request().WithContext(tenantctx.WithScope(c.Request().Context(), scope)))

			return next(c)
		}
	}
}

// ScopeFromEcho достаёт Scope, положенный Auth.
func ScopeFromEcho(c echo.Context) (*tenantctx.Scope, bool) {
	scope, ok := c.Get(scopeContextKey).(*tenantctx.Scope)
	return scope, ok
}

// RequireStaff пускает дальше только персонал тенанта.
func RequireStaff(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		scope, ok := ScopeFromEcho(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "code": "unauthorized", "message": "authentication required"})
		}
		if !scope.Staff() {
			logger.FromEcho(c).Warn("staff endpoint denied",
				zap.String("line_user_id", scope.LineUserID),
				zap.String("role", string(scope.Role)))
			return c.JSON(http.StatusForbidden, echo.Map{"success": false, "code": "forbidden", "message": "staff role required"})
		}
		return next(c)
	}
}
