package tenantctx

import (
	"context"

	"github.com/google/uuid"

	"github.com/Leganyst/clinic-booking/internal/model"
)

// Scope — типизированный контекст запроса: аутентифицированный принципал
// внутри конкретного тенанта. Собирается middleware из проверенного токена
// и разрешённого тенанта; создаётся на каждый запрос, никогда не хранится
// в глобальном состоянии. Каждая операция сервисного слоя принимает Scope
// явно — это первый слой изоляции тенантов (второй — фильтры tenant_id
// в репозиториях).
type Scope struct {
	TenantID   uuid.UUID
	LineUserID string
	Role       model.MembershipRole
}

// Staff сообщает, принадлежит ли принципал персоналу клиники.
func (s *Scope) Staff() bool {
	return s.Role == model.MembershipRoleStaff || s.Role == model.MembershipRoleAdmin
}

type contextKey struct{}

// WithScope кладёт Scope в контекст запроса.
func WithScope(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, contextKey{}, scope)
}

// FromContext достаёт Scope из контекста.
func FromContext(ctx context.Context) (*Scope, bool) {
	scope, ok := ctx.Value(contextKey{}).(*Scope)
	return scope, ok
}
