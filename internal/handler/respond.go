// Package handler — JSON-обработчики HTTP API.
// Ожидаемые бизнес-отказы отдаются кодами контракта, неожиданные ошибки
// логируются и превращаются в 500 без деталей.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Leganyst/clinic-booking/internal/logger"
	"github.com/Leganyst/clinic-booking/internal/metrics"
	"github.com/Leganyst/clinic-booking/internal/service"
)

// Отображение кодов отказов в HTTP-статусы.
var rejectionStatus = map[string]int{
	service.CodeTenantInactive:      http.StatusForbidden,
	service.CodeNotRegistered:       http.StatusForbidden,
	service.CodeOfferingUnavailable: http.StatusConflict,
	service.CodeSlotFull:            http.StatusConflict,
	service.CodeInvalidTransition:   http.StatusConflict,
	service.CodeNotFound:            http.StatusNotFound,
	service.CodeInvalidArgument:     http.StatusBadRequest,
	service.CodeTryAgain:            http.StatusServiceUnavailable,
}

func respondOK(c echo.Context, status int, data any) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}

// respondError переводит ошибку сервисного слоя в HTTP-ответ и считает
// отказ в метриках.
func respondError(c echo.Context, m *metrics.Metrics, err error) error {
	if code, ok := service.RejectionCode(err); ok {
		if m != nil {
			m.RecordRejection(code)
		}
		status, known := rejectionStatus[code]
		if !known {
			status = http.StatusInternalServerError
		}
		return c.JSON(status, echo.Map{
			"success": false,
			"code":    code,
			"message": err.Error(),
		})
	}

	logger.FromEcho(c).Error("unexpected error", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{
		"success": false,
		"code":    "internal",
		"message": "internal server error",
	})
}
