package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/Leganyst/clinic-booking/internal/config"
	"github.com/Leganyst/clinic-booking/internal/db"
	"github.com/Leganyst/clinic-booking/internal/handler"
	"github.com/Leganyst/clinic-booking/internal/jwtutil"
	"github.com/Leganyst/clinic-booking/internal/logger"
	"github.com/Leganyst/clinic-booking/internal/metrics"
	"github.com/Leganyst/clinic-booking/internal/middleware"
	"github.com/Leganyst/clinic-booking/internal/model"
	"github.com/Leganyst/clinic-booking/internal/repository"
	"github.com/Leganyst/clinic-booking/internal/service"
)

func main() {
	// 1. Конфигурация из env.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// 2. Логгер.
	zlog, err := logger.New(cfg.Server.Env, cfg.Log.Level)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()

	// 3. Подключение к БД через GORM; SQL-лог идёт в общий zap-логгер.
	gormDB, err := db.NewGormDB(&cfg.DB, zlog)
	if err != nil {
		zlog.Fatal("init db", zap.Error(err))
	}

	// 4. Миграции моделей.
	if err := model.AutoMigrate(gormDB); err != nil {
		zlog.Fatal("auto migrate", zap.Error(err))
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		zlog.Fatal("sql DB", zap.Error(err))
	}
	defer sqlDB.Close()

	// 5. Репозитории (реализации на GORM).
	tenantRepo := repository.NewGormTenantRepository(gormDB)
	userRepo := repository.NewGormUserRepository(gormDB)
	membershipRepo := repository.NewGormMembershipRepository(gormDB)
	offeringRepo := repository.NewGormOfferingRepository(gormDB)
	providerRepo := repository.NewGormProviderRepository(gormDB)
	slotRepo := repository.NewGormSlotRepository(gormDB)
	scheduleRepo := repository.NewGormScheduleRepository(gormDB)
	reservationRepo := repository.NewGormReservationRepository(gormDB)

	// 6. Сервисы.
	registrationSvc := service.NewRegistrationService(gormDB, zlog, membershipRepo)
	bookingSvc := service.NewBookingService(gormDB, zlog, reservationRepo, slotRepo, userRepo, membershipRepo)
	scheduleSvc := service.NewScheduleService(gormDB, zlog, slotRepo, scheduleRepo)

	// 7. Метрики и подпись токенов.
	m := metrics.New("booking")
	signer := jwtutil.NewSigner(cfg.JWT.SigningKey, cfg.JWT.TTL)

	// 8. Обработчики.
	sessionH := handler.NewSessionHandler(tenantRepo, registrationSvc, signer, cfg.Server.DefaultTenantSlug)
	registrationH := handler.NewRegistrationHandler(registrationSvc, m)
	bookingH := handler.NewBookingHandler(bookingSvc, m)
	availabilityH := handler.NewAvailabilityHandler(bookingSvc, scheduleSvc, m)
	catalogH := handler.NewCatalogHandler(offeringRepo, providerRepo, membershipRepo, m)
	healthH := handler.NewHealthHandler(gormDB)

	// 9. HTTP-сервер и маршруты.
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID)
	e.Use(logger.Middleware(zlog))
	e.Use(m.Middleware())

	e.GET("/health", healthH.Check)
	e.GET("/metrics", metrics.Handler())

	api := e.Group("/api/v1")
	api.POST("/sessions", sessionH.Create)

	authed := api.Group("", middleware.Auth(signer))
	authed.GET("/registration", registrationH.Check)
	authed.POST("/registration", registrationH.Register)
	authed.POST("/reservations", bookingH.Reserve)
	authed.POST("/reservations/:id/transitions", bookingH.Transition)
	authed.GET("/reservations", bookingH.List)
	authed.GET("/slots", availabilityH.ListSlots)
	authed.GET("/offerings", catalogH.ListOfferings)
	authed.GET("/providers", catalogH.ListProviders)
	authed.GET("/members", middleware.RequireStaff(catalogH.ListMembers))
	authed.GET("/providers/:id/slots", middleware.RequireStaff(availabilityH.ListProviderSlots))
	authed.POST("/slots/:id/unavailable", middleware.RequireStaff(availabilityH.CloseSlot))
	authed.POST("/providers/:id/slots", middleware.RequireStaff(availabilityH.GenerateSlots))
	authed.POST("/providers/:id/slots/from-schedules", middleware.RequireStaff(availabilityH.GenerateFromSchedules))
	authed.POST("/providers/:id/schedules", middleware.RequireStaff(availabilityH.CreateSchedule))

	// 10. Запуск сервера в горутине.
	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil {
			zlog.Info("http server stopped", zap.Error(err))
		}
	}()
	zlog.Info("http server listening", zap.String("port", cfg.Server.Port))

	// 11. Грейсфул-шатдаун по сигналу.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	zlog.Info("shutting down http server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		zlog.Error("shutdown", zap.Error(err))
	}
}
