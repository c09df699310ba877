package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/clinic-booking/internal/booking"
	"github.com/Leganyst/clinic-booking/internal/calendar"
	"github.com/Leganyst/clinic-booking/internal/model"
	"github.com/Leganyst/clinic-booking/internal/repository"
	"github.com/Leganyst/clinic-booking/internal/tenantctx"
)

// Параметры повторов транзакции бронирования при конфликтах сериализации.
const (
	reserveAttempts   = 3
	reserveRetryDelay = 100 * time.Millisecond
)

// BookingService — движок бронирования: атомарное занятие слота под
// пессимистичной блокировкой строки и охраняемые переходы статусов.
type BookingService struct {
	db           *gorm.DB
	log          *zap.Logger
	reservations repository.ReservationRepository
	slots        repository.SlotRepository
	users        repository.UserRepository
	memberships  repository.MembershipRepository
}

func NewBookingService(
	db *gorm.DB,
	log *zap.Logger,
	reservations repository.ReservationRepository,
	slots repository.SlotRepository,
	users repository.UserRepository,
	memberships repository.MembershipRepository,
) *BookingService {
	return &BookingService{
		db:           db,
		log:          log,
		reservations: reservations,
		slots:        slots,
		users:        users,
		memberships:  memberships,
	}
}

// ReserveInput — заявка на бронь: услуга, специалист, слот и время начала.
type ReserveInput struct {
	OfferingID uuid.UUID
	ProviderID uuid.UUID
	SlotID     uuid.UUID
	StartsAt   time.Time
}

func (in *ReserveInput) validate() error {
	if in.OfferingID == uuid.Nil {
		return fmt.Errorf("%w: offering_id is required", ErrInvalidArgument)
	}
	if in.ProviderID == uuid.Nil {
		return fmt.Errorf("%w: provider_id is required", ErrInvalidArgument)
	}
	if in.SlotID == uuid.Nil {
		return fmt.Errorf("%w: slot_id is required", ErrInvalidArgument)
	}
	if in.StartsAt.IsZero() {
		return fmt.Errorf("%w: starts_at is required", ErrInvalidArgument)
	}
	return nil
}

// Reserve выполняет бронирование одной сериализуемой единицей:
// блокировка строки слота -> проверки -> вставка брони -> инкремент
// занятости -> commit. Конкурирующие вызовы на один слот сериализуются
// на блокировке, поэтому второй видит занятость первого. Конфликты
// сериализации повторяются ограниченное число раз.
func (s *BookingService) Reserve(ctx context.Context, scope *tenantctx.Scope, in ReserveInput) (*model.Reservation, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	// Принципал должен быть зарегистрирован в этом тенанте. Проверка
	// до транзакции: строку слота она не трогает и повторов не требует.
	m, err := s.memberships.GetByTenantAndLineUserID(ctx, scope.TenantID, scope.LineUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotRegistered
		}
		return nil, err
	}
	if !m.Registered {
		return nil, ErrNotRegistered
	}

	var res *model.Reservation
	for attempt := 1; attempt <= reserveAttempts; attempt++ {
		res, err = s.reserveOnce(ctx, scope, m.UserID, in)
		if err == nil || !retryableTxError(err) {
			return res, err
		}
		s.log.Warn("reserve transaction conflict, retrying",
			zap.Int("attempt", attempt),
			zap.String("slot_id", in.SlotID.String()),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(reserveRetryDelay):
		}
	}
	return nil, ErrRetryExhausted
}

func (s *BookingService) reserveOnce(ctx context.Context, scope *tenantctx.Scope, userID uuid.UUID, in ReserveInput) (*model.Reservation, error) {
	var res model.Reservation

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Услуга тенанта, активная; из неё — длительность брони.
		var off model.Offering
		err := tx.Where("id = ? AND tenant_id = ?", in.OfferingID, scope.TenantID).First(&off).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOfferingUnavailable
			}
			return err
		}
		if !off.Active {
			return ErrOfferingUnavailable
		}

		// 2. Пессимистичная блокировка строки слота в рамках тенанта
		//    и специалиста. Дальше все решения — по заблокированной строке.
		var slot model.TimeSlot
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND tenant_id = ? AND provider_id = ?", in.SlotID, scope.TenantID, in.ProviderID).
			First(&slot).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if slot.Status != model.TimeSlotStatusAvailable {
			return ErrSlotFull
		}
		if slot.Remaining() <= 0 {
			return ErrSlotFull
		}

		// 3. Конец брони: начало + длительность услуги.
		startsAt := in.StartsAt.UTC()
		endsAt := startsAt.Add(time.Duration(off.DurationMin) * time.Minute)
		if !slot.Contains(startsAt, endsAt) {
			return ErrSlotFull
		}

		// 4. Вставка брони в статусе pending.
		res = model.Reservation{
			ID:         uuid.New(),
			TenantID:   scope.TenantID,
			UserID:     userID,
			OfferingID: off.ID,
			ProviderID: slot.ProviderID,
			SlotID:     slot.ID,
			StartsAt:   startsAt,
			EndsAt:     endsAt,
			Status:     model.ReservationStatusPending,
		}
		if err := tx.Create(&res).Error; err != nil {
			return err
		}

		// 5. Инкремент занятости в той же транзакции.
		err = tx.Model(&model.TimeSlot{}).
			Where("id = ? AND tenant_id = ?", slot.ID, scope.TenantID).
			UpdateColumn("booked", gorm.Expr("booked + 1")).Error
		if err != nil {
			return err
		}

		event := model.Event{
			ID:            uuid.New(),
			TenantID:      scope.TenantID,
			EventType:     model.EventTypeReservationCreated,
			UserID:        &res.UserID,
			ReservationID: &res.ID,
			Details:       fmt.Sprintf("slot=%s offering=%s", slot.ID, off.ID),
		}
		return tx.Create(&event).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("reservation created",
		zap.String("tenant_id", res.TenantID.String()),
		zap.String("reservation_id", res.ID.String()),
		zap.Time("starts_at", res.StartsAt))

	return &res, nil
}

// Transition выполняет охраняемый переход статуса брони: условное
// обновление одной строки по текущему статусу. Запрос из неожиданного
// статуса завершается ErrInvalidTransition, строка не меняется — так
// конкурирующие действия персонала (одновременные check-in и отмена)
// не теряют обновления. Отмена возвращает место в слот.
func (s *BookingService) Transition(
	ctx context.Context,
	scope *tenantctx.Scope,
	reservationID uuid.UUID,
	from, to model.ReservationStatus,
) (*model.Reservation, error) {
	if reservationID == uuid.Nil {
		return nil, fmt.Errorf("%w: reservation_id is required", ErrInvalidArgument)
	}
	if !booking.CanTransition(from, to) {
		return nil, ErrInvalidTransition
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur model.Reservation
		err := tx.Where("id = ? AND tenant_id = ?", reservationID, scope.TenantID).First(&cur).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		updates := map[string]any{"status": to}
		eventType := model.EventTypeReservationStatusChanged
		if to == model.ReservationStatusCancelled {
			now := time.Now().UTC()
			updates["cancelled_at"] = &now
			eventType = model.EventTypeReservationCancelled
		}

		result := tx.Model(&model.Reservation{}).
			Where("id = ? AND tenant_id = ? AND status = ?", reservationID, scope.TenantID, from).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Текущий статус не совпал с ожидаемым.
			return ErrInvalidTransition
		}

		// Отмена освобождает место: декремент под блокировкой строки слота.
		if to == model.ReservationStatusCancelled && booking.Counted(from) {
			var slot model.TimeSlot
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("id = ? AND tenant_id = ?", cur.SlotID, scope.TenantID).
				First(&slot).Error
			if err != nil {
				return err
			}
			err = tx.Model(&model.TimeSlot{}).
				Where("id = ? AND tenant_id = ? AND booked > 0", slot.ID, scope.TenantID).
				UpdateColumn("booked", gorm.Expr("booked - 1")).Error
			if err != nil {
				return err
			}
		}

		event := model.Event{
			ID:            uuid.New(),
			TenantID:      scope.TenantID,
			EventType:     eventType,
			ReservationID: &reservationID,
			Details:       fmt.Sprintf("%s -> %s", from, to),
		}
		return tx.Create(&event).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("reservation status changed",
		zap.String("tenant_id", scope.TenantID.String()),
		zap.String("reservation_id", reservationID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)))

	return s.reservations.GetByID(ctx, scope.TenantID, reservationID)
}

// ReservationFilter выбирает, чьи брони перечислять.
// ProviderID задан — брони специалиста (действие персонала);
// иначе — собственные брони принципала из Scope.
type ReservationFilter struct {
	ProviderID *uuid.UUID
}

// ListReservations возвращает брони за период по возрастанию времени.
// Только чтение, без блокировок.
func (s *BookingService) ListReservations(
	ctx context.Context,
	scope *tenantctx.Scope,
	filter ReservationFilter,
	from, to time.Time,
	page, pageSize int,
) (calendar.Page[model.Reservation], error) {
	if !to.After(from) {
		return calendar.Page[model.Reservation]{}, fmt.Errorf("%w: to must be after from", ErrInvalidArgument)
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize

	if filter.ProviderID != nil {
		items, total, err := s.reservations.ListByProviderRange(ctx, scope.TenantID, *filter.ProviderID, from, to, pageSize, offset)
		if err != nil {
			return calendar.Page[model.Reservation]{}, err
		}
		return calendar.PageFromTotal(items, page, pageSize, total), nil
	}

	user, err := s.users.FindByLineUserID(ctx, scope.LineUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Принципал ещё не создан — у него нет броней.
			return calendar.PageFromTotal([]model.Reservation{}, page, pageSize, 0), nil
		}
		return calendar.Page[model.Reservation]{}, err
	}

	items, total, err := s.reservations.ListByUserRange(ctx, scope.TenantID, user.ID, from, to, pageSize, offset)
	if err != nil {
		return calendar.Page[model.Reservation]{}, err
	}
	return calendar.PageFromTotal(items, page, pageSize, total), nil
}

// ListAvailableSlots возвращает свободные слоты специалиста без блокировок:
// занятость может быть слегка устаревшей, но никогда не занижается.
func (s *BookingService) ListAvailableSlots(
	ctx context.Context,
	scope *tenantctx.Scope,
	providerID uuid.UUID,
	from, to time.Time,
) ([]model.TimeSlot, error) {
	if providerID == uuid.Nil {
		return nil, fmt.Errorf("%w: provider_id is required", ErrInvalidArgument)
	}
	if !to.After(from) {
		return nil, fmt.Errorf("%w: to must be after from", ErrInvalidArgument)
	}
	return s.slots.ListAvailable(ctx, scope.TenantID, providerID, from, to)
}

// retryableTxError распознаёт конфликты сериализации и взаимные
// блокировки, которые имеет смысл повторить: 40001/40P01 у Postgres,
// busy-ошибки у sqlite в тестах.
func retryableTxError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "40001") ||
		strings.Contains(msg, "40P01") ||
		strings.Contains(msg, "deadlock detected") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}
