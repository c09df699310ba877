package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/calendar"
	"github.com/Leganyst/clinic-booking/internal/model"
	"github.com/Leganyst/clinic-booking/internal/repository"
	"github.com/Leganyst/clinic-booking/internal/tenantctx"
)

// Ограничение на размер окна генерации, чтобы случайный запрос
// не породил тысячи слотов.
const maxGenerateWindow = 31 * 24 * time.Hour

// ScheduleService генерирует слоты записи из рабочих окон специалиста.
type ScheduleService struct {
	db        *gorm.DB
	log       *zap.Logger
	slots     repository.SlotRepository
	schedules repository.ScheduleRepository
}

func NewScheduleService(
	db *gorm.DB,
	log *zap.Logger,
	slots repository.SlotRepository,
	schedules repository.ScheduleRepository,
) *ScheduleService {
	return &ScheduleService{db: db, log: log, slots: slots, schedules: schedules}
}

// GenerateSlotsInput — окно генерации и параметры слота.
type GenerateSlotsInput struct {
	ProviderID   uuid.UUID
	Start        time.Time
	End          time.Time
	SlotDuration time.Duration
	AlignMinutes int
	Capacity     int
}

// GenerateSlots разбивает окно на слоты фиксированной длительности и
// сохраняет те, что не пересекаются с уже существующими слотами
// специалиста. Возвращает созданные слоты по возрастанию времени.
func (s *ScheduleService) GenerateSlots(ctx context.Context, scope *tenantctx.Scope, in GenerateSlotsInput) ([]model.TimeSlot, error) {
	if in.ProviderID == uuid.Nil {
		return nil, fmt.Errorf("%w: provider_id is required", ErrInvalidArgument)
	}
	if in.Capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive", ErrInvalidArgument)
	}

	tr, err := calendar.NormalizeTimeRange(in.Start, in.End, time.UTC, maxGenerateWindow)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	parts, err := calendar.SplitToTimeSlots(tr, in.SlotDuration, in.AlignMinutes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if len(parts) == 0 {
		return []model.TimeSlot{}, nil
	}

	var created []model.TimeSlot

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var provider model.Provider
		err := tx.Where("id = ? AND tenant_id = ?", in.ProviderID, scope.TenantID).First(&provider).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var existing []model.TimeSlot
		err = tx.Where("tenant_id = ? AND provider_id = ?", scope.TenantID, in.ProviderID).
			Where("starts_at < ? AND ends_at > ?", tr.End, tr.Start).
			Find(&existing).Error
		if err != nil {
			return err
		}

		busy := make([]calendar.TimeRange, 0, len(existing))
		for _, slot := range existing {
			busy = append(busy, calendar.TimeRange{Start: slot.StartsAt, End: slot.EndsAt})
		}

		for _, part := range parts {
			if overlaps, _ := calendar.HasOverlap(part, busy, false); overlaps {
				continue
			}
			slot := model.TimeSlot{
				ID:         uuid.New(),
				TenantID:   scope.TenantID,
				ProviderID: in.ProviderID,
				StartsAt:   part.Start,
				EndsAt:     part.End,
				Capacity:   in.Capacity,
				Status:     model.TimeSlotStatusAvailable,
			}
			if err := tx.Create(&slot).Error; err != nil {
				return err
			}
			created = append(created, slot)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("slots generated",
		zap.String("tenant_id", scope.TenantID.String()),
		zap.String("provider_id", in.ProviderID.String()),
		zap.Int("created", len(created)),
		zap.Int("skipped", len(parts)-len(created)))

	return created, nil
}

// CloseSlot снимает слот с записи без удаления: статус становится
// unavailable, уже сделанные брони не трогаем. Повторный вызов — no-op.
func (s *ScheduleService) CloseSlot(ctx context.Context, scope *tenantctx.Scope, slotID uuid.UUID) (*model.TimeSlot, error) {
	if slotID == uuid.Nil {
		return nil, fmt.Errorf("%w: slot_id is required", ErrInvalidArgument)
	}

	slot, err := s.slots.GetByID(ctx, scope.TenantID, slotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if slot.Status == model.TimeSlotStatusUnavailable {
		return slot, nil
	}

	if err := s.slots.MarkUnavailable(ctx, scope.TenantID, slotID); err != nil {
		return nil, err
	}
	slot.Status = model.TimeSlotStatusUnavailable

	s.log.Info("slot closed",
		zap.String("tenant_id", scope.TenantID.String()),
		zap.String("slot_id", slotID.String()))

	return slot, nil
}

// ListProviderSlots — слоты специалиста за период в любых статусах,
// включая закрытые и полностью занятые (обзор для персонала).
func (s *ScheduleService) ListProviderSlots(
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
	return s.slots.ListByProviderRange(ctx, scope.TenantID, providerID, from, to)
}

// ExpandScheduleWindows разворачивает правило повторения расписания в
// рабочие окна внутри заданного интервала (вспомогательная операция для
// персонала: предпросмотр перед генерацией слотов).
func (s *ScheduleService) ExpandScheduleWindows(
	rule calendar.RecurringRule,
	from, to time.Time,
) ([]calendar.TimeRange, error) {
	window, err := calendar.NormalizeTimeRange(from, to, time.UTC, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return calendar.ExpandRecurringRule(rule, window)
}

// CreateScheduleInput — новое расписание специалиста.
type CreateScheduleInput struct {
	ProviderID uuid.UUID
	TimeZone   string
	Rules      json.RawMessage
}

// CreateSchedule сохраняет расписание после проверки, что правило
// повторения разбирается. Окна и слоты из него генерируются отдельно.
func (s *ScheduleService) CreateSchedule(ctx context.Context, scope *tenantctx.Scope, in CreateScheduleInput) (*model.Schedule, error) {
	if in.ProviderID == uuid.Nil {
		return nil, fmt.Errorf("%w: provider_id is required", ErrInvalidArgument)
	}
	if len(in.Rules) == 0 {
		return nil, fmt.Errorf("%w: rules are required", ErrInvalidArgument)
	}
	var raw scheduleRule
	if err := json.Unmarshal(in.Rules, &raw); err != nil {
		return nil, fmt.Errorf("%w: rules: %v", ErrInvalidArgument, err)
	}
	if _, err := raw.toRecurring(); err != nil {
		return nil, fmt.Errorf("%w: rules: %v", ErrInvalidArgument, err)
	}
	if raw.DurationMin <= 0 || raw.SlotMinutes <= 0 || raw.Capacity <= 0 {
		return nil, fmt.Errorf("%w: rules: duration_min, slot_minutes and capacity must be positive", ErrInvalidArgument)
	}
	tz := in.TimeZone
	if tz == "" {
		tz = "UTC"
	}

	var provider model.Provider
	err := s.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", in.ProviderID, scope.TenantID).
		First(&provider).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	sched := &model.Schedule{
		ID:         uuid.New(),
		TenantID:   scope.TenantID,
		ProviderID: in.ProviderID,
		TimeZone:   tz,
		Rules:      datatypes.JSON(in.Rules),
	}
	if err := s.schedules.Create(ctx, sched); err != nil {
		return nil, err
	}

	s.log.Info("schedule created",
		zap.String("tenant_id", scope.TenantID.String()),
		zap.String("provider_id", in.ProviderID.String()),
		zap.String("schedule_id", sched.ID.String()))

	return sched, nil
}

// scheduleRule — форма правила повторения в schedules.rules.
type scheduleRule struct {
	Freq         string `json:"freq"` // daily | weekly
	Interval     int    `json:"interval"`
	Weekdays     []int  `json:"weekdays,omitempty"` // 0=вс .. 6=сб
	StartTime    string `json:"start_time"`         // RFC3339
	DurationMin  int    `json:"duration_min"`
	SlotMinutes  int    `json:"slot_minutes"`
	AlignMinutes int    `json:"align_minutes,omitempty"`
	Capacity     int    `json:"capacity"`
}

func (r scheduleRule) toRecurring() (calendar.RecurringRule, error) {
	start, err := time.Parse(time.RFC3339, r.StartTime)
	if err != nil {
		return calendar.RecurringRule{}, fmt.Errorf("start_time: %w", err)
	}
	freq := calendar.FreqDaily
	if r.Freq == "weekly" {
		freq = calendar.FreqWeekly
	}
	weekdays := make([]time.Weekday, 0, len(r.Weekdays))
	for _, d := range r.Weekdays {
		weekdays = append(weekdays, time.Weekday(d))
	}
	return calendar.RecurringRule{
		Freq:      freq,
		Interval:  r.Interval,
		Weekdays:  weekdays,
		StartTime: start.UTC(),
		Duration:  time.Duration(r.DurationMin) * time.Minute,
	}, nil
}

// GenerateFromSchedules разворачивает сохранённые расписания специалиста
// в рабочие окна внутри интервала и генерирует слоты для каждого окна.
// Возвращает все созданные слоты по возрастанию времени.
func (s *ScheduleService) GenerateFromSchedules(
	ctx context.Context,
	scope *tenantctx.Scope,
	providerID uuid.UUID,
	from, to time.Time,
) ([]model.TimeSlot, error) {
	if providerID == uuid.Nil {
		return nil, fmt.Errorf("%w: provider_id is required", ErrInvalidArgument)
	}
	window, err := calendar.NormalizeTimeRange(from, to, time.UTC, maxGenerateWindow)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	schedules, err := s.schedules.ListByProvider(ctx, scope.TenantID, providerID)
	if err != nil {
		return nil, err
	}

	var created []model.TimeSlot
	for _, sched := range schedules {
		if len(sched.Rules) == 0 {
			continue
		}
		var raw scheduleRule
		if err := json.Unmarshal(sched.Rules, &raw); err != nil {
			return nil, fmt.Errorf("%w: schedule %s rules: %v", ErrInvalidArgument, sched.ID, err)
		}
		rule, err := raw.toRecurring()
		if err != nil {
			return nil, fmt.Errorf("%w: schedule %s: %v", ErrInvalidArgument, sched.ID, err)
		}

		occurrences, err := calendar.ExpandRecurringRule(rule, window)
		if err != nil {
			return nil, fmt.Errorf("%w: schedule %s: %v", ErrInvalidArgument, sched.ID, err)
		}

		for _, occ := range occurrences {
			slots, err := s.GenerateSlots(ctx, scope, GenerateSlotsInput{
				ProviderID:   providerID,
				Start:        occ.Start,
				End:          occ.End,
				SlotDuration: time.Duration(raw.SlotMinutes) * time.Minute,
				AlignMinutes: raw.AlignMinutes,
				Capacity:     raw.Capacity,
			})
			if err != nil {
				return nil, err
			}
			created = append(created, slots...)
		}
	}

	sort.Slice(created, func(i, j int) bool {
		return created[i].StartsAt.Before(created[j].StartsAt)
	})
	return created, nil
}
