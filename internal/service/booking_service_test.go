package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/model"
	"github.com/Leganyst/clinic-booking/internal/repository"
	"github.com/Leganyst/clinic-booking/internal/tenantctx"
)

func newBookingService(db *gorm.DB) *BookingService {
	return NewBookingService(
		db,
		testLogger(),
		repository.NewGormReservationRepository(db),
		repository.NewGormSlotRepository(db),
		repository.NewGormUserRepository(db),
		repository.NewGormMembershipRepository(db),
	)
}

func customerScope(tenantID uuid.UUID, lineUserID string) *tenantctx.Scope {
	return &tenantctx.Scope{
		TenantID:   tenantID,
		LineUserID: lineUserID,
		Role:       model.MembershipRoleCustomer,
	}
}

func TestBookingService_Reserve_HappyPath(t *testing.T) {
	db := newTestDB(t)
	svc := newBookingService(db)

	tenant := seedTenant(t, db, true)
	seedRegisteredMember(t, db, tenant.ID, "U-book", model.MembershipRoleCustomer)
	offering := seedOffering(t, db, tenant.ID, 30, true)
	provider := seedProvider(t, db, tenant.ID)

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	slot := seedSlot(t, db, tenant.ID, provider.ID, start, time.Hour, 2, 0, model.TimeSlotStatusAvailable)

	res, err := svc.Reserve(context.Background(), customerScope(tenant.ID, "U-book"), ReserveInput{
		OfferingID: offering.ID,
		ProviderID: provider.ID,
		SlotID:     slot.ID,
		StartsAt:   start,
	})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	if res.Status != model.ReservationStatusPending {
		t.Fatalf("status = %s, want pending", res.Status)
	}
	wantEnd := start.Add(30 * time.Minute)
	if !res.EndsAt.Equal(wantEnd) {
		t.Fatalf("ends_at = %s, want %s", res.EndsAt, wantEnd)
	}

	// Occupancy incremented in the same transaction.
	var got model.TimeSlot
	if err := db.First(&got, "id = ?", slot.ID.String()).Error; err != nil {
		t.Fatalf("load slot: %v", err)
	}
	if got.Booked != 1 {
		t.Fatalf("booked = %d, want 1", got.Booked)
	}

	var events int64
	db.Model(&model.Event{}).
		Where("tenant_id = ? AND event_type = ?", tenant.ID, model.EventTypeReservationCreated).
		Count(&events)
	if events != 1 {
		t.Fatalf("audit events = %d, want 1", events)
	}
}

func TestBookingService_Reserve_SlotFull(t *testing.T) {
	db := newTestDB(t)
	svc := newBookingService(db)

	tenant := seedTenant(t, db, true)
	seedRegisteredMember(t, db, tenant.ID, "U-full", model.MembershipRoleCustomer)
	offering := seedOffering(t, db, tenant.ID, 30, true)
	provider := seedProvider(t, db, tenant.ID)

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	slot := seedSlot(t, db, tenant.ID, provider.ID, start, time.Hour, 1, 1, model.TimeSlotStatusAvailable)

	_, err := svc.Reserve(context.Background(), customerScope(tenant.ID, "U-full"), ReserveInput{
		OfferingID: offering.ID,
		ProviderID: provider.ID,
		SlotID:     slot.ID,
		StartsAt:   start,
	})
	if !errors.Is(err, ErrSlotFull) {
		t.Fatalf("err = %v, want ErrSlotFull", err)
	}

	// No reservation row, occupancy unchanged.
	var reservations int64
	db.Model(&model.Reservation{}).Count(&reservations)
	if reservations != 0 {
		t.Fatalf("reservations = %d, want 0", reservations)
	}
	var got model.TimeSlot
	db.First(&got, "id = ?", slot.ID.String())
	if got.Booked != 1 {
		t.Fatalf("booked changed: %d", got.Booked)
	}
}

func TestBookingService_Reserve_UnavailableSlot(t *testing.T) {
	db := newTestDB(t)
	svc := newBookingService(db)

	tenant := seedTenant(t, db, true)
	seedRegisteredMember(t, db, tenant.ID, "U-unav", model.MembershipRoleCustomer)
	offering := seedOffering(t, db, tenant.ID, 30, true)
	provider := seedProvider(t, db, tenant.ID)

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	slot := seedSlot(t, db, tenant.ID, provider.ID, start, time.Hour, 5, 0, model.TimeSlotStatusUnavailable)

	_, err := svc.Reserve(context.Background(), customerScope(tenant.ID, "U-unav"), ReserveInput{
		OfferingID: offering.ID,
		ProviderID: provider.ID,
		SlotID:     slot.ID,
		StartsAt:   start,
	})
	if !errors.Is(err, ErrSlotFull) {
		t.Fatalf("err = %v, want ErrSlotFull", err)
	}
}

func TestBookingService_Reserve_WindowMismatch(t *testing.T) {
	db := newTestDB(t)
	svc := newBookingService(db)

	tenant := seedTenant(t, db, true)
	seedRegisteredMember(t, db, tenant.ID, "U-win", model.MembershipRoleCustomer)
	// 90-minute procedure does not fit a 60-minute slot.
	offering := seedOffering(t, db, tenant.ID, 90, true)
	provider := seedProvider(t, db, tenant.ID)

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	slot := seedSlot(t, db, tenant.ID, provider.ID, start, time.Hour, 1, 0, model.TimeSlotStatusAvailable)

	_, err := svc.Reserve(context.Background(), customerScope(tenant.ID, "U-win"), ReserveInput{
		OfferingID: offering.ID,
		ProviderID: provider.ID,
		SlotID:     slot.ID,
		StartsAt:   start,
	})
	if !errors.Is(err, ErrSlotFull) {
		t.Fatalf("err = %v, want ErrSlotFull", err)
	}
}

func TestBookingService_Reserve_Unregistered(t *testing.T) {
	db := newTestDB(t)
	svc := newBookingService(db)

	tenant := seedTenant(t, db, true)
	offering := seedOffering(t, db, tenant.ID, 30, true)
	provider := seedProvider(t, db, tenant.ID)
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	slot := seedSlot(t, db, tenant.ID, provider.ID, start, time.Hour, 1, 0, model.TimeSlotStatusAvailable)

	// Principal the platform has never seen.
	_, err := svc.Reserve(context.Background(), customerScope(tenant.ID, "U-ghost"), ReserveInput{
		OfferingID: offering.ID,
		ProviderID: provider.ID,
		SlotID:     slot.ID,
		StartsAt:   start,
	})
	if !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("err = %v, want ErrNotRegistered", err)
	}

	// Principal with a half-filled binding (Registered=false).
	user := &model.User{ID: uuid.New(), LineUserID: "U-half-book"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	m := &model.Membership{ID: uuid.New(), TenantID: tenant.ID, UserID: user.ID, Role: model.MembershipRoleCustomer, Registered: false}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("seed membership: %v", err)
	}
	_, err = svc.Reserve(context.Background(), customerScope(tenant.ID, "U-half-book"), ReserveInput{
		OfferingID: offering.ID,
		ProviderID: provider.ID,
		SlotID:     slot.ID,
		StartsAt:   start,
	})
	if !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("half-filled binding: err = %v, want ErrNotRegistered", err)
	}
}

func TestBookingService_Reserve_InactiveOffering(t *testing.T) {
	db := newTestDB(t)
	svc := newBookingService(db)

	tenant := seedTenant(t, db, true)
	seedRegisteredMember(t, db, tenant.ID, "U-inact", model.MembershipRoleCustomer)
	offering := seedOffering(t, db, tenant.ID, 30, false)
	provider := seedProvider(t, db, tenant.ID)
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	slot := seedSlot(t, db, tenant.ID, provider.ID, start, time.Hour, 1, 0, model.TimeSlotStatusAvailable)

	_, err := svc.Reserve(context.Background(), customerScope(tenant.ID, "U-inact"), ReserveInput{
		OfferingID: offering.ID,
		ProviderID: provider.ID,
		SlotID:     slot.ID,
		StartsAt:   start,
	})
	if !errors.Is(err, ErrOfferingUnavailable) {
		t.Fatalf("err = %v, want ErrOfferingUnavailable", err)
	}
}

func TestBookingService_Reserve_TenantIsolation(t *testing.T) {
	db := newTestDB(t)
	svc := newBookingService(db)

	tenantA := seedTenant(t, db, true)
	tenantB := seedTenant(t, db, true)

	seedRegisteredMember(t, db, tenantA.ID, "U-iso", model.MembershipRoleCustomer)
	offeringA := seedOffering(t, db, tenantA.ID, 30, true)
	offeringB := seedOffering(t, db, tenantB.ID, 30, true)
	providerB := seedProvider(t, db, tenantB.ID)
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	slotB := seedSlot(t, db, tenantB.ID, providerB.ID, start, time.Hour, 5, 0, model.TimeSlotStatusAvailable)

	scope := customerScope(tenantA.ID, "U-iso")

	// Another tenant's offering is invisible, not "inactive elsewhere".
	_, err := svc.Reserve(context.Background(), scope, ReserveInput{
		OfferingID: offeringB.ID,
		ProviderID: providerB.ID,
		SlotID:     slotB.ID,
		StartsAt:   start,
	})
	if !errors.Is(err, ErrOfferingUnavailable) {
		t.Fatalf("cross-tenant offering: err = %v, want ErrOfferingUnavailable", err)
	}

	// Another tenant's slot is invisible even with own offering.
	_, err = svc.Reserve(context.Background(), scope, ReserveInput{
		OfferingID: offeringA.ID,
		ProviderID: providerB.ID,
		SlotID:     slotB.ID,
		StartsAt:   start,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-tenant slot: err = %v, want ErrNotFound", err)
	}

	var got model.TimeSlot
	db.First(&got, "id = ?", slotB.ID.String())
	if got.Booked != 0 {
		t.Fatalf("cross-tenant attempt changed occupancy: %d", got.Booked)
	}
}

func TestBookingService_Reserve_ConcurrentSingleWinner(t *testing.T) {
	db := newTestDB(t)

	// Serialize connections: in-memory sqlite has no row locks, a single
	// connection makes the two transactions strictly sequential.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	svc := newBookingService(db)

	tenant := seedTenant(t, db, true)
	seedRegisteredMember(t, db, tenant.ID, "U-c1", model.MembershipRoleCustomer)
	seedRegisteredMember(t, db, tenant.ID, "U-c2", model.MembershipRoleCustomer)
	offering := seedOffering(t, db, tenant.ID, 30, true)
	provider := seedProvider(t, db, tenant.ID)
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	slot := seedSlot(t, db, tenant.ID, provider.ID, start, time.Hour, 1, 0, model.TimeSlotStatusAvailable)

	in := ReserveInput{
		OfferingID: offering.ID,
		ProviderID: provider.ID,
		SlotID:     slot.ID,
		StartsAt:   start,
	}

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, line := range []string{"U-c1", "U-c2"} {
		wg.Add(1)
		go func(i int, line string) {
			defer wg.Done()
			_, results[i] = svc.Reserve(context.Background(), customerScope(tenant.ID, line), in)
		}(i, line)
	}
	wg.Wait()

	var wins, fulls int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrSlotFull):
			fulls++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || fulls != 1 {
		t.Fatalf("wins=%d fulls=%d, want exactly one winner", wins, fulls)
	}

	var got model.TimeSlot
	db.First(&got, "id = ?", slot.ID.String())
	if got.Booked != 1 {
		t.Fatalf("booked = %d, want 1", got.Booked)
	}
	var reservations int64
	db.Model(&model.Reservation{}).Count(&reservations)
	if reservations != 1 {
		t.Fatalf("reservations = %d, want 1", reservations)
	}
}

func TestBookingService_Reserve_ConcurrentCapacityTwo(t *testing.T) {
	db := newTestDB(t)

	// Single connection serializes the transactions, see above.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	svc := newBookingService(db)

	tenant := seedTenant(t, db, true)
	lines := []string{"U-n1", "U-n2", "U-n3", "U-n4", "U-n5"}
	for _, line := range lines {
		seedRegisteredMember(t, db, tenant.ID, line, model.MembershipRoleCustomer)
	}
	offering := seedOffering(t, db, tenant.ID, 30, true)
	provider := seedProvider(t, db, tenant.ID)
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	slot := seedSlot(t, db, tenant.ID, provider.ID, start, time.Hour, 2, 0, model.TimeSlotStatusAvailable)

	in := ReserveInput{
		OfferingID: offering.ID,
		ProviderID: provider.ID,
		SlotID:     slot.ID,
		StartsAt:   start,
	}

	// Five contenders for two seats: exactly min(N, C) must win.
	var wg sync.WaitGroup
	results := make([]error, len(lines))
	for i, line := range lines {
		wg.Add(1)
		go func(i int, line string) {
			defer wg.Done()
			_, results[i] = svc.Reserve(context.Background(), customerScope(tenant.ID, line), in)
		}(i, line)
	}
	wg.Wait()

	var wins, fulls int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrSlotFull):
			fulls++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 2 || fulls != 3 {
		t.Fatalf("wins=%d fulls=%d, want 2/3", wins, fulls)
	}

	var got model.TimeSlot
	db.First(&got, "id = ?", slot.ID.String())
	if got.Booked != 2 {
		t.Fatalf("booked = %d, want 2", got.Booked)
	}
	var reservations int64
	db.Model(&model.Reservation{}).Count(&reservations)
	if reservations != 2 {
		t.Fatalf("reservations = %d, want 2", reservations)
	}
}

func reserveOne(t *testing.T, svc *BookingService, tenantID uuid.UUID, line string, in ReserveInput) *model.Reservation {
	t.Helper()
	res, err := svc.Reserve(context.Background(), customerScope(tenantID, line), in)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	return res
}

func TestBookingService_Transition_GuardedPath(t *testing.T) {
	db := newTestDB(t)
	svc := newBookingService(db)

	tenant := seedTenant(t, db, true)
	seedRegisteredMember(t, db, tenant.ID, "U-tr", model.MembershipRoleCustomer)
	offering := seedOffering(t, db, tenant.ID, 30, true)
	provider := seedProvider(t, db, tenant.ID)
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	slot := seedSlot(t, db, tenant.ID, provider.ID, start, time.Hour, 1, 0, model.TimeSlotStatusAvailable)

	res := reserveOne(t, svc, tenant.ID, "U-tr", ReserveInput{
		OfferingID: offering.ID, ProviderID: provider.ID, SlotID: slot.ID, StartsAt: start,
	})

	scope := customerScope(tenant.ID, "U-tr")

	got, err := svc.Transition(context.Background(), scope, res.ID, model.ReservationStatusPending, model.ReservationStatusConfirmed)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if got.Status != model.ReservationStatusConfirmed {
		t.Fatalf("status = %s, want confirmed", got.Status)
	}

	// Stale expectation: the row moved on, the request must fail and
	// the row must stay untouched.
	_, err = svc.Transition(context.Background(), scope, res.ID, model.ReservationStatusPending, model.ReservationStatusConfirmed)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("stale from: err = %v, want ErrInvalidTransition", err)
	}
	var cur model.Reservation
	db.First(&cur, "id = ?", res.ID.String())
	if cur.Status != model.ReservationStatusConfirmed {
		t.Fatalf("row changed by rejected transition: %s", cur.Status)
	}

	// Illegal edge in the graph.
	_, err = svc.Transition(context.Background(), scope, res.ID, model.ReservationStatusConfirmed, model.ReservationStatusPending)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("backward edge: err = %v, want ErrInvalidTransition", err)
	}

	// Full forward path.
	if _, err := svc.Transition(context.Background(), scope, res.ID, model.ReservationStatusConfirmed, model.ReservationStatusCheckedIn); err != nil {
		t.Fatalf("check_in: %v", err)
	}
	if _, err := svc.Transition(context.Background(), scope, res.ID, model.ReservationStatusCheckedIn, model.ReservationStatusCompleted); err != nil {
		t.Fatalf("complete: %v", err)
	}

	// Terminal state absorbs nothing.
	_, err = svc.Transition(context.Background(), scope, res.ID, model.ReservationStatusCompleted, model.ReservationStatusCancelled)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("terminal: err = %v, want ErrInvalidTransition", err)
	}
}

func TestBookingService_Transition_CancelReleasesCapacity(t *testing.T) {
	db := newTestDB(t)
	svc := newBookingService(db)

	tenant := seedTenant(t, db, true)
	seedRegisteredMember(t, db, tenant.ID, "U-cancel", model.MembershipRoleCustomer)
	seedRegisteredMember(t, db, tenant.ID, "U-next", model.MembershipRoleCustomer)
	offering := seedOffering(t, db, tenant.ID, 30, true)
	provider := seedProvider(t, db, tenant.ID)
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	slot := seedSlot(t, db, tenant.ID, provider.ID, start, time.Hour, 1, 0, model.TimeSlotStatusAvailable)

	in := ReserveInput{OfferingID: offering.ID, ProviderID: provider.ID, SlotID: slot.ID, StartsAt: start}
	res := reserveOne(t, svc, tenant.ID, "U-cancel", in)

	// Slot is now full for the next customer.
	if _, err := svc.Reserve(context.Background(), customerScope(tenant.ID, "U-next"), in); !errors.Is(err, ErrSlotFull) {
		t.Fatalf("expected full slot, got %v", err)
	}

	got, err := svc.Transition(context.Background(), customerScope(tenant.ID, "U-cancel"), res.ID,
		model.ReservationStatusPending, model.ReservationStatusCancelled)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got.Status != model.ReservationStatusCancelled {
		t.Fatalf("status = %s, want cancelled", got.Status)
	}
	if got.CancelledAt == nil {
		t.Fatalf("cancelled_at not set")
	}

	var s model.TimeSlot
	db.First(&s, "id = ?", slot.ID.String())
	if s.Booked != 0 {
		t.Fatalf("booked = %d, want 0 after cancel", s.Booked)
	}

	// Capacity is usable again.
	if _, err := svc.Reserve(context.Background(), customerScope(tenant.ID, "U-next"), in); err != nil {
		t.Fatalf("reserve after cancel: %v", err)
	}
}

func TestBookingService_Transition_TenantIsolation(t *testing.T) {
	db := newTestDB(t)
	svc := newBookingService(db)

	tenantA := seedTenant(t, db, true)
	tenantB := seedTenant(t, db, true)
	seedRegisteredMember(t, db, tenantA.ID, "U-tiso", model.MembershipRoleCustomer)
	offering := seedOffering(t, db, tenantA.ID, 30, true)
	provider := seedProvider(t, db, tenantA.ID)
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	slot := seedSlot(t, db, tenantA.ID, provider.ID, start, time.Hour, 1, 0, model.TimeSlotStatusAvailable)

	res := reserveOne(t, svc, tenantA.ID, "U-tiso", ReserveInput{
		OfferingID: offering.ID, ProviderID: provider.ID, SlotID: slot.ID, StartsAt: start,
	})

	// A scope from another tenant cannot see the reservation.
	_, err := svc.Transition(context.Background(), customerScope(tenantB.ID, "U-other"), res.ID,
		model.ReservationStatusPending, model.ReservationStatusConfirmed)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-tenant transition: err = %v, want ErrNotFound", err)
	}
}

func TestBookingService_ListReservations_OrderedAndScoped(t *testing.T) {
	db := newTestDB(t)
	svc := newBookingService(db)

	tenant := seedTenant(t, db, true)
	seedRegisteredMember(t, db, tenant.ID, "U-list", model.MembershipRoleCustomer)
	offering := seedOffering(t, db, tenant.ID, 30, true)
	provider := seedProvider(t, db, tenant.ID)

	base := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	// Seed out of order; the listing must come back sorted.
	for _, h := range []int{3, 1, 2} {
		start := base.Add(time.Duration(h) * time.Hour)
		slot := seedSlot(t, db, tenant.ID, provider.ID, start, time.Hour, 1, 0, model.TimeSlotStatusAvailable)
		reserveOne(t, svc, tenant.ID, "U-list", ReserveInput{
			OfferingID: offering.ID, ProviderID: provider.ID, SlotID: slot.ID, StartsAt: start,
		})
	}

	page, err := svc.ListReservations(context.Background(), customerScope(tenant.ID, "U-list"),
		ReservationFilter{}, base, base.Add(6*time.Hour), 1, 10)
	if err != nil {
		t.Fatalf("ListReservations: %v", err)
	}
	if len(page.Items) != 3 || page.Total != 3 {
		t.Fatalf("items=%d total=%d, want 3/3", len(page.Items), page.Total)
	}
	for i := 1; i < len(page.Items); i++ {
		if page.Items[i].StartsAt.Before(page.Items[i-1].StartsAt) {
			t.Fatalf("items not ordered by starts_at")
		}
	}

	// Unknown principal gets an empty page, not an error.
	empty, err := svc.ListReservations(context.Background(), customerScope(tenant.ID, "U-noone"),
		ReservationFilter{}, base, base.Add(6*time.Hour), 1, 10)
	if err != nil {
		t.Fatalf("ListReservations unknown: %v", err)
	}
	if len(empty.Items) != 0 || empty.Total != 0 {
		t.Fatalf("expected empty page, got %d/%d", len(empty.Items), empty.Total)
	}

	// Provider-side listing sees the same reservations.
	byProvider, err := svc.ListReservations(context.Background(), customerScope(tenant.ID, "U-list"),
		ReservationFilter{ProviderID: &provider.ID}, base, base.Add(6*time.Hour), 1, 2)
	if err != nil {
		t.Fatalf("ListReservations by provider: %v", err)
	}
	if len(byProvider.Items) != 2 || byProvider.Total != 3 || !byProvider.HasNext {
		t.Fatalf("provider page: items=%d total=%d hasNext=%v", len(byProvider.Items), byProvider.Total, byProvider.HasNext)
	}
}

func TestBookingService_ListAvailableSlots_ExcludesFullAndForeign(t *testing.T) {
	db := newTestDB(t)
	svc := newBookingService(db)

	tenantA := seedTenant(t, db, true)
	tenantB := seedTenant(t, db, true)
	provider := seedProvider(t, db, tenantA.ID)
	providerB := seedProvider(t, db, tenantB.ID)

	base := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	free := seedSlot(t, db, tenantA.ID, provider.ID, base, time.Hour, 2, 1, model.TimeSlotStatusAvailable)
	seedSlot(t, db, tenantA.ID, provider.ID, base.Add(time.Hour), time.Hour, 1, 1, model.TimeSlotStatusAvailable)
	seedSlot(t, db, tenantA.ID, provider.ID, base.Add(2*time.Hour), time.Hour, 3, 0, model.TimeSlotStatusUnavailable)
	seedSlot(t, db, tenantB.ID, providerB.ID, base, time.Hour, 3, 0, model.TimeSlotStatusAvailable)

	slots, err := svc.ListAvailableSlots(context.Background(),
		customerScope(tenantA.ID, "U-any"), provider.ID, base, base.Add(6*time.Hour))
	if err != nil {
		t.Fatalf("ListAvailableSlots: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("slots = %d, want 1", len(slots))
	}
	if slots[0].ID != free.ID {
		t.Fatalf("wrong slot returned: %s", slots[0].ID)
	}
	if slots[0].Remaining() != 1 {
		t.Fatalf("remaining = %d, want 1", slots[0].Remaining())
	}
}
