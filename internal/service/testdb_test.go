package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/model"
)

// newTestDB opens an in-memory sqlite DB with a hand-written schema.
// AutoMigrate is not usable here: the models carry Postgres defaults
// (gen_random_uuid, now) that sqlite cannot parse, so IDs are always
// set explicitly in tests.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	schema := []string{
		`CREATE TABLE tenants (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			active BOOLEAN NOT NULL DEFAULT 1,
			branding TEXT,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE users (
			id TEXT PRIMARY KEY,
			line_user_id TEXT NOT NULL UNIQUE,
			display_name TEXT,
			avatar_url TEXT,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE memberships (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'customer',
			real_name TEXT,
			phone TEXT,
			registered BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME,
			UNIQUE (tenant_id, user_id)
		);`,
		`CREATE TABLE offerings (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT,
			duration_min INTEGER NOT NULL,
			price_cents INTEGER NOT NULL DEFAULT 0,
			active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE providers (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			display_name TEXT NOT NULL,
			description TEXT,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE schedules (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			provider_id TEXT NOT NULL,
			start_date DATE,
			end_date DATE,
			time_zone TEXT NOT NULL DEFAULT 'UTC',
			rules TEXT,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE time_slots (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			provider_id TEXT NOT NULL,
			schedule_id TEXT,
			starts_at DATETIME NOT NULL,
			ends_at DATETIME NOT NULL,
			capacity INTEGER NOT NULL DEFAULT 1,
			booked INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'available',
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE reservations (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			offering_id TEXT NOT NULL,
			provider_id TEXT NOT NULL,
			slot_id TEXT NOT NULL,
			starts_at DATETIME NOT NULL,
			ends_at DATETIME NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			cancelled_at DATETIME,
			comment TEXT,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE events (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			created_at DATETIME,
			user_id TEXT,
			reservation_id TEXT,
			details TEXT
		);`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	return db
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}

// Seed helpers. IDs are always explicit: sqlite has no uuid default.

func seedTenant(t *testing.T, db *gorm.DB, active bool) *model.Tenant {
	t.Helper()
	tenant := &model.Tenant{
		ID:     uuid.New(),
		Name:   "Test Clinic",
		Slug:   "clinic-" + uuid.New().String()[:8],
		Active: active,
	}
	if err := db.Create(tenant).Error; err != nil {
		t.Fatalf("seed tenant: %v", err)
	}
	// gorm substitutes the tag default (true) for a zero-valued Active on
	// insert, so an inactive tenant must be downgraded explicitly.
	if !active {
		if err := db.Model(tenant).UpdateColumn("active", false).Error; err != nil {
			t.Fatalf("seed tenant active flag: %v", err)
		}
	}
	return tenant
}

func seedRegisteredMember(t *testing.T, db *gorm.DB, tenantID uuid.UUID, lineUserID string, role model.MembershipRole) (*model.User, *model.Membership) {
	t.Helper()
	user := &model.User{
		ID:          uuid.New(),
		LineUserID:  lineUserID,
		DisplayName: "member " + lineUserID,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	m := &model.Membership{
		ID:         uuid.New(),
		TenantID:   tenantID,
		UserID:     user.ID,
		Role:       role,
		RealName:   "Real " + lineUserID,
		Phone:      "+8190000000",
		Registered: true,
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("seed membership: %v", err)
	}
	return user, m
}

func seedOffering(t *testing.T, db *gorm.DB, tenantID uuid.UUID, durationMin int64, active bool) *model.Offering {
	t.Helper()
	o := &model.Offering{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Name:        "Checkup",
		DurationMin: durationMin,
		Active:      active,
	}
	if err := db.Create(o).Error; err != nil {
		t.Fatalf("seed offering: %v", err)
	}
	if !active {
		if err := db.Model(o).UpdateColumn("active", false).Error; err != nil {
			t.Fatalf("seed offering active flag: %v", err)
		}
	}
	return o
}

func seedProvider(t *testing.T, db *gorm.DB, tenantID uuid.UUID) *model.Provider {
	t.Helper()
	p := &model.Provider{
		ID:          uuid.New(),
		TenantID:    tenantID,
		DisplayName: "Dr. Test",
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed provider: %v", err)
	}
	return p
}

func seedSlot(t *testing.T, db *gorm.DB, tenantID, providerID uuid.UUID, startsAt time.Time, dur time.Duration, capacity, booked int, status model.TimeSlotStatus) *model.TimeSlot {
	t.Helper()
	s := &model.TimeSlot{
		ID:         uuid.New(),
		TenantID:   tenantID,
		ProviderID: providerID,
		StartsAt:   startsAt,
		EndsAt:     startsAt.Add(dur),
		Capacity:   capacity,
		Booked:     booked,
		Status:     status,
	}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("seed slot: %v", err)
	}
	return s
}
