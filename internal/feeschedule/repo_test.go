package feeschedule

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Nooxeel/zetta-backend/pkg/db/models"
	"github.com/Nooxeel/zetta-backend/pkg/enums"
)

func newScheduleDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:feeschedule_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	ddl := `CREATE TABLE fee_schedules (
		id text PRIMARY KEY,
		standard_fee_bps integer NOT NULL,
		vip_fee_bps integer NOT NULL,
		hold_days integer NOT NULL,
		min_payout_amount integer NOT NULL,
		payout_frequency text NOT NULL,
		effective_from datetime NOT NULL,
		effective_until datetime,
		created_at datetime
	)`
	if err := conn.Exec(ddl).Error; err != nil {
		t.Fatalf("failed to create fee_schedules: %v", err)
	}
	return conn
}

func insertSchedule(t *testing.T, db *gorm.DB, standardBps int64, effectiveFrom, createdAt time.Time, effectiveUntil *time.Time) {
	t.Helper()
	schedule := models.FeeSchedule{
		ID:              uuid.New(),
		StandardFeeBps:  standardBps,
		VIPFeeBps:       700,
		HoldDays:        7,
		MinPayoutAmount: 10000,
		PayoutFrequency: enums.FrequencyWeekly,
		EffectiveFrom:   effectiveFrom,
		EffectiveUntil:  effectiveUntil,
		CreatedAt:       createdAt,
	}
	if err := db.Create(&schedule).Error; err != nil {
		t.Fatalf("failed to insert schedule: %v", err)
	}
}

func TestActiveAtBackdatedCorrectionWins(t *testing.T) {
	db := newScheduleDB(t)
	repo := NewRepository(db)

	feb1 := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	jan1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	feb15 := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)

	insertSchedule(t, db, 1000, feb1, feb1, nil)
	// Correction appended later with a backdated start.
	insertSchedule(t, db, 1500, jan1, feb15, nil)

	active, err := repo.ActiveAt(context.Background(), time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ActiveAt error: %v", err)
	}
	if active == nil {
		t.Fatalf("expected an active schedule")
	}
	if active.StandardFeeBps != 1500 {
		t.Fatalf("expected the later-created correction to win, got standard=%d", active.StandardFeeBps)
	}
}

func TestActiveAtSkipsExpiredAndFuture(t *testing.T) {
	db := newScheduleDB(t)
	repo := NewRepository(db)

	jan1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	feb1 := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	apr1 := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	// Expired before asOf, latest creation.
	insertSchedule(t, db, 2000, jan1, apr1, &feb1)
	// Not yet effective.
	insertSchedule(t, db, 1800, apr1, feb1, nil)
	// The only row covering asOf.
	insertSchedule(t, db, 1200, jan1, jan1, nil)

	active, err := repo.ActiveAt(context.Background(), time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ActiveAt error: %v", err)
	}
	if active == nil || active.StandardFeeBps != 1200 {
		t.Fatalf("expected the covering schedule, got %+v", active)
	}
}

func TestActiveAtNoneConfigured(t *testing.T) {
	repo := NewRepository(newScheduleDB(t))

	active, err := repo.ActiveAt(context.Background(), time.Now().UTC())
	if err != nil {
		t.Fatalf("ActiveAt error: %v", err)
	}
	if active != nil {
		t.Fatalf("expected nil schedule, got %+v", active)
	}
}
