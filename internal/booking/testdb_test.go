package booking

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"resort-booking-backend/internal/model"
	"resort-booking-backend/internal/parse"
	"resort-booking-backend/internal/store"
)

const testTenant = "tenant-1"

// newTestStore opens an isolated in-memory SQLite database and migrates the
// schema. The database is named after the test so parallel tests do not
// share state.
func newTestStore(t *testing.T) store.Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps the shared-cache database alive for the
	// duration of the test.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.Resource{},
		&model.MaintenanceBlackout{},
		&model.Reservation{},
		&model.WaitlistEntry{},
		&model.PushSubscription{},
	))

	return store.NewGormStore(db)
}

func seedResource(t *testing.T, s store.Store, name string, rtype model.ResourceType, capacity int) *model.Resource {
	t.Helper()

	now := time.Now().UTC()
	r := &model.Resource{
		ID:        uuid.NewString(),
		TenantID:  testTenant,
		Name:      name,
		Type:      rtype,
		Capacity:  capacity,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if parsed, err := parse.ParseName(name); err == nil {
		r.Kind = parsed.Kind
		r.Seq = parsed.Seq
	}
	require.NoError(t, s.CreateResource(context.Background(), r))
	return r
}

func seedReservation(t *testing.T, s store.Store, resourceID string, start, end time.Time, partySize int, status model.ReservationStatus) *model.Reservation {
	t.Helper()

	now := time.Now().UTC()
	r := &model.Reservation{
		ID:         uuid.NewString(),
		TenantID:   testTenant,
		ResourceID: &resourceID,
		PartySize:  partySize,
		StartAt:    start,
		EndAt:      end,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, s.CreateReservation(context.Background(), r))
	return r
}

// day returns an absolute timestamp n days after a fixed base date, so test
// intervals read as calendar days.
func day(n int) time.Time {
	base := time.Date(2025, time.November, 1, 12, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, n)
}
