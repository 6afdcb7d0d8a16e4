package waitlist

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"resort-booking-backend/internal/booking"
	"resort-booking-backend/internal/keylock"
	"resort-booking-backend/internal/model"
	"resort-booking-backend/internal/store"
)

const testTenant = "tenant-1"

type fixture struct {
	store    store.Store
	workflow *booking.Workflow
	manager  *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.Resource{},
		&model.MaintenanceBlackout{},
		&model.Reservation{},
		&model.WaitlistEntry{},
		&model.PushSubscription{},
	))

	s := store.NewGormStore(db)
	locks := keylock.New()
	planner := booking.NewPlanner(s)
	workflow := booking.NewWorkflow(s, locks, 2*time.Second)
	manager := NewManager(s, planner, workflow, locks, 24*time.Hour, 2, time.Minute)
	return &fixture{store: s, workflow: workflow, manager: manager}
}

func (f *fixture) seedResource(t *testing.T, name string, rtype model.ResourceType, capacity int) *model.Resource {
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
	require.NoError(t, f.store.CreateResource(context.Background(), r))
	return r
}

func day(n int) time.Time {
	base := time.Date(2025, time.November, 1, 12, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, n)
}

func (f *fixture) join(t *testing.T, rtype model.ResourceType, start, end time.Time, partySize int) *model.WaitlistEntry {
	t.Helper()
	entry, err := f.manager.Join(context.Background(), JoinRequest{
		TenantID:     testTenant,
		ResourceType: rtype,
		Start:        start,
		End:          end,
		PartySize:    partySize,
	})
	require.NoError(t, err)
	// Entry creation order is the FIFO order; space the timestamps out so
	// the ordering is unambiguous even at coarse clock resolution.
	entry.CreatedAt = entry.CreatedAt.Add(time.Duration(entrySeq) * time.Millisecond)
	entrySeq++
	require.NoError(t, f.store.SaveWaitlistEntry(context.Background(), entry))
	return entry
}

var entrySeq int

func TestJoinValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.manager.Join(ctx, JoinRequest{TenantID: testTenant, ResourceType: "penthouse", Start: day(0), End: day(1), PartySize: 1})
	assert.True(t, booking.IsCode(err, booking.CodeInvalidRequest))

	_, err = f.manager.Join(ctx, JoinRequest{TenantID: testTenant, ResourceType: model.ResourceSuiteVIP, Start: day(1), End: day(1), PartySize: 1})
	assert.True(t, booking.IsCode(err, booking.CodeInvalidRequest))

	entry, err := f.manager.Join(ctx, JoinRequest{TenantID: testTenant, ResourceType: model.ResourceSuiteVIP, Start: day(0), End: day(1), PetIDs: []string{"pet-a"}})
	require.NoError(t, err)
	assert.Equal(t, model.WaitlistWaiting, entry.Status)
	assert.Equal(t, 1, entry.PartySize)
}

func TestReevaluateOffersOldestEntryFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.seedResource(t, "Suite-VIP-1", model.ResourceSuiteVIP, 2)

	// Fill the suite, then queue three entries for the same window.
	booked, err := f.workflow.Commit(ctx, booking.CommitRequest{
		TenantID:   testTenant,
		ResourceID: res.ID,
		Start:      day(2),
		End:        day(4),
		PetIDs:     []string{"pet-a", "pet-b"},
	})
	require.NoError(t, err)

	first := f.join(t, model.ResourceSuiteVIP, day(2), day(4), 2)
	second := f.join(t, model.ResourceSuiteVIP, day(2), day(4), 2)
	third := f.join(t, model.ResourceSuiteVIP, day(2), day(4), 2)

	_, err = f.workflow.Cancel(ctx, testTenant, booked.ID)
	require.NoError(t, err)
	require.NoError(t, f.manager.Reevaluate(ctx, testTenant, res.ID, day(2), day(4)))

	got, err := f.store.GetWaitlistEntry(ctx, testTenant, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.WaitlistOffered, got.Status, "oldest entry is offered")
	require.NotNil(t, got.OfferResourceID)
	assert.Equal(t, res.ID, *got.OfferResourceID)

	for _, other := range []*model.WaitlistEntry{second, third} {
		got, err := f.store.GetWaitlistEntry(ctx, testTenant, other.ID)
		require.NoError(t, err)
		assert.Equal(t, model.WaitlistWaiting, got.Status, "younger entries stay waiting")
	}

	// A second re-evaluation must not double-offer the same freed slot.
	require.NoError(t, f.manager.Reevaluate(ctx, testTenant, res.ID, day(2), day(4)))
	got, err = f.store.GetWaitlistEntry(ctx, testTenant, second.ID)
	require.NoError(t, err)
	assert.Equal(t, model.WaitlistWaiting, got.Status)
}

func TestReevaluateSkipsNonIntersectingEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.seedResource(t, "Suite 1", model.ResourceSuiteStandard, 1)

	distant := f.join(t, model.ResourceSuiteStandard, day(30), day(32), 1)
	matching := f.join(t, model.ResourceSuiteStandard, day(1), day(3), 1)

	require.NoError(t, f.manager.Reevaluate(ctx, testTenant, res.ID, day(1), day(3)))

	got, err := f.store.GetWaitlistEntry(ctx, testTenant, distant.ID)
	require.NoError(t, err)
	assert.Equal(t, model.WaitlistWaiting, got.Status)

	got, err = f.store.GetWaitlistEntry(ctx, testTenant, matching.ID)
	require.NoError(t, err)
	assert.Equal(t, model.WaitlistOffered, got.Status)
}

func TestFlexibilityWidensMatching(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.seedResource(t, "Suite 1", model.ResourceSuiteStandard, 1)

	entry, err := f.manager.Join(ctx, JoinRequest{
		TenantID:        testTenant,
		ResourceType:    model.ResourceSuiteStandard,
		Start:           day(10),
		End:             day(12),
		PartySize:       1,
		FlexibilityDays: 3,
	})
	require.NoError(t, err)

	// Freed window ends two days before the requested start; only the
	// flexibility window makes it eligible.
	require.NoError(t, f.manager.Reevaluate(ctx, testTenant, res.ID, day(6), day(8)))

	got, err := f.store.GetWaitlistEntry(ctx, testTenant, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.WaitlistOffered, got.Status)
}

func TestConfirmOfferConvertsEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.seedResource(t, "Suite 1", model.ResourceSuiteStandard, 1)
	entry := f.join(t, model.ResourceSuiteStandard, day(1), day(3), 1)

	require.NoError(t, f.manager.Reevaluate(ctx, testTenant, res.ID, day(1), day(3)))

	reservation, err := f.manager.ConfirmOffer(ctx, testTenant, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, reservation.Status)

	got, err := f.store.GetWaitlistEntry(ctx, testTenant, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.WaitlistConverted, got.Status)
	require.NotNil(t, got.ReservationID)
	assert.Equal(t, reservation.ID, *got.ReservationID)

	// The entry no longer holds an active offer once converted.
	_, err = f.manager.ConfirmOffer(ctx, testTenant, entry.ID)
	assert.True(t, booking.IsCode(err, booking.CodeInvalidTransition), "no active offer after conversion")
}

func TestConfirmWithoutOfferIsRejected(t *testing.T) {
	f := newFixture(t)
	entry := f.join(t, model.ResourceSuiteStandard, day(1), day(3), 1)

	_, err := f.manager.ConfirmOffer(context.Background(), testTenant, entry.ID)
	assert.True(t, booking.IsCode(err, booking.CodeInvalidTransition))
}

func TestSweepLapsedOfferPromotesNextEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.seedResource(t, "Suite 1", model.ResourceSuiteStandard, 1)
	first := f.join(t, model.ResourceSuiteStandard, day(1), day(3), 1)
	second := f.join(t, model.ResourceSuiteStandard, day(1), day(3), 1)

	require.NoError(t, f.manager.Reevaluate(ctx, testTenant, res.ID, day(1), day(3)))

	// Force the first entry's offer window into the past.
	got, err := f.store.GetWaitlistEntry(ctx, testTenant, first.ID)
	require.NoError(t, err)
	require.Equal(t, model.WaitlistOffered, got.Status)
	lapsed := time.Now().UTC().Add(-time.Minute)
	got.OfferExpiresAt = &lapsed
	require.NoError(t, f.store.SaveWaitlistEntry(ctx, got))

	f.manager.SweepOnce(ctx)

	got, err = f.store.GetWaitlistEntry(ctx, testTenant, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.WaitlistWaiting, got.Status, "entry returns to waiting after its first lapsed offer")
	assert.Equal(t, 1, got.OfferCount)

	got, err = f.store.GetWaitlistEntry(ctx, testTenant, second.ID)
	require.NoError(t, err)
	assert.Equal(t, model.WaitlistOffered, got.Status, "next FIFO entry gets the slot")
}

func TestSweepExpiresEntryAfterMaxOffers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.seedResource(t, "Suite 1", model.ResourceSuiteStandard, 1)
	entry := f.join(t, model.ResourceSuiteStandard, day(1), day(3), 1)

	// Burn through the allowed offers (maxOffers is 2 in the fixture).
	for i := 0; i < 2; i++ {
		require.NoError(t, f.manager.Reevaluate(ctx, testTenant, res.ID, day(1), day(3)))
		got, err := f.store.GetWaitlistEntry(ctx, testTenant, entry.ID)
		require.NoError(t, err)
		require.Equal(t, model.WaitlistOffered, got.Status)
		lapsed := time.Now().UTC().Add(-time.Minute)
		got.OfferExpiresAt = &lapsed
		require.NoError(t, f.store.SaveWaitlistEntry(ctx, got))
		f.manager.SweepOnce(ctx)
	}

	got, err := f.store.GetWaitlistEntry(ctx, testTenant, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.WaitlistExpired, got.Status)
	assert.Equal(t, 2, got.OfferCount)
}

type recordingNotifier struct {
	mu  sync.Mutex
	ids []string
}

func (n *recordingNotifier) Dispatch(entryID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ids = append(n.ids, entryID)
}

func TestOfferDispatchesNotification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	notifier := &recordingNotifier{}
	f.manager.SetNotifier(notifier)

	res := f.seedResource(t, "Suite 1", model.ResourceSuiteStandard, 1)
	entry := f.join(t, model.ResourceSuiteStandard, day(1), day(3), 1)

	require.NoError(t, f.manager.Reevaluate(ctx, testTenant, res.ID, day(1), day(3)))

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	assert.Equal(t, []string{entry.ID}, notifier.ids)
}
