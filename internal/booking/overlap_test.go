package booking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resort-booking-backend/internal/model"
)

func TestValidateRange(t *testing.T) {
	testCases := []struct {
		name      string
		start     time.Time
		end       time.Time
		expectErr bool
	}{
		{name: "Valid range", start: day(0), end: day(1)},
		{name: "Zero-length interval is invalid", start: day(0), end: day(0), expectErr: true},
		{name: "Inverted range", start: day(1), end: day(0), expectErr: true},
		{name: "Missing start", end: day(1), expectErr: true},
		{name: "Missing end", start: day(0), expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateRange(tc.start, tc.end)
			if tc.expectErr {
				assert.True(t, IsCode(err, CodeInvalidRequest))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFindOverlappingHalfOpenSemantics(t *testing.T) {
	s := newTestStore(t)
	d := NewDetector(s)
	ctx := context.Background()

	res := seedResource(t, s, "Suite 1", model.ResourceSuiteStandard, 1)
	booked := seedReservation(t, s, res.ID, day(3), day(5), 1, model.StatusConfirmed)

	testCases := []struct {
		name  string
		start time.Time
		end   time.Time
		hits  int
	}{
		{name: "Ends exactly at existing start does not overlap", start: day(1), end: day(3), hits: 0},
		{name: "Starts exactly at existing end does not overlap", start: day(5), end: day(7), hits: 0},
		{name: "Ends one day into existing overlaps", start: day(2), end: day(4), hits: 1},
		{name: "Starts one day before existing end overlaps", start: day(4), end: day(6), hits: 1},
		{name: "Contained interval overlaps", start: day(3), end: day(4), hits: 1},
		{name: "Containing interval overlaps", start: day(2), end: day(6), hits: 1},
		{name: "Disjoint before", start: day(0), end: day(2), hits: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			overlapping, err := d.FindOverlapping(ctx, testTenant, res.ID, tc.start, tc.end)
			require.NoError(t, err)
			assert.Len(t, overlapping, tc.hits)
			if tc.hits == 1 {
				assert.Equal(t, booked.ID, overlapping[0].ID)
			}
		})
	}
}

func TestFindOverlappingExcludesReleasedStatuses(t *testing.T) {
	s := newTestStore(t)
	d := NewDetector(s)
	ctx := context.Background()

	res := seedResource(t, s, "Suite 1", model.ResourceSuiteStandard, 1)
	seedReservation(t, s, res.ID, day(0), day(2), 1, model.StatusCancelled)
	seedReservation(t, s, res.ID, day(0), day(2), 1, model.StatusNoShow)
	kept := seedReservation(t, s, res.ID, day(0), day(2), 1, model.StatusCheckedIn)

	overlapping, err := d.FindOverlapping(ctx, testTenant, res.ID, day(0), day(2))
	require.NoError(t, err)
	require.Len(t, overlapping, 1)
	assert.Equal(t, kept.ID, overlapping[0].ID)
}

func TestFindOverlappingRejectsZeroLengthInterval(t *testing.T) {
	s := newTestStore(t)
	d := NewDetector(s)

	_, err := d.FindOverlapping(context.Background(), testTenant, "whatever", day(1), day(1))
	assert.True(t, IsCode(err, CodeInvalidRequest))
}

func TestHasCapacityPartySizeUnits(t *testing.T) {
	s := newTestStore(t)
	d := NewDetector(s)
	ctx := context.Background()

	// The Suite-VIP-1 scenario: capacity 3, a party of two already booked.
	res := seedResource(t, s, "Suite-VIP-1", model.ResourceSuiteVIP, 3)
	seedReservation(t, s, res.ID, day(0), day(4), 2, model.StatusConfirmed)

	ok, used, err := d.HasCapacity(ctx, res, day(2), day(3), 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, used)

	ok, used, err = d.HasCapacity(ctx, res, day(2), day(3), 2)
	require.NoError(t, err)
	assert.False(t, ok, "2 booked + party of 2 exceeds capacity 3")
	assert.Equal(t, 2, used)

	// A window after checkout day is unconstrained.
	ok, used, err = d.HasCapacity(ctx, res, day(4), day(6), 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, used)
}

func TestHasCapacityBlackoutCountsAsFull(t *testing.T) {
	s := newTestStore(t)
	d := NewDetector(s)
	ctx := context.Background()

	res := seedResource(t, s, "Suite 2", model.ResourceSuiteStandard, 2)
	require.NoError(t, s.CreateBlackout(ctx, &model.MaintenanceBlackout{
		ID:         uuid.NewString(),
		TenantID:   testTenant,
		ResourceID: res.ID,
		StartAt:    day(2),
		EndAt:      day(4),
		Reason:     "deep clean",
		CreatedAt:  time.Now().UTC(),
	}))

	ok, used, err := d.HasCapacity(ctx, res, day(3), day(5), 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, res.Capacity, used)

	// Blackout boundaries are half-open too.
	ok, _, err = d.HasCapacity(ctx, res, day(4), day(6), 1)
	require.NoError(t, err)
	assert.True(t, ok)
}
