package booking

import (
	"context"
	"time"

	"resort-booking-backend/internal/model"
	"resort-booking-backend/internal/store"
)

// Detector answers overlap and capacity questions for a single resource.
// Capacity is counted in party-size units: a suite with capacity 3 can hold
// one party of two plus one party of one, but not two parties of two.
type Detector struct {
	store store.Store
}

// NewDetector creates a detector over the given store. The commit workflow
// constructs short-lived detectors over transactional stores to re-check
// capacity atomically.
func NewDetector(s store.Store) *Detector {
	return &Detector{store: s}
}

// ValidateRange rejects malformed intervals. A zero-length interval is
// invalid input, not a trivially non-overlapping one.
func ValidateRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return invalidRequestf("start and end are required")
	}
	if !start.Before(end) {
		e := invalidRequestf("start must be before end")
		e.Start, e.End = start, end
		return e
	}
	return nil
}

// FindOverlapping returns all capacity-relevant reservations on the resource
// intersecting [start, end). Intervals are half-open: a reservation ending
// exactly when another starts does not overlap it. Cancelled and no-show
// reservations are excluded.
func (d *Detector) FindOverlapping(ctx context.Context, tenantID, resourceID string, start, end time.Time) ([]model.Reservation, error) {
	if err := ValidateRange(start, end); err != nil {
		return nil, err
	}
	return d.store.OverlappingReservations(ctx, tenantID, resourceID, start, end)
}

// HasCapacity reports whether the resource can take partySize more pets over
// [start, end). It also returns the current utilization (party-size units
// already booked over the window) for ranking and display. A maintenance
// blackout intersecting the window counts as full occupancy.
func (d *Detector) HasCapacity(ctx context.Context, res *model.Resource, start, end time.Time, partySize int) (bool, int, error) {
	if err := ValidateRange(start, end); err != nil {
		return false, 0, err
	}
	if partySize < 1 {
		return false, 0, invalidRequestf("party size must be at least 1")
	}

	blackouts, err := d.store.BlackoutsInRange(ctx, res.TenantID, res.ID, start, end)
	if err != nil {
		return false, 0, err
	}
	if len(blackouts) > 0 {
		return false, res.Capacity, nil
	}

	overlapping, err := d.store.OverlappingReservations(ctx, res.TenantID, res.ID, start, end)
	if err != nil {
		return false, 0, err
	}

	used := 0
	for _, r := range overlapping {
		used += r.PartySize
	}
	return used+partySize <= res.Capacity, used, nil
}
