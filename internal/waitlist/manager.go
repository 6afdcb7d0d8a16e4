package waitlist

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"resort-booking-backend/internal/booking"
	"resort-booking-backend/internal/keylock"
	"resort-booking-backend/internal/model"
	"resort-booking-backend/internal/store"
)

// OfferNotifier delivers "your offer is ready" notifications. Satisfied by
// the notification worker pool.
type OfferNotifier interface {
	Dispatch(entryID string)
}

// JoinRequest is the input to Join: the original reservation request plus a
// flexibility window.
type JoinRequest struct {
	TenantID        string
	ResourceType    model.ResourceType
	Start           time.Time
	End             time.Time
	PetIDs          []string
	PartySize       int
	FlexibilityDays int
	PushEndpoint    string
}

// Manager owns the waitlist state machine: waiting -> offered -> converted
// or back to waiting until the entry runs out of offers.
type Manager struct {
	store    store.Store
	planner  *booking.Planner
	workflow *booking.Workflow
	locks    *keylock.Set
	notifier OfferNotifier

	offerWindow   time.Duration
	maxOffers     int
	sweepInterval time.Duration
}

// NewManager creates a waitlist manager. locks must be the set shared with
// the commit workflow so re-evaluation serializes against commits per
// resource.
func NewManager(s store.Store, planner *booking.Planner, workflow *booking.Workflow, locks *keylock.Set,
	offerWindow time.Duration, maxOffers int, sweepInterval time.Duration) *Manager {
	return &Manager{
		store:         s,
		planner:       planner,
		workflow:      workflow,
		locks:         locks,
		offerWindow:   offerWindow,
		maxOffers:     maxOffers,
		sweepInterval: sweepInterval,
	}
}

// SetNotifier wires the offer notifier. Optional; without it offers are
// still made, just not pushed.
func (m *Manager) SetNotifier(n OfferNotifier) {
	m.notifier = n
}

// Join registers a request the planner could not satisfy.
func (m *Manager) Join(ctx context.Context, req JoinRequest) (*model.WaitlistEntry, error) {
	if req.TenantID == "" {
		return nil, &booking.Error{Code: booking.CodeInvalidRequest, Detail: "tenant id is required"}
	}
	if !model.KnownResourceType(req.ResourceType) {
		return nil, &booking.Error{Code: booking.CodeInvalidRequest, Detail: fmt.Sprintf("unknown resource type %q", req.ResourceType)}
	}
	if err := booking.ValidateRange(req.Start, req.End); err != nil {
		return nil, err
	}
	if req.PartySize == 0 {
		req.PartySize = len(req.PetIDs)
	}
	if req.PartySize < 1 {
		return nil, &booking.Error{Code: booking.CodeInvalidRequest, Detail: "party size must be at least 1"}
	}
	if req.FlexibilityDays < 0 {
		return nil, &booking.Error{Code: booking.CodeInvalidRequest, Detail: "flexibility days must not be negative"}
	}

	now := time.Now().UTC()
	entry := &model.WaitlistEntry{
		ID:              uuid.NewString(),
		TenantID:        req.TenantID,
		ResourceType:    req.ResourceType,
		StartAt:         req.Start,
		EndAt:           req.End,
		PetIDs:          req.PetIDs,
		PartySize:       req.PartySize,
		FlexibilityDays: req.FlexibilityDays,
		Status:          model.WaitlistWaiting,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.PushEndpoint != "" {
		endpoint := req.PushEndpoint
		entry.PushEndpoint = &endpoint
	}

	if err := m.store.CreateWaitlistEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Reevaluate is invoked when capacity on a resource is freed over
// [freedStart, freedEnd). It offers the slot to the oldest waiting entry
// whose request intersects the freed window, holding the resource lock so
// two re-evaluations cannot double-offer the same slot.
func (m *Manager) Reevaluate(ctx context.Context, tenantID, resourceID string, freedStart, freedEnd time.Time) error {
	return m.reevaluate(ctx, tenantID, resourceID, freedStart, freedEnd, "")
}

// reevaluate does the FIFO scan. skipEntryID, when non-empty, names an entry
// whose offer just lapsed; it stays in line but must not win this slot again.
func (m *Manager) reevaluate(ctx context.Context, tenantID, resourceID string, freedStart, freedEnd time.Time, skipEntryID string) error {
	release, err := m.locks.Acquire(ctx, tenantID+"/"+resourceID)
	if err != nil {
		return fmt.Errorf("failed to lock resource %s for re-evaluation: %w", resourceID, err)
	}
	defer release()

	res, err := m.store.GetResource(ctx, tenantID, resourceID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	// Only one entry may hold an offer per freed slot; if one exists it
	// keeps priority until it converts or lapses.
	offered, err := m.store.OfferedEntryExists(ctx, tenantID, resourceID, freedStart, freedEnd)
	if err != nil {
		return err
	}
	if offered {
		return nil
	}

	entries, err := m.store.WaitingEntries(ctx, tenantID, booking.ServableTypes(res.Type))
	if err != nil {
		return err
	}

	for i := range entries {
		entry := &entries[i]
		if entry.ID == skipEntryID {
			continue
		}
		if !entryIntersects(entry, freedStart, freedEnd) {
			continue
		}

		result, err := m.planner.FindAvailable(ctx, booking.Request{
			TenantID:   tenantID,
			ResourceID: resourceID,
			Start:      entry.StartAt,
			End:        entry.EndAt,
			PartySize:  entry.PartySize,
		})
		if err != nil {
			return err
		}
		if len(result.Feasible) == 0 {
			// The freed window intersects but the full requested range does
			// not fit; try the next FIFO entry.
			continue
		}

		return m.offer(ctx, entry, resourceID)
	}
	return nil
}

// entryIntersects reports whether the entry's requested window, widened by
// its flexibility, intersects the freed half-open window.
func entryIntersects(e *model.WaitlistEntry, freedStart, freedEnd time.Time) bool {
	flex := time.Duration(e.FlexibilityDays) * 24 * time.Hour
	return e.StartAt.Add(-flex).Before(freedEnd) && e.EndAt.Add(flex).After(freedStart)
}

func (m *Manager) offer(ctx context.Context, entry *model.WaitlistEntry, resourceID string) error {
	now := time.Now().UTC()
	expires := now.Add(m.offerWindow)
	entry.Status = model.WaitlistOffered
	entry.OfferResourceID = &resourceID
	entry.OfferExpiresAt = &expires
	entry.OfferCount++
	entry.UpdatedAt = now

	if err := m.store.SaveWaitlistEntry(ctx, entry); err != nil {
		return err
	}

	log.Printf("waitlist entry %s offered resource %s until %s", entry.ID, resourceID, expires.Format(time.RFC3339))
	if m.notifier != nil {
		m.notifier.Dispatch(entry.ID)
	}
	return nil
}

// ConfirmOffer converts an offered entry into a reservation through the
// commit workflow. The commit uses a key derived from the entry id, so a
// duplicate confirm returns the same reservation.
func (m *Manager) ConfirmOffer(ctx context.Context, tenantID, entryID string) (*model.Reservation, error) {
	entry, err := m.store.GetWaitlistEntry(ctx, tenantID, entryID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &booking.Error{Code: booking.CodeNotFound, Detail: "waitlist entry " + entryID + " not found"}
	}
	if err != nil {
		return nil, err
	}

	if entry.Status != model.WaitlistOffered || entry.OfferResourceID == nil {
		return nil, &booking.Error{
			Code:   booking.CodeInvalidTransition,
			Start:  entry.StartAt,
			End:    entry.EndAt,
			Detail: "waitlist entry has no active offer",
		}
	}
	if entry.OfferExpiresAt != nil && !entry.OfferExpiresAt.After(time.Now().UTC()) {
		return nil, &booking.Error{
			Code:       booking.CodeInvalidTransition,
			ResourceID: *entry.OfferResourceID,
			Start:      entry.StartAt,
			End:        entry.EndAt,
			Detail:     "offer window has elapsed",
		}
	}

	reservation, err := m.workflow.Commit(ctx, booking.CommitRequest{
		TenantID:       tenantID,
		ResourceID:     *entry.OfferResourceID,
		Start:          entry.StartAt,
		End:            entry.EndAt,
		PetIDs:         entry.PetIDs,
		PartySize:      entry.PartySize,
		IdempotencyKey: "waitlist-" + entry.ID,
	})
	if err != nil {
		if booking.IsCode(err, booking.CodeCommitConflict) {
			// The offered slot evaporated under us; put the entry back in
			// line rather than dropping it.
			m.returnToWaiting(ctx, entry)
		}
		return nil, err
	}

	now := time.Now().UTC()
	entry.Status = model.WaitlistConverted
	entry.ReservationID = &reservation.ID
	entry.UpdatedAt = now
	if err := m.store.SaveWaitlistEntry(ctx, entry); err != nil {
		return nil, err
	}
	return reservation, nil
}

func (m *Manager) returnToWaiting(ctx context.Context, entry *model.WaitlistEntry) {
	entry.Status = model.WaitlistWaiting
	entry.OfferResourceID = nil
	entry.OfferExpiresAt = nil
	entry.UpdatedAt = time.Now().UTC()
	if err := m.store.SaveWaitlistEntry(ctx, entry); err != nil {
		log.Printf("failed to return waitlist entry %s to waiting: %v", entry.ID, err)
	}
}

// Run sweeps lapsed offers on an interval until ctx is cancelled. An entry
// whose offer lapses returns to waiting (or expires after maxOffers) and the
// freed slot is re-offered to the next FIFO entry.
func (m *Manager) Run(ctx context.Context) {
	log.Println("Starting waitlist sweeper...")

	timer := time.NewTimer(m.sweepInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Waitlist sweeper shutting down.")
			return
		case <-timer.C:
			m.SweepOnce(ctx)
			timer.Reset(m.sweepInterval)
		}
	}
}

// SweepOnce expires offers whose window has elapsed and re-offers each
// freed slot.
func (m *Manager) SweepOnce(ctx context.Context) {
	now := time.Now().UTC()
	lapsed, err := m.store.LapsedOffers(ctx, now)
	if err != nil {
		log.Printf("waitlist sweep failed: %v", err)
		return
	}

	for i := range lapsed {
		entry := &lapsed[i]
		resourceID := ""
		if entry.OfferResourceID != nil {
			resourceID = *entry.OfferResourceID
		}

		if entry.OfferCount >= m.maxOffers {
			entry.Status = model.WaitlistExpired
		} else {
			entry.Status = model.WaitlistWaiting
		}
		entry.OfferResourceID = nil
		entry.OfferExpiresAt = nil
		entry.UpdatedAt = now
		if err := m.store.SaveWaitlistEntry(ctx, entry); err != nil {
			log.Printf("failed to expire offer on waitlist entry %s: %v", entry.ID, err)
			continue
		}
		log.Printf("waitlist entry %s offer lapsed (offer %d of %d)", entry.ID, entry.OfferCount, m.maxOffers)

		// The lapsed slot is free again; let the next FIFO entry have it.
		// The entry that just let its offer lapse is skipped so it cannot
		// win the same slot straight back.
		if resourceID != "" {
			if err := m.reevaluate(ctx, entry.TenantID, resourceID, entry.StartAt, entry.EndAt, entry.ID); err != nil {
				log.Printf("re-evaluation after lapsed offer on resource %s failed: %v", resourceID, err)
			}
		}
	}
}
