package booking

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"resort-booking-backend/internal/keylock"
	"resort-booking-backend/internal/model"
	"resort-booking-backend/internal/store"
)

// FreedHook is invoked after a capacity-holding reservation is released
// (cancel or no-show) so the waitlist can re-evaluate the freed window.
// Implementations must serialize per resource themselves.
type FreedHook func(tenantID, resourceID string, start, end time.Time)

// CommitRequest is the input to Commit: the chosen resource plus the
// validated request snapshot.
type CommitRequest struct {
	TenantID       string
	ResourceID     string
	Start          time.Time
	End            time.Time
	PetIDs         []string
	PartySize      int
	IdempotencyKey string
}

// Workflow is the only path that may create or confirm reservations. It
// serializes commits per resource with a keyed lock and re-validates the
// capacity invariant inside a transaction, closing the race between the
// planner's advisory read and the write.
type Workflow struct {
	store       store.Store
	locks       *keylock.Set
	lockTimeout time.Duration
	// idem is a fast path mapping tenant/key to a reservation id so client
	// retries of a finished commit skip the lock entirely. The unique
	// column on reservations remains the durable guard.
	idem *gocache.Cache

	// OnFreed, when set, is called (fire-and-forget) whenever a cancel or
	// no-show releases capacity.
	OnFreed FreedHook
}

// NewWorkflow creates a commit workflow. locks must be the same set the
// waitlist manager uses so re-evaluation and commits for one resource never
// interleave.
func NewWorkflow(s store.Store, locks *keylock.Set, lockTimeout time.Duration) *Workflow {
	return &Workflow{
		store:       s,
		locks:       locks,
		lockTimeout: lockTimeout,
		idem:        gocache.New(time.Hour, 10*time.Minute),
	}
}

func lockKey(tenantID, resourceID string) string {
	return tenantID + "/" + resourceID
}

// Commit re-checks capacity under the resource lock and writes the
// reservation with status confirmed. Losing the race returns a
// CodeCommitConflict error; lock contention beyond the configured timeout
// returns CodeLockTimeout instead, which is retriable.
func (w *Workflow) Commit(ctx context.Context, req CommitRequest) (*model.Reservation, error) {
	if req.TenantID == "" {
		return nil, invalidRequestf("tenant id is required")
	}
	if req.ResourceID == "" {
		return nil, invalidRequestf("resource id is required")
	}
	if err := ValidateRange(req.Start, req.End); err != nil {
		return nil, err
	}
	if req.PartySize == 0 {
		req.PartySize = len(req.PetIDs)
	}
	if req.PartySize < 1 {
		return nil, invalidRequestf("party size must be at least 1")
	}

	// Fast path for client retries of an already-finished commit.
	if req.IdempotencyKey != "" {
		if id, found := w.idem.Get(idemCacheKey(req.TenantID, req.IdempotencyKey)); found {
			return w.store.GetReservation(ctx, req.TenantID, id.(string))
		}
	}

	lockCtx, cancel := context.WithTimeout(ctx, w.lockTimeout)
	defer cancel()
	release, err := w.locks.Acquire(lockCtx, lockKey(req.TenantID, req.ResourceID))
	if err != nil {
		return nil, &Error{
			Code:       CodeLockTimeout,
			ResourceID: req.ResourceID,
			Start:      req.Start,
			End:        req.End,
			Detail:     "timed out waiting for resource lock",
		}
	}
	defer release()

	var reservation *model.Reservation
	err = w.store.Transaction(ctx, func(tx store.Store) error {
		if req.IdempotencyKey != "" {
			existing, err := tx.GetReservationByIdempotencyKey(ctx, req.TenantID, req.IdempotencyKey)
			if err == nil {
				reservation = existing
				return nil
			}
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}
		}

		res, err := tx.GetResource(ctx, req.TenantID, req.ResourceID)
		if errors.Is(err, store.ErrNotFound) {
			return &Error{Code: CodeNotFound, ResourceID: req.ResourceID, Detail: "resource not found"}
		}
		if err != nil {
			return err
		}
		if !res.Active {
			return &Error{
				Code:       CodeCommitConflict,
				ResourceID: req.ResourceID,
				Start:      req.Start,
				End:        req.End,
				Detail:     "resource is no longer active",
			}
		}

		ok, _, err := NewDetector(tx).HasCapacity(ctx, res, req.Start, req.End, req.PartySize)
		if err != nil {
			return err
		}
		if !ok {
			return &Error{
				Code:       CodeCommitConflict,
				ResourceID: req.ResourceID,
				Start:      req.Start,
				End:        req.End,
				Detail:     "capacity consumed by a concurrent commit",
			}
		}

		now := time.Now().UTC()
		r := &model.Reservation{
			ID:         uuid.NewString(),
			TenantID:   req.TenantID,
			ResourceID: &req.ResourceID,
			PetIDs:     req.PetIDs,
			PartySize:  req.PartySize,
			StartAt:    req.Start,
			EndAt:      req.End,
			Status:     model.StatusConfirmed,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if req.IdempotencyKey != "" {
			key := req.IdempotencyKey
			r.IdempotencyKey = &key
		}
		if err := tx.CreateReservation(ctx, r); err != nil {
			return err
		}
		reservation = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" {
		w.idem.SetDefault(idemCacheKey(req.TenantID, req.IdempotencyKey), reservation.ID)
	}
	return reservation, nil
}

func idemCacheKey(tenantID, key string) string {
	return tenantID + "/" + key
}

// Cancel sets the reservation cancelled and triggers an asynchronous
// waitlist re-evaluation for the freed window. Cancelling an already
// cancelled reservation is a no-op success.
func (w *Workflow) Cancel(ctx context.Context, tenantID, reservationID string) (*model.Reservation, error) {
	r, err := w.getReservation(ctx, tenantID, reservationID)
	if err != nil {
		return nil, err
	}

	if r.Status == model.StatusCancelled {
		return r, nil
	}
	// Cancellation is allowed at any point before check-out.
	if r.Status == model.StatusCheckedOut || r.Status == model.StatusCompleted {
		return nil, transitionError(r, model.StatusCancelled)
	}

	freed := r.Status.Occupies()
	r.Status = model.StatusCancelled
	r.UpdatedAt = time.Now().UTC()
	if err := w.store.SaveReservation(ctx, r); err != nil {
		return nil, err
	}

	if freed {
		w.notifyFreed(r)
	}
	return r, nil
}

// CheckIn transitions a confirmed reservation to checked-in.
func (w *Workflow) CheckIn(ctx context.Context, tenantID, reservationID string) (*model.Reservation, error) {
	return w.transition(ctx, tenantID, reservationID, model.StatusConfirmed, model.StatusCheckedIn)
}

// CheckOut transitions a checked-in reservation to checked-out.
func (w *Workflow) CheckOut(ctx context.Context, tenantID, reservationID string) (*model.Reservation, error) {
	return w.transition(ctx, tenantID, reservationID, model.StatusCheckedIn, model.StatusCheckedOut)
}

// Complete transitions a checked-out reservation to completed.
func (w *Workflow) Complete(ctx context.Context, tenantID, reservationID string) (*model.Reservation, error) {
	return w.transition(ctx, tenantID, reservationID, model.StatusCheckedOut, model.StatusCompleted)
}

// NoShow marks a confirmed reservation as a no-show, which frees its
// capacity like a cancellation does.
func (w *Workflow) NoShow(ctx context.Context, tenantID, reservationID string) (*model.Reservation, error) {
	r, err := w.transition(ctx, tenantID, reservationID, model.StatusConfirmed, model.StatusNoShow)
	if err != nil {
		return nil, err
	}
	w.notifyFreed(r)
	return r, nil
}

func (w *Workflow) transition(ctx context.Context, tenantID, reservationID string, from, to model.ReservationStatus) (*model.Reservation, error) {
	r, err := w.getReservation(ctx, tenantID, reservationID)
	if err != nil {
		return nil, err
	}
	if r.Status != from {
		return nil, transitionError(r, to)
	}
	r.Status = to
	r.UpdatedAt = time.Now().UTC()
	if err := w.store.SaveReservation(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (w *Workflow) getReservation(ctx context.Context, tenantID, reservationID string) (*model.Reservation, error) {
	r, err := w.store.GetReservation(ctx, tenantID, reservationID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &Error{Code: CodeNotFound, Detail: "reservation " + reservationID + " not found"}
	}
	return r, err
}

func transitionError(r *model.Reservation, to model.ReservationStatus) *Error {
	e := &Error{
		Code:   CodeInvalidTransition,
		Start:  r.StartAt,
		End:    r.EndAt,
		Detail: string(r.Status) + " -> " + string(to) + " is not a valid transition",
	}
	if r.ResourceID != nil {
		e.ResourceID = *r.ResourceID
	}
	return e
}

func (w *Workflow) notifyFreed(r *model.Reservation) {
	if w.OnFreed == nil || r.ResourceID == nil {
		return
	}
	resourceID := *r.ResourceID
	go func() {
		defer func() {
			if p := recover(); p != nil {
				log.Printf("freed-capacity hook panicked for resource %s: %v", resourceID, p)
			}
		}()
		w.OnFreed(r.TenantID, resourceID, r.StartAt, r.EndAt)
	}()
}
