package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"resort-booking-backend/internal/model"
)

// ErrNotFound is returned when a requested row does not exist for the tenant.
var ErrNotFound = errors.New("record not found")

// ReservationQuery narrows a reservation listing.
type ReservationQuery struct {
	ResourceID string
	From       time.Time
	To         time.Time
}

// Store defines the interface for all database operations. Every method
// takes the tenant id explicitly; there is no ambient tenant state.
type Store interface {
	DB() *gorm.DB
	// Transaction runs fn against a transactional view of the store. The
	// commit workflow uses it to make its check-then-write atomic.
	Transaction(ctx context.Context, fn func(Store) error) error

	CreateResource(ctx context.Context, r *model.Resource) error
	GetResource(ctx context.Context, tenantID, id string) (*model.Resource, error)
	ListResources(ctx context.Context, tenantID string, types ...model.ResourceType) ([]model.Resource, error)
	SetResourceActive(ctx context.Context, tenantID, id string, active bool) error
	CreateBlackout(ctx context.Context, b *model.MaintenanceBlackout) error
	BlackoutsInRange(ctx context.Context, tenantID, resourceID string, start, end time.Time) ([]model.MaintenanceBlackout, error)

	CreateReservation(ctx context.Context, r *model.Reservation) error
	SaveReservation(ctx context.Context, r *model.Reservation) error
	GetReservation(ctx context.Context, tenantID, id string) (*model.Reservation, error)
	GetReservationByIdempotencyKey(ctx context.Context, tenantID, key string) (*model.Reservation, error)
	ListReservations(ctx context.Context, tenantID string, q ReservationQuery) ([]model.Reservation, error)
	// OverlappingReservations returns reservations on the resource whose
	// half-open [start_at, end_at) interval intersects [start, end) and
	// whose status counts against capacity.
	OverlappingReservations(ctx context.Context, tenantID, resourceID string, start, end time.Time) ([]model.Reservation, error)

	CreateWaitlistEntry(ctx context.Context, e *model.WaitlistEntry) error
	SaveWaitlistEntry(ctx context.Context, e *model.WaitlistEntry) error
	GetWaitlistEntry(ctx context.Context, tenantID, id string) (*model.WaitlistEntry, error)
	// WaitingEntries returns still-waiting entries for the tenant whose
	// requested type is one of types, oldest first (FIFO fairness).
	WaitingEntries(ctx context.Context, tenantID string, types []model.ResourceType) ([]model.WaitlistEntry, error)
	// OfferedEntryExists reports whether some entry already holds an offer
	// on the resource intersecting [start, end).
	OfferedEntryExists(ctx context.Context, tenantID, resourceID string, start, end time.Time) (bool, error)
	// LapsedOffers returns offered entries whose offer window ended at or
	// before now.
	LapsedOffers(ctx context.Context, now time.Time) ([]model.WaitlistEntry, error)

	UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error
	GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) Transaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// --- Resources ---

func (s *gormStore) CreateResource(ctx context.Context, r *model.Resource) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("failed to create resource %q: %w", r.Name, err)
	}
	return nil
}

func (s *gormStore) GetResource(ctx context.Context, tenantID, id string) (*model.Resource, error) {
	var r model.Resource
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch resource %s: %w", id, err)
	}
	return &r, nil
}

func (s *gormStore) ListResources(ctx context.Context, tenantID string, types ...model.ResourceType) ([]model.Resource, error) {
	q := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if len(types) > 0 {
		q = q.Where("type IN ?", types)
	}
	var resources []model.Resource
	// Deterministic catalog order: parsed kind, unit number, then name and
	// id as final tie-breaks.
	if err := q.Order("kind, seq, name, id").Find(&resources).Error; err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	return resources, nil
}

func (s *gormStore) SetResourceActive(ctx context.Context, tenantID, id string, active bool) error {
	res := s.db.WithContext(ctx).
		Model(&model.Resource{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Update("active", active)
	if res.Error != nil {
		return fmt.Errorf("failed to update resource %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) CreateBlackout(ctx context.Context, b *model.MaintenanceBlackout) error {
	if err := s.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("failed to create blackout for resource %s: %w", b.ResourceID, err)
	}
	return nil
}

func (s *gormStore) BlackoutsInRange(ctx context.Context, tenantID, resourceID string, start, end time.Time) ([]model.MaintenanceBlackout, error) {
	var blackouts []model.MaintenanceBlackout
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND resource_id = ? AND start_at < ? AND end_at > ?",
			tenantID, resourceID, end, start).
		Find(&blackouts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch blackouts for resource %s: %w", resourceID, err)
	}
	return blackouts, nil
}

// --- Reservations ---

func (s *gormStore) CreateReservation(ctx context.Context, r *model.Reservation) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}
	return nil
}

func (s *gormStore) SaveReservation(ctx context.Context, r *model.Reservation) error {
	if err := s.db.WithContext(ctx).Save(r).Error; err != nil {
		return fmt.Errorf("failed to save reservation %s: %w", r.ID, err)
	}
	return nil
}

func (s *gormStore) GetReservation(ctx context.Context, tenantID, id string) (*model.Reservation, error) {
	var r model.Reservation
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reservation %s: %w", id, err)
	}
	return &r, nil
}

func (s *gormStore) GetReservationByIdempotencyKey(ctx context.Context, tenantID, key string) (*model.Reservation, error) {
	var r model.Reservation
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND idempotency_key = ?", tenantID, key).
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
	}
	return &r, nil
}

func (s *gormStore) ListReservations(ctx context.Context, tenantID string, q ReservationQuery) ([]model.Reservation, error) {
	query := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if q.ResourceID != "" {
		query = query.Where("resource_id = ?", q.ResourceID)
	}
	if !q.From.IsZero() {
		query = query.Where("end_at > ?", q.From)
	}
	if !q.To.IsZero() {
		query = query.Where("start_at < ?", q.To)
	}
	var reservations []model.Reservation
	if err := query.Order("start_at, id").Find(&reservations).Error; err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return reservations, nil
}

func (s *gormStore) OverlappingReservations(ctx context.Context, tenantID, resourceID string, start, end time.Time) ([]model.Reservation, error) {
	var reservations []model.Reservation
	// Half-open intervals: [a,b) and [c,d) intersect iff a < d and c < b.
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND resource_id = ? AND status IN ? AND start_at < ? AND end_at > ?",
			tenantID, resourceID,
			[]model.ReservationStatus{model.StatusConfirmed, model.StatusCheckedIn},
			end, start).
		Order("start_at, id").
		Find(&reservations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch overlapping reservations for resource %s: %w", resourceID, err)
	}
	return reservations, nil
}

// --- Waitlist ---

func (s *gormStore) CreateWaitlistEntry(ctx context.Context, e *model.WaitlistEntry) error {
	if err := s.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("failed to create waitlist entry: %w", err)
	}
	return nil
}

func (s *gormStore) SaveWaitlistEntry(ctx context.Context, e *model.WaitlistEntry) error {
	if err := s.db.WithContext(ctx).Save(e).Error; err != nil {
		return fmt.Errorf("failed to save waitlist entry %s: %w", e.ID, err)
	}
	return nil
}

func (s *gormStore) GetWaitlistEntry(ctx context.Context, tenantID, id string) (*model.WaitlistEntry, error) {
	var e model.WaitlistEntry
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch waitlist entry %s: %w", id, err)
	}
	return &e, nil
}

func (s *gormStore) WaitingEntries(ctx context.Context, tenantID string, types []model.ResourceType) ([]model.WaitlistEntry, error) {
	var entries []model.WaitlistEntry
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ? AND resource_type IN ?",
			tenantID, model.WaitlistWaiting, types).
		Order("created_at, id").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list waiting entries: %w", err)
	}
	return entries, nil
}

func (s *gormStore) OfferedEntryExists(ctx context.Context, tenantID, resourceID string, start, end time.Time) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.WaitlistEntry{}).
		Where("tenant_id = ? AND status = ? AND offer_resource_id = ? AND start_at < ? AND end_at > ?",
			tenantID, model.WaitlistOffered, resourceID, end, start).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check offered entries for resource %s: %w", resourceID, err)
	}
	return count > 0, nil
}

func (s *gormStore) LapsedOffers(ctx context.Context, now time.Time) ([]model.WaitlistEntry, error) {
	var entries []model.WaitlistEntry
	err := s.db.WithContext(ctx).
		Where("status = ? AND offer_expires_at <= ?", model.WaitlistOffered, now).
		Order("created_at, id").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list lapsed offers: %w", err)
	}
	return entries, nil
}

// --- Push subscriptions ---

func (s *gormStore) UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"tenant_id", "p256dh", "auth"}),
	}).Create(sub).Error
	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return nil
}

func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	err := s.db.WithContext(ctx).First(&sub, "endpoint = ?", endpoint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscription: %w", err)
	}
	return &sub, nil
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	if err := s.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: endpoint}).Error; err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	return nil
}
