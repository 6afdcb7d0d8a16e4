package model

import "time"

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	StatusPending    ReservationStatus = "pending"
	StatusConfirmed  ReservationStatus = "confirmed"
	StatusCheckedIn  ReservationStatus = "checked-in"
	StatusCheckedOut ReservationStatus = "checked-out"
	StatusCancelled  ReservationStatus = "cancelled"
	StatusNoShow     ReservationStatus = "no-show"
	StatusCompleted  ReservationStatus = "completed"
)

// Occupies reports whether a reservation in this status counts against
// resource capacity.
func (s ReservationStatus) Occupies() bool {
	return s == StatusConfirmed || s == StatusCheckedIn
}

// Terminal reports whether the status admits no further transitions.
func (s ReservationStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusNoShow || s == StatusCompleted
}

// Reservation is a committed (or pending) booking of a resource for a party
// of pets over a half-open [StartAt, EndAt) window. Rows are only mutated
// through the commit workflow's state-transition operations.
type Reservation struct {
	ID       string `gorm:"primaryKey;size:36" json:"id"`
	TenantID string `gorm:"size:36;not null;index:idx_reservations_tenant;uniqueIndex:idx_reservations_tenant_idem" json:"tenantId"`
	// ResourceID is nil until the commit workflow assigns a resource.
	ResourceID *string           `gorm:"size:36;index:idx_reservations_resource" json:"resourceId"`
	PetIDs     []string          `gorm:"serializer:json" json:"petIds"`
	PartySize  int               `gorm:"not null" json:"partySize"`
	StartAt    time.Time         `gorm:"not null;index:idx_reservations_resource" json:"start"`
	EndAt      time.Time         `gorm:"not null" json:"end"`
	Status     ReservationStatus `gorm:"size:16;not null;index" json:"status"`
	// IdempotencyKey is the client-supplied commit key; unique per tenant so
	// a retried commit returns the original row instead of inserting twice.
	IdempotencyKey *string   `gorm:"size:64;uniqueIndex:idx_reservations_tenant_idem" json:"-"`
	CreatedAt      time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"not null" json:"updatedAt"`
}
