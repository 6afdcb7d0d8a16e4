package model

import "time"

// WaitlistStatus is the lifecycle state of a waitlist entry.
type WaitlistStatus string

const (
	WaitlistWaiting   WaitlistStatus = "waiting"
	WaitlistOffered   WaitlistStatus = "offered"
	WaitlistExpired   WaitlistStatus = "expired"
	WaitlistConverted WaitlistStatus = "converted"
)

// WaitlistEntry is an unfulfilled reservation request awaiting freed
// capacity. The original request is snapshotted so a later offer can be
// turned into a reservation without re-asking the client.
type WaitlistEntry struct {
	ID           string         `gorm:"primaryKey;size:36" json:"id"`
	TenantID     string         `gorm:"size:36;not null;index:idx_waitlist_tenant_status" json:"tenantId"`
	ResourceType ResourceType   `gorm:"size:32;not null" json:"resourceType"`
	StartAt      time.Time      `gorm:"not null" json:"start"`
	EndAt        time.Time      `gorm:"not null" json:"end"`
	PetIDs       []string       `gorm:"serializer:json" json:"petIds"`
	PartySize    int            `gorm:"not null" json:"partySize"`
	// FlexibilityDays widens the requested window by +/- days when matching
	// against a freed slot.
	FlexibilityDays int            `gorm:"not null" json:"flexibilityDays"`
	Status          WaitlistStatus `gorm:"size:16;not null;index:idx_waitlist_tenant_status" json:"status"`
	// Offer state: which resource is held, until when, and how many offers
	// this entry has consumed.
	OfferResourceID *string    `gorm:"size:36" json:"offerResourceId,omitempty"`
	OfferExpiresAt  *time.Time `json:"offerExpiresAt,omitempty"`
	OfferCount      int        `gorm:"not null" json:"offerCount"`
	// ReservationID is set when the entry converts.
	ReservationID *string `gorm:"size:36" json:"reservationId,omitempty"`
	// PushEndpoint references a PushSubscription used to notify the holder
	// when an offer is made.
	PushEndpoint *string   `gorm:"size:512" json:"-"`
	CreatedAt    time.Time `gorm:"not null;index" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"not null" json:"updatedAt"`
}
