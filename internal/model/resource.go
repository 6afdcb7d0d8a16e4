package model

import "time"

// ResourceType is the closed set of bookable resource kinds.
type ResourceType string

const (
	ResourceSuiteStandard ResourceType = "suite-standard"
	ResourceSuitePlus     ResourceType = "suite-plus"
	ResourceSuiteVIP      ResourceType = "suite-vip"
	ResourceGroomingTable ResourceType = "grooming-table"
	ResourceTrainingArea  ResourceType = "training-area"
	ResourceOther         ResourceType = "other"
)

// KnownResourceType reports whether t is one of the defined resource types.
func KnownResourceType(t ResourceType) bool {
	switch t {
	case ResourceSuiteStandard, ResourceSuitePlus, ResourceSuiteVIP,
		ResourceGroomingTable, ResourceTrainingArea, ResourceOther:
		return true
	}
	return false
}

// Resource represents a bookable unit (suite, kennel, grooming table, ...).
// Resources are never deleted, only deactivated, so historical reservations
// keep a valid reference.
type Resource struct {
	ID       string       `gorm:"primaryKey;size:36" json:"id"`
	TenantID string       `gorm:"size:36;not null;index:idx_resources_tenant_type" json:"tenantId"`
	Name     string       `gorm:"size:128;not null" json:"name"`
	Type     ResourceType `gorm:"size:32;not null;index:idx_resources_tenant_type" json:"type"`
	// Capacity is counted in party-size units (pets), not bookings.
	Capacity int  `gorm:"not null;default:1" json:"capacity"`
	Active   bool `gorm:"not null;default:true" json:"active"`
	// Kind and Seq are derived from Name at creation time and give the
	// catalog a stable ordering independent of display-name formatting.
	Kind      string    `gorm:"size:64" json:"-"`
	Seq       int       `json:"-"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`

	// Associations
	Blackouts []MaintenanceBlackout `gorm:"foreignKey:ResourceID;constraint:OnDelete:CASCADE" json:"-"`
}

// MaintenanceBlackout marks a resource unavailable for a sub-range. The
// overlap detector treats an intersecting blackout as full occupancy.
type MaintenanceBlackout struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	TenantID   string    `gorm:"size:36;not null;index" json:"tenantId"`
	ResourceID string    `gorm:"size:36;not null;index" json:"resourceId"`
	StartAt    time.Time `gorm:"not null" json:"start"`
	EndAt      time.Time `gorm:"not null" json:"end"`
	Reason     string    `gorm:"size:256" json:"reason"`
	CreatedAt  time.Time `gorm:"not null" json:"createdAt"`
}
