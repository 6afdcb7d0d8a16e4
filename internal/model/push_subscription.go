package model

import "time"

// PushSubscription holds a browser push subscription used to deliver
// waitlist-offer notifications.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey;size:512"`
	TenantID  string    `gorm:"size:36;not null;index"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}
