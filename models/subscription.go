package models

import (
	"time"

	"gorm.io/gorm"
)

// Subscription tracks the credit balance and plan tier for one account.
// UserID is an opaque identifier so callers are never coupled to how
// identities are issued.
type Subscription struct {
	gorm.Model
	UserID string `gorm:"uniqueIndex;not null" json:"user_id"`
	Email  string `json:"email,omitempty"`

	Plan            string `gorm:"default:'free'" json:"plan"` // free, pro
	AuditsRemaining int    `gorm:"default:1" json:"audits_remaining"`
}

// LicenseRedemption records a license key that has been redeemed. Rows are
// immutable once written; a key may only ever appear here once as redeemed.
type LicenseRedemption struct {
	gorm.Model
	LicenseKey string `gorm:"uniqueIndex;not null" json:"license_key"`
	Email      string `json:"email"`

	Credits    int        `gorm:"not null" json:"credits"`
	Redeemed   bool       `gorm:"default:true" json:"redeemed"`
	RedeemedBy string     `gorm:"index" json:"redeemed_by"`
	RedeemedAt *time.Time `json:"redeemed_at"`
}
