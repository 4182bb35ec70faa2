package models

import (
	"strconv"
	"time"

	"gorm.io/gorm"
)

// User represents a user account in the system
type User struct {
	gorm.Model

	// Authentication fields
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`

	// Profile information
	Name     *string `json:"name,omitempty"`
	Timezone string  `gorm:"default:'UTC'" json:"timezone"`

	// Account status
	IsActive bool `gorm:"default:true" json:"is_active"`
	IsAdmin  bool `gorm:"default:false" json:"is_admin"`

	TokenVersion int `gorm:"default:0" json:"-"`
}

// AccountID is the opaque identifier used by the ledger and audit history, so
// those layers stay decoupled from how identities are issued.
func (u *User) AccountID() string {
	return strconv.FormatUint(uint64(u.ID), 10)
}

// TOSAcceptance records who accepted which terms version, and from where.
type TOSAcceptance struct {
	gorm.Model
	UserID     string    `gorm:"not null;index" json:"user_id"`
	Email      string    `gorm:"not null" json:"email"`
	TOSVersion string    `gorm:"default:'1.0'" json:"tos_version"`
	AcceptedAt time.Time `json:"accepted_at"`
	IPAddress  string    `json:"ip_address"`
}
