package models

import "gorm.io/gorm"

// AuditRecord is an append-only history entry written once per successful
// paid analysis. Guests never get one.
type AuditRecord struct {
	gorm.Model
	UserID       string `gorm:"not null;index" json:"user_id"`
	ListingTitle string `gorm:"size:255" json:"listing_title"`
	PropertyType string `json:"property_type"`
	Score        int    `json:"score"`
}
