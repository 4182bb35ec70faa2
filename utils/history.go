package utils

import (
	"log"

	"gorm.io/gorm"

	"occupancyos/models"
)

const maxStoredTitleLength = 255

// HistoryRecorder appends lightweight audit records for dashboard display.
type HistoryRecorder struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewHistoryRecorder(db *gorm.DB, logger *log.Logger) *HistoryRecorder {
	return &HistoryRecorder{
		DB:     db,
		Logger: logger,
	}
}

// Record appends one history entry for a paid analysis.
func (h *HistoryRecorder) Record(userID, listingTitle, propertyType string, score int) error {
	record := models.AuditRecord{
		UserID:       userID,
		ListingTitle: TruncateString(listingTitle, maxStoredTitleLength),
		PropertyType: propertyType,
		Score:        score,
	}
	if err := h.DB.Create(&record).Error; err != nil {
		return &StorageError{Op: "audit history insert", Err: err}
	}
	return nil
}

// Recent returns up to limit history entries for an account, newest first.
func (h *HistoryRecorder) Recent(userID string, limit int) ([]models.AuditRecord, error) {
	var records []models.AuditRecord
	err := h.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, &StorageError{Op: "audit history read", Err: err}
	}
	return records, nil
}
