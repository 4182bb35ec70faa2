package utils

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"occupancyos/models"
)

// Every redeemed key grants the same fixed bundle and upgrades the account.
const LicenseCreditGrant = 100

// RedemptionResult is returned to the caller after a successful redemption.
type RedemptionResult struct {
	CreditsAdded int `json:"credits_added"`
	NewTotal     int `json:"new_total"`
}

// LicenseService converts a verified license key into a ledger credit,
// exactly once per key.
type LicenseService struct {
	DB        *gorm.DB
	Authority LicenseAuthority
	Ledger    *Ledger
	Logger    *log.Logger
}

func NewLicenseService(db *gorm.DB, authority LicenseAuthority, logger *log.Logger) *LicenseService {
	return &LicenseService{
		DB:        db,
		Authority: authority,
		Ledger:    NewLedger(db, logger),
		Logger:    logger,
	}
}

// Redeem runs the full redemption pipeline. No local state is mutated before
// the remote verification succeeds, so every failure up to that point leaves
// the key fully retryable.
func (s *LicenseService) Redeem(ctx context.Context, licenseKey, userID, email string) (*RedemptionResult, error) {
	licenseKey = strings.TrimSpace(licenseKey)
	if licenseKey == "" {
		return nil, &ValidationError{Message: "Please enter a license key"}
	}

	s.Logger.Printf("License redemption attempt by %s (user %s)", email, userID)

	// The account must have a subscription row before anything is granted.
	if _, err := s.Ledger.EnsureSubscription(userID, email); err != nil {
		return nil, err
	}

	// Reject keys we have already redeemed, with the original date.
	var existing models.LicenseRedemption
	err := s.DB.Where("license_key = ? AND redeemed = ?", licenseKey, true).First(&existing).Error
	if err == nil {
		date := "unknown date"
		if existing.RedeemedAt != nil {
			date = existing.RedeemedAt.Format("2006-01-02")
		}
		return nil, &AlreadyRedeemedError{Date: date}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &StorageError{Op: "redemption lookup", Err: err}
	}

	verification, err := s.Authority.Verify(ctx, licenseKey)
	if err != nil {
		return nil, err
	}

	// Grant the credits and record the redemption in one transaction, so a
	// crash cannot leave a credited account with a still-redeemable key.
	now := time.Now().UTC()
	var newTotal int
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		txLedger := NewLedger(tx, s.Logger)
		total, err := txLedger.Credit(userID, LicenseCreditGrant, PlanPro)
		if err != nil {
			return err
		}
		newTotal = total

		redemption := models.LicenseRedemption{
			LicenseKey: licenseKey,
			Email:      verification.Email,
			Credits:    LicenseCreditGrant,
			Redeemed:   true,
			RedeemedBy: userID,
			RedeemedAt: &now,
		}
		return tx.Create(&redemption).Error
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id":     userID,
			"license_key": licenseKey,
			"error":       err.Error(),
		}).Error("License redemption write failed")
		sentry.CaptureException(err)

		var storageErr *StorageError
		if errors.As(err, &storageErr) {
			return nil, err
		}
		return nil, &StorageError{Op: "redemption write", Err: err}
	}

	// Best-effort: the credits are already granted, so a failure to bump the
	// use count on the authority side only gets logged.
	if err := s.Authority.MarkUsed(ctx, licenseKey); err != nil {
		s.Logger.Printf("Failed to increment use count for key %s: %v", licenseKey, err)
	}

	s.Logger.Printf("License redeemed by user %s: +%d credits, new total %d", userID, LicenseCreditGrant, newTotal)
	return &RedemptionResult{
		CreditsAdded: LicenseCreditGrant,
		NewTotal:     newTotal,
	}, nil
}
