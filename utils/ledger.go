package utils

import (
	"errors"
	"log"
	"strings"

	"gorm.io/gorm"

	"occupancyos/models"
)

// New accounts start on the free plan with a single trial audit.
const (
	FreePlanCredits = 1
	PlanFree        = "free"
	PlanPro         = "pro"
)

// Ledger owns the durable credit balance and plan tier per account.
type Ledger struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewLedger(db *gorm.DB, logger *log.Logger) *Ledger {
	return &Ledger{
		DB:     db,
		Logger: logger,
	}
}

// EnsureSubscription fetches the subscription for userID, creating it lazily
// on first touch. An existing record missing an email gets it backfilled when
// one is supplied.
func (l *Ledger) EnsureSubscription(userID, email string) (*models.Subscription, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var sub models.Subscription
	err := l.DB.Where("user_id = ?", userID).First(&sub).Error
	if err == nil {
		if sub.Email == "" && email != "" {
			if err := l.DB.Model(&sub).Update("email", email).Error; err != nil {
				l.Logger.Printf("Failed to backfill email for user %s: %v", userID, err)
			} else {
				sub.Email = email
			}
		}
		return &sub, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &StorageError{Op: "subscription lookup", Err: err}
	}

	sub = models.Subscription{
		UserID:          userID,
		Email:           email,
		Plan:            PlanFree,
		AuditsRemaining: FreePlanCredits,
	}
	if err := l.DB.Create(&sub).Error; err != nil {
		return nil, &StorageError{Op: "subscription create", Err: err}
	}

	l.Logger.Printf("Created subscription for user %s (plan=%s, credits=%d)", userID, sub.Plan, sub.AuditsRemaining)
	return &sub, nil
}

// DebitOne consumes a single credit as one conditional decrement: the balance
// only moves when it is still above zero, so two racing requests can never
// push it negative. Returns the post-debit balance.
func (l *Ledger) DebitOne(userID string) (int, error) {
	res := l.DB.Model(&models.Subscription{}).
		Where("user_id = ? AND audits_remaining > 0", userID).
		Update("audits_remaining", gorm.Expr("audits_remaining - 1"))
	if res.Error != nil {
		return 0, &StorageError{Op: "credit debit", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		// Raced to zero between the gate check and the debit. Balance stays
		// clamped at zero.
		l.Logger.Printf("Debit skipped for user %s: no credits remaining", userID)
		return 0, nil
	}

	return l.Balance(userID)
}

// Credit adds amount credits to the account and optionally moves it to a new
// plan tier. Returns the new balance.
func (l *Ledger) Credit(userID string, amount int, newPlan string) (int, error) {
	updates := map[string]interface{}{
		"audits_remaining": gorm.Expr("audits_remaining + ?", amount),
	}
	if newPlan != "" {
		updates["plan"] = newPlan
	}

	res := l.DB.Model(&models.Subscription{}).
		Where("user_id = ?", userID).
		Updates(updates)
	if res.Error != nil {
		return 0, &StorageError{Op: "credit grant", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return 0, &StorageError{Op: "credit grant", Err: gorm.ErrRecordNotFound}
	}

	return l.Balance(userID)
}

// Balance reads the current credit count, clamped at zero.
func (l *Ledger) Balance(userID string) (int, error) {
	var sub models.Subscription
	if err := l.DB.Where("user_id = ?", userID).First(&sub).Error; err != nil {
		return 0, &StorageError{Op: "balance read", Err: err}
	}
	if sub.AuditsRemaining < 0 {
		return 0, nil
	}
	return sub.AuditsRemaining, nil
}
