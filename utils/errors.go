package utils

import "fmt"

// ValidationError means the caller submitted bad input. Always recoverable by
// resubmitting a corrected form.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// InsufficientCreditsError means an authenticated caller has no balance left.
type InsufficientCreditsError struct{}

func (e *InsufficientCreditsError) Error() string {
	return "You've used all your audit credits. Purchase more to continue optimizing your listings!"
}

// AIServiceError is the single user-facing failure for the analysis pipeline.
// Every model-fallback exhaustion collapses into it; Message is coarse and safe
// to show, the per-model reasons only go to the logs.
type AIServiceError struct {
	Message string
}

func (e *AIServiceError) Error() string { return e.Message }

// AlreadyRedeemedError means this license key was redeemed before. Date is the
// original redemption date at calendar-day precision.
type AlreadyRedeemedError struct {
	Date string
}

func (e *AlreadyRedeemedError) Error() string {
	return fmt.Sprintf("This license key has already been redeemed on %s", e.Date)
}

// VerificationError means the remote license authority rejected the key or
// could not be reached. Reason is the authority's message, which is safe to
// relay to the caller.
type VerificationError struct {
	Reason string
}

func (e *VerificationError) Error() string { return e.Reason }

// StorageError means the durable store could not be reached or refused a
// write. Fatal for the current request except at the documented best-effort
// bookkeeping points after a successful analysis.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
