package utils

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuditRequest carries the raw form input for one listing analysis.
type AuditRequest struct {
	Title          string
	Description    string
	PropertyType   string
	TargetAudience string
	Amenities      string // comma-separated
}

// Analyzer drives the full analysis pipeline: input validation, guest/user
// classification, the credit gate, the multi-model fallback loop, and the
// post-success bookkeeping.
type Analyzer struct {
	Ledger  *Ledger
	History *HistoryRecorder
	AI      CompletionProvider
	Models  []string
	Logger  *log.Logger

	// Pause between retries of the same model. Short and fixed: the fallback
	// list absorbs persistent failures, so exponential backoff buys nothing
	// here.
	RetryPause time.Duration
}

func NewAnalyzer(db *gorm.DB, ai CompletionProvider, models []string, logger *log.Logger) *Analyzer {
	return &Analyzer{
		Ledger:     NewLedger(db, logger),
		History:    NewHistoryRecorder(db, logger),
		AI:         ai,
		Models:     models,
		Logger:     logger,
		RetryPause: time.Second,
	}
}

const (
	defaultTargetAudience  = "All Audiences"
	noAmenitiesPlaceholder = "No specific amenities listed"
	attemptsPerModel       = 2
)

// IsGuest reports whether an account identifier denotes an unauthenticated
// caller. Browsers submit the literal string "null" for an absent id, so it
// counts as absent too.
func IsGuest(userID string) bool {
	trimmed := strings.TrimSpace(userID)
	return trimmed == "" || trimmed == "null"
}

// Analyze runs one listing analysis. Guests get an unlimited preview;
// authenticated accounts pass the credit gate first and pay one credit on
// success.
func (a *Analyzer) Analyze(ctx context.Context, req AuditRequest, userID, email string) (AnalysisResult, error) {
	// Fail fast on bad input, before any storage or network call.
	if strings.TrimSpace(req.Title) == "" {
		return nil, &ValidationError{Message: "Please enter a listing title"}
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, &ValidationError{Message: "Please enter a listing description"}
	}
	if strings.TrimSpace(req.PropertyType) == "" {
		return nil, &ValidationError{Message: "Please select a property type from the dropdown"}
	}

	targetAudience := strings.TrimSpace(req.TargetAudience)
	if targetAudience == "" {
		targetAudience = defaultTargetAudience
	}

	amenities := SplitCSV(req.Amenities)
	if len(amenities) == 0 {
		amenities = []string{noAmenitiesPlaceholder}
	}

	guest := IsGuest(userID)

	// Credit gate, before the model is ever invoked: a caller who cannot
	// receive the result must not cost us a completion.
	if !guest {
		sub, err := a.Ledger.EnsureSubscription(userID, email)
		if err != nil {
			return nil, err
		}
		if sub.AuditsRemaining <= 0 {
			a.Logger.Printf("User %s has 0 credits - blocking audit", userID)
			return nil, &InsufficientCreditsError{}
		}
	}

	prompt := BuildAuditPrompt(req.Title, req.Description, req.PropertyType, targetAudience, amenities)

	result, err := a.completeWithFallback(ctx, prompt)
	if err != nil {
		return nil, err
	}

	if guest {
		// Preview mode: scores visible, the presentation layer withholds the
		// rewrites. No history, no ledger touch.
		result["is_preview"] = true
		return result, nil
	}

	// Post-success bookkeeping is best-effort: the caller already spent the
	// compute, so a failed history write or debit is logged, never surfaced.
	score := overallScore(result)
	if err := a.History.Record(userID, req.Title, req.PropertyType, score); err != nil {
		a.Logger.Printf("Failed to save audit history for user %s: %v", userID, err)
	}

	remaining, err := a.Ledger.DebitOne(userID)
	if err != nil {
		a.Logger.Printf("Failed to debit credit for user %s: %v", userID, err)
		remaining = 0
	}

	result["is_preview"] = false
	result["credits_remaining"] = remaining
	return result, nil
}

// completeWithFallback walks the model list in priority order until one of
// them produces a schema-complete response. First success wins.
func (a *Analyzer) completeWithFallback(ctx context.Context, prompt string) (AnalysisResult, error) {
	var lastFailure error

	for _, model := range a.Models {
		text, err := a.completeWithRetry(ctx, model, prompt)
		if err != nil {
			a.logModelFailure(model, err)
			lastFailure = err
			continue
		}

		result, err := ParseAnalysisResponse(text)
		if err != nil {
			a.logModelFailure(model, err)
			lastFailure = err
			continue
		}

		a.Logger.Printf("Analysis succeeded with model %s", model)
		return result, nil
	}

	// Every model exhausted. Collapse the internal reasons into one coarse,
	// user-safe message and keep the details for diagnosis.
	logrus.WithFields(logrus.Fields{
		"models":       a.Models,
		"last_failure": fmt.Sprint(lastFailure),
	}).Error("All AI models failed")

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", "analyzer")
		scope.SetExtra("last_failure", fmt.Sprint(lastFailure))
		sentry.CaptureException(fmt.Errorf("analysis fallback exhausted: %w", lastFailure))
	})

	return nil, &AIServiceError{Message: userSafeMessage(classifyFailure(lastFailure))}
}

// completeWithRetry calls one model up to attemptsPerModel times. Only
// transport failures earn a retry; a decommissioned model aborts immediately
// so the loop can move on.
func (a *Analyzer) completeWithRetry(ctx context.Context, model, prompt string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= attemptsPerModel; attempt++ {
		text, err := a.AI.CreateCompletion(ctx, model, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if classifyFailure(err) == failureDeprecated {
			a.Logger.Printf("Model %s is deprecated, skipping", model)
			return "", err
		}

		if attempt < attemptsPerModel {
			a.Logger.Printf("Retry %d/%d for model %s: %v", attempt, attemptsPerModel, model, err)
			select {
			case <-time.After(a.RetryPause):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}

	return "", lastErr
}

func (a *Analyzer) logModelFailure(model string, err error) {
	logrus.WithFields(logrus.Fields{
		"model": model,
		"error": err.Error(),
	}).Warn("Model attempt failed")
}

// overallScore pulls the numeric score out of a validated result for the
// history record. The validator guarantees the key exists; the JSON decoder
// hands numbers back as float64.
func overallScore(result AnalysisResult) int {
	if v, ok := result["overall_score"].(float64); ok {
		return int(v)
	}
	return 0
}

// Internal failure classes, used only to pick the coarse user-facing message
// and the retry/skip behavior.
type failureClass int

const (
	failureGeneric failureClass = iota
	failureRateLimit
	failureTimeout
	failureConnection
	failureDeprecated
)

func classifyFailure(err error) failureClass {
	if err == nil {
		return failureGeneric
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "decommissioned") || strings.Contains(msg, "deprecated"):
		return failureDeprecated
	case strings.Contains(msg, "rate limit"):
		return failureRateLimit
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		return failureTimeout
	case strings.Contains(msg, "connection"):
		return failureConnection
	default:
		return failureGeneric
	}
}

func userSafeMessage(class failureClass) string {
	switch class {
	case failureRateLimit:
		return "Too many requests. Please wait a moment and try again."
	case failureTimeout:
		return "Analysis timed out. Please try again with a shorter description."
	case failureConnection:
		return "Network issue. Please check your connection and try again."
	case failureDeprecated:
		return "AI models are being updated. Please try again in a few minutes."
	default:
		return "Our AI analysis service is temporarily unavailable. Please try again in a moment."
	}
}
