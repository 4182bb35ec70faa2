package utils

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// GenerateRateLimitKey creates a unique key for rate limiting
func GenerateRateLimitKey(caller, path string) string {
	return fmt.Sprintf("rl:%s:%s", caller, path)
}

// LogEvent logs an event with structured data
func LogEvent(eventType string, data map[string]interface{}) {
	logrus.WithFields(logrus.Fields(data)).Info(eventType)
}

// TruncateString shortens s to at most max bytes
func TruncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// SplitCSV splits a comma-separated string, trimming entries and dropping
// empties
func SplitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Pointer returns a pointer to the given value
func Pointer[T any](v T) *T {
	return &v
}
