package utils

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"occupancyos/models"
)

// A schema-complete model response, as small as the contract allows.
const validAnalysisJSON = `{
  "overall_score": 72,
  "overall_explanation": "Decent but generic.",
  "detailed_scores": {"seo_optimization": {"score": 65, "explanation": "weak keywords"}},
  "optimized_titles": {"seo_focused": "Sunny 2BR Flat | Fast WiFi | Central"},
  "description_rewrite": {"full_rewrite": "A rewrite.", "hook_section": "Hook.", "key_improvements": []},
  "amenity_analysis": {"high_roi_additions": []},
  "immediate_action_items": [],
  "critical_warnings": []
}`

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// One shared in-memory database per test, torn down with it.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Subscription{},
		&models.LicenseRedemption{},
		&models.AuditRecord{},
	))

	return db
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// modelReply scripts one model's behavior in the fake provider.
type modelReply struct {
	text string
	err  error
}

// fakeProvider records every call so tests can assert which models were hit
// and with what prompt.
type fakeProvider struct {
	mu      sync.Mutex
	replies map[string][]modelReply
	calls   []string
	prompts []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{replies: make(map[string][]modelReply)}
}

func (f *fakeProvider) reply(model string, r modelReply) {
	f.replies[model] = append(f.replies[model], r)
}

func (f *fakeProvider) CreateCompletion(_ context.Context, model, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, model)
	f.prompts = append(f.prompts, prompt)

	queue := f.replies[model]
	if len(queue) == 0 {
		return "", fmt.Errorf("connection refused")
	}
	next := queue[0]
	if len(queue) > 1 {
		f.replies[model] = queue[1:]
	}
	return next.text, next.err
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeProvider) calledModels() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}
