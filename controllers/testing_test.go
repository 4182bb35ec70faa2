package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"occupancyos/models"
	"occupancyos/utils"
)

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

// scriptedProvider answers every completion request the same way.
type scriptedProvider struct {
	text string
	err  error
}

func (p *scriptedProvider) CreateCompletion(context.Context, string, string) (string, error) {
	return p.text, p.err
}

// scriptedAuthority answers every license verification the same way.
type scriptedAuthority struct {
	err error
}

func (a *scriptedAuthority) Verify(context.Context, string) (*utils.LicenseVerification, error) {
	if a.err != nil {
		return nil, a.err
	}
	return &utils.LicenseVerification{Email: "buyer@example.com"}, nil
}

func (a *scriptedAuthority) MarkUsed(context.Context, string) error { return nil }

// asUser injects an authenticated identity the way the auth middleware does.
func asUser(user *models.User) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if user != nil {
			c.Locals("user", user)
		}
		return c.Next()
	}
}

// postForm submits a form-encoded request through the app and decodes the
// JSON response.
func postForm(t *testing.T, app *fiber.App, path string, form url.Values) (*http.Response, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}
