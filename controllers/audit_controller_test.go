package controller

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"occupancyos/config"
	"occupancyos/models"
	"occupancyos/utils"
)

func newAuditApp(t *testing.T, provider utils.CompletionProvider, user *models.User) (*fiber.App, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)

	analyzer := utils.NewAnalyzer(db, provider, []string{"model-a"}, discardLogger())
	analyzer.RetryPause = 0

	ac := NewAuditController(db, analyzer, discardLogger())

	app := fiber.New()
	app.Post("/api/audit", asUser(user), ac.HandleAudit)
	return app, db
}

func auditForm() url.Values {
	return url.Values{
		"title":         {"Cozy 2BR Near Downtown"},
		"description":   {"Bright apartment with fast WiFi and a full kitchen."},
		"property_type": {"Apartment"},
	}
}

func TestHandleAuditValidationError(t *testing.T) {
	app, _ := newAuditApp(t, &scriptedProvider{text: validAnalysisJSON}, nil)

	form := auditForm()
	form.Set("title", "")
	resp, body := postForm(t, app, "/api/audit", form)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, true, body["validation_error"])
	assert.Equal(t, "Please enter a listing title", body["error"])
}

func TestHandleAuditGuestPreview(t *testing.T) {
	app, _ := newAuditApp(t, &scriptedProvider{text: validAnalysisJSON}, nil)

	resp, body := postForm(t, app, "/api/audit", auditForm())

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["is_preview"])
	assert.NotContains(t, body, "credits_remaining")
}

func TestHandleAuditUpgradeRequired(t *testing.T) {
	config.AppConfig.GumroadProductURL = "https://gumroad.example/occupancyos"

	user := &models.User{Email: "host@example.com"}
	user.ID = 7

	app, db := newAuditApp(t, &scriptedProvider{text: validAnalysisJSON}, user)

	// Drain the trial credit so the gate trips.
	sub := models.Subscription{UserID: user.AccountID(), Plan: utils.PlanFree, AuditsRemaining: 0}
	require.NoError(t, db.Create(&sub).Error)

	resp, body := postForm(t, app, "/api/audit", auditForm())

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, true, body["upgrade_required"])
	assert.Equal(t, "https://gumroad.example/occupancyos", body["gumroad_url"])
	assert.Contains(t, body["error"], "audit credits")
}

func TestHandleAuditPaidResult(t *testing.T) {
	user := &models.User{Email: "host@example.com"}
	user.ID = 7

	app, _ := newAuditApp(t, &scriptedProvider{text: validAnalysisJSON}, user)

	resp, body := postForm(t, app, "/api/audit", auditForm())

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["is_preview"])
	assert.Equal(t, float64(0), body["credits_remaining"])
	assert.Equal(t, float64(72), body["overall_score"])
}

func TestHandleAuditAIFailure(t *testing.T) {
	app, _ := newAuditApp(t, &scriptedProvider{err: fmt.Errorf("rate limit exceeded")}, nil)

	resp, body := postForm(t, app, "/api/audit", auditForm())

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Too many requests. Please wait a moment and try again.", body["error"])
	assert.NotContains(t, body, "validation_error")
}
