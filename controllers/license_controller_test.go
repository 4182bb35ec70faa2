package controller

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"occupancyos/models"
	"occupancyos/utils"
)

func newLicenseApp(t *testing.T, authority utils.LicenseAuthority, user *models.User) (*fiber.App, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)

	service := utils.NewLicenseService(db, authority, discardLogger())
	lc := NewLicenseController(db, service, discardLogger())

	app := fiber.New()
	app.Post("/api/redeem-license", asUser(user), lc.RedeemLicense)
	return app, db
}

func TestRedeemLicenseRequiresLogin(t *testing.T) {
	app, _ := newLicenseApp(t, &scriptedAuthority{}, nil)

	resp, body := postForm(t, app, "/api/redeem-license", url.Values{"license_key": {"KEY-1"}})

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, true, body["login_required"])
	assert.Equal(t, "Please log in to redeem a license key", body["error"])
}

func TestRedeemLicenseSuccess(t *testing.T) {
	user := &models.User{Email: "host@example.com"}
	user.ID = 7

	app, _ := newLicenseApp(t, &scriptedAuthority{}, user)

	resp, body := postForm(t, app, "/api/redeem-license", url.Values{"license_key": {"KEY-1"}})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(utils.LicenseCreditGrant), body["credits_added"])
	assert.Equal(t, float64(utils.FreePlanCredits+utils.LicenseCreditGrant), body["new_total"])
	assert.Contains(t, body["message"], "Successfully added")
}

func TestRedeemLicenseRejectionRelayed(t *testing.T) {
	user := &models.User{Email: "host@example.com"}
	user.ID = 7

	authority := &scriptedAuthority{
		err: &utils.VerificationError{Reason: "License verification failed: That license does not exist"},
	}
	app, _ := newLicenseApp(t, authority, user)

	resp, body := postForm(t, app, "/api/redeem-license", url.Values{"license_key": {"KEY-1"}})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "License verification failed: That license does not exist", body["error"])
}

func TestRedeemLicenseDuplicateKey(t *testing.T) {
	user := &models.User{Email: "host@example.com"}
	user.ID = 7

	app, _ := newLicenseApp(t, &scriptedAuthority{}, user)

	_, first := postForm(t, app, "/api/redeem-license", url.Values{"license_key": {"KEY-1"}})
	assert.Equal(t, true, first["success"])

	resp, body := postForm(t, app, "/api/redeem-license", url.Values{"license_key": {"KEY-1"}})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "already been redeemed on")
}
