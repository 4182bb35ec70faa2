package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// LicenseVerification is what the remote authority tells us about a key.
type LicenseVerification struct {
	Email       string
	ProductName string
	SaleID      string
}

// LicenseAuthority is the remote storefront that issued the license keys.
type LicenseAuthority interface {
	Verify(ctx context.Context, licenseKey string) (*LicenseVerification, error)
	MarkUsed(ctx context.Context, licenseKey string) error
}

// GumroadClient verifies license keys against the Gumroad licenses API.
type GumroadClient struct {
	AccessToken string
	ProductID   string
	BaseURL     string
	HTTPClient  *http.Client
}

// Verification is interactive, so the timeout stays in single-digit seconds.
const gumroadRequestTimeout = 10 * time.Second

func NewGumroadClient(accessToken, productID, baseURL string) *GumroadClient {
	return &GumroadClient{
		AccessToken: accessToken,
		ProductID:   productID,
		BaseURL:     strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: gumroadRequestTimeout,
		},
	}
}

type gumroadVerifyResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Purchase struct {
		Email        string `json:"email"`
		ProductName  string `json:"product_name"`
		SaleID       string `json:"sale_id"`
		Refunded     bool   `json:"refunded"`
		Chargebacked bool   `json:"chargebacked"`
	} `json:"purchase"`
}

// Verify checks the key with Gumroad. Refunded or chargebacked purchases are
// rejected like invalid keys. Nothing here mutates local state, so a failed
// attempt is always safe to retry.
func (g *GumroadClient) Verify(ctx context.Context, licenseKey string) (*LicenseVerification, error) {
	if g.AccessToken == "" || g.ProductID == "" {
		return nil, &VerificationError{Reason: "License verification is not configured"}
	}

	result, err := g.post(ctx, licenseKey, false)
	if err != nil {
		return nil, err
	}

	if !result.Success {
		message := result.Message
		if message == "" {
			message = "Invalid license key"
		}
		return nil, &VerificationError{Reason: "License verification failed: " + message}
	}

	if result.Purchase.Refunded || result.Purchase.Chargebacked {
		return nil, &VerificationError{Reason: "This license key has been refunded or chargebacked"}
	}

	return &LicenseVerification{
		Email:       result.Purchase.Email,
		ProductName: result.Purchase.ProductName,
		SaleID:      result.Purchase.SaleID,
	}, nil
}

// MarkUsed increments the key's use count on the Gumroad side. Callers treat
// this as best-effort.
func (g *GumroadClient) MarkUsed(ctx context.Context, licenseKey string) error {
	if g.AccessToken == "" || g.ProductID == "" {
		return fmt.Errorf("gumroad not configured")
	}

	result, err := g.post(ctx, licenseKey, true)
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("failed to increment use count: %s", result.Message)
	}
	return nil
}

func (g *GumroadClient) post(ctx context.Context, licenseKey string, incrementUses bool) (*gumroadVerifyResponse, error) {
	form := url.Values{}
	form.Set("product_id", g.ProductID)
	form.Set("license_key", licenseKey)
	form.Set("access_token", g.AccessToken)
	if incrementUses {
		form.Set("increment_uses_count", "true")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/v2/licenses/verify", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, &VerificationError{Reason: "Verification timeout. Please try again."}
		}
		return nil, &VerificationError{Reason: "Network error. Please check your connection."}
	}
	defer resp.Body.Close()

	var result gumroadVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &VerificationError{Reason: "Verification failed: unexpected response from license server"}
	}
	return &result, nil
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded)
}
