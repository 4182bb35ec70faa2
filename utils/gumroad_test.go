package utils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newGumroadServer answers like the Gumroad licenses API and captures each
// submitted form.
func newGumroadServer(t *testing.T, body string) (*httptest.Server, *[]url.Values) {
	t.Helper()
	var forms []url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v2/licenses/verify", r.URL.Path)
		require.NoError(t, r.ParseForm())
		forms = append(forms, r.PostForm)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &forms
}

func newTestGumroadClient(baseURL string) *GumroadClient {
	return NewGumroadClient("token-1", "product-1", baseURL)
}

func TestGumroadVerifySuccess(t *testing.T) {
	server, forms := newGumroadServer(t, `{
		"success": true,
		"purchase": {
			"email": "buyer@example.com",
			"product_name": "OccupancyOS Pro",
			"sale_id": "sale-1",
			"refunded": false,
			"chargebacked": false
		}
	}`)
	client := newTestGumroadClient(server.URL)

	verification, err := client.Verify(context.Background(), "KEY-1")
	require.NoError(t, err)

	assert.Equal(t, "buyer@example.com", verification.Email)
	assert.Equal(t, "OccupancyOS Pro", verification.ProductName)
	assert.Equal(t, "sale-1", verification.SaleID)

	require.Len(t, *forms, 1)
	form := (*forms)[0]
	assert.Equal(t, "product-1", form.Get("product_id"))
	assert.Equal(t, "KEY-1", form.Get("license_key"))
	assert.Equal(t, "token-1", form.Get("access_token"))
	assert.Empty(t, form.Get("increment_uses_count"), "plain verification must not consume a use")
}

func TestGumroadVerifyRefundedRejected(t *testing.T) {
	server, _ := newGumroadServer(t, `{
		"success": true,
		"purchase": {"email": "buyer@example.com", "refunded": true}
	}`)
	client := newTestGumroadClient(server.URL)

	_, err := client.Verify(context.Background(), "KEY-1")

	var verifyErr *VerificationError
	require.ErrorAs(t, err, &verifyErr)
	assert.Equal(t, "This license key has been refunded or chargebacked", verifyErr.Reason)
}

func TestGumroadVerifyRelaysFailureMessage(t *testing.T) {
	server, _ := newGumroadServer(t, `{"success": false, "message": "That license does not exist"}`)
	client := newTestGumroadClient(server.URL)

	_, err := client.Verify(context.Background(), "KEY-1")

	var verifyErr *VerificationError
	require.ErrorAs(t, err, &verifyErr)
	assert.Equal(t, "License verification failed: That license does not exist", verifyErr.Reason)
}

func TestGumroadVerifyUnconfigured(t *testing.T) {
	client := NewGumroadClient("", "", "https://api.gumroad.com")

	_, err := client.Verify(context.Background(), "KEY-1")

	var verifyErr *VerificationError
	require.ErrorAs(t, err, &verifyErr)
	assert.Equal(t, "License verification is not configured", verifyErr.Reason)
}

func TestGumroadVerifyNetworkError(t *testing.T) {
	server, _ := newGumroadServer(t, `{}`)
	server.Close()
	client := newTestGumroadClient(server.URL)

	_, err := client.Verify(context.Background(), "KEY-1")

	var verifyErr *VerificationError
	require.ErrorAs(t, err, &verifyErr)
	assert.Equal(t, "Network error. Please check your connection.", verifyErr.Reason)
}

func TestGumroadMarkUsedIncrementsCount(t *testing.T) {
	server, forms := newGumroadServer(t, `{"success": true}`)
	client := newTestGumroadClient(server.URL)

	require.NoError(t, client.MarkUsed(context.Background(), "KEY-1"))

	require.Len(t, *forms, 1)
	assert.Equal(t, "true", (*forms)[0].Get("increment_uses_count"))
}

func TestGumroadMarkUsedFailure(t *testing.T) {
	server, _ := newGumroadServer(t, `{"success": false, "message": "uses exhausted"}`)
	client := newTestGumroadClient(server.URL)

	err := client.MarkUsed(context.Background(), "KEY-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "uses exhausted")
}
