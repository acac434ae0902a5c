package shipping

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabrielly-semijoias/storefront/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, token string) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(config.ShippingConfig{
		BaseURL:      server.URL,
		Token:        token,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		OriginCEP:    "56318620",
	})
}

func TestClient_Calculate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/me/shipment/calculate", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		to, ok := payload["to"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "01310100", to["postal_code"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"name": "PAC", "price": "18.50", "error": ""},
			{"name": "SEDEX", "price": "32.90", "error": ""},
			{"name": "Mini Envios", "price": "", "error": "unavailable"}
		]`))
	}, "test-token")

	quote := client.Calculate(context.Background(), QuoteRequest{DestinationCEP: "01310-100"})

	assert.InDelta(t, 18.50, quote.PAC, 0.001)
	assert.InDelta(t, 32.90, quote.Sedex, 0.001)
	assert.InDelta(t, DefaultPickup, quote.Pickup, 0.001)
}

func TestClient_Calculate_FallbackWithoutToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("carrier should not be called without a token")
	}, "")

	quote := client.Calculate(context.Background(), QuoteRequest{DestinationCEP: "01310-100"})

	assert.InDelta(t, DefaultPAC, quote.PAC, 0.001)
	assert.InDelta(t, DefaultSedex, quote.Sedex, 0.001)
}

func TestClient_Calculate_FallbackOnInvalidCEP(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("carrier should not be called with an invalid CEP")
	}, "test-token")

	quote := client.Calculate(context.Background(), QuoteRequest{DestinationCEP: "123"})

	assert.InDelta(t, DefaultPAC, quote.PAC, 0.001)
	assert.InDelta(t, DefaultSedex, quote.Sedex, 0.001)
}

func TestClient_Calculate_FallbackOnCarrierError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, "test-token")

	quote := client.Calculate(context.Background(), QuoteRequest{DestinationCEP: "01310-100"})

	assert.InDelta(t, DefaultPAC, quote.PAC, 0.001)
	assert.InDelta(t, DefaultSedex, quote.Sedex, 0.001)
}

func TestClient_Calculate_PartialServiceErrorsKeepDefaults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"name": "PAC", "price": "18.50", "error": ""},
			{"name": "SEDEX", "price": "", "error": "area not served"}
		]`))
	}, "test-token")

	quote := client.Calculate(context.Background(), QuoteRequest{DestinationCEP: "01310-100"})

	assert.InDelta(t, 18.50, quote.PAC, 0.001)
	assert.InDelta(t, DefaultSedex, quote.Sedex, 0.001)
}

func TestClient_RefreshToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/oauth/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.FormValue("grant_type"))
		assert.Equal(t, "client-id", r.FormValue("client_id"))
		assert.Equal(t, "client-secret", r.FormValue("client_secret"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token": "new-token", "expires_in": 2592000}`))
	}, "")

	token, err := client.RefreshToken(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "new-token", token)
	assert.Equal(t, "new-token", client.token)
}

func TestClient_RefreshToken_Rejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, "")

	_, err := client.RefreshToken(context.Background())

	assert.Error(t, err)
}

func TestQuote_CostForMethod(t *testing.T) {
	quote := Quote{PAC: 18.50, Sedex: 32.90, Pickup: 0}

	assert.InDelta(t, 18.50, quote.CostForMethod("pac"), 0.001)
	assert.InDelta(t, 32.90, quote.CostForMethod("SEDEX"), 0.001)
	assert.InDelta(t, 0, quote.CostForMethod("pickup"), 0.001)
	assert.InDelta(t, 0, quote.CostForMethod("unknown"), 0.001)
}
