package shipping

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/gabrielly-semijoias/storefront/internal/config"
)

// Default rates used whenever the carrier cannot be reached. Checkout must
// never be blocked by a shipping quote failure.
const (
	DefaultPAC    = 15.0
	DefaultSedex  = 25.0
	DefaultPickup = 0.0
)

type Quote struct {
	PAC    float64 `json:"pac"`
	Sedex  float64 `json:"sedex"`
	Pickup float64 `json:"pickup"`
}

// QuoteRequest carries the destination and package dimensions for a carrier
// quote. Zero-value dimensions fall back to the store's standard package.
type QuoteRequest struct {
	DestinationCEP string
	WeightKg       float64
	LengthCm       float64
	WidthCm        float64
	HeightCm       float64
}

type Client struct {
	http      *resty.Client
	token     string
	clientID  string
	secret    string
	originCEP string
}

func NewClient(cfg config.ShippingConfig) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(10 * time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "Gabrielly Semijoias E-commerce")

	return &Client{
		http:      httpClient,
		token:     cfg.Token,
		clientID:  cfg.ClientID,
		secret:    cfg.ClientSecret,
		originCEP: cfg.OriginCEP,
	}
}

type calculatePayload struct {
	From     cepRef           `json:"from"`
	To       cepRef           `json:"to"`
	Products []packageProduct `json:"products"`
	Receipt  bool             `json:"receipt"`
	OwnHand  bool             `json:"own_hand"`
	Platform string           `json:"platform"`
}

type cepRef struct {
	PostalCode string `json:"postal_code"`
}

type packageProduct struct {
	Name           string  `json:"name"`
	Quantity       int     `json:"quantity"`
	Weight         float64 `json:"weight"`
	Height         float64 `json:"height"`
	Width          float64 `json:"width"`
	Length         float64 `json:"length"`
	InsuranceValue float64 `json:"insurance_value"`
}

type carrierService struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	Error string `json:"error"`
}

// Calculate asks the carrier for PAC and Sedex rates to the destination CEP.
// Every failure path returns the fixed default rates instead of an error.
func (c *Client) Calculate(ctx context.Context, req QuoteRequest) Quote {
	fallback := Quote{PAC: DefaultPAC, Sedex: DefaultSedex, Pickup: DefaultPickup}

	if c.token == "" {
		log.Warn().Msg("shipping: carrier token not configured, using default rates")
		return fallback
	}

	destination := cleanCEP(req.DestinationCEP)
	if len(destination) != 8 {
		log.Warn().Str("cep", req.DestinationCEP).Msg("shipping: invalid destination CEP, using default rates")
		return fallback
	}

	payload := calculatePayload{
		From: cepRef{PostalCode: cleanCEP(c.originCEP)},
		To:   cepRef{PostalCode: destination},
		Products: []packageProduct{{
			Name:           "Produto Checkout",
			Quantity:       1,
			Weight:         max(0.3, req.WeightKg),
			Height:         max(2, req.HeightCm),
			Width:          max(11, req.WidthCm),
			Length:         max(16, req.LengthCm),
			InsuranceValue: 100.00,
		}},
		Receipt:  false,
		OwnHand:  false,
		Platform: "Gabrielly Semijoias E-commerce",
	}

	var services []carrierService
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.token).
		SetBody(payload).
		SetResult(&services).
		Post("/api/v2/me/shipment/calculate")
	if err != nil {
		log.Error().Err(err).Msg("shipping: carrier request failed, using default rates")
		return fallback
	}
	if resp.IsError() {
		log.Error().Int("status", resp.StatusCode()).Msg("shipping: carrier returned error, using default rates")
		return fallback
	}

	quote := fallback
	for _, svc := range services {
		if svc.Error != "" {
			continue
		}
		var price float64
		if _, err := fmt.Sscanf(svc.Price, "%f", &price); err != nil {
			continue
		}
		name := strings.ToLower(svc.Name)
		if strings.Contains(name, "pac") {
			quote.PAC = price
		}
		if strings.Contains(name, "sedex") {
			quote.Sedex = price
		}
	}
	return quote
}

// CostForMethod maps a chosen shipping method to its quoted price. Unknown
// methods cost nothing, matching the pickup behaviour.
func (q Quote) CostForMethod(method string) float64 {
	switch strings.ToLower(method) {
	case "pac":
		return q.PAC
	case "sedex":
		return q.Sedex
	default:
		return q.Pickup
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// RefreshToken obtains a fresh access token via the client-credentials
// grant and makes the client use it for subsequent quotes.
func (c *Client) RefreshToken(ctx context.Context) (string, error) {
	if c.clientID == "" || c.secret == "" {
		return "", fmt.Errorf("shipping: carrier client credentials are not configured")
	}

	var token tokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type":    "client_credentials",
			"client_id":     c.clientID,
			"client_secret": c.secret,
			"scope":         "shipping-calculate shipping-checkout shipping-tracking ecommerce-shipping",
		}).
		SetResult(&token).
		Post("/oauth/token")
	if err != nil {
		return "", fmt.Errorf("shipping: token request failed: %w", err)
	}
	if resp.IsError() || token.AccessToken == "" {
		return "", fmt.Errorf("shipping: token request rejected with status %d", resp.StatusCode())
	}

	c.token = token.AccessToken
	log.Info().Int("expires_in", token.ExpiresIn).Msg("shipping: carrier token refreshed")
	return token.AccessToken, nil
}

func cleanCEP(cep string) string {
	var b strings.Builder
	for _, r := range cep {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
