package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/gabrielly-semijoias/storefront/internal/shipping"
)

// QuoteProvider is the slice of the shipping client the handler needs.
type QuoteProvider interface {
	Calculate(ctx context.Context, req shipping.QuoteRequest) shipping.Quote
}

type CalculateShippingRequest struct {
	CEP      string  `json:"cep" validate:"required"`
	WeightKg float64 `json:"weightKg" validate:"gte=0"`
	LengthCm float64 `json:"lengthCm" validate:"gte=0"`
	WidthCm  float64 `json:"widthCm" validate:"gte=0"`
	HeightCm float64 `json:"heightCm" validate:"gte=0"`
}

type ShippingHandler struct {
	quotes   QuoteProvider
	validate *validator.Validate
}

func NewShippingHandler(quotes QuoteProvider) *ShippingHandler {
	return &ShippingHandler{
		quotes:   quotes,
		validate: validator.New(),
	}
}

func (h *ShippingHandler) RegisterRoutes(router chi.Router) {
	router.Post("/shipping/calculate", h.handleCalculate)
}

func (h *ShippingHandler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var requestPayload CalculateShippingRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		log.Warn().Err(err).Msg("Failed to decode shipping payload")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if !validateRequest(w, h.validate, requestPayload) {
		return
	}

	quote := h.quotes.Calculate(r.Context(), shipping.QuoteRequest{
		DestinationCEP: requestPayload.CEP,
		WeightKg:       requestPayload.WeightKg,
		LengthCm:       requestPayload.LengthCm,
		WidthCm:        requestPayload.WidthCm,
		HeightCm:       requestPayload.HeightCm,
	})

	respondWithJSON(w, http.StatusOK, quote)
}
