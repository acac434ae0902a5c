package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/gabrielly-semijoias/storefront/internal/order"
	"github.com/gabrielly-semijoias/storefront/internal/product"
)

// respondWithError отправляет JSON ошибку
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON отправляет JSON ответ
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// mapErrorToStatusCode translates domain errors into transport status codes.
// This is the only place where the error taxonomy meets HTTP.
func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, order.ErrInvalidInput), errors.Is(err, product.ErrInvalidProduct):
		return http.StatusBadRequest
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, order.ErrProductNotFound),
		errors.Is(err, product.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, order.ErrInsufficientStock),
		errors.Is(err, order.ErrInvalidCoupon),
		errors.Is(err, order.ErrCouponMinimumNotMet),
		errors.Is(err, order.ErrNegativeTotal),
		errors.Is(err, order.ErrOrderNotCancellable):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// clientMessage picks the body for an error response: domain errors go to
// the client verbatim, everything else is replaced with a generic message.
func clientMessage(err error, generic string) string {
	if mapErrorToStatusCode(err) != http.StatusInternalServerError {
		return err.Error()
	}
	return generic
}

type ValidationErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details"`
}

func formatValidationErrors(validationErrors validator.ValidationErrors) []string {
	details := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		details = append(details, fmt.Sprintf("field '%s' failed on the '%s' rule", fieldErr.Field(), fieldErr.Tag()))
	}
	return details
}

// validateRequest runs struct validation and writes the 400 response itself
// when the payload is invalid. Returns false if the request was rejected.
func validateRequest(w http.ResponseWriter, validate *validator.Validate, payload interface{}) bool {
	err := validate.Struct(payload)
	if err == nil {
		return true
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:   "Validation failed",
			Details: formatValidationErrors(validationErrors),
		})
	} else {
		log.Error().Err(err).Type("validation_error_type", err).Msg("Unexpected error type during validation")
		respondWithError(w, http.StatusInternalServerError, "Internal validation error")
	}
	return false
}
