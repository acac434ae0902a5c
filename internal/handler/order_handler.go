package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/gabrielly-semijoias/storefront/internal/order"
)

type OrderItemRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

type AddressRequest struct {
	CEP          string `json:"cep" validate:"required"`
	Street       string `json:"street" validate:"required"`
	Number       string `json:"number" validate:"required"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city" validate:"required"`
	State        string `json:"state" validate:"required,len=2"`
}

type CustomerInfoRequest struct {
	Email     string          `json:"email" validate:"required,email"`
	FirstName string          `json:"firstName" validate:"required"`
	LastName  string          `json:"lastName"`
	Phone     string          `json:"phone"`
	CpfCnpj   string          `json:"cpfCnpj"`
	Address   *AddressRequest `json:"address"`
}

type CreateOrderRequest struct {
	Items          []OrderItemRequest  `json:"items" validate:"required,min=1,dive"`
	CustomerInfo   CustomerInfoRequest `json:"customerInfo" validate:"required"`
	ShippingMethod string              `json:"shippingMethod" validate:"required"`
	PaymentMethod  string              `json:"paymentMethod" validate:"required"`
	CouponCode     string              `json:"couponCode"`
	ShippingCost   float64             `json:"shippingCost" validate:"gte=0"`
}

type OrderHandler struct {
	service  order.Service
	validate *validator.Validate
}

func NewOrderHandler(service order.Service) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Post("/orders", h.handleCreateOrder)
	router.Get("/orders", h.handleListOrders)
	router.Get("/orders/{id}", h.handleGetOrderByID)
	router.Post("/orders/{id}/confirm", h.handleConfirmOrder)
	router.Post("/orders/{id}/cancel", h.handleCancelOrder)
	router.Get("/stats/sales", h.handleSalesSummary)
}

func (h *OrderHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateOrderRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		log.Warn().Err(err).Msg("Failed to decode checkout payload")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if !validateRequest(w, h.validate, requestPayload) {
		return
	}

	input := toCreateOrderInput(&requestPayload)

	result, err := h.service.CreateOrder(r.Context(), input)
	if err != nil {
		statusCode := mapErrorToStatusCode(err)
		if statusCode == http.StatusInternalServerError {
			log.Error().Err(err).Msg("Failed to create order via service")
		}
		respondWithError(w, statusCode, clientMessage(err, "Failed to create order"))
		return
	}

	respondWithJSON(w, http.StatusCreated, result)
}

func (h *OrderHandler) handleGetOrderByID(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	details, err := h.service.GetOrderByID(r.Context(), orderID)
	if err != nil {
		statusCode := mapErrorToStatusCode(err)
		if statusCode == http.StatusInternalServerError {
			log.Error().Err(err).Int64("order_id", orderID).Msg("Failed to get order via service")
		}
		respondWithError(w, statusCode, clientMessage(err, "Failed to get order"))
		return
	}

	respondWithJSON(w, http.StatusOK, details)
}

func (h *OrderHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list orders via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to list orders")
		return
	}
	respondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) handleConfirmOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	result, err := h.service.ConfirmOrder(r.Context(), orderID)
	if err != nil {
		statusCode := mapErrorToStatusCode(err)
		if statusCode == http.StatusInternalServerError {
			log.Error().Err(err).Int64("order_id", orderID).Msg("Failed to confirm order via service")
			respondWithError(w, statusCode, "Failed to confirm order")
			return
		}
		respondWithError(w, statusCode, "Order not found or already confirmed")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *OrderHandler) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	result, err := h.service.CancelOrder(r.Context(), orderID)
	if err != nil {
		statusCode := mapErrorToStatusCode(err)
		if statusCode == http.StatusInternalServerError {
			log.Error().Err(err).Int64("order_id", orderID).Msg("Failed to cancel order via service")
		}
		respondWithError(w, statusCode, clientMessage(err, "Failed to cancel order"))
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *OrderHandler) handleSalesSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.SalesSummary(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch sales summary via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch statistics")
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

func parseIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idParam := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil || id <= 0 {
		log.Warn().Str("id", idParam).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return 0, false
	}
	return id, true
}

func toCreateOrderInput(req *CreateOrderRequest) *order.CreateOrderInput {
	input := &order.CreateOrderInput{
		Items: make([]order.ItemInput, 0, len(req.Items)),
		Customer: order.CustomerInput{
			Email:     req.CustomerInfo.Email,
			FirstName: req.CustomerInfo.FirstName,
			LastName:  req.CustomerInfo.LastName,
			Phone:     req.CustomerInfo.Phone,
			CpfCnpj:   req.CustomerInfo.CpfCnpj,
		},
		ShippingMethod: req.ShippingMethod,
		PaymentMethod:  req.PaymentMethod,
		CouponCode:     req.CouponCode,
		ShippingCost:   req.ShippingCost,
	}

	for _, item := range req.Items {
		input.Items = append(input.Items, order.ItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	if addr := req.CustomerInfo.Address; addr != nil {
		input.Customer.Address = &order.AddressInput{
			CEP:          addr.CEP,
			Street:       addr.Street,
			Number:       addr.Number,
			Complement:   addr.Complement,
			Neighborhood: addr.Neighborhood,
			City:         addr.City,
			State:        addr.State,
		}
	}

	return input
}
