package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/gabrielly-semijoias/storefront/internal/product"
)

type ProductRequest struct {
	Name          string   `json:"name" validate:"required"`
	Description   string   `json:"description"`
	Price         float64  `json:"price" validate:"gte=0"`
	PriceDiscount *float64 `json:"priceDiscount" validate:"omitempty,gte=0"`
	Image         string   `json:"image"`
	Category      string   `json:"category"`
	Material      string   `json:"material"`
	Color         string   `json:"color"`
	Style         string   `json:"style"`
	Occasion      string   `json:"occasion"`
	Stock         int      `json:"stock" validate:"gte=0"`
}

type ProductHandler struct {
	service  product.Service
	validate *validator.Validate
}

func NewProductHandler(service product.Service) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *ProductHandler) RegisterRoutes(router chi.Router) {
	router.Get("/products", h.handleListProducts)
	router.Get("/products/search", h.handleSearchProducts)
	router.Get("/products/{id}", h.handleGetProductByID)
	router.Post("/products", h.handleCreateProduct)
	router.Put("/products/{id}", h.handleUpdateProduct)
	router.Get("/stats/low-stock", h.handleLowStock)
}

func (h *ProductHandler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	products, err := h.service.ListProducts(r.Context(), category)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list products via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to list products")
		return
	}
	respondWithJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) handleSearchProducts(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")

	products, err := h.service.SearchProducts(r.Context(), term)
	if err != nil {
		log.Error().Err(err).Str("term", term).Msg("Failed to search products via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to search products")
		return
	}
	respondWithJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) handleGetProductByID(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	p, err := h.service.GetProductByID(r.Context(), productID)
	if err != nil {
		statusCode := mapErrorToStatusCode(err)
		if statusCode == http.StatusInternalServerError {
			log.Error().Err(err).Int64("product_id", productID).Msg("Failed to get product via service")
		}
		respondWithError(w, statusCode, clientMessage(err, "Failed to get product"))
		return
	}
	respondWithJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	requestPayload, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}

	created, err := h.service.CreateProduct(r.Context(), toDomainProduct(requestPayload, 0))
	if err != nil {
		statusCode := mapErrorToStatusCode(err)
		if statusCode == http.StatusInternalServerError {
			log.Error().Err(err).Msg("Failed to create product via service")
		}
		respondWithError(w, statusCode, clientMessage(err, "Failed to create product"))
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

func (h *ProductHandler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	requestPayload, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}

	updated, err := h.service.UpdateProduct(r.Context(), toDomainProduct(requestPayload, productID))
	if err != nil {
		statusCode := mapErrorToStatusCode(err)
		if statusCode == http.StatusInternalServerError {
			log.Error().Err(err).Int64("product_id", productID).Msg("Failed to update product via service")
		}
		respondWithError(w, statusCode, clientMessage(err, "Failed to update product"))
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *ProductHandler) handleLowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.LowStockProducts(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch low stock products via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch statistics")
		return
	}
	respondWithJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) decodeProduct(w http.ResponseWriter, r *http.Request) (*ProductRequest, bool) {
	var requestPayload ProductRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		log.Warn().Err(err).Msg("Failed to decode product payload")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return nil, false
	}

	if !validateRequest(w, h.validate, requestPayload) {
		return nil, false
	}
	return &requestPayload, true
}

func toDomainProduct(req *ProductRequest, id int64) *product.Product {
	return &product.Product{
		ID:            id,
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		PriceDiscount: req.PriceDiscount,
		Image:         req.Image,
		Category:      req.Category,
		Material:      req.Material,
		Color:         req.Color,
		Style:         req.Style,
		Occasion:      req.Occasion,
		Stock:         req.Stock,
	}
}
