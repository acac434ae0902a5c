package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

var ErrInvalidInput = errors.New("invalid order input")

type Service interface {
	CreateOrder(ctx context.Context, input *CreateOrderInput) (*CreateOrderResult, error)
	GetOrderByID(ctx context.Context, id int64) (*OrderDetails, error)
	ListOrders(ctx context.Context) ([]OrderSummary, error)
	ConfirmOrder(ctx context.Context, id int64) (*StatusChangeResult, error)
	CancelOrder(ctx context.Context, id int64) (*StatusChangeResult, error)
	SalesSummary(ctx context.Context) ([]SalesSummaryRow, error)
}

type service struct {
	orderRepo Repository
}

func NewService(orderRepo Repository) Service {
	return &service{orderRepo: orderRepo}
}

func (s *service) CreateOrder(ctx context.Context, input *CreateOrderInput) (*CreateOrderResult, error) {
	if len(input.Items) == 0 {
		log.Warn().Msg("service: attempt to create order with no items")
		return nil, fmt.Errorf("%w: order must contain at least one item", ErrInvalidInput)
	}

	for _, item := range input.Items {
		if item.ProductID <= 0 {
			return nil, fmt.Errorf("%w: product id must be positive", ErrInvalidInput)
		}
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity for product %d must be greater than zero", ErrInvalidInput, item.ProductID)
		}
	}

	if input.Customer.Email == "" {
		return nil, fmt.Errorf("%w: customer email is required", ErrInvalidInput)
	}
	if input.Customer.FirstName == "" {
		return nil, fmt.Errorf("%w: customer first name is required", ErrInvalidInput)
	}
	if input.ShippingCost < 0 {
		return nil, fmt.Errorf("%w: shipping cost cannot be negative", ErrInvalidInput)
	}

	result, err := s.orderRepo.CreateOrder(ctx, input)
	if err != nil {
		if isDomainError(err) {
			log.Warn().Err(err).Str("email", input.Customer.Email).Msg("service: order rejected")
			return nil, err
		}
		log.Error().Err(err).Msg("service: failed to create order in repository")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	log.Info().
		Int64("order_id", result.OrderID).
		Str("order_number", result.OrderNumber).
		Float64("total_amount", result.TotalAmount).
		Msg("service: order created successfully")

	return result, nil
}

func (s *service) GetOrderByID(ctx context.Context, id int64) (*OrderDetails, error) {
	details, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Int64("order_id", id).Msg("service: order not found by id")
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Msg("service: failed to fetch order by id in repository")
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}
	return details, nil
}

func (s *service) ListOrders(ctx context.Context) ([]OrderSummary, error) {
	orders, err := s.orderRepo.ListOrders(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list orders in repository")
		return nil, fmt.Errorf("service: failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *service) ConfirmOrder(ctx context.Context, id int64) (*StatusChangeResult, error) {
	result, err := s.orderRepo.ConfirmOrder(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Int64("order_id", id).Msg("service: order not found or already confirmed")
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Int64("order_id", id).Msg("service: failed to confirm order")
		return nil, fmt.Errorf("service: failed to confirm order: %w", err)
	}
	return result, nil
}

func (s *service) CancelOrder(ctx context.Context, id int64) (*StatusChangeResult, error) {
	result, err := s.orderRepo.CancelOrder(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) || errors.Is(err, ErrOrderNotCancellable) {
			log.Warn().Err(err).Int64("order_id", id).Msg("service: cancel rejected")
			return nil, err
		}
		log.Error().Err(err).Int64("order_id", id).Msg("service: failed to cancel order")
		return nil, fmt.Errorf("service: failed to cancel order: %w", err)
	}
	return result, nil
}

func (s *service) SalesSummary(ctx context.Context) ([]SalesSummaryRow, error) {
	summary, err := s.orderRepo.SalesSummary(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to fetch sales summary")
		return nil, fmt.Errorf("service: failed to fetch sales summary: %w", err)
	}
	return summary, nil
}

// isDomainError reports whether err belongs to the closed set of expected
// order placement failures, as opposed to infrastructure trouble.
func isDomainError(err error) bool {
	return errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrInvalidCoupon) ||
		errors.Is(err, ErrCouponMinimumNotMet) ||
		errors.Is(err, ErrNegativeTotal)
}
