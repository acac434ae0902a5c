package order_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gabrielly-semijoias/storefront/internal/order"
)

type mockOrderRepository struct {
	createOrderFunc  func(ctx context.Context, input *order.CreateOrderInput) (*order.CreateOrderResult, error)
	getOrderByIDFunc func(ctx context.Context, id int64) (*order.OrderDetails, error)
	listOrdersFunc   func(ctx context.Context) ([]order.OrderSummary, error)
	confirmOrderFunc func(ctx context.Context, id int64) (*order.StatusChangeResult, error)
	cancelOrderFunc  func(ctx context.Context, id int64) (*order.StatusChangeResult, error)
	salesSummaryFunc func(ctx context.Context) ([]order.SalesSummaryRow, error)
}

func (m *mockOrderRepository) CreateOrder(ctx context.Context, input *order.CreateOrderInput) (*order.CreateOrderResult, error) {
	return m.createOrderFunc(ctx, input)
}

func (m *mockOrderRepository) GetOrderByID(ctx context.Context, id int64) (*order.OrderDetails, error) {
	return m.getOrderByIDFunc(ctx, id)
}

func (m *mockOrderRepository) ListOrders(ctx context.Context) ([]order.OrderSummary, error) {
	return m.listOrdersFunc(ctx)
}

func (m *mockOrderRepository) ConfirmOrder(ctx context.Context, id int64) (*order.StatusChangeResult, error) {
	return m.confirmOrderFunc(ctx, id)
}

func (m *mockOrderRepository) CancelOrder(ctx context.Context, id int64) (*order.StatusChangeResult, error) {
	return m.cancelOrderFunc(ctx, id)
}

func (m *mockOrderRepository) SalesSummary(ctx context.Context) ([]order.SalesSummaryRow, error) {
	return m.salesSummaryFunc(ctx)
}

func validInput() *order.CreateOrderInput {
	return &order.CreateOrderInput{
		Items: []order.ItemInput{{ProductID: 1, Quantity: 2}},
		Customer: order.CustomerInput{
			Email:     "a@b.com",
			FirstName: "Ana",
		},
		ShippingMethod: "pac",
		PaymentMethod:  "pix",
		ShippingCost:   20,
	}
}

func TestOrderService_CreateOrder(t *testing.T) {
	repoErr := errors.New("connection refused")

	tests := []struct {
		name            string
		mutate          func(input *order.CreateOrderInput)
		createOrderFunc func(ctx context.Context, input *order.CreateOrderInput) (*order.CreateOrderResult, error)
		wantErrIs       error
		wantTotal       float64
	}{
		{
			name:      "empty_items",
			mutate:    func(input *order.CreateOrderInput) { input.Items = nil },
			wantErrIs: order.ErrInvalidInput,
		},
		{
			name:      "zero_quantity",
			mutate:    func(input *order.CreateOrderInput) { input.Items[0].Quantity = 0 },
			wantErrIs: order.ErrInvalidInput,
		},
		{
			name:      "non_positive_product_id",
			mutate:    func(input *order.CreateOrderInput) { input.Items[0].ProductID = 0 },
			wantErrIs: order.ErrInvalidInput,
		},
		{
			name:      "missing_email",
			mutate:    func(input *order.CreateOrderInput) { input.Customer.Email = "" },
			wantErrIs: order.ErrInvalidInput,
		},
		{
			name:      "missing_first_name",
			mutate:    func(input *order.CreateOrderInput) { input.Customer.FirstName = "" },
			wantErrIs: order.ErrInvalidInput,
		},
		{
			name:      "negative_shipping_cost",
			mutate:    func(input *order.CreateOrderInput) { input.ShippingCost = -1 },
			wantErrIs: order.ErrInvalidInput,
		},
		{
			name: "insufficient_stock_passthrough",
			createOrderFunc: func(ctx context.Context, input *order.CreateOrderInput) (*order.CreateOrderResult, error) {
				return nil, order.ErrInsufficientStock
			},
			wantErrIs: order.ErrInsufficientStock,
		},
		{
			name: "invalid_coupon_passthrough",
			createOrderFunc: func(ctx context.Context, input *order.CreateOrderInput) (*order.CreateOrderResult, error) {
				return nil, order.ErrInvalidCoupon
			},
			wantErrIs: order.ErrInvalidCoupon,
		},
		{
			name: "repository_failure_wrapped",
			createOrderFunc: func(ctx context.Context, input *order.CreateOrderInput) (*order.CreateOrderResult, error) {
				return nil, repoErr
			},
			wantErrIs: repoErr,
		},
		{
			name: "success",
			createOrderFunc: func(ctx context.Context, input *order.CreateOrderInput) (*order.CreateOrderResult, error) {
				return &order.CreateOrderResult{
					OrderID:     42,
					OrderNumber: "ORD-1700000000000-abc123",
					Status:      order.StatusPending,
					TotalAmount: 120.00,
				}, nil
			},
			wantTotal: 120.00,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			if tt.mutate != nil {
				tt.mutate(input)
			}

			createOrderFunc := tt.createOrderFunc
			if createOrderFunc == nil {
				createOrderFunc = func(ctx context.Context, input *order.CreateOrderInput) (*order.CreateOrderResult, error) {
					t.Fatal("repository should not be called for invalid input")
					return nil, nil
				}
			}

			svc := order.NewService(&mockOrderRepository{createOrderFunc: createOrderFunc})
			result, err := svc.CreateOrder(context.Background(), input)

			if tt.wantErrIs != nil {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErrIs))
				assert.Nil(t, result)
				return
			}

			assert.NoError(t, err)
			if assert.NotNil(t, result) {
				assert.Equal(t, order.StatusPending, result.Status)
				assert.Equal(t, tt.wantTotal, result.TotalAmount)
			}
		})
	}
}

func TestOrderService_GetOrderByID(t *testing.T) {
	tests := []struct {
		name             string
		getOrderByIDFunc func(ctx context.Context, id int64) (*order.OrderDetails, error)
		wantErrIs        error
	}{
		{
			name: "success",
			getOrderByIDFunc: func(ctx context.Context, id int64) (*order.OrderDetails, error) {
				return &order.OrderDetails{Order: order.Order{ID: id, Status: order.StatusPending}}, nil
			},
		},
		{
			name: "not_found",
			getOrderByIDFunc: func(ctx context.Context, id int64) (*order.OrderDetails, error) {
				return nil, order.ErrOrderNotFound
			},
			wantErrIs: order.ErrOrderNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := order.NewService(&mockOrderRepository{getOrderByIDFunc: tt.getOrderByIDFunc})
			details, err := svc.GetOrderByID(context.Background(), 7)

			if tt.wantErrIs != nil {
				assert.True(t, errors.Is(err, tt.wantErrIs))
				assert.Nil(t, details)
				return
			}

			assert.NoError(t, err)
			if assert.NotNil(t, details) {
				assert.Equal(t, int64(7), details.ID)
			}
		})
	}
}

func TestOrderService_CancelOrder(t *testing.T) {
	tests := []struct {
		name            string
		cancelOrderFunc func(ctx context.Context, id int64) (*order.StatusChangeResult, error)
		wantErrIs       error
	}{
		{
			name: "success",
			cancelOrderFunc: func(ctx context.Context, id int64) (*order.StatusChangeResult, error) {
				return &order.StatusChangeResult{OrderNumber: "ORD-1", Status: order.StatusCancelled}, nil
			},
		},
		{
			name: "already_paid",
			cancelOrderFunc: func(ctx context.Context, id int64) (*order.StatusChangeResult, error) {
				return nil, order.ErrOrderNotCancellable
			},
			wantErrIs: order.ErrOrderNotCancellable,
		},
		{
			name: "not_found",
			cancelOrderFunc: func(ctx context.Context, id int64) (*order.StatusChangeResult, error) {
				return nil, order.ErrOrderNotFound
			},
			wantErrIs: order.ErrOrderNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := order.NewService(&mockOrderRepository{cancelOrderFunc: tt.cancelOrderFunc})
			result, err := svc.CancelOrder(context.Background(), 1)

			if tt.wantErrIs != nil {
				assert.True(t, errors.Is(err, tt.wantErrIs))
				assert.Nil(t, result)
				return
			}

			assert.NoError(t, err)
			if assert.NotNil(t, result) {
				assert.Equal(t, order.StatusCancelled, result.Status)
			}
		})
	}
}
