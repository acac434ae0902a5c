package coupon_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gabrielly-semijoias/storefront/internal/coupon"
	"github.com/gabrielly-semijoias/storefront/internal/order"
)

type mockCouponRepository struct {
	getByCodeFunc func(ctx context.Context, code string) (*coupon.Coupon, error)
}

func (m *mockCouponRepository) GetByCode(ctx context.Context, _ order.RowQuerier, code string) (*coupon.Coupon, error) {
	return m.getByCodeFunc(ctx, code)
}

func TestService_ResolveDiscount(t *testing.T) {
	coupons := map[string]*coupon.Coupon{
		"PRIMEIRAS50": {Code: "PRIMEIRAS50", DiscountType: coupon.TypeFixed, Value: 50.00, MinOrderValue: 100.00, Active: true},
		"DESC10":      {Code: "DESC10", DiscountType: coupon.TypePercent, Value: 0.10, MinOrderValue: 0, Active: true},
		"ANTIGO":      {Code: "ANTIGO", DiscountType: coupon.TypeFixed, Value: 20.00, MinOrderValue: 0, Active: false},
	}

	repo := &mockCouponRepository{
		getByCodeFunc: func(ctx context.Context, code string) (*coupon.Coupon, error) {
			if c, ok := coupons[code]; ok {
				return c, nil
			}
			return nil, order.ErrInvalidCoupon
		},
	}
	svc := coupon.NewService(repo)

	tests := []struct {
		name       string
		code       string
		subtotal   float64
		wantAmount float64
		wantCoupon string
		wantErrIs  error
	}{
		{
			name:     "empty_code_no_discount",
			code:     "",
			subtotal: 100,
		},
		{
			name:      "unknown_code",
			code:      "FAKE10",
			subtotal:  100,
			wantErrIs: order.ErrInvalidCoupon,
		},
		{
			name:      "inactive_code",
			code:      "ANTIGO",
			subtotal:  100,
			wantErrIs: order.ErrInvalidCoupon,
		},
		{
			name:      "below_minimum",
			code:      "PRIMEIRAS50",
			subtotal:  99.99,
			wantErrIs: order.ErrCouponMinimumNotMet,
		},
		{
			name:       "fixed_discount",
			code:       "PRIMEIRAS50",
			subtotal:   150,
			wantAmount: 50.00,
			wantCoupon: "PRIMEIRAS50",
		},
		{
			name:       "percent_discount",
			code:       "DESC10",
			subtotal:   200,
			wantAmount: 20.00,
			wantCoupon: "DESC10",
		},
		{
			name:       "percent_discount_rounded_to_cents",
			code:       "DESC10",
			subtotal:   33.33,
			wantAmount: 3.33,
			wantCoupon: "DESC10",
		},
		{
			name:       "code_is_normalized",
			code:       "  desc10 ",
			subtotal:   100,
			wantAmount: 10.00,
			wantCoupon: "DESC10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			discount, err := svc.ResolveDiscount(context.Background(), nil, tt.code, tt.subtotal)

			if tt.wantErrIs != nil {
				assert.True(t, errors.Is(err, tt.wantErrIs))
				assert.Zero(t, discount.Amount)
				return
			}

			assert.NoError(t, err)
			assert.InDelta(t, tt.wantAmount, discount.Amount, 0.0001)
			assert.Equal(t, tt.wantCoupon, discount.Coupon)
		})
	}
}

func TestService_ResolveDiscount_RepositoryFailure(t *testing.T) {
	repoErr := errors.New("connection refused")
	svc := coupon.NewService(&mockCouponRepository{
		getByCodeFunc: func(ctx context.Context, code string) (*coupon.Coupon, error) {
			return nil, repoErr
		},
	})

	_, err := svc.ResolveDiscount(context.Background(), nil, "DESC10", 100)
	assert.True(t, errors.Is(err, repoErr))
	assert.False(t, errors.Is(err, order.ErrInvalidCoupon))
}
