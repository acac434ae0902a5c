package coupon

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/gabrielly-semijoias/storefront/internal/order"
)

const (
	TypeFixed   = "fixed"
	TypePercent = "percent"
)

type Coupon struct {
	Code          string  `json:"code"`
	DiscountType  string  `json:"discount_type"`
	Value         float64 `json:"value"`
	MinOrderValue float64 `json:"min_order_value"`
	Active        bool    `json:"active"`
}

// Repository reads coupons through whatever querier the caller is on, so a
// lookup inside an open transaction rides that transaction's connection.
type Repository interface {
	GetByCode(ctx context.Context, q order.RowQuerier, code string) (*Coupon, error)
}

type postgresRepository struct{}

func NewRepository() Repository {
	return &postgresRepository{}
}

func (r *postgresRepository) GetByCode(ctx context.Context, q order.RowQuerier, code string) (*Coupon, error) {
	var c Coupon
	err := q.QueryRow(ctx, `
		SELECT code, discount_type, value, min_order_value, active
		FROM coupons
		WHERE code = $1
	`, code).Scan(&c.Code, &c.DiscountType, &c.Value, &c.MinOrderValue, &c.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrInvalidCoupon
		}
		return nil, fmt.Errorf("repository: failed to select coupon %s: %w", code, err)
	}
	return &c, nil
}

// Service resolves coupon codes into discount amounts. It implements
// order.DiscountResolver.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ResolveDiscount(ctx context.Context, q order.RowQuerier, code string, subtotal float64) (order.Discount, error) {
	if code == "" {
		return order.Discount{}, nil
	}

	normalized := strings.ToUpper(strings.TrimSpace(code))

	c, err := s.repo.GetByCode(ctx, q, normalized)
	if err != nil {
		if errors.Is(err, order.ErrInvalidCoupon) {
			log.Warn().Str("coupon", normalized).Msg("service: unknown coupon code")
			return order.Discount{}, fmt.Errorf("%w: %s", order.ErrInvalidCoupon, normalized)
		}
		return order.Discount{}, fmt.Errorf("service: failed to resolve coupon: %w", err)
	}

	if !c.Active {
		log.Warn().Str("coupon", normalized).Msg("service: inactive coupon code")
		return order.Discount{}, fmt.Errorf("%w: %s", order.ErrInvalidCoupon, normalized)
	}

	if subtotal < c.MinOrderValue {
		return order.Discount{}, fmt.Errorf("%w: coupon %s requires a minimum order of %.2f",
			order.ErrCouponMinimumNotMet, normalized, c.MinOrderValue)
	}

	var amount float64
	switch c.DiscountType {
	case TypeFixed:
		amount = c.Value
	case TypePercent:
		amount = subtotal * c.Value
	default:
		return order.Discount{}, fmt.Errorf("service: coupon %s has unknown discount type %q", normalized, c.DiscountType)
	}

	// Round to cents so the stored discount matches what the customer sees.
	amount = math.Round(amount*100) / 100

	return order.Discount{Amount: amount, Coupon: normalized}, nil
}
