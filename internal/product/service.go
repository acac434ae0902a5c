package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

var ErrInvalidProduct = errors.New("invalid product")

type Service interface {
	ListProducts(ctx context.Context, category string) ([]Product, error)
	GetProductByID(ctx context.Context, id int64) (*Product, error)
	SearchProducts(ctx context.Context, term string) ([]Product, error)
	CreateProduct(ctx context.Context, p *Product) (*Product, error)
	UpdateProduct(ctx context.Context, p *Product) (*Product, error)
	LowStockProducts(ctx context.Context) ([]LowStockProduct, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) ListProducts(ctx context.Context, category string) ([]Product, error) {
	products, err := s.repo.List(ctx, category)
	if err != nil {
		log.Error().Err(err).Str("category", category).Msg("service: failed to list products")
		return nil, fmt.Errorf("service: failed to list products: %w", err)
	}
	return products, nil
}

func (s *service) GetProductByID(ctx context.Context, id int64) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Int64("product_id", id).Msg("service: failed to get product by id")
		return nil, fmt.Errorf("service: failed to get product by id: %w", err)
	}
	return p, nil
}

func (s *service) SearchProducts(ctx context.Context, term string) ([]Product, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []Product{}, nil
	}
	products, err := s.repo.Search(ctx, term)
	if err != nil {
		log.Error().Err(err).Str("term", term).Msg("service: failed to search products")
		return nil, fmt.Errorf("service: failed to search products: %w", err)
	}
	return products, nil
}

func (s *service) CreateProduct(ctx context.Context, p *Product) (*Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		log.Error().Err(err).Str("name", p.Name).Msg("service: failed to create product")
		return nil, fmt.Errorf("service: failed to create product: %w", err)
	}
	log.Info().Int64("product_id", created.ID).Str("name", created.Name).Msg("service: product created")
	return created, nil
}

func (s *service) UpdateProduct(ctx context.Context, p *Product) (*Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, p)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Int64("product_id", p.ID).Msg("service: failed to update product")
		return nil, fmt.Errorf("service: failed to update product: %w", err)
	}
	return updated, nil
}

func (s *service) LowStockProducts(ctx context.Context) ([]LowStockProduct, error) {
	products, err := s.repo.LowStock(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to fetch low stock products")
		return nil, fmt.Errorf("service: failed to fetch low stock products: %w", err)
	}
	return products, nil
}

func validateProduct(p *Product) error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidProduct)
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", ErrInvalidProduct)
	}
	return nil
}
