package product

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProductRepository struct {
	listFunc     func(ctx context.Context, category string) ([]Product, error)
	getByIDFunc  func(ctx context.Context, id int64) (*Product, error)
	searchFunc   func(ctx context.Context, term string) ([]Product, error)
	createFunc   func(ctx context.Context, p *Product) (*Product, error)
	updateFunc   func(ctx context.Context, p *Product) (*Product, error)
	lowStockFunc func(ctx context.Context) ([]LowStockProduct, error)
}

func (m *mockProductRepository) List(ctx context.Context, category string) ([]Product, error) {
	return m.listFunc(ctx, category)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id int64) (*Product, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockProductRepository) Search(ctx context.Context, term string) ([]Product, error) {
	return m.searchFunc(ctx, term)
}

func (m *mockProductRepository) Create(ctx context.Context, p *Product) (*Product, error) {
	return m.createFunc(ctx, p)
}

func (m *mockProductRepository) Update(ctx context.Context, p *Product) (*Product, error) {
	return m.updateFunc(ctx, p)
}

func (m *mockProductRepository) LowStock(ctx context.Context) ([]LowStockProduct, error) {
	return m.lowStockFunc(ctx)
}

func TestProductService_GetProductByID(t *testing.T) {
	tests := []struct {
		name        string
		getByIDFunc func(ctx context.Context, id int64) (*Product, error)
		expectedErr error
	}{
		{
			name: "success",
			getByIDFunc: func(ctx context.Context, id int64) (*Product, error) {
				return &Product{ID: id, Name: "Brinco Dourado", Price: 49.90, Stock: 10}, nil
			},
		},
		{
			name: "not_found",
			getByIDFunc: func(ctx context.Context, id int64) (*Product, error) {
				return nil, ErrNotFound
			},
			expectedErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&mockProductRepository{getByIDFunc: tt.getByIDFunc})

			p, err := svc.GetProductByID(context.Background(), 1)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Brinco Dourado", p.Name)
		})
	}
}

func TestProductService_SearchProducts(t *testing.T) {
	t.Run("blank term skips repository", func(t *testing.T) {
		svc := NewService(&mockProductRepository{
			searchFunc: func(ctx context.Context, term string) ([]Product, error) {
				t.Fatal("repository should not be called for a blank term")
				return nil, nil
			},
		})

		products, err := svc.SearchProducts(context.Background(), "   ")

		require.NoError(t, err)
		assert.Empty(t, products)
	})

	t.Run("term is trimmed", func(t *testing.T) {
		svc := NewService(&mockProductRepository{
			searchFunc: func(ctx context.Context, term string) ([]Product, error) {
				assert.Equal(t, "brinco", term)
				return []Product{{ID: 1, Name: "Brinco Dourado"}}, nil
			},
		})

		products, err := svc.SearchProducts(context.Background(), "  brinco ")

		require.NoError(t, err)
		assert.Len(t, products, 1)
	})
}

func TestProductService_CreateProduct(t *testing.T) {
	tests := []struct {
		name    string
		product *Product
		wantErr bool
	}{
		{
			name:    "success",
			product: &Product{Name: "Colar Prata", Price: 89.90, Stock: 5},
		},
		{
			name:    "missing_name",
			product: &Product{Price: 89.90, Stock: 5},
			wantErr: true,
		},
		{
			name:    "negative_price",
			product: &Product{Name: "Colar Prata", Price: -1, Stock: 5},
			wantErr: true,
		},
		{
			name:    "negative_stock",
			product: &Product{Name: "Colar Prata", Price: 89.90, Stock: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&mockProductRepository{
				createFunc: func(ctx context.Context, p *Product) (*Product, error) {
					created := *p
					created.ID = 1
					return &created, nil
				},
			})

			created, err := svc.CreateProduct(context.Background(), tt.product)

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidProduct)
				assert.Nil(t, created)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(1), created.ID)
		})
	}
}

func TestProductService_UpdateProduct_NotFound(t *testing.T) {
	svc := NewService(&mockProductRepository{
		updateFunc: func(ctx context.Context, p *Product) (*Product, error) {
			return nil, ErrNotFound
		},
	})

	_, err := svc.UpdateProduct(context.Background(), &Product{ID: 99, Name: "Anel", Price: 39.90, Stock: 3})

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductService_ListProducts_RepositoryFailure(t *testing.T) {
	svc := NewService(&mockProductRepository{
		listFunc: func(ctx context.Context, category string) ([]Product, error) {
			return nil, errors.New("connection refused")
		},
	})

	_, err := svc.ListProducts(context.Background(), "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list products")
}
