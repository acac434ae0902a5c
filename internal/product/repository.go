package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("product not found")

type Repository interface {
	List(ctx context.Context, category string) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	Search(ctx context.Context, term string) ([]Product, error)
	Create(ctx context.Context, p *Product) (*Product, error)
	Update(ctx context.Context, p *Product) (*Product, error)
	LowStock(ctx context.Context) ([]LowStockProduct, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const productColumns = `id, name, COALESCE(description, ''), price, price_discount, COALESCE(image, ''),
	COALESCE(category, ''), COALESCE(material, ''), COALESCE(color, ''), COALESCE(style, ''),
	COALESCE(occasion, ''), stock, active, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.PriceDiscount, &p.Image,
		&p.Category, &p.Material, &p.Color, &p.Style, &p.Occasion,
		&p.Stock, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepository) List(ctx context.Context, category string) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE active = TRUE`
	args := []any{}
	if category != "" {
		query += ` AND category = $1`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*Product, error) {
	row := r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 AND active = TRUE`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select product by id %d: %w", id, err)
	}
	return p, nil
}

func (r *postgresRepository) Search(ctx context.Context, term string) ([]Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE (name ILIKE $1 OR description ILIKE $1) AND active = TRUE
		LIMIT 50
	`, "%"+term+"%")
	if err != nil {
		return nil, fmt.Errorf("repository: failed to search products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

func (r *postgresRepository) Create(ctx context.Context, p *Product) (*Product, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO products (name, description, price, price_discount, image, category,
		                      material, color, style, occasion, stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+productColumns+`
	`, p.Name, p.Description, p.Price, p.PriceDiscount, p.Image, p.Category,
		p.Material, p.Color, p.Style, p.Occasion, p.Stock)

	created, err := scanProduct(row)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to insert product: %w", err)
	}
	return created, nil
}

func (r *postgresRepository) Update(ctx context.Context, p *Product) (*Product, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE products
		SET name = $1, description = $2, price = $3, price_discount = $4, image = $5,
		    category = $6, material = $7, color = $8, style = $9, occasion = $10,
		    stock = $11, updated_at = CURRENT_TIMESTAMP
		WHERE id = $12 AND active = TRUE
		RETURNING `+productColumns+`
	`, p.Name, p.Description, p.Price, p.PriceDiscount, p.Image, p.Category,
		p.Material, p.Color, p.Style, p.Occasion, p.Stock, p.ID)

	updated, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to update product %d: %w", p.ID, err)
	}
	return updated, nil
}

func (r *postgresRepository) LowStock(ctx context.Context) ([]LowStockProduct, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, COALESCE(category, ''), stock FROM low_stock_products`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query low stock products: %w", err)
	}
	defer rows.Close()

	products := make([]LowStockProduct, 0)
	for rows.Next() {
		var p LowStockProduct
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Stock); err != nil {
			return nil, fmt.Errorf("repository: failed to scan low stock product: %w", err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating low stock products: %w", err)
	}
	return products, nil
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	products := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating products: %w", err)
	}
	return products, nil
}
