package order

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// RowQuerier is the read surface shared by *pgxpool.Pool and pgx.Tx.
type RowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DiscountResolver resolves a coupon code against an order subtotal. It is
// expected to fail with ErrInvalidCoupon or ErrCouponMinimumNotMet; any
// failure aborts the order transaction. The querier is the transaction that
// holds the product locks, so the coupon read never waits on a second pool
// connection.
type DiscountResolver interface {
	ResolveDiscount(ctx context.Context, q RowQuerier, code string, subtotal float64) (Discount, error)
}

type Repository interface {
	CreateOrder(ctx context.Context, input *CreateOrderInput) (*CreateOrderResult, error)
	GetOrderByID(ctx context.Context, id int64) (*OrderDetails, error)
	ListOrders(ctx context.Context) ([]OrderSummary, error)
	ConfirmOrder(ctx context.Context, id int64) (*StatusChangeResult, error)
	CancelOrder(ctx context.Context, id int64) (*StatusChangeResult, error)
	SalesSummary(ctx context.Context) ([]SalesSummaryRow, error)
}

type postgresRepository struct {
	db        *pgxpool.Pool
	discounts DiscountResolver
}

func NewRepository(db *pgxpool.Pool, discounts DiscountResolver) Repository {
	return &postgresRepository{db: db, discounts: discounts}
}

// lockedProduct is the single FOR UPDATE snapshot of a product row, reused
// for pricing, denormalized item inserts and the stock decrement.
type lockedProduct struct {
	ID    int64
	Name  string
	Price float64
	Stock int
}

// CreateOrder runs the whole order placement as one transaction: stock
// validation under row locks, discount resolution, customer/address upsert,
// order + item inserts and the stock ledger. Any failure rolls back every
// write.
func (r *postgresRepository) CreateOrder(ctx context.Context, input *CreateOrderInput) (result *CreateOrderResult, err error) {
	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return nil, fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic_value", p).Msg("Panic recovered during CreateOrder, rolling back")
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Msg("Failed to rollback transaction after panic")
			}
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Msg("Failed to rollback transaction")
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				log.Error().Err(commitErr).Msg("Failed to commit order transaction")
				result = nil
				err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
			}
		}
	}()

	products, err := r.lockProducts(ctx, tx, input.Items)
	if err != nil {
		return nil, err
	}

	// Stock check and subtotal against the locked snapshots. consumed tracks
	// quantities already claimed by earlier items for the same product.
	subtotal := 0.0
	consumed := make(map[int64]int, len(products))
	for _, item := range input.Items {
		p := products[item.ProductID]
		if p.Stock-consumed[item.ProductID] < item.Quantity {
			err = fmt.Errorf("%w: %s (available: %d)", ErrInsufficientStock, p.Name, p.Stock-consumed[item.ProductID])
			return nil, err
		}
		consumed[item.ProductID] += item.Quantity
		subtotal += p.Price * float64(item.Quantity)
	}

	var discount Discount
	if input.CouponCode != "" {
		discount, err = r.discounts.ResolveDiscount(ctx, tx, input.CouponCode, subtotal)
		if err != nil {
			return nil, err
		}
	}

	finalTotal := subtotal - discount.Amount + input.ShippingCost
	if finalTotal < 0 {
		err = fmt.Errorf("%w: %.2f", ErrNegativeTotal, finalTotal)
		return nil, err
	}

	customerID, err := r.upsertCustomer(ctx, tx, input.Customer)
	if err != nil {
		return nil, err
	}

	var addressID *int64
	if input.Customer.Address != nil {
		addressID, err = r.insertAddress(ctx, tx, customerID, input.Customer.Address)
		if err != nil {
			return nil, err
		}
	}

	orderNumber := newOrderNumber()
	var notes *string
	if discount.Coupon != "" {
		n := fmt.Sprintf("Cupom: %s", discount.Coupon)
		notes = &n
	}

	var orderID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (order_number, customer_id, total_amount, discount, shipping_cost,
		                    payment_method, shipping_method, shipping_address_id, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, orderNumber, customerID, finalTotal, discount.Amount, input.ShippingCost,
		input.PaymentMethod, input.ShippingMethod, addressID, notes, string(StatusPending),
	).Scan(&orderID)
	if err != nil {
		if isUniqueViolation(err) {
			err = fmt.Errorf("repository: order number collision for %s: %w", orderNumber, err)
			return nil, err
		}
		err = fmt.Errorf("repository: failed to insert order: %w", err)
		return nil, err
	}

	for _, item := range input.Items {
		p := products[item.ProductID]
		unitPrice := p.Price
		itemSubtotal := unitPrice * float64(item.Quantity)

		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, orderID, item.ProductID, p.Name, item.Quantity, unitPrice, itemSubtotal)
		if err != nil {
			err = fmt.Errorf("repository: failed to insert order item for order %d: %w", orderID, err)
			return nil, err
		}

		newStock := p.Stock - item.Quantity
		_, err = tx.Exec(ctx, `
			UPDATE products SET stock = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2
		`, newStock, item.ProductID)
		if err != nil {
			err = fmt.Errorf("repository: failed to update stock for product %d: %w", item.ProductID, err)
			return nil, err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO stock_history (product_id, order_id, quantity_change, previous_stock, new_stock, reason)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, item.ProductID, orderID, -item.Quantity, p.Stock, newStock, "order_created")
		if err != nil {
			err = fmt.Errorf("repository: failed to insert stock history for product %d: %w", item.ProductID, err)
			return nil, err
		}

		// Carry the decrement forward for repeated items of the same product.
		p.Stock = newStock
	}

	return &CreateOrderResult{
		OrderID:     orderID,
		OrderNumber: orderNumber,
		Status:      StatusPending,
		TotalAmount: finalTotal,
		Message:     "Order created successfully",
	}, nil
}

// lockProducts acquires FOR UPDATE locks on every distinct product referenced
// by the order, in ascending id order so that two concurrent multi-item
// orders can never lock the same pair of rows in opposite sequences.
func (r *postgresRepository) lockProducts(ctx context.Context, tx pgx.Tx, items []ItemInput) (map[int64]*lockedProduct, error) {
	ids := make([]int64, 0, len(items))
	seen := make(map[int64]bool, len(items))
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	products := make(map[int64]*lockedProduct, len(ids))
	for _, id := range ids {
		var p lockedProduct
		scanErr := tx.QueryRow(ctx, `
			SELECT id, name, price, stock FROM products WHERE id = $1 FOR UPDATE
		`, id).Scan(&p.ID, &p.Name, &p.Price, &p.Stock)
		if scanErr != nil {
			if errors.Is(scanErr, pgx.ErrNoRows) {
				return nil, fmt.Errorf("%w: %d", ErrProductNotFound, id)
			}
			return nil, fmt.Errorf("repository: failed to lock product %d: %w", id, scanErr)
		}
		products[id] = &p
	}
	return products, nil
}

func (r *postgresRepository) upsertCustomer(ctx context.Context, tx pgx.Tx, c CustomerInput) (int64, error) {
	var customerID int64
	err := tx.QueryRow(ctx, `SELECT id FROM customers WHERE email = $1`, c.Email).Scan(&customerID)
	switch {
	case err == nil:
		_, err = tx.Exec(ctx, `
			UPDATE customers
			SET first_name = $1, last_name = $2, phone = $3, cpf_cnpj = $4, updated_at = CURRENT_TIMESTAMP
			WHERE id = $5
		`, c.FirstName, c.LastName, c.Phone, c.CpfCnpj, customerID)
		if err != nil {
			return 0, fmt.Errorf("repository: failed to update customer %d: %w", customerID, err)
		}
	case errors.Is(err, pgx.ErrNoRows):
		err = tx.QueryRow(ctx, `
			INSERT INTO customers (first_name, last_name, email, phone, cpf_cnpj)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, c.FirstName, c.LastName, c.Email, c.Phone, c.CpfCnpj).Scan(&customerID)
		if err != nil {
			if isUniqueViolation(err) {
				return 0, fmt.Errorf("repository: concurrent customer creation for %s: %w", c.Email, err)
			}
			return 0, fmt.Errorf("repository: failed to insert customer: %w", err)
		}
	default:
		return 0, fmt.Errorf("repository: failed to look up customer by email: %w", err)
	}
	return customerID, nil
}

func (r *postgresRepository) insertAddress(ctx context.Context, tx pgx.Tx, customerID int64, a *AddressInput) (*int64, error) {
	var addressID int64
	err := tx.QueryRow(ctx, `
		INSERT INTO addresses (customer_id, cep, street, number, complement, neighborhood, city, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, customerID, a.CEP, a.Street, a.Number, a.Complement, a.Neighborhood, a.City, a.State).Scan(&addressID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to insert address: %w", err)
	}
	return &addressID, nil
}

// newOrderNumber builds a human-readable, time-derived order number. The
// uuid suffix keeps numbers unique when two orders land in the same
// millisecond; the unique index on orders.order_number backs this up.
func newOrderNumber() string {
	suffix := "000000"
	if id, err := uuid.NewV4(); err == nil {
		suffix = id.String()[:6]
	}
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), suffix)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func (r *postgresRepository) GetOrderByID(ctx context.Context, id int64) (*OrderDetails, error) {
	// Point-in-time read, no locks needed: the order plus customer and
	// address in one query, items in a second.
	queryOrder := `
		SELECT o.id, o.order_number, o.customer_id, o.total_amount, o.discount, o.shipping_cost,
		       COALESCE(o.payment_method, ''), COALESCE(o.shipping_method, ''), o.shipping_address_id,
		       o.status, COALESCE(o.notes, ''), o.paid_at, o.cancelled_at, o.created_at, o.updated_at,
		       c.id, c.first_name, COALESCE(c.last_name, ''), c.email, COALESCE(c.phone, ''), COALESCE(c.cpf_cnpj, ''),
		       a.id, a.cep, a.street, a.number, COALESCE(a.complement, ''), a.neighborhood, a.city, a.state
		FROM orders o
		JOIN customers c ON o.customer_id = c.id
		LEFT JOIN addresses a ON o.shipping_address_id = a.id
		WHERE o.id = $1
	`

	var details OrderDetails
	var addrID *int64
	var addrCEP, addrStreet, addrNumber, addrComplement, addrNeighborhood, addrCity, addrState *string
	err := r.db.QueryRow(ctx, queryOrder, id).Scan(
		&details.ID, &details.OrderNumber, &details.CustomerID, &details.TotalAmount,
		&details.Discount, &details.ShippingCost, &details.PaymentMethod, &details.ShippingMethod,
		&details.ShippingAddressID, &details.Status, &details.Notes,
		&details.PaidAt, &details.CancelledAt, &details.CreatedAt, &details.UpdatedAt,
		&details.Customer.ID, &details.Customer.FirstName, &details.Customer.LastName,
		&details.Customer.Email, &details.Customer.Phone, &details.Customer.CpfCnpj,
		&addrID, &addrCEP, &addrStreet, &addrNumber, &addrComplement, &addrNeighborhood, &addrCity, &addrState,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %d: %w", id, err)
	}

	if addrID != nil {
		details.Address = &Address{
			ID:           *addrID,
			CEP:          deref(addrCEP),
			Street:       deref(addrStreet),
			Number:       deref(addrNumber),
			Complement:   deref(addrComplement),
			Neighborhood: deref(addrNeighborhood),
			City:         deref(addrCity),
			State:        deref(addrState),
		}
	}

	queryItems := `
		SELECT oi.id, oi.order_id, oi.product_id, oi.product_name, oi.quantity, oi.unit_price, oi.subtotal,
		       COALESCE(p.image, ''), COALESCE(p.category, '')
		FROM order_items oi
		JOIN products p ON oi.product_id = p.id
		WHERE oi.order_id = $1
		ORDER BY oi.id
	`
	rows, err := r.db.Query(ctx, queryItems, id)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items for order id %d: %w", id, err)
	}
	defer rows.Close()

	items := make([]OrderItemDetail, 0)
	for rows.Next() {
		var item OrderItemDetail
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.Quantity, &item.UnitPrice, &item.Subtotal,
			&item.ProductImage, &item.ProductCategory,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item for order id %d: %w", id, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items for order id %d: %w", id, err)
	}

	details.Items = items
	return &details, nil
}

func (r *postgresRepository) ListOrders(ctx context.Context) ([]OrderSummary, error) {
	query := `
		SELECT o.id, o.order_number, o.status, o.total_amount, o.created_at,
		       TRIM(c.first_name || ' ' || COALESCE(c.last_name, '')), c.email,
		       COUNT(oi.id) AS items_count
		FROM orders o
		LEFT JOIN customers c ON o.customer_id = c.id
		LEFT JOIN order_items oi ON o.id = oi.order_id
		GROUP BY o.id, c.first_name, c.last_name, c.email
		ORDER BY o.created_at DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer rows.Close()

	summaries := make([]OrderSummary, 0)
	for rows.Next() {
		var s OrderSummary
		err := rows.Scan(&s.ID, &s.OrderNumber, &s.Status, &s.TotalAmount, &s.CreatedAt, &s.CustomerName, &s.Email, &s.ItemsCount)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order summaries: %w", err)
	}
	return summaries, nil
}

// ConfirmOrder flips a pending order to paid. The status guard in the WHERE
// clause makes the call idempotent-safe: a second confirm finds no row.
func (r *postgresRepository) ConfirmOrder(ctx context.Context, id int64) (*StatusChangeResult, error) {
	var orderNumber string
	var status Status
	err := r.db.QueryRow(ctx, `
		UPDATE orders
		SET status = $1, paid_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2 AND status = $3
		RETURNING order_number, status
	`, string(StatusPaid), id, string(StatusPending)).Scan(&orderNumber, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to confirm order %d: %w", id, err)
	}

	log.Info().Int64("order_id", id).Str("order_number", orderNumber).Msg("Order confirmed")
	return &StatusChangeResult{
		OrderNumber: orderNumber,
		Status:      status,
		Message:     "Payment confirmed",
	}, nil
}

// CancelOrder cancels a pending order and returns its stock, appending a
// compensating stock_history row per item.
func (r *postgresRepository) CancelOrder(ctx context.Context, id int64) (result *StatusChangeResult, err error) {
	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return nil, fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Msg("Failed to rollback transaction after panic")
			}
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Msg("Failed to rollback transaction")
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				log.Error().Err(commitErr).Msg("Failed to commit cancel transaction")
				result = nil
				err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
			}
		}
	}()

	var orderNumber string
	var status Status
	err = tx.QueryRow(ctx, `
		SELECT order_number, status FROM orders WHERE id = $1 FOR UPDATE
	`, id).Scan(&orderNumber, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrOrderNotFound
		} else {
			err = fmt.Errorf("repository: failed to select order %d for cancel: %w", id, err)
		}
		return nil, err
	}

	if status == StatusPaid {
		err = fmt.Errorf("%w: order %s has already been paid", ErrOrderNotCancellable, orderNumber)
		return nil, err
	}
	if status == StatusCancelled {
		err = fmt.Errorf("%w: order %s is already cancelled", ErrOrderNotCancellable, orderNumber)
		return nil, err
	}

	// Same deterministic lock order as CreateOrder.
	itemRows, err := tx.Query(ctx, `
		SELECT product_id, quantity FROM order_items WHERE order_id = $1 ORDER BY product_id
	`, id)
	if err != nil {
		err = fmt.Errorf("repository: failed to query items for order %d: %w", id, err)
		return nil, err
	}

	type restoreItem struct {
		productID int64
		quantity  int
	}
	var restores []restoreItem
	for itemRows.Next() {
		var item restoreItem
		if scanErr := itemRows.Scan(&item.productID, &item.quantity); scanErr != nil {
			itemRows.Close()
			err = fmt.Errorf("repository: failed to scan item for order %d: %w", id, scanErr)
			return nil, err
		}
		restores = append(restores, item)
	}
	itemRows.Close()
	if err = itemRows.Err(); err != nil {
		err = fmt.Errorf("repository: error iterating items for order %d: %w", id, err)
		return nil, err
	}

	for _, item := range restores {
		var currentStock int
		err = tx.QueryRow(ctx, `
			SELECT stock FROM products WHERE id = $1 FOR UPDATE
		`, item.productID).Scan(&currentStock)
		if err != nil {
			err = fmt.Errorf("repository: failed to lock product %d for restock: %w", item.productID, err)
			return nil, err
		}

		newStock := currentStock + item.quantity
		_, err = tx.Exec(ctx, `
			UPDATE products SET stock = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2
		`, newStock, item.productID)
		if err != nil {
			err = fmt.Errorf("repository: failed to restore stock for product %d: %w", item.productID, err)
			return nil, err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO stock_history (product_id, order_id, quantity_change, previous_stock, new_stock, reason)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, item.productID, id, item.quantity, currentStock, newStock, "order_cancelled")
		if err != nil {
			err = fmt.Errorf("repository: failed to insert stock history for product %d: %w", item.productID, err)
			return nil, err
		}
	}

	_, err = tx.Exec(ctx, `
		UPDATE orders
		SET status = $1, cancelled_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
	`, string(StatusCancelled), id)
	if err != nil {
		err = fmt.Errorf("repository: failed to cancel order %d: %w", id, err)
		return nil, err
	}

	log.Info().Int64("order_id", id).Str("order_number", orderNumber).Msg("Order cancelled, stock restored")
	return &StatusChangeResult{
		OrderNumber: orderNumber,
		Status:      StatusCancelled,
		Message:     "Order cancelled and stock restored",
	}, nil
}

func (r *postgresRepository) SalesSummary(ctx context.Context) ([]SalesSummaryRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT sale_date, orders_count, total_revenue, items_sold FROM sales_summary LIMIT 10
	`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query sales summary: %w", err)
	}
	defer rows.Close()

	summary := make([]SalesSummaryRow, 0)
	for rows.Next() {
		var row SalesSummaryRow
		if err := rows.Scan(&row.SaleDate, &row.OrdersCount, &row.TotalRevenue, &row.ItemsSold); err != nil {
			return nil, fmt.Errorf("repository: failed to scan sales summary row: %w", err)
		}
		summary = append(summary, row)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating sales summary: %w", err)
	}
	return summary, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
