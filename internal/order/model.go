package order

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusCancelled Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

type Order struct {
	ID                int64      `json:"id"`
	OrderNumber       string     `json:"order_number"`
	CustomerID        int64      `json:"customer_id"`
	TotalAmount       float64    `json:"total_amount"`
	Discount          float64    `json:"discount"`
	ShippingCost      float64    `json:"shipping_cost"`
	PaymentMethod     string     `json:"payment_method"`
	ShippingMethod    string     `json:"shipping_method"`
	ShippingAddressID *int64     `json:"shipping_address_id,omitempty"`
	Status            Status     `json:"status"`
	Notes             string     `json:"notes,omitempty"`
	PaidAt            *time.Time `json:"paid_at,omitempty"`
	CancelledAt       *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type OrderItem struct {
	ID          int64   `json:"id"`
	OrderID     int64   `json:"order_id"`
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Subtotal    float64 `json:"subtotal"`
}

type Customer struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	CpfCnpj   string `json:"cpf_cnpj,omitempty"`
}

type Address struct {
	ID           int64  `json:"id"`
	CEP          string `json:"cep"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// CreateOrderInput is the validated checkout payload the engine works with.
// ShippingCost is resolved by the shipping quote service before this point;
// the transaction itself never leaves the database.
type CreateOrderInput struct {
	Items          []ItemInput
	Customer       CustomerInput
	ShippingMethod string
	PaymentMethod  string
	CouponCode     string
	ShippingCost   float64
}

type ItemInput struct {
	ProductID int64
	Quantity  int
}

type CustomerInput struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
	CpfCnpj   string
	Address   *AddressInput
}

type AddressInput struct {
	CEP          string
	Street       string
	Number       string
	Complement   string
	Neighborhood string
	City         string
	State        string
}

type CreateOrderResult struct {
	OrderID     int64   `json:"orderId"`
	OrderNumber string  `json:"orderNumber"`
	Status      Status  `json:"status"`
	TotalAmount float64 `json:"totalAmount"`
	Message     string  `json:"message"`
}

// OrderDetails is the read model for a single order: the order row joined
// with its customer, optional shipping address and item snapshots.
type OrderDetails struct {
	Order
	Customer Customer          `json:"customer"`
	Address  *Address          `json:"address,omitempty"`
	Items    []OrderItemDetail `json:"items"`
}

type OrderItemDetail struct {
	OrderItem
	ProductImage    string `json:"product_image,omitempty"`
	ProductCategory string `json:"product_category,omitempty"`
}

type OrderSummary struct {
	ID           int64     `json:"id"`
	OrderNumber  string    `json:"order_number"`
	Status       Status    `json:"status"`
	TotalAmount  float64   `json:"total_amount"`
	CustomerName string    `json:"customer_name"`
	Email        string    `json:"email"`
	ItemsCount   int       `json:"items_count"`
	CreatedAt    time.Time `json:"created_at"`
}

type StatusChangeResult struct {
	OrderNumber string `json:"orderNumber"`
	Status      Status `json:"status"`
	Message     string `json:"message"`
}

type SalesSummaryRow struct {
	SaleDate     time.Time `json:"sale_date"`
	OrdersCount  int       `json:"orders_count"`
	TotalRevenue float64   `json:"total_revenue"`
	ItemsSold    int       `json:"items_sold"`
}

// Discount is the outcome of resolving a coupon code against a subtotal.
// Coupon is the normalized code, empty when no coupon was applied.
type Discount struct {
	Amount float64
	Coupon string
}
