package orders

import "time"

type DeliveryMethod string

const (
	DeliveryHome   DeliveryMethod = "home_delivery"
	DeliveryPickup DeliveryMethod = "store_pickup"
)

// Code is the 2-digit tag embedded in the order code.
func (m DeliveryMethod) Code() string {
	if m == DeliveryPickup {
		return "02"
	}
	return "01"
}

func (m DeliveryMethod) Valid() bool {
	return m == DeliveryHome || m == DeliveryPickup
}

type PaymentMethod string

const (
	PaymentCard    PaymentMethod = "card"
	PaymentAtStore PaymentMethod = "pay_at_store"
)

func (m PaymentMethod) Code() string {
	if m == PaymentAtStore {
		return "02"
	}
	return "01"
}

func (m PaymentMethod) Valid() bool {
	return m == PaymentCard || m == PaymentAtStore
}

const (
	DeliveryPending   = 0
	DeliveryCompleted = 1

	PaymentUnpaid = 0
	PaymentPaid   = 1
)

// CartLine is one checked cart row joined with the catalog price at snapshot time.
type CartLine struct {
	ID            int64
	ProductID     int64
	Size          string
	Quantity      int
	Price         int
	DiscountPrice *int
}

// UnitPrice prefers the discount price when the catalog has one.
func (l CartLine) UnitPrice() int {
	if l.DiscountPrice != nil {
		return *l.DiscountPrice
	}
	return l.Price
}

// ComputeTotal freezes the order total from the snapshot. It is never
// recomputed from live catalog prices afterwards.
func ComputeTotal(lines []CartLine) int {
	total := 0
	for _, l := range lines {
		total += l.UnitPrice() * l.Quantity
	}
	return total
}

type Order struct {
	OrderID         int64          `json:"order_id"`
	OrderCode       string         `json:"order_code"`
	MemberID        int64          `json:"user_id"`
	CouponID        *int64         `json:"coupon_id"`
	TotalAmount     int            `json:"total_amount"`
	ShippingPerson  string         `json:"shipping_person"`
	ShippingPhone   string         `json:"shipping_phone"`
	DeliveryMethod  DeliveryMethod `json:"delivery_method"`
	DeliveryAddress *string        `json:"delivery_address"`
	ShopID          *int64         `json:"shop_id"`
	ComeDate        *time.Time     `json:"come_date"`
	PaymentMethod   PaymentMethod  `json:"payment_method"`
	DeliveryStatus  int            `json:"delivery_status"`
	PaymentStatus   int            `json:"payment_status"`
	CreatedAt       time.Time      `json:"created_at"`
}

type OrderItem struct {
	OrderID       int64
	ProductID     int64
	MemberID      int64
	Size          string
	Quantity      int
	Price         int
	DiscountPrice *int
}

// OrderSummary is an order header joined with its pickup shop, as returned
// by the member-facing listing endpoints.
type OrderSummary struct {
	Order
	ShopName    *string `json:"shop_name"`
	ShopArea    *string `json:"shop_area"`
	ShopAddress *string `json:"shop_address"`
	ShopPhone   *string `json:"shop_phone"`
}

type OrderItemView struct {
	ProductID     int64  `json:"product_id"`
	ProductName   string `json:"product_name"`
	Size          string `json:"size"`
	Quantity      int    `json:"quantity"`
	Price         int    `json:"price"`
	DiscountPrice *int   `json:"discount_price"`
}

// Confirmation is returned to the caller after a committed checkout.
type Confirmation struct {
	OrderID     int64  `json:"order_id"`
	OrderCode   string `json:"order_code"`
	TotalAmount int    `json:"total_amount"`
}
