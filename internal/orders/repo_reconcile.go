package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

var ErrOrderNotFound = errors.New("order not found")

// ReconcileDeliveryStatus advances orders whose pickup date has passed to
// completed/paid. Runs lazily before listing reads; repeated runs are no-ops.
func (r *Repo) ReconcileDeliveryStatus(ctx context.Context) (int64, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders
		SET delivery_status = $1, payment_status = $2
		WHERE come_date < CURRENT_DATE
		  AND (delivery_status <> $1 OR payment_status <> $2)`,
		DeliveryCompleted, PaymentPaid)
	if err != nil {
		return 0, fmt.Errorf("reconcile delivery status: %w", err)
	}
	return ct.RowsAffected(), nil
}

// ListFilter narrows order listings by delivery progress.
type ListFilter int

const (
	FilterAll ListFilter = iota
	FilterOngoing
	FilterHistory
)

const orderSummaryColumns = `
	o.order_id, o.order_code, o.user_id, o.coupon_id, o.total_amount,
	o.shipping_person, o.shipping_phone, o.delivery_method, o.delivery_address,
	o.shop_id, o.come_date, o.payment_method, o.delivery_status, o.payment_status, o.created_at,
	s.shop_name, s.shop_area, s.shop_address, s.shop_phone`

func (r *Repo) ListOrders(ctx context.Context, memberID int64, filter ListFilter) ([]OrderSummary, error) {
	q := `SELECT ` + orderSummaryColumns + `
		FROM orders o
		LEFT JOIN shop s ON o.shop_id = s.id
		WHERE o.user_id = $1`
	switch filter {
	case FilterOngoing:
		q += fmt.Sprintf(" AND o.delivery_status = %d", DeliveryPending)
	case FilterHistory:
		q += fmt.Sprintf(" AND o.delivery_status = %d", DeliveryCompleted)
	}
	q += " ORDER BY o.order_id DESC"

	rows, err := r.DB.Query(ctx, q, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderSummary
	for rows.Next() {
		var s OrderSummary
		if err := scanOrderSummary(rows, &s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// LastOrder returns the member's most recent order.
func (r *Repo) LastOrder(ctx context.Context, memberID int64) (OrderSummary, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+orderSummaryColumns+`
		FROM orders o
		LEFT JOIN shop s ON o.shop_id = s.id
		WHERE o.user_id = $1
		ORDER BY o.order_id DESC
		LIMIT 1`, memberID)

	var s OrderSummary
	if err := scanOrderSummary(row, &s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return OrderSummary{}, ErrOrderNotFound
		}
		return OrderSummary{}, err
	}
	return s, nil
}

// ListOrderItems returns the frozen line items of one order the member owns.
func (r *Repo) ListOrderItems(ctx context.Context, memberID, orderID int64) ([]OrderItemView, error) {
	var owned bool
	err := r.DB.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM orders WHERE order_id = $1 AND user_id = $2)`,
		orderID, memberID).Scan(&owned)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, ErrOrderNotFound
	}

	rows, err := r.DB.Query(ctx, `
		SELECT oi.product_id, p.product_name, oi.size, oi.quantity, oi.price, oi.discount_price
		FROM order_items oi
		JOIN product p ON oi.product_id = p.id
		WHERE oi.order_id = $1`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderItemView
	for rows.Next() {
		var v OrderItemView
		if err := rows.Scan(&v.ProductID, &v.ProductName, &v.Size, &v.Quantity, &v.Price, &v.DiscountPrice); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanOrderSummary(row pgx.Row, s *OrderSummary) error {
	return row.Scan(
		&s.OrderID, &s.OrderCode, &s.MemberID, &s.CouponID, &s.TotalAmount,
		&s.ShippingPerson, &s.ShippingPhone, &s.DeliveryMethod, &s.DeliveryAddress,
		&s.ShopID, &s.ComeDate, &s.PaymentMethod, &s.DeliveryStatus, &s.PaymentStatus, &s.CreatedAt,
		&s.ShopName, &s.ShopArea, &s.ShopAddress, &s.ShopPhone,
	)
}
