package orders

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sarahchiu0928/paganini-server/internal/coupons"
)

type Repo struct{ DB *pgxpool.Pool }

const maxConflictRetries = 3

// Checkout converts the member's checked cart lines into an order inside one
// transaction. Everything between the header insert and the cart purge either
// commits together or not at all. Serialization conflicts are retried a
// bounded number of times before surfacing.
func (r *Repo) Checkout(ctx context.Context, memberID int64, req CheckoutRequest) (Confirmation, error) {
	if err := req.Validate(); err != nil {
		return Confirmation{}, err
	}

	var (
		conf Confirmation
		err  error
	)
	for attempt := 1; attempt <= maxConflictRetries; attempt++ {
		conf, err = r.checkoutOnce(ctx, memberID, req)
		if err == nil || !isSerializationFailure(err) {
			return conf, err
		}
		log.Printf("checkout conflict for member %d (attempt %d/%d): %v", memberID, attempt, maxConflictRetries, err)
	}
	return Confirmation{}, fmt.Errorf("%w: %v", ErrTooManyConflicts, err)
}

func (r *Repo) checkoutOnce(ctx context.Context, memberID int64, req CheckoutRequest) (Confirmation, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Confirmation{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	lines, err := snapshotCart(ctx, tx, memberID)
	if err != nil {
		return Confirmation{}, err
	}
	if len(lines) == 0 {
		return Confirmation{}, ErrEmptyCart
	}
	total := ComputeTotal(lines)

	var couponID *int64
	if req.CouponID > 0 {
		couponID = &req.CouponID
	}

	var orderID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO orders
			(user_id, coupon_id, total_amount, shipping_person, shipping_phone,
			 delivery_method, delivery_address, shop_id, come_date,
			 payment_method, card_number, card_holder, expiry_date,
			 delivery_status, payment_status, order_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, '')
		RETURNING order_id`,
		memberID, couponID, total, req.ShippingPerson, req.ShippingPhone,
		req.DeliveryMethod, nullable(req.DeliveryAddress), req.shopID(), req.comeDate(),
		req.PaymentMethod, nullable(req.CardNumber), nullable(req.CardHolder), nullable(req.ExpiryDate),
		DeliveryPending, req.paymentStatus(),
	).Scan(&orderID)
	if err != nil {
		return Confirmation{}, fmt.Errorf("insert order header: %w", err)
	}

	// The code embeds the generated order id, so it can only be minted now.
	code := MintCode(time.Now(), req.DeliveryMethod, req.PaymentMethod, memberID, orderID)
	if _, err := tx.Exec(ctx, `UPDATE orders SET order_code = $1 WHERE order_id = $2`, code, orderID); err != nil {
		return Confirmation{}, fmt.Errorf("patch order code: %w", err)
	}

	for _, l := range lines {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, user_id, size, quantity, price, discount_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			orderID, l.ProductID, memberID, l.Size, l.Quantity, l.Price, l.DiscountPrice); err != nil {
			return Confirmation{}, fmt.Errorf("insert order item: %w", err)
		}
	}

	// Lines are snapshotted in (product_id, size) order, so two overlapping
	// checkouts take stock-row locks in the same order and cannot deadlock.
	for _, l := range lines {
		if err := reserveStock(ctx, tx, l); err != nil {
			return Confirmation{}, err
		}
	}

	if couponID != nil {
		if err := redeemCoupon(ctx, tx, memberID, *couponID); err != nil {
			return Confirmation{}, err
		}
	}

	// Purge only the snapshotted lines; anything the member checked after the
	// snapshot survives this checkout.
	ids := make([]int64, len(lines))
	for i, l := range lines {
		ids[i] = l.ID
	}
	if _, err := tx.Exec(ctx, `DELETE FROM cart WHERE user_id = $1 AND id = ANY($2)`, memberID, ids); err != nil {
		return Confirmation{}, fmt.Errorf("purge cart: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Confirmation{}, err
	}
	return Confirmation{OrderID: orderID, OrderCode: code, TotalAmount: total}, nil
}

// snapshotCart reads the member's checked lines with the catalog price frozen
// as of now. Ordered by (product_id, size) to fix the stock lock order.
func snapshotCart(ctx context.Context, tx pgx.Tx, memberID int64) ([]CartLine, error) {
	rows, err := tx.Query(ctx, `
		SELECT cart.id, cart.product_id, cart.size, cart.quantity, product.price, product.discount_price
		FROM cart
		JOIN product ON cart.product_id = product.id
		WHERE cart.user_id = $1 AND cart.checked
		ORDER BY cart.product_id, cart.size`, memberID)
	if err != nil {
		return nil, fmt.Errorf("snapshot cart: %w", err)
	}
	defer rows.Close()

	var lines []CartLine
	for rows.Next() {
		var l CartLine
		if err := rows.Scan(&l.ID, &l.ProductID, &l.Size, &l.Quantity, &l.Price, &l.DiscountPrice); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// reserveStock decrements one stock row with an oversell guard: the update
// only matches while enough stock remains, so the affected-row count decides
// between success and InsufficientStock. Two checkouts racing for the last
// unit serialize on the row lock and exactly one wins.
func reserveStock(ctx context.Context, tx pgx.Tx, l CartLine) error {
	ct, err := tx.Exec(ctx, `
		UPDATE product_size SET stock = stock - $3
		WHERE product_id = $1 AND size = $2 AND stock >= $3`,
		l.ProductID, l.Size, l.Quantity)
	if err != nil {
		return fmt.Errorf("reserve stock: %w", err)
	}
	if ct.RowsAffected() == 1 {
		return nil
	}

	var available int
	if err := tx.QueryRow(ctx, `
		SELECT COALESCE(stock, 0) FROM product_size WHERE product_id = $1 AND size = $2`,
		l.ProductID, l.Size).Scan(&available); err != nil && err != pgx.ErrNoRows {
		return fmt.Errorf("read stock: %w", err)
	}
	return &InsufficientStockError{ProductID: l.ProductID, Size: l.Size, Requested: l.Quantity, Available: available}
}

// redeemCoupon marks the coupon used in a single conditional update, keyed on
// it still being available, unexpired and owned by the member. Re-redeeming a
// used coupon fails rather than silently succeeding. The expiry predicate also
// covers coupons the lazy sweep has not flipped to expired yet.
func redeemCoupon(ctx context.Context, tx pgx.Tx, memberID, couponID int64) error {
	ct, err := tx.Exec(ctx, `
		UPDATE member_coupon SET status = $3, used_at = CURRENT_DATE
		WHERE user_id = $1 AND coupon_id = $2 AND status = $4
		  AND (expiration_date IS NULL OR expiration_date >= CURRENT_DATE)`,
		memberID, couponID, coupons.StatusUsed, coupons.StatusAvailable)
	if err != nil {
		return fmt.Errorf("redeem coupon: %w", err)
	}
	if ct.RowsAffected() != 1 {
		return ErrCouponUnavailable
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
