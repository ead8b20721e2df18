package redisx

import "time"

const (
	// Cache of the member's latest order confirmation: order:last:{member_id} -> JSON
	KeyLastOrder = "order:last:%d"

	// Throttle for the global delivery-status sweep (single slot, no args)
	KeyReconcileDelivery = "reconcile:delivery"

	// Throttle for the per-member coupon-expiry sweep: reconcile:coupons:{member_id}
	KeyReconcileCoupons = "reconcile:coupons:%d"
)

var (
	TTLLastOrder = 5 * time.Minute
	TTLReconcile = time.Minute
)
