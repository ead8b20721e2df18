package orders

import "time"

const comeDateLayout = "2006-01-02"

// CheckoutRequest is the member-supplied part of a checkout. The member id
// itself comes from the authenticated session, never from the body.
type CheckoutRequest struct {
	ShippingPerson  string         `json:"shipping_person"`
	ShippingPhone   string         `json:"shipping_phone"`
	DeliveryMethod  DeliveryMethod `json:"delivery_method"`
	DeliveryAddress string         `json:"delivery_address,omitempty"`
	ShopID          int64          `json:"shop_id,omitempty"`
	ComeDate        string         `json:"come_date,omitempty"`
	PaymentMethod   PaymentMethod  `json:"payment_method"`
	CardNumber      string         `json:"card_number,omitempty"`
	CardHolder      string         `json:"card_holder,omitempty"`
	ExpiryDate      string         `json:"expiry_date,omitempty"`
	SecurityCode    string         `json:"security_code,omitempty"`
	CouponID        int64          `json:"coupon_id,omitempty"`
}

// Validate checks the required fields for the chosen delivery and payment
// methods. It runs before the transaction opens; failures touch no state.
func (r CheckoutRequest) Validate() error {
	if r.ShippingPerson == "" {
		return &ValidationError{Field: "shipping_person", Reason: "is required"}
	}
	if r.ShippingPhone == "" {
		return &ValidationError{Field: "shipping_phone", Reason: "is required"}
	}

	switch r.DeliveryMethod {
	case DeliveryHome:
		if r.DeliveryAddress == "" {
			return &ValidationError{Field: "delivery_address", Reason: "is required for home delivery"}
		}
	case DeliveryPickup:
		if r.ShopID <= 0 {
			return &ValidationError{Field: "shop_id", Reason: "is required for store pickup"}
		}
		if r.ComeDate == "" {
			return &ValidationError{Field: "come_date", Reason: "is required for store pickup"}
		}
		if _, err := time.Parse(comeDateLayout, r.ComeDate); err != nil {
			return &ValidationError{Field: "come_date", Reason: "must be formatted YYYY-MM-DD"}
		}
	default:
		return &ValidationError{Field: "delivery_method", Reason: "must be home_delivery or store_pickup"}
	}

	switch r.PaymentMethod {
	case PaymentCard:
		if r.CardNumber == "" || r.CardHolder == "" || r.ExpiryDate == "" || r.SecurityCode == "" {
			return &ValidationError{Field: "card", Reason: "number, holder, expiry and security code are all required"}
		}
	case PaymentAtStore:
	default:
		return &ValidationError{Field: "payment_method", Reason: "must be card or pay_at_store"}
	}

	return nil
}

// comeDate returns the parsed pickup date, or nil for home delivery.
// Only called after Validate.
func (r CheckoutRequest) comeDate() *time.Time {
	if r.DeliveryMethod != DeliveryPickup {
		return nil
	}
	t, err := time.Parse(comeDateLayout, r.ComeDate)
	if err != nil {
		return nil
	}
	return &t
}

// shopID returns the pickup shop, or nil for home delivery.
func (r CheckoutRequest) shopID() *int64 {
	if r.DeliveryMethod != DeliveryPickup {
		return nil
	}
	id := r.ShopID
	return &id
}

// paymentStatus: card payments are captured at checkout, store payments on pickup.
func (r CheckoutRequest) paymentStatus() int {
	if r.PaymentMethod == PaymentCard {
		return PaymentPaid
	}
	return PaymentUnpaid
}
