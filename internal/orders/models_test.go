package orders

import "testing"

func intp(v int) *int { return &v }

func TestComputeTotal(t *testing.T) {
	t.Run("plain price", func(t *testing.T) {
		lines := []CartLine{{ProductID: 7, Size: "M", Quantity: 2, Price: 500}}
		if got := ComputeTotal(lines); got != 1000 {
			t.Fatalf("got %d, want 1000", got)
		}
	})

	t.Run("discount price wins when present", func(t *testing.T) {
		lines := []CartLine{{ProductID: 7, Size: "M", Quantity: 2, Price: 500, DiscountPrice: intp(400)}}
		if got := ComputeTotal(lines); got != 800 {
			t.Fatalf("got %d, want 800", got)
		}
	})

	t.Run("mixed lines", func(t *testing.T) {
		lines := []CartLine{
			{ProductID: 1, Size: "S", Quantity: 1, Price: 300},
			{ProductID: 2, Size: "L", Quantity: 3, Price: 250, DiscountPrice: intp(200)},
		}
		if got := ComputeTotal(lines); got != 900 {
			t.Fatalf("got %d, want 900", got)
		}
	})

	t.Run("empty snapshot totals zero", func(t *testing.T) {
		if got := ComputeTotal(nil); got != 0 {
			t.Fatalf("got %d, want 0", got)
		}
	})
}

func TestMethodCodes(t *testing.T) {
	if DeliveryHome.Code() != "01" || DeliveryPickup.Code() != "02" {
		t.Fatalf("delivery codes: %s %s", DeliveryHome.Code(), DeliveryPickup.Code())
	}
	if PaymentCard.Code() != "01" || PaymentAtStore.Code() != "02" {
		t.Fatalf("payment codes: %s %s", PaymentCard.Code(), PaymentAtStore.Code())
	}
	if DeliveryMethod("courier_pigeon").Valid() {
		t.Fatal("unknown delivery method accepted")
	}
	if PaymentMethod("iou").Valid() {
		t.Fatal("unknown payment method accepted")
	}
}
