package orders

import (
	"testing"
	"time"
)

func TestMintCode(t *testing.T) {
	day := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

	t.Run("store pickup paid by card", func(t *testing.T) {
		got := MintCode(day, DeliveryPickup, PaymentCard, 7, 45)
		if got != "CM2024030102010745" {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("home delivery paid at store", func(t *testing.T) {
		got := MintCode(day, DeliveryHome, PaymentAtStore, 12, 3)
		if got != "CM2024030101021203" {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("ids pad but never truncate", func(t *testing.T) {
		got := MintCode(day, DeliveryHome, PaymentCard, 123, 4567)
		if got != "CM2024030101011234567" {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("distinct order ids mint distinct codes", func(t *testing.T) {
		a := MintCode(day, DeliveryHome, PaymentCard, 7, 45)
		b := MintCode(day, DeliveryHome, PaymentCard, 7, 46)
		if a == b {
			t.Fatalf("codes collided: %q", a)
		}
	})
}
