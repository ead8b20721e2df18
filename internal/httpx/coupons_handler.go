package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/sarahchiu0928/paganini-server/internal/coupons"
	"github.com/sarahchiu0928/paganini-server/internal/redisx"
)

// CouponService is the slice of the coupons repo the handler consumes.
type CouponService interface {
	ExpireStale(ctx context.Context, memberID int64) (int64, error)
	ListForMember(ctx context.Context, memberID int64) ([]coupons.MemberCoupon, error)
	Claim(ctx context.Context, memberID, couponID int64) error
	ClaimByCode(ctx context.Context, memberID int64, code string) (int64, error)
}

type CouponsHandler struct {
	Service CouponService
	Redis   *redis.Client
}

func (h *CouponsHandler) Register(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(MemberAuth)
		r.Get("/coupons", h.list)
		r.Post("/coupons/claim", h.claim)
	})
}

func (h *CouponsHandler) list(w http.ResponseWriter, r *http.Request) {
	member := memberID(r)
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// Expire lapsed coupons before listing, throttled per member.
	key := fmt.Sprintf(redisx.KeyReconcileCoupons, member)
	if ok, err := redisx.TryAcquire(ctx, h.Redis, key, redisx.TTLReconcile); err != nil || ok {
		if _, err := h.Service.ExpireStale(ctx, member); err != nil {
			log.Printf("coupon expiry sweep for member %d: %v", member, err)
		}
	}

	out, err := h.Service.ListForMember(ctx, member)
	if err != nil {
		log.Printf("list coupons: %v", err)
		writeError(w, http.StatusInternalServerError, "could not load coupons")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": out})
}

func (h *CouponsHandler) claim(w http.ResponseWriter, r *http.Request) {
	member := memberID(r)

	var req struct {
		CouponID int64  `json:"coupon_id"`
		Code     string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.CouponID <= 0 && req.Code == "" {
		writeError(w, http.StatusBadRequest, "coupon_id or code is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	var err error
	couponID := req.CouponID
	if couponID > 0 {
		err = h.Service.Claim(ctx, member, couponID)
	} else {
		couponID, err = h.Service.ClaimByCode(ctx, member, req.Code)
	}
	if err != nil {
		switch {
		case errors.Is(err, coupons.ErrNotFound):
			writeError(w, http.StatusNotFound, "coupon not found")
		case errors.Is(err, coupons.ErrAlreadyClaimed):
			writeError(w, http.StatusBadRequest, "coupon already claimed")
		default:
			log.Printf("claim coupon: %v", err)
			writeError(w, http.StatusInternalServerError, "could not claim coupon")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "coupon_id": couponID})
}
