package httpx

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/sarahchiu0928/paganini-server/internal/coupons"
	"github.com/sarahchiu0928/paganini-server/internal/redisx"
)

type stubCoupons struct {
	claimed map[int64]bool
	byCode  map[string]int64
	expired int
}

func (s *stubCoupons) ExpireStale(ctx context.Context, memberID int64) (int64, error) {
	s.expired++
	return 0, nil
}

func (s *stubCoupons) ListForMember(ctx context.Context, memberID int64) ([]coupons.MemberCoupon, error) {
	return []coupons.MemberCoupon{{ID: 1, CouponID: 11, Status: coupons.StatusAvailable, Name: "spring", Value: 100}}, nil
}

func (s *stubCoupons) Claim(ctx context.Context, memberID, couponID int64) error {
	if _, ok := s.claimed[couponID]; !ok {
		if couponID != 11 {
			return coupons.ErrNotFound
		}
		s.claimed[couponID] = true
		return nil
	}
	return coupons.ErrAlreadyClaimed
}

func (s *stubCoupons) ClaimByCode(ctx context.Context, memberID int64, code string) (int64, error) {
	id, ok := s.byCode[code]
	if !ok {
		return 0, coupons.ErrNotFound
	}
	return id, s.Claim(ctx, memberID, id)
}

func newCouponRouter() (*stubCoupons, *chi.Mux) {
	svc := &stubCoupons{claimed: map[int64]bool{}, byCode: map[string]int64{"SPRING100": 11}}
	h := &CouponsHandler{Service: svc, Redis: redisx.New("127.0.0.1:1")}
	r := chi.NewRouter()
	h.Register(r)
	return svc, r
}

func TestCouponsHandler(t *testing.T) {
	t.Run("list sweeps then returns coupons", func(t *testing.T) {
		svc, r := newCouponRouter()

		req := httptest.NewRequest(http.MethodGet, "/coupons", nil)
		req.Header.Set("X-Member-ID", "7")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("got %d: %s", w.Code, w.Body.String())
		}
		// Redis is unreachable here, so the throttle errs open and the sweep runs.
		if svc.expired != 1 {
			t.Fatalf("sweep ran %d times, want 1", svc.expired)
		}
		if !strings.Contains(w.Body.String(), `"spring"`) {
			t.Fatalf("coupon missing from body: %s", w.Body.String())
		}
	})

	claim := func(r http.Handler, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/coupons/claim", bytes.NewBufferString(body))
		req.Header.Set("X-Member-ID", "7")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("claim by id", func(t *testing.T) {
		_, r := newCouponRouter()
		if w := claim(r, `{"coupon_id":11}`); w.Code != http.StatusOK {
			t.Fatalf("got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("claim by code resolves the coupon", func(t *testing.T) {
		_, r := newCouponRouter()
		w := claim(r, `{"code":"SPRING100"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("got %d: %s", w.Code, w.Body.String())
		}
		if !strings.Contains(w.Body.String(), `"coupon_id":11`) {
			t.Fatalf("resolved id missing: %s", w.Body.String())
		}
	})

	t.Run("double claim -> 400", func(t *testing.T) {
		_, r := newCouponRouter()
		claim(r, `{"coupon_id":11}`)
		if w := claim(r, `{"coupon_id":11}`); w.Code != http.StatusBadRequest {
			t.Fatalf("got %d", w.Code)
		}
	})

	t.Run("unknown coupon -> 404", func(t *testing.T) {
		_, r := newCouponRouter()
		if w := claim(r, `{"coupon_id":999}`); w.Code != http.StatusNotFound {
			t.Fatalf("got %d", w.Code)
		}
		if w := claim(r, `{"code":"NOPE"}`); w.Code != http.StatusNotFound {
			t.Fatalf("got %d", w.Code)
		}
	})

	t.Run("empty claim -> 400", func(t *testing.T) {
		_, r := newCouponRouter()
		if w := claim(r, `{}`); w.Code != http.StatusBadRequest {
			t.Fatalf("got %d", w.Code)
		}
	})
}
