package coupons

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MemberCoupon statuses. Transitions are monotonic: available coupons become
// used (by checkout) or expired (by the lazy sweep), never the reverse.
const (
	StatusAvailable = 2
	StatusUsed      = 3
	StatusExpired   = 4
)

var (
	ErrAlreadyClaimed = errors.New("coupon already claimed by this member")
	ErrNotFound       = errors.New("coupon not found")
)

type MemberCoupon struct {
	ID             int64      `json:"member_coupon_id"`
	CouponID       int64      `json:"coupon_id"`
	Status         int        `json:"status"`
	ClaimedAt      time.Time  `json:"claimed_at"`
	ExpirationDate *time.Time `json:"expiration_date"`
	UsedAt         *time.Time `json:"used_at"`
	Name           string     `json:"name"`
	Value          int        `json:"value"`
	MinPrice       *int       `json:"min_price"`
	StartDate      *time.Time `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
}

type Repo struct{ DB *pgxpool.Pool }

// ExpireStale flips the member's lapsed coupons to expired. Idempotent, and
// never demotes a used coupon.
func (r *Repo) ExpireStale(ctx context.Context, memberID int64) (int64, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE member_coupon
		SET status = $2
		WHERE user_id = $1
		  AND status NOT IN ($2, $3)
		  AND (expiration_date < CURRENT_DATE
		       OR coupon_id IN (SELECT id FROM coupon WHERE end_date < CURRENT_DATE))`,
		memberID, StatusExpired, StatusUsed)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

func (r *Repo) ListForMember(ctx context.Context, memberID int64) ([]MemberCoupon, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT mc.id, mc.coupon_id, mc.status, mc.claimed_at, mc.expiration_date, mc.used_at,
		       c.name, c.value, c.min_price, c.start_date, c.end_date
		FROM member_coupon mc
		JOIN coupon c ON mc.coupon_id = c.id
		WHERE mc.user_id = $1
		ORDER BY mc.claimed_at DESC`, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MemberCoupon
	for rows.Next() {
		var mc MemberCoupon
		if err := rows.Scan(&mc.ID, &mc.CouponID, &mc.Status, &mc.ClaimedAt, &mc.ExpirationDate,
			&mc.UsedAt, &mc.Name, &mc.Value, &mc.MinPrice, &mc.StartDate, &mc.EndDate); err != nil {
			return nil, err
		}
		out = append(out, mc)
	}
	return out, rows.Err()
}

// Claim hands the coupon to the member. The unique (user_id, coupon_id) index
// settles concurrent claims.
func (r *Repo) Claim(ctx context.Context, memberID, couponID int64) error {
	var exists bool
	err := r.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM coupon WHERE id = $1)`, couponID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	_, err = r.DB.Exec(ctx, `
		INSERT INTO member_coupon (user_id, coupon_id, status, claimed_at)
		VALUES ($1, $2, $3, now())`, memberID, couponID, StatusAvailable)
	if isUniqueViolation(err) {
		return ErrAlreadyClaimed
	}
	return err
}

// ClaimByCode looks the coupon up by its public code, then claims it.
func (r *Repo) ClaimByCode(ctx context.Context, memberID int64, code string) (int64, error) {
	var couponID int64
	err := r.DB.QueryRow(ctx, `SELECT id FROM coupon WHERE sid = $1`, code).Scan(&couponID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	if err := r.Claim(ctx, memberID, couponID); err != nil {
		return 0, err
	}
	return couponID, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
