package httpx

import (
	"context"
	"net/http"
	"strconv"
)

// The session gateway in front of this service verifies the member's token and
// forwards the resolved id in this header. It is never read from the body.
const memberHeader = "X-Member-ID"

type ctxKey int

const memberIDKey ctxKey = iota

func MemberAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.Header.Get(memberHeader), 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusUnauthorized, "member not authenticated")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), memberIDKey, id)))
	})
}

func memberID(r *http.Request) int64 {
	id, _ := r.Context().Value(memberIDKey).(int64)
	return id
}
