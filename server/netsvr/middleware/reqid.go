package middleware

import (
	"net/http"

	chimid "github.com/go-chi/chi/v5/middleware"
)

// ReqIDHeader 回應中帶回 request id 的 header，方便對照 access log。
const ReqIDHeader = "X-Request-Id"

// RequestID 產生（或沿用上游的 X-Request-Id）request id，並寫回回應 header。
func RequestID(next http.Handler) http.Handler {
	return chimid.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := GetReqId(r); id != "" {
			w.Header().Set(ReqIDHeader, id)
		}
		next.ServeHTTP(w, r)
	}))
}

func GetReqId(r *http.Request) string {
	return chimid.GetReqID(r.Context())
}
