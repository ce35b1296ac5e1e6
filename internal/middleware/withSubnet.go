package middleware

import (
	"net"
	"net/http"
)

// WithSubnet guards internal endpoints: only requests whose X-Real-IP
// falls inside the trusted CIDR pass. An empty CIDR closes the
// endpoint entirely.
func WithSubnet(cidr string) func(next http.Handler) http.Handler {
	_, subnet, err := net.ParseCIDR(cidr)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err != nil || subnet == nil {
				w.WriteHeader(http.StatusForbidden)
				return
			}

			ip := net.ParseIP(r.Header.Get("X-Real-IP"))
			if ip == nil || !subnet.Contains(ip) {
				w.WriteHeader(http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
