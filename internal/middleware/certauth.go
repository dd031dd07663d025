// Package middleware provides HTTP middlewares for device authentication
// and request logging.
package middleware

import (
	"context"
	"net/http"
)

type ctxKey string

const deviceKey ctxKey = "device"

// Served without a client certificate so health checks and scrapers can reach them.
var publicPaths = map[string]bool{
	"/healthz": true,
	"/metrics": true,
}

// RequireDevice admits only requests presenting a client certificate whose
// Common Name names a practice device (see certgen.IssueDevice). The device
// name is stored in the request context for handlers and logs.
func RequireDevice(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if publicPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}
		device := deviceName(r)
		if device == "" {
			http.Error(w, "client certificate with a device name required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), deviceKey, device)))
	})
}

// DeviceFromContext returns the device stored by RequireDevice, or "".
func DeviceFromContext(ctx context.Context) string {
	device, _ := ctx.Value(deviceKey).(string)
	return device
}

// deviceName reads the leaf certificate's Common Name.
func deviceName(r *http.Request) string {
	if r.TLS == nil || len(r.TLS.PeerCertificates) == 0 {
		return ""
	}
	return r.TLS.PeerCertificates[0].Subject.CommonName
}
