// Package middleware provides the gin middleware stack for the API: CORS
// driven by configured origins, and per-IP or global rate limiting.
package middleware
