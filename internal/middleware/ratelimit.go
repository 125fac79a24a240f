package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimit limits requests per authenticated citizen, or per client IP
// before authentication.
func RateLimit(requestLimit int, windowLength time.Duration) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(math.Ceil(windowLength.Seconds())))

	return httprate.Limit(
		requestLimit,
		windowLength,
		httprate.WithKeyFuncs(rateKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", retryAfter)
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		}),
	)
}

func rateKey(r *http.Request) (string, error) {
	if citizenID := GetCitizenID(r.Context()); citizenID != "" {
		return "citizen:" + citizenID, nil
	}
	return httprate.KeyByIP(r)
}
