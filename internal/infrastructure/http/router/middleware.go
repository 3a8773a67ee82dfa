package router

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	json "github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/unrolled/secure"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"
)

// Middleware holds the per-route guards of the API
type Middleware struct {
	limiter   *stdlib.Middleware // nil disables rate limiting
	jwtSecret []byte             // empty disables authentication
}

// NewMiddleware builds the API guards. rate uses the limiter format, e.g.
// "100-M"; an empty rate disables limiting. A nil store keeps counters in memory.
func NewMiddleware(rate, jwtSecret string, store limiter.Store) (Middleware, error) {
	m := Middleware{}
	if jwtSecret != "" {
		m.jwtSecret = []byte(jwtSecret)
	}

	if rate == "" {
		return m, nil
	}
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return Middleware{}, fmt.Errorf("invalid rate limit %q: %w", rate, err)
	}
	if store == nil {
		store = memory.NewStore()
	}
	m.limiter = stdlib.NewMiddleware(limiter.New(store, parsed))
	return m, nil
}

// protect applies authentication then rate limiting to an API route
func (m Middleware) protect(h http.Handler) http.Handler {
	if m.limiter != nil {
		h = m.limiter.Handler(h)
	}
	if len(m.jwtSecret) > 0 {
		h = m.authenticate(h)
	}
	return h
}

// authenticate requires a valid HS256 bearer token
func (m Middleware) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			jsonError(w, http.StatusUnauthorized, "Missing bearer token")
			return
		}

		_, err := jwt.Parse(raw, func(*jwt.Token) (interface{}, error) {
			return m.jwtSecret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
		if err != nil {
			jsonError(w, http.StatusUnauthorized, "Invalid bearer token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// wrap applies the outer middleware: panic recovery, access logging and
// security headers
func (m Middleware) wrap(h http.Handler, development bool, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	headers := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		IsDevelopment:      development,
	})
	return recoverer(logRequests(headers.Handler(h), logger), logger)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

// recoverer turns a handler panic into a 500 and reports it to Sentry
func recoverer(next http.Handler, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				hub := sentry.CurrentHub().Clone()
				hub.Scope().SetRequest(r)
				hub.RecoverWithContext(r.Context(), rec)

				logger.Error("handler panic",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path))
				jsonError(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
