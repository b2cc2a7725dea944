package throttle

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"verification-gateway/middleware/throttle/application"
	"verification-gateway/middleware/throttle/infra"
)

// ConcurrencyOptions limita quantos envios de código falam com o provedor de
// SMS ao mesmo tempo. Fica por fora do guard por IP em NewHandler.
type ConcurrencyOptions struct {
	Max            int
	RejectStatus   int
	AcquireTimeout time.Duration
	// RetryAfter sugerido ao cliente quando não há vaga. Padrão 1s.
	RetryAfter time.Duration
	Logger     *zap.Logger
}

// ConcurrencyMiddleware protege o provedor de rajadas de despacho simultâneo.
// Max <= 0 desliga o limite.
func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}
	if opts.RetryAfter <= 0 {
		opts.RetryAfter = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	dispatchSlots := application.ConcurrencyService{
		Pool:           infra.NewChanPool(opts.Max),
		AcquireTimeout: opts.AcquireTimeout,
	}
	retryAfter := strconv.Itoa(retryAfterSeconds(opts.RetryAfter))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, ok := dispatchSlots.Acquire(r.Context())
			if !ok {
				opts.Logger.Warn("no dispatch slot available",
					zap.Int("max", opts.Max),
					zap.Duration("acquire_timeout", opts.AcquireTimeout),
				)
				w.Header().Set("Retry-After", retryAfter)
				writeJSON(w, opts.RejectStatus, errorBody{Status: "error", Error: "too many concurrent verification requests"})
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
