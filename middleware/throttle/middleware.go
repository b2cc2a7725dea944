package throttle

import (
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"verification-gateway/middleware/throttle/application"
	"verification-gateway/middleware/throttle/domain"
)

const statsSourceGuard = "ip-guard"

type KeyFunc func(r *http.Request) string

// Options configura o guard por chave (IP/header). Cada requisição que passa
// consome uma tentativa da chave.
type Options struct {
	Throttle           *application.Throttle
	Config             domain.Config
	Stats              domain.StatsStore
	Logger             *zap.Logger
	KeyFn              KeyFunc
	KeyHeader          string
	TrustXForwardedFor bool
	RejectStatus       int
	AddThrottleHeaders bool
}

func DefaultKeyFunc(keyHeader string, trustXFF bool) KeyFunc {
	return func(r *http.Request) string {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return v
			}
		}

		if trustXFF {
			// primeiro IP do X-Forwarded-For (cliente original)
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				first, _, _ := strings.Cut(xff, ",")
				if ip := strings.TrimSpace(first); ip != "" {
					return ip
				}
			}
		}

		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return host
		}
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
}

func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.Throttle == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	cfg := opts.Config.WithDefaults()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := domain.Identity(opts.KeyFn(r))

			if opts.AddThrottleHeaders {
				w.Header().Set("X-Throttle-Key", string(key))
				w.Header().Set("X-Throttle-Daily-Limit", formatInt(cfg.DailyLimit))
				w.Header().Set("X-Throttle-Cooldown", formatInt(retryAfterSeconds(cfg.Cooldown)))
			}

			dec, err := opts.Throttle.Attempt(r.Context(), key, cfg)
			if err != nil {
				// guard auxiliar: falha de storage não bloqueia o fluxo principal
				opts.Logger.Warn("ip guard unavailable", zap.String("key", string(key)), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			if opts.Stats != nil {
				_ = opts.Stats.Record(r.Context(), domain.StatsEvent{
					Identity: key,
					Allowed:  dec.Allowed,
					Reason:   dec.Reason,
					Source:   statsSourceGuard,
					At:       opts.Throttle.Now(),
				})
			}
			if !dec.Allowed {
				writeDenied(w, opts.RejectStatus, "", dec, r.Header.Get("Accept-Language"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
