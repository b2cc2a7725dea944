package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"verification-gateway/internal/logger"
	"verification-gateway/middleware/throttle"
	"verification-gateway/middleware/throttle/application"
	"verification-gateway/middleware/throttle/domain"
	"verification-gateway/middleware/throttle/infra"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	lg, err := logger.New(cfg.logEnv, cfg.logLevel, cfg.logFormat)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var (
		phoneStore domain.AttemptStore
		ipStore    domain.AttemptStore
		stats      domain.StatsStore
	)

	switch cfg.store {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.redisAddr,
			Password: cfg.redisPassword,
			DB:       cfg.redisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		pingCancel()
		if err != nil {
			lg.Fatal("redis ping error", zap.String("addr", cfg.redisAddr), zap.Error(err))
		}

		phoneStore = infra.NewRedisStore(rdb, infra.WithStorePrefix(cfg.redisPrefix+":phone"))
		ipStore = infra.NewRedisStore(rdb, infra.WithStorePrefix(cfg.redisPrefix+":ip"))
		if cfg.statsEnabled {
			stats = infra.NewRedisStatsStore(rdb,
				infra.WithStatsPrefix(cfg.redisPrefix+":stats"),
				infra.WithStatsTTL(cfg.statsTTL),
				infra.WithStatsTrackIdentities(cfg.statsTrackIdentities),
			)
		}
	default:
		ps := infra.NewMemoryStore()
		ps.StartJanitor(ctx)
		is := infra.NewMemoryStore()
		is.StartJanitor(ctx)
		phoneStore, ipStore = ps, is
		if cfg.statsEnabled {
			stats = infra.NewMemoryStatsStore(infra.WithTrackIdentities(cfg.statsTrackIdentities))
		}
	}

	var dispatcher domain.Dispatcher
	switch cfg.dispatcher {
	case "http":
		dispatcher = infra.NewHTTPDispatcher(cfg.providerURL,
			infra.WithProviderToken(cfg.providerToken),
			infra.WithProviderRate(cfg.providerRPS, cfg.providerBurst),
		)
	default:
		dispatcher = infra.LogDispatcher{Logger: lg.Named("dispatch")}
	}

	clock := domain.SystemClock{}
	opts := throttle.HandlerOptions{
		Verification: application.VerificationService{
			Throttle:   application.NewThrottle(phoneStore, clock),
			Dispatcher: dispatcher,
			Config:     cfg.throttle,
			Stats:      stats,
			Logger:     lg.Named("verification"),
		},
		Concurrency: throttle.ConcurrencyMiddleware(throttle.ConcurrencyOptions{
			Max:            cfg.concurrencyMax,
			AcquireTimeout: cfg.concurrencyTimeout,
			Logger:         lg.Named("concurrency"),
		}),
		Logger: lg,
	}
	if cfg.ipGuardEnabled {
		opts.Guard = throttle.Middleware(throttle.Options{
			Throttle:           application.NewThrottle(ipStore, clock),
			Config:             cfg.ipGuard,
			Stats:              stats,
			Logger:             lg.Named("ip-guard"),
			KeyHeader:          cfg.ipKeyHeader,
			TrustXForwardedFor: cfg.trustXFF,
			AddThrottleHeaders: cfg.addHeaders,
		})
	}

	srv := &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           throttle.NewHandler(opts),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	lg.Info("verifyd listening",
		zap.String("addr", cfg.listenAddr),
		zap.String("store", cfg.store),
		zap.String("dispatcher", cfg.dispatcher),
	)
	lg.Info("throttle",
		zap.Duration("cooldown", cfg.throttle.WithDefaults().Cooldown),
		zap.Int("daily_limit", cfg.throttle.WithDefaults().DailyLimit),
		zap.Bool("ip_guard", cfg.ipGuardEnabled),
		zap.Duration("ip_cooldown", cfg.ipGuard.Cooldown),
		zap.Int("ip_daily_limit", cfg.ipGuard.DailyLimit),
		zap.Bool("trust_xff", cfg.trustXFF),
	)
	lg.Info("concurrency", zap.Int("max", cfg.concurrencyMax), zap.Duration("acquire_timeout", cfg.concurrencyTimeout))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lg.Fatal("server error", zap.Error(err))
	}
}
