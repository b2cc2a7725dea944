package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"verification-gateway/middleware/throttle"
	"verification-gateway/middleware/throttle/application"
	"verification-gateway/middleware/throttle/domain"
	"verification-gateway/middleware/throttle/infra"
)

// Exemplo: throttle embutido no seu próprio webserver, só com memória e
// dispatcher de log. A rota /login usa o guard por IP diretamente.
func main() {
	lg, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store := infra.NewMemoryStore()
	store.StartJanitor(ctx)
	guardStore := infra.NewMemoryStore()
	guardStore.StartJanitor(ctx)

	verification := throttle.NewHandler(throttle.HandlerOptions{
		Verification: application.VerificationService{
			Throttle:   application.NewThrottle(store, nil),
			Dispatcher: infra.LogDispatcher{Logger: lg},
			Logger:     lg,
		},
		Logger: lg,
	})

	login := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux := http.NewServeMux()
	mux.Handle("/v1/", verification)
	mux.Handle("/login", throttle.Middleware(throttle.Options{
		Throttle:           application.NewThrottle(guardStore, nil),
		Config:             domain.Config{Cooldown: time.Second, DailyLimit: 200},
		KeyHeader:          "X-Device-Id", // ou vazio para usar IP
		AddThrottleHeaders: true,
		Logger:             lg,
	})(login))

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	lg.Info("example server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		lg.Fatal("server error", zap.Error(err))
	}
}
