package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"socialmedia/internal/app"
	"socialmedia/internal/auth"
	"socialmedia/internal/config"
	apphttp "socialmedia/internal/http"
	"socialmedia/internal/http/middleware"
	"socialmedia/internal/logging"
	"socialmedia/internal/notify"
	"socialmedia/internal/uploads"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil && cfg == nil {
		panic(err)
	}

	l := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	slog.SetDefault(l)

	if err != nil {
		slog.Warn("Could not read config file. Will run with default values", "path", *cfgPath, "err", err)
		slog.Warn("The JWT secret will be defined to a default value. This is a security risk in production.")
	}

	auth.SetSecret(cfg.Security.JWTSecret)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	st, err := app.OpenStore(ctx, cfg, "", true)
	if err != nil {
		slog.Error("store.open", "err", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := app.Bootstrap(ctx, st, cfg.Bootstrap); err != nil {
		slog.Error("bootstrap", "err", err)
		os.Exit(1)
	}

	saver, err := uploads.New(cfg.Storage.UploadDir, cfg.MaxUploadBytes())
	if err != nil {
		slog.Error("uploads.dir", "err", err)
		os.Exit(1)
	}

	loginLimiter := middleware.NewRateLimiter(cfg.Security.LoginRateLimit, cfg.Security.LoginRateWindow)
	loginLimiter.TrustProxyHeaders = cfg.HTTP.TrustProxyHeaders

	mux, err := apphttp.NewMux(apphttp.Deps{
		Store:          st,
		Uploads:        saver,
		Notifier:       notify.Log{},
		LoginLimiter:   loginLimiter,
		SecureCookies:  cfg.HTTP.SecureCookies,
		MaxUploadBytes: cfg.MaxUploadBytes(),
	})
	if err != nil {
		slog.Error("Couldn't parse templates", "err", err)
		os.Exit(1)
	}
	srv := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      apphttp.WithStandardMiddleware(mux, st),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("http.starting", "addr", cfg.HTTP.Address, "base_url", cfg.BaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http.listen", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	slog.Info("http.shutting_down")
	_ = srv.Shutdown(shutdownCtx)
	slog.Info("http.stopped")
}
