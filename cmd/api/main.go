package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/mathstore/storefront-api/internal/auth"
	"github.com/mathstore/storefront-api/internal/catalog"
	"github.com/mathstore/storefront-api/internal/config"
	"github.com/mathstore/storefront-api/internal/httpx"
	kafkax "github.com/mathstore/storefront-api/internal/kafka"
	"github.com/mathstore/storefront-api/internal/logger"
	"github.com/mathstore/storefront-api/internal/metrics"
	"github.com/mathstore/storefront-api/internal/notify"
	"github.com/mathstore/storefront-api/internal/orders"
	"github.com/mathstore/storefront-api/internal/postgres"
	"github.com/mathstore/storefront-api/internal/reconcile"
	"github.com/mathstore/storefront-api/internal/redisx"
	"github.com/mathstore/storefront-api/internal/yookassa"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := postgres.Migrate(cfg.PostgresDSN, "migrations"); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Error("db connect failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redisx.New(cfg.RedisAddr)
		defer rdb.Close()
	}

	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPaid, 1024)
	prod.Start(ctx)

	catalogRepo := &catalog.Repo{DB: db}
	orderRepo := &orders.Repo{DB: db}
	authSvc := auth.NewService(&auth.Repo{DB: db}, cfg.AdminJWTSecret)
	gateway := yookassa.NewClient(cfg.YooKassa)
	mailer := notify.NewEmailSender(cfg.SMTP, orderRepo)
	telegram := notify.NewTelegram(cfg.Telegram)
	m := metrics.New("api")

	reconciler := &reconcile.Reconciler{
		Gateway:  gateway,
		Orders:   orderRepo,
		Catalog:  catalogRepo,
		Email:    mailer,
		Admin:    telegram,
		Producer: prod,
		Redis:    rdb,
		Service:  cfg.ServiceName,
		Log:      log,
	}

	router := httpx.NewRouter(log)
	for _, h := range []interface{ Register(r chi.Router) }{
		&httpx.CheckoutHandler{Catalog: catalogRepo, Gateway: gateway, Redis: rdb, Metrics: m, Log: log},
		&httpx.WebhookHandler{Reconciler: reconciler, Metrics: m, Log: log},
		&httpx.NotifyHandler{Email: mailer, Telegram: telegram, Log: log},
		&httpx.ProductsHandler{Catalog: catalogRepo, Auth: authSvc, Redis: rdb, Log: log},
		&httpx.AuthHandler{Auth: authSvc, Log: log},
		&httpx.OrdersHandler{Orders: orderRepo, Auth: authSvc, Log: log},
		&httpx.SitemapHandler{Catalog: catalogRepo, BaseURL: cfg.SiteBaseURL, Log: log},
	} {
		h.Register(router)
	}

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr, "service", cfg.ServiceName)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeout)*time.Second)
	defer cancelShutdown()
	_ = srv.Shutdown(shutdownCtx)

	prod.Close()
	cancel()
	prod.WaitClosed()
	log.Info("stopped")
}
