package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mkmonette/dish-nation-suite-sub001/internal/cart"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/catalog"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/checkout"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/config"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/domain"
	opsgrpc "github.com/mkmonette/dish-nation-suite-sub001/internal/grpc"
	h "github.com/mkmonette/dish-nation-suite-sub001/internal/http"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/logger"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/loyalty"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/payment"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/publisher"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/repository"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/repository/memory"
	mongorepo "github.com/mkmonette/dish-nation-suite-sub001/internal/repository/mongo"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/repository/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.Init(cfg.Env, cfg.LogLevel)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var (
		store  *repository.Store
		carts  cart.Store
		cache  catalog.MenuCache
		probes []opsgrpc.Probe
		closer []func()
	)

	switch cfg.StorageDriver {
	case config.DriverPersistent:
		creds := &postgres.Credentials{
			Host:              cfg.Postgres.Host,
			Port:              cfg.Postgres.Port,
			User:              cfg.Postgres.User,
			Password:          cfg.Postgres.Password,
			DBName:            cfg.Postgres.DBName,
			MigrationsDirPath: cfg.Postgres.MigrationsPath,
		}
		pg, err := postgres.NewRepository(creds)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to postgres")
		}
		if err := pg.RunMigrations(creds); err != nil {
			log.WithError(err).Fatal("failed to run migrations")
		}
		closer = append(closer, func() { _ = pg.Close() })

		db, err := mongorepo.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to mongodb")
		}
		closer = append(closer, func() { _ = db.Client().Disconnect(context.Background()) })
		docs := mongorepo.NewCatalog(db)
		if err := docs.CreateIndexes(ctx); err != nil {
			log.WithError(err).Fatal("failed to create mongodb indexes")
		}

		store = &repository.Store{Orders: pg.Orders(), Payments: pg.Payments(), Outbox: pg}
		docs.Attach(store)

		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		closer = append(closer, func() { _ = rdb.Close() })
		carts = cart.NewRedisStore(rdb, cfg.CartTTL)
		cache = catalog.NewRedisCache(rdb, cfg.MenuCacheTTL)

		probes = append(probes,
			opsgrpc.Probe{Name: "postgres", Check: pg.Ping},
			opsgrpc.Probe{Name: "redis", Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
			opsgrpc.Probe{Name: "mongodb", Check: func(ctx context.Context) error { return db.Client().Ping(ctx, nil) }},
		)

		poller := publisher.NewOutboxPoller(pg, cfg.PollInterval, cfg.KafkaTopic, cfg.KafkaBrokers...)
		go poller.Run(ctx)
	default:
		store = memory.NewStore()
		carts = cart.NewMemoryStore()
		if err := seedDemo(ctx, store, cfg); err != nil {
			log.WithError(err).Fatal("failed to seed demo store")
		}
	}

	registry := payment.NewRegistry(cfg.Gateways...)
	gateway := payment.NewBreakerGateway(payment.NewSimulator(registry), payment.BreakerSettings{
		ConsecutiveFailures: cfg.BreakerFailures,
		Timeout:             cfg.BreakerTimeout,
	})
	processor := payment.NewProcessor(store.Orders, store.Payments, gateway, payment.NewWeightedRandom(cfg.PaymentSuccessRate), cfg.PaymentDelay)

	catalogSvc := catalog.NewService(store.MenuItems, cache)
	loyaltySvc := loyalty.NewService(store.Loyalty)
	checkoutSvc := checkout.NewService(store, catalogSvc, carts, loyaltySvc, registry, cfg.Currency)

	router := h.NewRouter(
		h.RouterConfig{RequestTimeout: cfg.RequestTimeout, JWTSecret: []byte(cfg.JWTSecret)},
		h.NewStorefrontHandler(catalogSvc, checkoutSvc, carts, store, processor, cfg.RequestTimeout, cfg.MaxUploadBytes),
		h.NewVendorHandler(store, catalogSvc, loyaltySvc, processor, cfg.RequestTimeout),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + cfg.PaymentDelay,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("storefront listening on :%s (storage=%s)", cfg.HTTPPort, cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server error")
		}
	}()

	ops := opsgrpc.NewOpsServer(probes...)
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.WithError(err).Fatal("failed to listen for grpc")
	}
	go ops.Monitor(ctx, 10*time.Second)
	go func() {
		log.Infof("ops grpc listening on :%s", cfg.GRPCPort)
		if err := ops.Serve(lis); err != nil {
			log.WithError(err).Error("grpc server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")
	stop()
	ops.GracefulStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}
	for i := len(closer) - 1; i >= 0; i-- {
		closer[i]()
	}
	log.Info("server exited")
}

// seedDemo creates a demo vendor for the in-memory driver and logs an admin
// token for it.
func seedDemo(ctx context.Context, store *repository.Store, cfg *config.Config) error {
	now := time.Now().UTC()
	vendor := &domain.Vendor{ID: "demo", Name: "Demo Kitchen", Slug: "demo", Currency: cfg.Currency, CreatedAt: now, UpdatedAt: now}
	if err := store.Vendors.Create(ctx, vendor); err != nil {
		return err
	}
	item := &domain.MenuItem{
		ID:          "burger",
		VendorID:    vendor.ID,
		Name:        "Burger",
		Price:       5,
		AddOns:      []domain.AddOn{{ID: "cheese", Name: "Cheese", Price: 1}},
		IsAvailable: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := store.MenuItems.Create(ctx, item); err != nil {
		return err
	}

	token, err := h.IssueToken([]byte(cfg.JWTSecret), vendor.ID, 24*time.Hour)
	if err != nil {
		return err
	}
	logger.L().WithField("vendor_id", vendor.ID).WithField("token", token).Info("seeded demo vendor")
	return nil
}
