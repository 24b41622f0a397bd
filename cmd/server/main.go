package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"

	"github.com/example/courier-orders/internal/config"
	"github.com/example/courier-orders/internal/feed"
	"github.com/example/courier-orders/internal/geo"
	"github.com/example/courier-orders/internal/geocode"
	httpapi "github.com/example/courier-orders/internal/http"
	"github.com/example/courier-orders/internal/lifecycle"
	"github.com/example/courier-orders/internal/logging"
	"github.com/example/courier-orders/internal/models"
	"github.com/example/courier-orders/internal/notify"
	"github.com/example/courier-orders/internal/session"
	"github.com/example/courier-orders/internal/store"
	"github.com/example/courier-orders/internal/validate"
	"github.com/example/courier-orders/internal/wallet"
)

func main() {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logging.NewLogger(cfg.LogLevel)

	if cfg.PGDSN != "" && cfg.RunMigrations {
		if err := migrate(cfg.PGDSN, cfg.MigrationsDir); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied", "dir", cfg.MigrationsDir)
	}

	// repository: postgres when a DSN is configured, otherwise an in-memory
	// store seeded with the default catalog for local runs
	var repo store.Repository
	if cfg.PGDSN != "" {
		pg, err := store.NewPostgres(cfg.PGDSN)
		if err != nil {
			log.Error("postgres connect failed", "error", err)
			os.Exit(1)
		}
		repo = pg
		log.Info("using postgres repository")
	} else {
		repo = store.NewMemory(defaultCatalog()...)
		log.Info("using in-memory repository")
	}

	var mirror store.Mirror
	var producer *feed.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = feed.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		mirror = producer
		log.Info("kafka mirror enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	}

	st := store.New(repo, mirror, log)

	wsreg := notify.NewWSRegistry()
	st.OnReload = func(userID string, orders []models.Order) {
		if err := wsreg.Push(userID, orderSnapshot(orders)); err != nil {
			log.Debug("ws push skipped", "user", userID, "error", err)
		}
	}

	if cfg.PGDSN != "" {
		listener, err := feed.NewPQListener(cfg.PGDSN, log)
		if err != nil {
			log.Error("change feed listener failed", "error", err)
			os.Exit(1)
		}
		st.Subscribe(listener)
		log.Info("change feed subscribed", "channel", feed.Channel)
	}

	var cache geocode.Cache
	if cfg.RedisAddr != "" {
		cache = geocode.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.GeocodeCacheTTL)
	} else {
		cache = geocode.NewMemoryCache(cfg.GeocodeCacheTTL)
	}
	geocoder := geocode.NewHTTPClient(cfg.GeocoderEndpoint, cfg.GeocoderToken, cfg.CountryCode)
	resolver := geocode.NewResolver(geocoder, cache, nil, geo.FranceExtent.Contains, cfg.GeocodeDebounce, log)

	var sess *session.Chain
	if cfg.RedisAddr != "" {
		sess = session.NewChain(
			session.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.SessionKey, cfg.SessionTTL),
			session.NewMemoryStore(),
		)
	} else {
		sess = session.NewChain(session.NewMemoryStore())
	}

	var balances wallet.BalanceReader
	if os.Getenv("STRIPE_API_KEY") != "" {
		balances = wallet.NewStripeReader()
	}

	validator := &validate.Validator{Now: time.Now}
	srv := httpapi.New(st, resolver, validator, balances, wsreg, sess, cfg.CountryName, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// adopt whatever user a previous run left in the session chain, then
	// follow sign-in/sign-out for the life of the process
	if id, err := sess.CurrentUserID(ctx); err == nil && id != "" {
		st.Bind(id)
		_ = st.Load(ctx)
	}
	go func() {
		for ch := range sess.Changes() {
			st.Bind(ch.UserID)
			if ch.UserID != "" {
				loadCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				if err := st.Load(loadCtx); err != nil {
					log.Warn("order load after sign-in failed", "user", ch.UserID, "error", err)
				}
				cancel()
			}
		}
	}()

	httpSrv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	go func() {
		log.Info("listening", "addr", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", "error", err)
	}
	st.Close()
	resolver.Close()
	sess.Close()
	if producer != nil {
		_ = producer.Close()
	}
}

func migrate(dsn, dir string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, dir)
}

// wsOrder decorates an order with its presentation badge for push clients.
type wsOrder struct {
	models.Order
	Badge string `json:"badge"`
}

func orderSnapshot(orders []models.Order) map[string]any {
	view := make([]wsOrder, 0, len(orders))
	for _, o := range orders {
		view = append(view, wsOrder{Order: o, Badge: lifecycle.Badge(o.Status)})
	}
	return map[string]any{"orders": view}
}

func defaultCatalog() []models.Service {
	return []models.Service{
		{ID: "11111111-1111-1111-1111-111111111111", Type: models.ServiceCarpooling, Name: "Carpooling", MinPrice: decimal.RequireFromString("8")},
		{ID: "22222222-2222-2222-2222-222222222222", Type: models.ServiceShopping, Name: "Shopping", MinPrice: decimal.RequireFromString("5")},
		{ID: "33333333-3333-3333-3333-333333333333", Type: models.ServiceLargeItems, Name: "Large items", MinPrice: decimal.RequireFromString("15")},
	}
}
