package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/application/placement"
	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/config"
	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/domain/cart"
	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/domain/stock"
	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/infrastructure/eventbus"
	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/infrastructure/httpapi"
	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/infrastructure/id"
	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/infrastructure/memory"
	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/infrastructure/mysql"
	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/infrastructure/notify"
	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/infrastructure/observability/oteltrace"
	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/infrastructure/observability/prometrics"
	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/infrastructure/observability/telemetry"
	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/infrastructure/observability/zaplogger"
	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/infrastructure/payment"
	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func main() {
	app := &cli.App{
		Name:  "snackend",
		Usage: "order placement service for the Spaeti shop",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: func(*cli.Context) error { return serve() },
			},
			{
				Name:   "migrate",
				Usage:  "apply database migrations and exit",
				Action: func(*cli.Context) error { return migrateDB() },
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func migrateDB() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DB.Driver != config.DriverMySQL {
		return fmt.Errorf("migrate requires DB_DRIVER=mysql")
	}
	return mysql.Migrate(cfg.DB.DSN)
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := zaplogger.New(
		observability.F("service", cfg.ServiceName),
		observability.F("env", cfg.Env),
	)
	metrics := prometrics.New(cfg.ServiceName, "", nil)
	tel := telemetry.New(oteltrace.New(cfg.ServiceName), logger, metrics)

	store, err := buildStore(cfg, logger)
	if err != nil {
		return err
	}

	var gateway placement.Gateway
	if cfg.Gateway.URL != "" {
		gateway = payment.NewHTTPGateway(cfg.Gateway.URL, cfg.Gateway.Timeout, logger)
	} else {
		logger.Warn("using_simulated_payment_gateway",
			observability.F("success_rate", cfg.Gateway.SuccessRate),
		)
		gateway = payment.NewSimulatedGateway(cfg.Gateway.SuccessRate)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := eventbus.NewBus(logger)
	bus.Start(ctx)
	defer bus.Stop(context.Background())

	notifyWorker := notify.NewWorker(bus, notify.NewLogSender(logger), logger)
	notifyWorker.Start()

	placeOrder := placement.NewPlaceOrderUseCase(store, gateway, id.NewUUIDGenerator(), bus, tel)
	handler := httpapi.NewHandler(placeOrder)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router(httpapi.RouterOptions{
		AuthTokens:  cfg.Auth.Tokens,
		CORSOrigins: cfg.CORSOrigins,
		Middleware: []func(http.Handler) http.Handler{
			httpapi.ObservabilityMiddleware(logger, tel),
		},
	}))

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("http_server_start", observability.F("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http_server_shutdown_error", observability.F("error", err.Error()))
			return err
		}
		logger.Info("http_server_stopped")
		return nil
	})

	return group.Wait()
}

func buildStore(cfg *config.Config, logger observability.Logger) (placement.Store, error) {
	mode := placement.LockMode(cfg.Stock.LockMode)

	switch cfg.DB.Driver {
	case config.DriverMySQL:
		db, err := mysql.Open(cfg.DB.DSN)
		if err != nil {
			return nil, err
		}
		logger.Info("store_ready",
			observability.F("driver", cfg.DB.Driver),
			observability.F("lock_mode", string(mode)),
		)
		return mysql.NewStore(db, mode), nil
	default:
		store := memory.NewStore(mode)
		seedDemoCatalog(store)
		logger.Info("store_ready",
			observability.F("driver", cfg.DB.Driver),
			observability.F("lock_mode", string(mode)),
		)
		return store, nil
	}
}

// seedDemoCatalog loads a small catalog so the memory driver is usable out of
// the box.
func seedDemoCatalog(store *memory.Store) {
	seed := []struct {
		optionID, productID, product, option string
		price                                string
		quantity                             int
	}{
		{"opt-cola-05", "prod-cola", "Club Cola", "0.5l bottle", "1.80", 120},
		{"opt-mate-05", "prod-mate", "Mate Ice Tea", "0.5l bottle", "2.20", 60},
		{"opt-chips-paprika", "prod-chips", "Paprika Chips", "175g bag", "1.99", 35},
	}
	for _, s := range seed {
		opt, err := stock.NewOption(s.optionID, s.productID, s.option, s.quantity)
		if err != nil {
			continue
		}
		store.AddOption(opt, s.product, decimal.RequireFromString(s.price))
	}
	_ = store.Put(context.Background(), cart.Line{BuyerID: "buyer-demo", OptionID: "opt-cola-05", Quantity: 2})
}
