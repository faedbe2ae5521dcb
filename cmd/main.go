package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fastfood/internal/api"
	"fastfood/internal/auth"
	"fastfood/internal/config"
	"fastfood/internal/core"
	"fastfood/internal/database"
	"fastfood/internal/license"
	"fastfood/internal/monitoring"
	"fastfood/internal/order"
	"fastfood/internal/receipt"
	"fastfood/internal/stock"
)

var (
	port        = flag.Int("port", 0, "API server port (overrides config)")
	metricsPort = flag.Int("metrics-port", 0, "Metrics server port (overrides config)")
	configFile  = flag.String("config", "configs/config.yaml", "Path to configuration file")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [token <username>]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *metricsPort != 0 {
		cfg.Metrics.Port = *metricsPort
	}

	if flag.Arg(0) == "token" {
		if err := printToken(cfg, flag.Arg(1)); err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
		return
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func printToken(cfg *config.Config, username string) error {
	if username == "" {
		return errors.New("usage: token <username>")
	}
	issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, core.SystemClock{})
	if err != nil {
		return err
	}
	token, err := issuer.Issue(username)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func run(cfg *config.Config, logger *zap.Logger) error {
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.InitDB(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer database.CloseDB()

	if err := database.Migrate(db); err != nil {
		return err
	}
	if err := database.Seed(db); err != nil {
		return err
	}

	clock := core.SystemClock{}
	metrics := monitoring.NewMetrics()

	issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, clock)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	var printer order.ReceiptPrinter = receipt.Noop{}
	if cfg.Receipt.Enabled {
		spool, err := receipt.NewSpool(cfg.Receipt.SpoolDir, logger)
		if err != nil {
			return err
		}
		printer = spool
	}

	ledger := stock.NewLedger(db, clock, logger, metrics)
	warnings := stock.NewWarnings(db, clock, logger)
	feed := api.NewKitchenFeed(logger)
	defer feed.Close()

	orders := order.NewService(db, order.Hooks{
		Stock:    ledger,
		Warnings: warnings,
		Receipts: printer,
		Notifier: feed,
	}, clock, logger, metrics)

	identity := license.NewIdentity(db, cfg.License.ServerID, license.LocalHost, logger)
	licenses := license.NewService(db, identity, clock, logger, metrics)
	if id, err := licenses.MachineID(); err == nil {
		logger.Info("server identity", zap.String("machine_id", id))
	}

	server := api.NewServer(api.Deps{
		Orders:   orders,
		Ledger:   ledger,
		Warnings: warnings,
		Licenses: licenses,
		Auth:     issuer,
		Feed:     feed,
		Logger:   logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: server.Router(),
	}
	g.Go(func() error {
		logger.Info("starting API server", zap.Int("port", cfg.Server.Port))
		return serve(gctx, apiServer)
	})

	if cfg.Metrics.Enabled {
		metricsRouter := gin.New()
		metricsRouter.GET(cfg.Metrics.Path, gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))
		metricsServer := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler: metricsRouter,
		}
		g.Go(func() error {
			logger.Info("starting metrics server", zap.Int("port", cfg.Metrics.Port), zap.String("path", cfg.Metrics.Path))
			return serve(gctx, metricsServer)
		})
	}

	sweeper := stock.NewSweeper(warnings, cfg.Stock.SweepInterval, logger)
	g.Go(func() error {
		return sweeper.Run(gctx)
	})

	err = g.Wait()
	logger.Info("shut down")
	return err
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
