package main

import (
	"flag"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload" // Automatically load .env file if present
	"github.com/rxtech-lab/dca-executor/internal/api"
	"github.com/rxtech-lab/dca-executor/internal/config"
	"github.com/rxtech-lab/dca-executor/internal/services"
)

// Build information (set via ldflags)
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildTime  = "unknown"
)

func main() {
	// Command line flags
	var showVersion = flag.Bool("version", false, "Show version information")
	var showHelp = flag.Bool("help", false, "Show help information")
	var verbose = flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	if *showVersion {
		log.Printf("DCA Swap Executor\n")
		log.Printf("Version: %s\n", Version)
		log.Printf("Commit: %s\n", CommitHash)
		log.Printf("Built: %s\n", BuildTime)
		return
	}

	if *showHelp {
		log.Printf("DCA Swap Executor\n\n")
		log.Printf("Usage: %s [options]\n\n", os.Args[0])
		log.Printf("Options:\n")
		log.Printf("  --version    Show version information\n")
		log.Printf("  --help       Show this help message\n")
		log.Printf("  --verbose    Enable debug logging\n\n")
		log.Printf("Description:\n")
		log.Printf("  Executes recurring and webhook-triggered token swaps on Base on\n")
		log.Printf("  behalf of a managed wallet, recording each confirmed purchase.\n")
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
	// Fiber and GORM write through the standard logger; keep it quiet unless debugging.
	if !*verbose {
		log.SetOutput(io.Discard)
	}

	cfg := config.Load()

	// Initialize database: Postgres when a DSN is configured, SQLite otherwise
	var db services.DBService
	var err error
	if cfg.PostgresDSN != "" {
		db, err = services.NewPostgresDBService(cfg.PostgresDSN)
	} else {
		db, err = services.NewSqliteDBService(cfg.DatabasePath)
	}
	if err != nil {
		slog.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	chainService, err := services.NewChainService(cfg.BaseRPCURL)
	if err != nil {
		slog.Error("failed to connect to Base RPC", "rpc", cfg.BaseRPCURL, "error", err)
		os.Exit(1)
	}

	priceService := services.NewPriceService(cfg.CoinrankingAPIBase, cfg.CoinrankingAPIKey, cfg.PriceCacheTTL)
	toolService := services.NewToolService(cfg.VincentToolURL, cfg.VincentAppVersion)
	purchaseService := services.NewPurchaseService(db.GetDB())

	executor := services.NewExecutorService(chainService, priceService, toolService, purchaseService, cfg.BaseRPCURL, cfg.ConfirmationTimeout)
	dispatcher := services.NewImmediateDispatcher(executor)

	server := api.NewAPIServer(dispatcher, purchaseService, cfg.WalletAddress)

	go func() {
		slog.Info("starting api server", "port", cfg.Port)
		if err := server.Start(":" + cfg.Port); err != nil {
			slog.Error("api server stopped", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down")
	if err := server.Shutdown(); err != nil {
		slog.Error("error during shutdown", "error", err)
	}
}
