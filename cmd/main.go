package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/amirphl/rsi-alert/internal/alert"
	"github.com/amirphl/rsi-alert/internal/candle"
	"github.com/amirphl/rsi-alert/internal/config"
	"github.com/amirphl/rsi-alert/internal/db"
	"github.com/amirphl/rsi-alert/internal/db/conf"
	"github.com/amirphl/rsi-alert/internal/notifier"
	"github.com/amirphl/rsi-alert/internal/utils"
	"github.com/lib/pq"
)

func main() {
	cfg := config.MustLoadConfig()
	utils.SetLogFile(cfg.LogFile)
	logger := utils.GetLogger()
	logger.Printf("Starting RSI Alert in mode: %s (source %s, %d rules)", cfg.Mode, cfg.Source, len(cfg.Rules))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	storage, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}
	defer closeStorage()

	sinks := notifier.Multi{notifier.NewLogNotifier(logger)}
	if cfg.TelegramToken != "" {
		sinks = append(sinks, notifier.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID, cfg.NotificationRetries, cfg.NotificationDelay))
	}

	checker, err := alert.NewChecker(storage, storage, sinks, cfg.Rules,
		alert.WithLogger(logger), alert.WithMarketHoursOnly(cfg.MarketHoursOnly))
	if err != nil {
		logger.Fatalf("Invalid alert rules: %v", err)
	}

	switch cfg.Mode {
	case config.ModeCheck:
		alerts, err := checker.CheckOnce(ctx)
		logger.Printf("Check finished: %d alerts sent", len(alerts))
		if err != nil {
			closeStorage()
			logger.Fatalf("Check failed: %v", err)
		}
	case config.ModeWatch:
		if err := checker.Run(ctx, cfg.Interval); err != nil {
			closeStorage()
			logger.Fatalf("Watch failed: %v", err)
		}
	default:
		logger.Fatalf("Unsupported mode: %s", cfg.Mode)
	}
	logger.Println("Shutdown complete")
}

// openStorage returns the candle source and alert journal selected by cfg.
func openStorage(ctx context.Context, cfg config.Config) (db.Storage, func(), error) {
	switch cfg.Source {
	case config.SourceCSV:
		rule := cfg.Rules[0].WithDefaults()
		f, err := os.Open(cfg.CSVPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open csv: %w", err)
		}
		defer f.Close()

		candles, err := candle.ReadCSV(f, rule.Symbol, rule.Market, rule.Timeframe)
		if err != nil {
			return nil, nil, err
		}
		mem := db.NewMemory()
		if err := mem.SaveCandles(ctx, candles); err != nil {
			return nil, nil, err
		}
		utils.GetLogger().Printf("Loaded %d candles for %s from %s", len(candles), rule.Symbol, cfg.CSVPath)
		return mem, func() {}, nil

	case config.SourcePostgres:
		if cfg.RunMigration {
			if err := runMigrations(ctx, cfg.DBConnStr); err != nil {
				return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}
		dbConfig, err := conf.NewConfig(cfg.DBConnStr, cfg.DBMaxOpen, cfg.DBMaxIdle)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create DB config: %w", err)
		}
		storage, err := db.New(*dbConfig)
		if err != nil {
			dbConfig.DB.Close()
			return nil, nil, err
		}
		utils.GetLogger().Println("Connected to Postgres")
		return storage, func() { dbConfig.DB.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unsupported source %q", cfg.Source)
}

// runMigrations creates the database if it doesn't exist and runs the schema.sql script
func runMigrations(ctx context.Context, connStr string) error {
	logger := utils.GetLogger()
	logger.Println("Running database migrations...")

	u, err := url.Parse(connStr)
	if err != nil {
		return fmt.Errorf("failed to parse connection string: %w", err)
	}
	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return fmt.Errorf("database name not found in connection string")
	}

	base := *u
	base.Path = "/postgres"
	baseDB, err := sql.Open("postgres", base.String())
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer baseDB.Close()

	var exists bool
	err = baseDB.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", dbName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check if database exists: %w", err)
	}
	if !exists {
		logger.Printf("Creating database %s...", dbName)
		if _, err := baseDB.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(dbName)); err != nil {
			return fmt.Errorf("failed to create database: %w", err)
		}
	}

	schemaPath, err := conf.FindSchema()
	if err != nil {
		return err
	}
	schemaSQL, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to read schema.sql: %w", err)
	}

	target, err := sql.Open("postgres", connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer target.Close()

	if _, err := target.ExecContext(ctx, string(schemaSQL)); err != nil {
		return fmt.Errorf("failed to execute schema.sql: %w", err)
	}

	logger.Println("Database migrations completed successfully")
	return nil
}
