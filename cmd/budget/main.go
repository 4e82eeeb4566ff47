// Package main is the entry point for the budget tracker demo consumer.
// It binds the ledger to a user session and logs derived views on every
// mirror change until interrupted.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/budget-tracker/ledger/config"
	"github.com/budget-tracker/ledger/internal/application/ledger"
	"github.com/budget-tracker/ledger/internal/application/report"
	domainerror "github.com/budget-tracker/ledger/internal/domain/error"
	"github.com/budget-tracker/ledger/internal/infra/db"
	"github.com/budget-tracker/ledger/internal/integration/adapters"
	"github.com/budget-tracker/ledger/internal/integration/persistence"
	"github.com/budget-tracker/ledger/internal/integration/persistence/model"
)

func main() {
	// Load .env file if it exists (development only)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()

	slog.Info("Starting budget tracker ledger", "database_url", cfg.Database.URL)

	database, err := db.Open(&cfg.Database)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := database.AutoMigrate(
		&model.UserModel{},
		&model.TransactionModel{},
		&model.CategoryModel{},
	); err != nil {
		slog.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Error("Failed to connect to redis", "error", err)
		os.Exit(1)
	}

	users := persistence.NewUserRepository(database.DB())
	identity := adapters.NewIdentityService(users, cfg.Auth.JWTSecret, cfg.Auth.SessionExpiry)
	remote := persistence.NewLedgerRepository(database.DB(), rdb)

	store := ledger.NewStore(remote)
	binder := ledger.NewBinder(identity, remote, store)
	binder.Start(ctx)
	defer binder.Close()

	unsubChange := store.OnChange(func() {
		if store.Loading() {
			return
		}
		transactions := store.Transactions()
		summary := report.CurrentMonthSummary(transactions, time.Now())
		slog.Info("Ledger updated",
			"transactions", len(transactions),
			"categories", len(store.Categories()),
			"month_income", summary.Income.StringFixed(2),
			"month_expenses", summary.Expenses.StringFixed(2),
			"month_net", summary.Net.StringFixed(2),
		)
		for _, t := range report.Recent(transactions, 5) {
			slog.Info("Recent transaction",
				"date", t.Date.Format("2006-01-02"),
				"type", string(t.Type),
				"amount", t.Amount.StringFixed(2),
				"category", t.Category,
			)
		}
	})
	defer unsubChange()

	email := os.Getenv("DEMO_EMAIL")
	password := os.Getenv("DEMO_PASSWORD")
	if email == "" || password == "" {
		slog.Error("DEMO_EMAIL and DEMO_PASSWORD must be set")
		os.Exit(1)
	}

	if _, err := identity.Login(ctx, email, password); err != nil {
		var authErr *domainerror.AuthError
		if !errors.As(err, &authErr) {
			slog.Error("Login failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Login failed, registering new account", "email", email)
		if _, err := identity.Register(ctx, email, password, "Demo User"); err != nil {
			slog.Error("Registration failed", "error", err)
			os.Exit(1)
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down")
	if err := identity.Logout(ctx); err != nil {
		slog.Warn("Logout failed", "error", err)
	}
}
