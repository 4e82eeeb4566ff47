// Package steps provides step definitions for BDD integration tests.
package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cucumber/godog"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/budget-tracker/ledger/internal/application/adapter"
	"github.com/budget-tracker/ledger/internal/application/ledger"
	"github.com/budget-tracker/ledger/internal/integration/adapters"
	"github.com/budget-tracker/ledger/internal/integration/persistence"
	"github.com/budget-tracker/ledger/internal/integration/persistence/model"
)

const (
	testJWTSecret = "test-jwt-secret-key-for-testing-purposes"
	syncTimeout   = 2 * time.Second
)

// TestContext holds the test state for each scenario: the full wiring from
// identity through binder to store, backed by in-memory infrastructure.
type TestContext struct {
	db       *gorm.DB
	redis    *miniredis.Miniredis
	rdb      *redis.Client
	identity adapter.IdentityProvider
	remote   adapter.RemoteLedger
	store    *ledger.Store
	binder   *ledger.Binder

	lastErr error
}

// contextKey is used to store TestContext in context.Context.
type contextKey struct{}

// GetTestContext retrieves the TestContext from context.
func GetTestContext(ctx context.Context) *TestContext {
	if tc, ok := ctx.Value(contextKey{}).(*TestContext); ok {
		return tc
	}
	return nil
}

// SetTestContext stores the TestContext in context.
func SetTestContext(ctx context.Context, tc *TestContext) context.Context {
	return context.WithValue(ctx, contextKey{}, tc)
}

// InitializeTestSuite sets up resources before any scenarios run.
func InitializeTestSuite(ctx *godog.TestSuiteContext) {
	ctx.BeforeSuite(func() {})
	ctx.AfterSuite(func() {})
}

// InitializeScenario registers all step definitions.
func InitializeScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc, err := newTestContext()
		if err != nil {
			return ctx, err
		}
		return SetTestContext(ctx, tc), nil
	})

	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		tc := GetTestContext(ctx)
		if tc != nil {
			tc.teardown()
		}
		return ctx, nil
	})

	registerIdentitySteps(ctx)
	registerLedgerSteps(ctx)
	registerReportSteps(ctx)
}

func newTestContext() (*TestContext, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.AutoMigrate(&model.UserModel{}, &model.TransactionModel{}, &model.CategoryModel{}); err != nil {
		return nil, fmt.Errorf("migrating: %w", err)
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, fmt.Errorf("starting redis: %w", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	users := persistence.NewUserRepository(db)
	identity := adapters.NewIdentityService(users, testJWTSecret, time.Hour)
	remote := persistence.NewLedgerRepository(db, rdb)
	store := ledger.NewStore(remote)
	binder := ledger.NewBinder(identity, remote, store)
	binder.Start(context.Background())

	return &TestContext{
		db:       db,
		redis:    mr,
		rdb:      rdb,
		identity: identity,
		remote:   remote,
		store:    store,
		binder:   binder,
	}, nil
}

func (tc *TestContext) teardown() {
	tc.binder.Close()
	_ = tc.rdb.Close()
	tc.redis.Close()
}

// waitFor polls until the condition holds or the sync timeout elapses.
// Subscription deliveries are asynchronous, so assertions on the mirror have
// to allow the snapshot to land.
func waitFor(cond func() bool) error {
	deadline := time.Now().Add(syncTimeout)
	for time.Now().Before(deadline) {
		if cond() {
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return fmt.Errorf("condition not met within %s", syncTimeout)
}
