package steps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"github.com/budget-tracker/ledger/internal/application/adapter"
	"github.com/budget-tracker/ledger/internal/application/report"
	"github.com/budget-tracker/ledger/internal/domain/entity"
	domainerror "github.com/budget-tracker/ledger/internal/domain/error"
)

func registerIdentitySteps(ctx *godog.ScenarioContext) {
	ctx.Step(`^I register as "([^"]*)" with password "([^"]*)"$`, iRegisterAs)
	ctx.Step(`^I log out$`, iLogOut)
	ctx.Step(`^I log back in as "([^"]*)" with password "([^"]*)"$`, iLogBackInAs)
}

func registerLedgerSteps(ctx *godog.ScenarioContext) {
	ctx.Step(`^the ledger is synchronized$`, theLedgerIsSynchronized)
	ctx.Step(`^I create a "([^"]*)" category named "([^"]*)"$`, iCreateACategoryNamed)
	ctx.Step(`^I create an? (expense|income) of "([^"]*)" in "([^"]*)" on "([^"]*)"$`, iCreateATransaction)
	ctx.Step(`^the mirror should contain (\d+) transactions?$`, theMirrorShouldContainTransactions)
	ctx.Step(`^the mirror should contain (\d+) categor(?:y|ies)$`, theMirrorShouldContainCategories)
	ctx.Step(`^the mirror should be empty$`, theMirrorShouldBeEmpty)
	ctx.Step(`^creating an? (expense|income) of "([^"]*)" in "([^"]*)" on "([^"]*)" should fail$`, creatingATransactionShouldFail)
	ctx.Step(`^the ledger error should be "([^"]*)"$`, theLedgerErrorShouldBe)
}

func registerReportSteps(ctx *godog.ScenarioContext) {
	ctx.Step(`^the summary for "([^"]*)" should show income "([^"]*)", expenses "([^"]*)" and net "([^"]*)"$`, theSummaryShouldShow)
}

func iRegisterAs(ctx context.Context, email, password string) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	if _, err := tc.identity.Register(context.Background(), email, password, "Test User"); err != nil {
		return fmt.Errorf("failed to register: %w", err)
	}
	return nil
}

func iLogOut(ctx context.Context) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	return tc.identity.Logout(context.Background())
}

func iLogBackInAs(ctx context.Context, email, password string) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	if _, err := tc.identity.Login(context.Background(), email, password); err != nil {
		return fmt.Errorf("failed to log in: %w", err)
	}
	return nil
}

func theLedgerIsSynchronized(ctx context.Context) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	return waitFor(func() bool { return !tc.store.Loading() })
}

func iCreateACategoryNamed(ctx context.Context, categoryType, name string) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	_, err := tc.store.CreateCategory(context.Background(), adapter.CreateCategoryInput{
		Name: name,
		Type: entity.CategoryType(categoryType),
	})
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	// Wait for the category to arrive in the mirror so later transaction
	// validation sees it.
	return waitFor(func() bool {
		for _, c := range tc.store.Categories() {
			if c.Name == name {
				return true
			}
		}
		return false
	})
}

func iCreateATransaction(ctx context.Context, txType, amount, category, date string) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	input, err := buildTransactionInput(txType, amount, category, date)
	if err != nil {
		return err
	}
	if _, err := tc.store.CreateTransaction(context.Background(), input); err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func creatingATransactionShouldFail(ctx context.Context, txType, amount, category, date string) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	input, err := buildTransactionInput(txType, amount, category, date)
	if err != nil {
		return err
	}
	_, err = tc.store.CreateTransaction(context.Background(), input)
	if err == nil {
		return fmt.Errorf("expected the create to fail")
	}
	tc.lastErr = err
	return nil
}

func theLedgerErrorShouldBe(ctx context.Context, expected string) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	storeErr := tc.store.Err()
	if storeErr == nil {
		return fmt.Errorf("no error recorded on the store")
	}
	var ledgerErr *domainerror.LedgerError
	if !errors.As(storeErr, &ledgerErr) {
		return fmt.Errorf("error %v carries no code", storeErr)
	}
	if string(ledgerErr.Code) != expected {
		return fmt.Errorf("error code is %s, expected %s", ledgerErr.Code, expected)
	}
	return nil
}

func buildTransactionInput(txType, amount, category, date string) (adapter.CreateTransactionInput, error) {
	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return adapter.CreateTransactionInput{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return adapter.CreateTransactionInput{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return adapter.CreateTransactionInput{
		Type:     entity.TransactionType(txType),
		Amount:   amt,
		Category: category,
		Date:     day,
	}, nil
}

func theMirrorShouldContainTransactions(ctx context.Context, count int) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	if err := waitFor(func() bool { return len(tc.store.Transactions()) == count }); err != nil {
		return fmt.Errorf("mirror has %d transactions, expected %d", len(tc.store.Transactions()), count)
	}
	return nil
}

func theMirrorShouldContainCategories(ctx context.Context, count int) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	if err := waitFor(func() bool { return len(tc.store.Categories()) == count }); err != nil {
		return fmt.Errorf("mirror has %d categories, expected %d", len(tc.store.Categories()), count)
	}
	return nil
}

func theMirrorShouldBeEmpty(ctx context.Context) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	return waitFor(func() bool {
		return len(tc.store.Transactions()) == 0 && len(tc.store.Categories()) == 0
	})
}

func theSummaryShouldShow(ctx context.Context, month, income, expenses, net string) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	ref, err := time.Parse("2006-01", month)
	if err != nil {
		return fmt.Errorf("invalid month %q: %w", month, err)
	}

	summary := report.CurrentMonthSummary(tc.store.Transactions(), ref)
	if summary.Income.String() != income {
		return fmt.Errorf("income is %s, expected %s", summary.Income, income)
	}
	if summary.Expenses.String() != expenses {
		return fmt.Errorf("expenses is %s, expected %s", summary.Expenses, expenses)
	}
	if summary.Net.String() != net {
		return fmt.Errorf("net is %s, expected %s", summary.Net, net)
	}
	return nil
}
