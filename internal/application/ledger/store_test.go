package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/budget-tracker/ledger/internal/application/adapter"
	"github.com/budget-tracker/ledger/internal/domain/entity"
	domainerror "github.com/budget-tracker/ledger/internal/domain/error"
)

func boundStore(t *testing.T, remote *fakeRemote) (*Store, uuid.UUID, BindToken) {
	t.Helper()
	store := NewStore(remote)
	ownerID := uuid.New()
	token := store.Bind(ownerID)
	store.ApplyCategories(token, []entity.Category{
		{ID: uuid.New(), OwnerID: ownerID, Name: "Food", Type: entity.CategoryTypeExpense},
		{ID: uuid.New(), OwnerID: ownerID, Name: "Salary", Type: entity.CategoryTypeIncome},
		{ID: uuid.New(), OwnerID: ownerID, Name: "Other", Type: entity.CategoryTypeBoth},
	})
	return store, ownerID, token
}

func validCreateInput() adapter.CreateTransactionInput {
	return adapter.CreateTransactionInput{
		Type:     entity.TransactionTypeExpense,
		Amount:   decimal.RequireFromString("42.50"),
		Category: "Food",
		Date:     time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
	}
}

func TestStoreCreateTransactionValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*adapter.CreateTransactionInput)
		wantErr error
	}{
		{
			name:    "zero amount",
			mutate:  func(in *adapter.CreateTransactionInput) { in.Amount = decimal.Zero },
			wantErr: domainerror.ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			mutate:  func(in *adapter.CreateTransactionInput) { in.Amount = decimal.RequireFromString("-1") },
			wantErr: domainerror.ErrInvalidAmount,
		},
		{
			name:    "invalid type",
			mutate:  func(in *adapter.CreateTransactionInput) { in.Type = "transfer" },
			wantErr: domainerror.ErrInvalidTransactionType,
		},
		{
			name:    "missing date",
			mutate:  func(in *adapter.CreateTransactionInput) { in.Date = time.Time{} },
			wantErr: domainerror.ErrMissingDate,
		},
		{
			name:    "missing category",
			mutate:  func(in *adapter.CreateTransactionInput) { in.Category = "" },
			wantErr: domainerror.ErrMissingCategory,
		},
		{
			name:    "unknown category",
			mutate:  func(in *adapter.CreateTransactionInput) { in.Category = "Vacations" },
			wantErr: domainerror.ErrUnknownCategory,
		},
		{
			name: "income-only category on an expense",
			mutate: func(in *adapter.CreateTransactionInput) {
				in.Category = "Salary"
			},
			wantErr: domainerror.ErrCategoryNotEligible,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := &fakeRemote{}
			store, _, _ := boundStore(t, remote)

			input := validCreateInput()
			tt.mutate(&input)

			_, err := store.CreateTransaction(context.Background(), input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(store.Err(), tt.wantErr) {
				t.Errorf("Err() = %v, want %v", store.Err(), tt.wantErr)
			}
			// Validation failures never reach the remote store.
			if len(remote.createdTransactions) != 0 {
				t.Error("remote was called despite validation failure")
			}
		})
	}
}

func TestStoreCreateTransaction(t *testing.T) {
	t.Run("both category accepts either type", func(t *testing.T) {
		remote := &fakeRemote{}
		store, _, _ := boundStore(t, remote)

		for _, txType := range []entity.TransactionType{entity.TransactionTypeExpense, entity.TransactionTypeIncome} {
			input := validCreateInput()
			input.Type = txType
			input.Category = "Other"
			if _, err := store.CreateTransaction(context.Background(), input); err != nil {
				t.Fatalf("%s via 'both' category: %v", txType, err)
			}
		}
	})

	t.Run("does not splice the mirror", func(t *testing.T) {
		remote := &fakeRemote{}
		store, _, _ := boundStore(t, remote)

		if _, err := store.CreateTransaction(context.Background(), validCreateInput()); err != nil {
			t.Fatal(err)
		}
		// The mirror updates only when the subscription pushes.
		if got := store.Transactions(); len(got) != 0 {
			t.Errorf("mirror has %d transactions, want 0 before next push", len(got))
		}
		if len(remote.createdTransactions) != 1 {
			t.Fatalf("remote received %d creates, want 1", len(remote.createdTransactions))
		}
	})

	t.Run("transport failure lands on the error channel", func(t *testing.T) {
		remote := &fakeRemote{err: errors.New("permission denied")}
		store, _, _ := boundStore(t, remote)

		_, err := store.CreateTransaction(context.Background(), validCreateInput())
		if err == nil {
			t.Fatal("expected error")
		}
		if store.Err() == nil || !errors.Is(store.Err(), remote.err) {
			t.Errorf("Err() = %v, want wrapped %v", store.Err(), remote.err)
		}
	})

	t.Run("unbound store rejects mutations", func(t *testing.T) {
		store := NewStore(&fakeRemote{})
		_, err := store.CreateTransaction(context.Background(), validCreateInput())
		if !errors.Is(err, domainerror.ErrNotBound) {
			t.Fatalf("err = %v, want %v", err, domainerror.ErrNotBound)
		}
	})

	t.Run("each mutation clears the previous error", func(t *testing.T) {
		remote := &fakeRemote{}
		store, _, _ := boundStore(t, remote)

		input := validCreateInput()
		input.Amount = decimal.Zero
		_, _ = store.CreateTransaction(context.Background(), input)
		if store.Err() == nil {
			t.Fatal("expected recorded error")
		}

		if _, err := store.CreateTransaction(context.Background(), validCreateInput()); err != nil {
			t.Fatal(err)
		}
		if store.Err() != nil {
			t.Errorf("Err() = %v, want nil after successful mutation", store.Err())
		}
	})
}

func TestStoreUpdateTransaction(t *testing.T) {
	existing := entity.Transaction{
		ID:       uuid.New(),
		Type:     entity.TransactionTypeExpense,
		Amount:   decimal.RequireFromString("10"),
		Category: "Food",
		Date:     time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
	}

	setup := func(t *testing.T) (*Store, *fakeRemote) {
		remote := &fakeRemote{}
		store, _, token := boundStore(t, remote)
		store.ApplyTransactions(token, []entity.Transaction{existing})
		return store, remote
	}

	t.Run("empty patch is rejected", func(t *testing.T) {
		store, _ := setup(t)
		err := store.UpdateTransaction(context.Background(), existing.ID, adapter.TransactionPatch{})
		if !errors.Is(err, domainerror.ErrEmptyPatch) {
			t.Fatalf("err = %v, want %v", err, domainerror.ErrEmptyPatch)
		}
	})

	t.Run("category change must reference an eligible category", func(t *testing.T) {
		store, remote := setup(t)
		unknown := "Vacations"
		err := store.UpdateTransaction(context.Background(), existing.ID, adapter.TransactionPatch{Category: &unknown})
		if !errors.Is(err, domainerror.ErrUnknownCategory) {
			t.Fatalf("err = %v, want %v", err, domainerror.ErrUnknownCategory)
		}
		if len(remote.transactionPatches) != 0 {
			t.Error("remote was called despite validation failure")
		}
	})

	t.Run("type change re-checks eligibility against current category", func(t *testing.T) {
		store, _ := setup(t)
		income := entity.TransactionTypeIncome
		// Existing category "Food" is expense-only; flipping the type alone
		// must fail.
		err := store.UpdateTransaction(context.Background(), existing.ID, adapter.TransactionPatch{Type: &income})
		if !errors.Is(err, domainerror.ErrCategoryNotEligible) {
			t.Fatalf("err = %v, want %v", err, domainerror.ErrCategoryNotEligible)
		}
	})

	t.Run("unknown transaction id", func(t *testing.T) {
		store, _ := setup(t)
		name := "Other"
		err := store.UpdateTransaction(context.Background(), uuid.New(), adapter.TransactionPatch{Category: &name})
		if !errors.Is(err, domainerror.ErrTransactionNotFound) {
			t.Fatalf("err = %v, want %v", err, domainerror.ErrTransactionNotFound)
		}
	})

	t.Run("valid patch reaches the remote", func(t *testing.T) {
		store, remote := setup(t)
		amount := decimal.RequireFromString("99.99")
		if err := store.UpdateTransaction(context.Background(), existing.ID, adapter.TransactionPatch{Amount: &amount}); err != nil {
			t.Fatal(err)
		}
		if len(remote.transactionPatches) != 1 {
			t.Fatalf("remote received %d patches, want 1", len(remote.transactionPatches))
		}
	})
}

func TestStoreCategoryMutations(t *testing.T) {
	t.Run("duplicate name rejected case-insensitively", func(t *testing.T) {
		remote := &fakeRemote{}
		store, _, _ := boundStore(t, remote)

		_, err := store.CreateCategory(context.Background(), adapter.CreateCategoryInput{
			Name: "food",
			Type: entity.CategoryTypeExpense,
		})
		if !errors.Is(err, domainerror.ErrDuplicateCategoryName) {
			t.Fatalf("err = %v, want %v", err, domainerror.ErrDuplicateCategoryName)
		}
	})

	t.Run("blank name rejected", func(t *testing.T) {
		remote := &fakeRemote{}
		store, _, _ := boundStore(t, remote)

		_, err := store.CreateCategory(context.Background(), adapter.CreateCategoryInput{
			Name: "   ",
			Type: entity.CategoryTypeExpense,
		})
		if !errors.Is(err, domainerror.ErrMissingCategoryName) {
			t.Fatalf("err = %v, want %v", err, domainerror.ErrMissingCategoryName)
		}
	})

	t.Run("rename to own name is allowed", func(t *testing.T) {
		remote := &fakeRemote{}
		store, ownerID, token := boundStore(t, remote)

		id := uuid.New()
		store.ApplyCategories(token, []entity.Category{
			{ID: id, OwnerID: ownerID, Name: "Food", Type: entity.CategoryTypeExpense},
		})

		name := "Food"
		if err := store.UpdateCategory(context.Background(), id, adapter.CategoryPatch{Name: &name}); err != nil {
			t.Fatalf("renaming a category to its own name: %v", err)
		}
	})

	t.Run("delete does not cascade to transactions", func(t *testing.T) {
		remote := &fakeRemote{}
		store, _, token := boundStore(t, remote)

		existing := entity.Transaction{ID: uuid.New(), Type: entity.TransactionTypeExpense,
			Amount: decimal.New(5, 0), Category: "Food"}
		store.ApplyTransactions(token, []entity.Transaction{existing})

		catID := store.Categories()[0].ID
		if err := store.DeleteCategory(context.Background(), catID); err != nil {
			t.Fatal(err)
		}
		// The name reference stays dangling by design.
		if got := store.Transactions(); got[0].Category != "Food" {
			t.Errorf("transaction category = %q, want untouched name reference", got[0].Category)
		}
	})
}

func TestStoreBindLifecycle(t *testing.T) {
	snapshot := []entity.Transaction{{ID: uuid.New(), Type: entity.TransactionTypeIncome,
		Amount: decimal.New(1, 0), Category: "Salary"}}

	t.Run("stale token pushes are discarded", func(t *testing.T) {
		store := NewStore(&fakeRemote{})
		token := store.Bind(uuid.New())
		store.Unbind()

		store.ApplyTransactions(token, snapshot)

		if got := store.Transactions(); len(got) != 0 {
			t.Errorf("stale push applied: %d transactions", len(got))
		}
	})

	t.Run("rebinding invalidates earlier tokens", func(t *testing.T) {
		store := NewStore(&fakeRemote{})
		oldToken := store.Bind(uuid.New())
		newToken := store.Bind(uuid.New())

		store.ApplyTransactions(oldToken, snapshot)
		if len(store.Transactions()) != 0 {
			t.Error("push for a previous binding was applied")
		}

		store.ApplyTransactions(newToken, snapshot)
		if len(store.Transactions()) != 1 {
			t.Error("push for the current binding was not applied")
		}
	})

	t.Run("loading until both feeds deliver", func(t *testing.T) {
		store := NewStore(&fakeRemote{})
		token := store.Bind(uuid.New())

		if !store.Loading() {
			t.Error("Loading() = false right after bind")
		}
		store.ApplyTransactions(token, nil)
		if !store.Loading() {
			t.Error("Loading() = false with only one feed delivered")
		}
		store.ApplyCategories(token, nil)
		if store.Loading() {
			t.Error("Loading() = true after both feeds delivered")
		}
	})

	t.Run("unbind clears mirror and loading resets on next bind", func(t *testing.T) {
		store := NewStore(&fakeRemote{})
		token := store.Bind(uuid.New())
		store.ApplyTransactions(token, snapshot)
		store.ApplyCategories(token, []entity.Category{{Name: "Salary", Type: entity.CategoryTypeIncome}})

		store.Unbind()

		if len(store.Transactions()) != 0 || len(store.Categories()) != 0 {
			t.Error("mirror not cleared on unbind")
		}
		if store.Loading() {
			t.Error("Loading() = true while unbound")
		}
		store.Bind(uuid.New())
		if !store.Loading() {
			t.Error("Loading() = false after fresh bind")
		}
	})
}

func TestStoreOnChange(t *testing.T) {
	store := NewStore(&fakeRemote{})

	var calls int
	unsub := store.OnChange(func() { calls++ })

	token := store.Bind(uuid.New())
	store.ApplyTransactions(token, nil)
	store.ApplyCategories(token, nil)
	store.Unbind()

	if calls != 4 {
		t.Errorf("observer called %d times, want 4", calls)
	}

	unsub()
	store.Bind(uuid.New())
	if calls != 4 {
		t.Errorf("observer called after unsubscribe")
	}
}
