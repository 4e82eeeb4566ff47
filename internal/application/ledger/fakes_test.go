package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/budget-tracker/ledger/internal/application/adapter"
	"github.com/budget-tracker/ledger/internal/domain/entity"
)

// fakeRemote is an in-memory adapter.RemoteLedger test double. Writes are
// recorded, not applied anywhere; snapshots are pushed by the test through
// the retained subscription callbacks, which also lets tests simulate late
// deliveries from torn-down subscriptions.
type fakeRemote struct {
	mu sync.Mutex

	err    error // returned by every write when set
	subErr error // returned by every subscribe when set

	createdTransactions []adapter.CreateTransactionInput
	transactionPatches  []adapter.TransactionPatch
	createdCategories   []adapter.CreateCategoryInput
	categoryPatches     []adapter.CategoryPatch
	deletedTransactions []uuid.UUID
	deletedCategories   []uuid.UUID

	txFns    []func([]entity.Transaction)
	catFns   []func([]entity.Category)
	txUnsub  int
	catUnsub int
	events   []string
}

func (f *fakeRemote) CreateTransaction(_ context.Context, _ uuid.UUID, input adapter.CreateTransactionInput) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return uuid.Nil, f.err
	}
	f.createdTransactions = append(f.createdTransactions, input)
	return uuid.New(), nil
}

func (f *fakeRemote) UpdateTransaction(_ context.Context, _ uuid.UUID, patch adapter.TransactionPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.transactionPatches = append(f.transactionPatches, patch)
	return nil
}

func (f *fakeRemote) DeleteTransaction(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deletedTransactions = append(f.deletedTransactions, id)
	return nil
}

func (f *fakeRemote) CreateCategory(_ context.Context, _ uuid.UUID, input adapter.CreateCategoryInput) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return uuid.Nil, f.err
	}
	f.createdCategories = append(f.createdCategories, input)
	return uuid.New(), nil
}

func (f *fakeRemote) UpdateCategory(_ context.Context, _ uuid.UUID, patch adapter.CategoryPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.categoryPatches = append(f.categoryPatches, patch)
	return nil
}

func (f *fakeRemote) DeleteCategory(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deletedCategories = append(f.deletedCategories, id)
	return nil
}

func (f *fakeRemote) SubscribeTransactions(_ context.Context, _ uuid.UUID, fn func([]entity.Transaction)) (adapter.Unsubscribe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subErr != nil {
		return nil, f.subErr
	}
	f.txFns = append(f.txFns, fn)
	f.events = append(f.events, "subscribe-transactions")
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.txUnsub++
		f.events = append(f.events, "unsubscribe-transactions")
	}, nil
}

func (f *fakeRemote) SubscribeCategories(_ context.Context, _ uuid.UUID, fn func([]entity.Category)) (adapter.Unsubscribe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subErr != nil {
		return nil, f.subErr
	}
	f.catFns = append(f.catFns, fn)
	f.events = append(f.events, "subscribe-categories")
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.catUnsub++
		f.events = append(f.events, "unsubscribe-categories")
	}, nil
}

func (f *fakeRemote) pushTransactions(snapshot []entity.Transaction) {
	f.mu.Lock()
	fns := append([]func([]entity.Transaction){}, f.txFns...)
	f.mu.Unlock()
	for _, fn := range fns {
		fn(snapshot)
	}
}

func (f *fakeRemote) pushCategories(snapshot []entity.Category) {
	f.mu.Lock()
	fns := append([]func([]entity.Category){}, f.catFns...)
	f.mu.Unlock()
	for _, fn := range fns {
		fn(snapshot)
	}
}

// fakeIdentity is a minimal identity lifecycle double: tests drive it by
// emitting auth states directly.
type fakeIdentity struct {
	mu        sync.Mutex
	current   *entity.User
	listeners []func(*entity.User)
}

func (f *fakeIdentity) OnAuthStateChange(fn func(*entity.User)) adapter.Unsubscribe {
	f.mu.Lock()
	f.listeners = append(f.listeners, fn)
	current := f.current
	f.mu.Unlock()
	fn(current)
	return func() {}
}

func (f *fakeIdentity) emit(user *entity.User) {
	f.mu.Lock()
	f.current = user
	fns := append([]func(*entity.User){}, f.listeners...)
	f.mu.Unlock()
	for _, fn := range fns {
		fn(user)
	}
}

func (f *fakeIdentity) CurrentUser() *entity.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *fakeIdentity) Register(_ context.Context, _, _, _ string) (*entity.User, error) {
	return nil, nil
}

func (f *fakeIdentity) Login(_ context.Context, _, _ string) (*entity.User, error) {
	return nil, nil
}

func (f *fakeIdentity) Logout(context.Context) error {
	f.emit(nil)
	return nil
}

func (f *fakeIdentity) SessionToken() (string, error) {
	return "", nil
}

func (f *fakeIdentity) Resume(context.Context, string) (*entity.User, error) {
	return nil, nil
}
