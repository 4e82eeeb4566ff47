// Package ledger maintains the local mirror of a user's remote ledger and
// exposes the mutation API consumed by the presentation layer.
package ledger

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/budget-tracker/ledger/internal/application/adapter"
	"github.com/budget-tracker/ledger/internal/domain/entity"
)

// Binder observes the identity lifecycle and keeps the Store's
// subscriptions in step with it: a signed-in user gets exactly one live
// subscription pair; sign-out tears both down and clears the mirror before
// the transition completes.
type Binder struct {
	identity adapter.IdentityProvider
	remote   adapter.RemoteLedger
	store    *Store

	mu        sync.Mutex
	current   *binding
	unsubAuth adapter.Unsubscribe
	closed    bool
}

// binding is one bound identity's pair of live subscriptions.
type binding struct {
	ownerID  uuid.UUID
	token    BindToken
	unsubTx  adapter.Unsubscribe
	unsubCat adapter.Unsubscribe
}

// NewBinder creates a Binder wiring the identity provider, the remote
// ledger and the store together. Call Start to begin observing.
func NewBinder(identity adapter.IdentityProvider, remote adapter.RemoteLedger, store *Store) *Binder {
	return &Binder{
		identity: identity,
		remote:   remote,
		store:    store,
	}
}

// Start subscribes to auth-state changes. The identity provider delivers the
// current state immediately, so a user already signed in is bound before
// Start returns.
func (b *Binder) Start(ctx context.Context) {
	b.mu.Lock()
	if b.unsubAuth != nil || b.closed {
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()

	unsub := b.identity.OnAuthStateChange(func(user *entity.User) {
		b.handleAuthChange(ctx, user)
	})

	b.mu.Lock()
	b.unsubAuth = unsub
	b.mu.Unlock()
}

// Close stops observing the identity lifecycle, tears down any live
// subscriptions and clears the mirror.
func (b *Binder) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	unsubAuth := b.unsubAuth
	b.unsubAuth = nil
	b.mu.Unlock()

	if unsubAuth != nil {
		unsubAuth()
	}
	b.unbind()
}

func (b *Binder) handleAuthChange(ctx context.Context, user *entity.User) {
	if user == nil {
		b.unbind()
		return
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	if b.current != nil && b.current.ownerID == user.ID {
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()

	// Old subscriptions must be gone before new ones open, so a re-bind can
	// never leak another user's data into the mirror.
	b.unbind()
	b.bind(ctx, user.ID)
}

func (b *Binder) bind(ctx context.Context, ownerID uuid.UUID) {
	token := b.store.Bind(ownerID)

	unsubTx, err := b.remote.SubscribeTransactions(ctx, ownerID, func(snapshot []entity.Transaction) {
		b.store.ApplyTransactions(token, snapshot)
	})
	if err != nil {
		// The mirror stays bound and empty; the error is surfaced through
		// the store's error channel for the caller to act on.
		slog.Error("Failed to subscribe to transactions", "owner_id", ownerID, "error", err)
		b.store.record(err)
		return
	}

	unsubCat, err := b.remote.SubscribeCategories(ctx, ownerID, func(snapshot []entity.Category) {
		b.store.ApplyCategories(token, snapshot)
	})
	if err != nil {
		slog.Error("Failed to subscribe to categories", "owner_id", ownerID, "error", err)
		unsubTx()
		b.store.record(err)
		return
	}

	b.mu.Lock()
	b.current = &binding{
		ownerID:  ownerID,
		token:    token,
		unsubTx:  unsubTx,
		unsubCat: unsubCat,
	}
	b.mu.Unlock()

	slog.Info("Ledger bound", "owner_id", ownerID)
}

func (b *Binder) unbind() {
	b.mu.Lock()
	bound := b.current
	b.current = nil
	b.mu.Unlock()

	// Invalidate the token first: a push already past its subscription's
	// teardown check still cannot be applied.
	b.store.Unbind()

	if bound == nil {
		return
	}
	bound.unsubTx()
	bound.unsubCat()
	slog.Info("Ledger unbound", "owner_id", bound.ownerID)
}
