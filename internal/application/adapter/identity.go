// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"

	"github.com/budget-tracker/ledger/internal/domain/entity"
)

// IdentityProvider is the external identity lifecycle the ledger binds to.
// The core only consumes the user identity delivered through
// OnAuthStateChange; everything else exists for the surrounding application.
type IdentityProvider interface {
	// OnAuthStateChange registers fn to receive the current user (nil when
	// signed out) immediately and on every subsequent change, until the
	// returned Unsubscribe is called.
	OnAuthStateChange(fn func(*entity.User)) Unsubscribe

	// CurrentUser returns the signed-in user, or nil.
	CurrentUser() *entity.User

	// Register creates an account and signs it in.
	Register(ctx context.Context, email, password, displayName string) (*entity.User, error)

	// Login signs in an existing account.
	Login(ctx context.Context, email, password string) (*entity.User, error)

	// Logout signs out the current user, if any.
	Logout(ctx context.Context) error

	// SessionToken issues a signed token for the active session, suitable
	// for resuming it in a later process.
	SessionToken() (string, error)

	// Resume restores a session from a token previously issued by
	// SessionToken.
	Resume(ctx context.Context, token string) (*entity.User, error)
}
