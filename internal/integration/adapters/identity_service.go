// Package adapters implements adapter interfaces from the application layer.
package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/budget-tracker/ledger/internal/application/adapter"
	"github.com/budget-tracker/ledger/internal/domain/entity"
	domainerror "github.com/budget-tracker/ledger/internal/domain/error"
	"github.com/budget-tracker/ledger/internal/integration/persistence"
)

const (
	// bcryptCost is the cost factor for bcrypt hashing.
	bcryptCost = 12
	// minPasswordLength is the minimum required password length.
	minPasswordLength = 8
	// defaultSessionExpiry bounds how long an issued session token resumes.
	defaultSessionExpiry = 7 * 24 * time.Hour
)

// SessionClaims represents the custom claims for session tokens.
type SessionClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// identityService implements adapter.IdentityProvider: bcrypt-hashed
// credentials persisted through the user repository, HS256 session tokens,
// and auth-state fan-out to registered listeners. It is the in-process
// stand-in for the external identity lifecycle the ledger core consumes.
type identityService struct {
	users         persistence.UserRepository
	secret        []byte
	sessionExpiry time.Duration

	mu        sync.Mutex
	current   *entity.User
	listeners map[uint64]func(*entity.User)
	nextID    uint64
}

// NewIdentityService creates a new identity provider instance. A
// non-positive expiry falls back to the default.
func NewIdentityService(users persistence.UserRepository, secret string, sessionExpiry time.Duration) adapter.IdentityProvider {
	if sessionExpiry <= 0 {
		sessionExpiry = defaultSessionExpiry
	}
	return &identityService{
		users:         users,
		secret:        []byte(secret),
		sessionExpiry: sessionExpiry,
		listeners:     make(map[uint64]func(*entity.User)),
	}
}

// OnAuthStateChange registers fn and invokes it immediately with the
// current state, mirroring the subscribe-then-deliver contract of hosted
// identity services.
func (s *identityService) OnAuthStateChange(fn func(*entity.User)) adapter.Unsubscribe {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	current := s.current
	s.mu.Unlock()

	fn(current)

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// CurrentUser returns the signed-in user, or nil.
func (s *identityService) CurrentUser() *entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Register creates an account and signs it in.
func (s *identityService) Register(ctx context.Context, email, password, displayName string) (*entity.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if len(password) < minPasswordLength {
		return nil, domainerror.NewAuthError(
			domainerror.ErrCodeWeakPassword,
			fmt.Sprintf("password must be at least %d characters long", minPasswordLength),
			domainerror.ErrWeakPassword,
		)
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, domainerror.NewAuthError(
			domainerror.ErrCodeEmailAlreadyRegistered,
			"email already registered",
			domainerror.ErrEmailAlreadyRegistered,
		)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entity.User{
		ID:           uuid.New(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("User registered", "user_id", user.ID)
	s.setCurrent(user)
	return user, nil
}

// Login signs in an existing account.
func (s *identityService) Login(ctx context.Context, email, password string) (*entity.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		// Generic error to prevent email enumeration.
		return nil, domainerror.NewAuthError(
			domainerror.ErrCodeInvalidCredentials,
			"invalid email or password",
			domainerror.ErrInvalidCredentials,
		)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domainerror.NewAuthError(
			domainerror.ErrCodeInvalidCredentials,
			"invalid email or password",
			domainerror.ErrInvalidCredentials,
		)
	}

	slog.Info("User logged in", "user_id", user.ID)
	s.setCurrent(user)
	return user, nil
}

// Logout signs out the current user, if any.
func (s *identityService) Logout(_ context.Context) error {
	s.setCurrent(nil)
	return nil
}

// SessionToken issues a signed token for the active session.
func (s *identityService) SessionToken() (string, error) {
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()

	if current == nil {
		return "", domainerror.NewAuthError(
			domainerror.ErrCodeNoActiveSession,
			"no active session",
			domainerror.ErrNoActiveSession,
		)
	}

	now := time.Now().UTC()
	claims := SessionClaims{
		UserID: current.ID.String(),
		Email:  current.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Resume restores a session from a previously issued token.
func (s *identityService) Resume(ctx context.Context, tokenString string) (*entity.User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, domainerror.NewAuthError(
			domainerror.ErrCodeInvalidSessionToken,
			"invalid or expired session token",
			domainerror.ErrInvalidSessionToken,
		)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return nil, domainerror.NewAuthError(
			domainerror.ErrCodeInvalidSessionToken,
			"invalid or expired session token",
			domainerror.ErrInvalidSessionToken,
		)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, domainerror.NewAuthError(
			domainerror.ErrCodeInvalidSessionToken,
			"invalid or expired session token",
			domainerror.ErrInvalidSessionToken,
		)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	slog.Info("Session resumed", "user_id", user.ID)
	s.setCurrent(user)
	return user, nil
}

func (s *identityService) setCurrent(user *entity.User) {
	s.mu.Lock()
	s.current = user
	fns := make([]func(*entity.User), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(user)
	}
}
