// Package persistence implements repository interfaces for database operations.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/budget-tracker/ledger/internal/application/adapter"
	"github.com/budget-tracker/ledger/internal/domain/entity"
	domainerror "github.com/budget-tracker/ledger/internal/domain/error"
	"github.com/budget-tracker/ledger/internal/integration/persistence/model"
)

const (
	collectionTransactions = "transactions"
	collectionCategories   = "categories"
)

// ledgerRepository implements adapter.RemoteLedger over a SQL document
// store, with Redis pub/sub carrying change notifications: every committed
// write publishes to the owner's collection channel, and each live
// subscription re-queries and re-delivers the full materialized list on
// every message. Snapshots are therefore full-replace, never diffs.
type ledgerRepository struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewLedgerRepository creates a new remote ledger backed by the given
// database and Redis client.
func NewLedgerRepository(db *gorm.DB, rdb *redis.Client) adapter.RemoteLedger {
	return &ledgerRepository{
		db:  db,
		rdb: rdb,
	}
}

func changeChannel(ownerID uuid.UUID, collection string) string {
	return fmt.Sprintf("ledger:%s:%s", ownerID, collection)
}

// publish is best-effort: the write is already committed, and subscribers
// that miss a notification catch up on the next one.
func (r *ledgerRepository) publish(ctx context.Context, ownerID uuid.UUID, collection string) {
	if err := r.rdb.Publish(ctx, changeChannel(ownerID, collection), "changed").Err(); err != nil {
		slog.Warn("Failed to publish ledger change",
			"owner_id", ownerID,
			"collection", collection,
			"error", err,
		)
	}
}

// CreateTransaction stores a new transaction and returns the assigned ID.
// The creation instant is server-assigned; the date is normalized to its
// calendar date before persisting.
func (r *ledgerRepository) CreateTransaction(ctx context.Context, ownerID uuid.UUID, input adapter.CreateTransactionInput) (uuid.UUID, error) {
	m := &model.TransactionModel{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Type:        string(input.Type),
		Amount:      input.Amount,
		Category:    input.Category,
		DateMillis:  model.DateToMillis(input.Date),
		Description: input.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return uuid.Nil, err
	}

	r.publish(ctx, ownerID, collectionTransactions)
	return m.ID, nil
}

// UpdateTransaction applies a partial update. Absent patch fields are left
// untouched; a patched date is re-normalized like on create.
func (r *ledgerRepository) UpdateTransaction(ctx context.Context, id uuid.UUID, patch adapter.TransactionPatch) error {
	var m model.TransactionModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainerror.ErrTransactionNotFound
		}
		return err
	}

	updates := make(map[string]interface{})
	if patch.Type != nil {
		updates["type"] = string(*patch.Type)
	}
	if patch.Amount != nil {
		updates["amount"] = *patch.Amount
	}
	if patch.Category != nil {
		updates["category"] = *patch.Category
	}
	if patch.Date != nil {
		updates["date_millis"] = model.DateToMillis(*patch.Date)
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if len(updates) == 0 {
		return nil
	}

	if err := r.db.WithContext(ctx).Model(&model.TransactionModel{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return err
	}

	r.publish(ctx, m.OwnerID, collectionTransactions)
	return nil
}

// DeleteTransaction removes a transaction from the store.
func (r *ledgerRepository) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	var m model.TransactionModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainerror.ErrTransactionNotFound
		}
		return err
	}

	if err := r.db.WithContext(ctx).Delete(&model.TransactionModel{}, "id = ?", id).Error; err != nil {
		return err
	}

	r.publish(ctx, m.OwnerID, collectionTransactions)
	return nil
}

// CreateCategory stores a new category and returns the assigned ID.
func (r *ledgerRepository) CreateCategory(ctx context.Context, ownerID uuid.UUID, input adapter.CreateCategoryInput) (uuid.UUID, error) {
	color := input.Color
	if color == "" {
		color = entity.DefaultCategoryColor
	}

	m := &model.CategoryModel{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      input.Name,
		Type:      string(input.Type),
		Color:     color,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return uuid.Nil, err
	}

	r.publish(ctx, ownerID, collectionCategories)
	return m.ID, nil
}

// UpdateCategory applies a partial update. Renames do not cascade to
// transactions holding the old name.
func (r *ledgerRepository) UpdateCategory(ctx context.Context, id uuid.UUID, patch adapter.CategoryPatch) error {
	var m model.CategoryModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainerror.ErrCategoryNotFound
		}
		return err
	}

	updates := make(map[string]interface{})
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Type != nil {
		updates["type"] = string(*patch.Type)
	}
	if patch.Color != nil {
		updates["color"] = *patch.Color
	}
	if len(updates) == 0 {
		return nil
	}

	if err := r.db.WithContext(ctx).Model(&model.CategoryModel{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return err
	}

	r.publish(ctx, m.OwnerID, collectionCategories)
	return nil
}

// DeleteCategory removes a category from the store.
func (r *ledgerRepository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	var m model.CategoryModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainerror.ErrCategoryNotFound
		}
		return err
	}

	if err := r.db.WithContext(ctx).Delete(&model.CategoryModel{}, "id = ?", id).Error; err != nil {
		return err
	}

	r.publish(ctx, m.OwnerID, collectionCategories)
	return nil
}

// SubscribeTransactions opens a live query over the owner's transactions,
// date descending with creation instant as tiebreaker.
func (r *ledgerRepository) SubscribeTransactions(ctx context.Context, ownerID uuid.UUID, fn func([]entity.Transaction)) (adapter.Unsubscribe, error) {
	deliver := func(ctx context.Context) error {
		var models []model.TransactionModel
		err := r.db.WithContext(ctx).
			Where("owner_id = ?", ownerID).
			Order("date_millis DESC").
			Order("created_at DESC").
			Find(&models).Error
		if err != nil {
			return err
		}

		snapshot := make([]entity.Transaction, len(models))
		for i, m := range models {
			snapshot[i] = m.ToEntity()
		}
		fn(snapshot)
		return nil
	}

	return r.openSubscription(ctx, changeChannel(ownerID, collectionTransactions), deliver)
}

// SubscribeCategories opens a live query over the owner's categories, name
// ascending.
func (r *ledgerRepository) SubscribeCategories(ctx context.Context, ownerID uuid.UUID, fn func([]entity.Category)) (adapter.Unsubscribe, error) {
	deliver := func(ctx context.Context) error {
		var models []model.CategoryModel
		err := r.db.WithContext(ctx).
			Where("owner_id = ?", ownerID).
			Order("name ASC").
			Find(&models).Error
		if err != nil {
			return err
		}

		snapshot := make([]entity.Category, len(models))
		for i, m := range models {
			snapshot[i] = m.ToEntity()
		}
		fn(snapshot)
		return nil
	}

	return r.openSubscription(ctx, changeChannel(ownerID, collectionCategories), deliver)
}

// openSubscription joins the change channel, delivers the initial snapshot,
// then re-delivers on every notification until unsubscribed. Joining the
// channel before the initial query closes the window where a write between
// query and subscribe would go unnoticed.
func (r *ledgerRepository) openSubscription(ctx context.Context, channel string, deliver func(context.Context) error) (adapter.Unsubscribe, error) {
	pubsub := r.rdb.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", channel, err)
	}

	sub := &subscription{pubsub: pubsub}
	if err := sub.deliver(ctx, deliver); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("initial snapshot for %s: %w", channel, err)
	}

	go sub.loop(ctx, channel, deliver)
	return sub.close, nil
}
