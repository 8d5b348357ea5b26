// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the coin ledger: conditional balance
// updates and the append-only transactions table.
//
// Balance mutations are single UPDATE statements guarded by a WHERE clause,
// so a debit either applies in full or not at all. Callers combine a debit
// with AppendTransaction inside one db.Transaction to keep the ledger and
// the balance consistent.
package repo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/tbourn/astro-chart-backend/internal/domain"
)

// ErrInsufficientFunds is returned by DebitBalance when the user exists but
// the balance is lower than the amount.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrInvalidAmount is returned for non-positive debit or credit amounts.
var ErrInvalidAmount = errors.New("amount must be positive")

var (
	nodeMu sync.Mutex
	node   *snowflake.Node
)

// SetNodeID configures the snowflake node used for ledger and revenue ids.
// It must be unique per running instance sharing a database.
func SetNodeID(id int64) error {
	n, err := snowflake.NewNode(id)
	if err != nil {
		return fmt.Errorf("snowflake node %d: %w", id, err)
	}
	nodeMu.Lock()
	node = n
	nodeMu.Unlock()
	return nil
}

// nextID returns a new time-ordered id. Node 1 is used until SetNodeID is
// called.
func nextID() string {
	nodeMu.Lock()
	defer nodeMu.Unlock()
	if node == nil {
		node, _ = snowflake.NewNode(1)
	}
	return node.Generate().String()
}

// DebitBalance subtracts amount from the user's balance if, and only if,
// the balance covers it. It returns ErrNotFound for an unknown user and
// ErrInsufficientFunds when the balance is too low; no row changes in
// either case.
func DebitBalance(ctx context.Context, db *gorm.DB, userID string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ? AND balance >= ?", userID, amount).
		Updates(map[string]any{
			"balance":    gorm.Expr("balance - ?", amount),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := GetUser(ctx, db, userID); err != nil {
			return err
		}
		return ErrInsufficientFunds
	}
	return nil
}

// CreditBalance adds amount to the user's balance.
func CreditBalance(ctx context.Context, db *gorm.DB, userID string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"balance":    gorm.Expr("balance + ?", amount),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AppendTransaction writes a ledger entry. amount is signed: negative for
// debits.
func AppendTransaction(ctx context.Context, db *gorm.DB, userID string, amount int64, typ, description string) (*domain.Transaction, error) {
	t := &domain.Transaction{
		ID:          nextID(),
		UserID:      userID,
		Amount:      amount,
		Type:        typ,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

// CountTransactions returns the number of ledger entries for userID.
func CountTransactions(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Transaction{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListTransactionsPage returns ledger entries for userID in the order they
// were written (oldest first), paginated by offset and limit.
func ListTransactionsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Transaction, error) {
	var out []domain.Transaction
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Order("id asc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
