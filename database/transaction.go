package database

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"
)

type txContextKey struct{}

// TransactionManager runs use-case functions inside a gorm transaction that
// repositories pick up from the context.
type TransactionManager struct {
	db *gorm.DB
}

func NewTransactionManager(db *gorm.DB) *TransactionManager {
	if db == nil {
		return nil
	}
	return &TransactionManager{db: db}
}

func (m *TransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if m == nil {
		return fn(ctx)
	}
	return m.within(ctx, &sql.TxOptions{ReadOnly: true}, fn)
}

func (m *TransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if m == nil {
		return fn(ctx)
	}
	return m.within(ctx, nil, fn)
}

func (m *TransactionManager) within(ctx context.Context, opts *sql.TxOptions, fn func(context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("database: transaction function is required")
	}

	// Nested calls join the outer transaction.
	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}

	txFn := func(tx *gorm.DB) error {
		return fn(contextWithTx(ctx, tx))
	}
	if opts != nil {
		return m.db.WithContext(ctx).Transaction(txFn, opts)
	}
	return m.db.WithContext(ctx).Transaction(txFn)
}

func contextWithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

func txFromContext(ctx context.Context) (*gorm.DB, bool) {
	if ctx == nil {
		return nil, false
	}
	tx, ok := ctx.Value(txContextKey{}).(*gorm.DB)
	return tx, ok
}

// Conn returns the transaction carried by ctx, or fallback bound to ctx.
func Conn(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := txFromContext(ctx); ok {
		return tx.WithContext(ctx)
	}
	return fallback.WithContext(ctx)
}
