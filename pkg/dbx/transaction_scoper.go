package dbx

import (
	"context"
)

// TransactionScoper runs a function with a transaction carried in its
// context; nested scopes join the outer transaction.
type TransactionScoper interface {
	InTransactionScope(ctx context.Context, transactionScope func(ctx context.Context) error) error
	InReadScope(ctx context.Context, readScope func(ctx context.Context) error) error
}

func InTransactionScopeWithResult[T any](ctx context.Context, transactionScoper TransactionScoper, transactionScope func(ctx context.Context) (T, error)) (result T, err error) {
	err = transactionScoper.InTransactionScope(ctx, func(ctx context.Context) error {
		result, err = transactionScope(ctx)
		return err
	})
	return result, err
}

func InReadScopeWithResult[T any](ctx context.Context, transactionScoper TransactionScoper, readScope func(ctx context.Context) (T, error)) (result T, err error) {
	err = transactionScoper.InReadScope(ctx, func(ctx context.Context) error {
		result, err = readScope(ctx)
		return err
	})
	return result, err
}
