package store

import "context"

// RunInOrg wraps ctx with an org scope and calls fn inside the provided TxRunner
func RunInOrg(ctx context.Context, tx TxRunner, orgID string, fn func(ctx context.Context, q RowQuerier) error) error {
	ctx = WithOrg(ctx, orgID)
	return tx.Tx(ctx, func(q RowQuerier) error {
		return fn(ctx, q)
	})
}

// RunAsPlatform wraps ctx with the platform claim and calls fn inside the provided TxRunner
func RunAsPlatform(ctx context.Context, tx TxRunner, fn func(ctx context.Context, q RowQuerier) error) error {
	ctx = WithPlatform(ctx)
	return tx.Tx(ctx, func(q RowQuerier) error {
		return fn(ctx, q)
	})
}
