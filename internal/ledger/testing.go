package ledger

import "context"

// FailingRepository is a test helper whose Add always fails with Err. Listing delegates to Base.
// It is intended for tests only.
type FailingRepository struct {
	Base Repository
	Err  error
}

func (r FailingRepository) Add(context.Context, Transaction) error {
	return r.Err
}

func (r FailingRepository) ListByAccountID(ctx context.Context, accountID string) ([]Transaction, error) {
	return r.Base.ListByAccountID(ctx, accountID)
}
