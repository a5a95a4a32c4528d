package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/congo-pay/banking_ledger/internal/accounts"
)

// Kind tells whether a transaction credits or debits the account. Amounts are always positive.
type Kind string

const (
	// KindDeposit credits the account.
	KindDeposit Kind = "Deposit"
	// KindWithdrawal debits the account.
	KindWithdrawal Kind = "Withdrawal"
)

// Transaction is one immutable ledger record together with the balance it produced.
type Transaction struct {
	ID           string
	AccountID    string
	Kind         Kind
	Amount       decimal.Decimal
	BalanceAfter decimal.Decimal
	CreatedAt    time.Time
}

// Repository appends and lists transactions. It never updates or deletes.
type Repository interface {
	Add(ctx context.Context, tx Transaction) error
	// ListByAccountID returns transactions ordered by CreatedAt, ties in insertion order.
	ListByAccountID(ctx context.Context, accountID string) ([]Transaction, error)
}

// Scope exposes the stores bound to a single unit of work.
type Scope struct {
	Accounts     accounts.Repository
	Transactions Repository
}

// UnitOfWork runs balance-affecting work for one account so that the balance update and
// the transaction append commit together or not at all. Work on the same account number is
// serialised; work on different accounts may run in parallel.
type UnitOfWork interface {
	Within(ctx context.Context, accountNumber string, fn func(ctx context.Context, scope Scope) error) error
}
