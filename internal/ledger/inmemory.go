package ledger

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/congo-pay/banking_ledger/internal/accounts"
)

type inMemoryRepository struct {
	mu           sync.RWMutex
	transactions map[string][]Transaction
}

// NewInMemory creates a concurrency-safe in-memory transaction store.
func NewInMemory() Repository {
	return &inMemoryRepository{transactions: make(map[string][]Transaction)}
}

func (r *inMemoryRepository) Add(_ context.Context, tx Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactions[tx.AccountID] = append(r.transactions[tx.AccountID], tx)
	return nil
}

func (r *inMemoryRepository) ListByAccountID(_ context.Context, accountID string) ([]Transaction, error) {
	r.mu.RLock()
	out := make([]Transaction, len(r.transactions[accountID]))
	copy(out, r.transactions[accountID])
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// MemoryUnitOfWork serialises work per account number and stages writes until the callback
// returns successfully.
type MemoryUnitOfWork struct {
	accounts     accounts.Repository
	transactions Repository
	locks        *keyedMutex
}

// NewMemoryUnitOfWork builds a unit of work over in-process stores.
func NewMemoryUnitOfWork(accountRepo accounts.Repository, transactionRepo Repository) *MemoryUnitOfWork {
	return &MemoryUnitOfWork{
		accounts:     accountRepo,
		transactions: transactionRepo,
		locks:        newKeyedMutex(),
	}
}

// Within implements UnitOfWork.
func (u *MemoryUnitOfWork) Within(ctx context.Context, accountNumber string, fn func(ctx context.Context, scope Scope) error) error {
	unlock := u.locks.lock(accountNumber)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	staged := &stagedAccounts{base: u.accounts, updates: make(map[string]accounts.Account)}
	pending := &stagedTransactions{base: u.transactions}
	if err := fn(ctx, Scope{Accounts: staged, Transactions: pending}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return u.commit(context.WithoutCancel(ctx), staged, pending)
}

func (u *MemoryUnitOfWork) commit(ctx context.Context, staged *stagedAccounts, pending *stagedTransactions) error {
	previous := make([]accounts.Account, 0, len(staged.updates))
	restore := func() error {
		var errs []error
		for _, acc := range previous {
			errs = append(errs, u.accounts.Update(ctx, acc))
		}
		return errors.Join(errs...)
	}

	for id, acc := range staged.updates {
		before, err := u.accounts.GetByID(ctx, id)
		if err != nil {
			return errors.Join(err, restore())
		}
		if err := u.accounts.Update(ctx, acc); err != nil {
			return errors.Join(err, restore())
		}
		previous = append(previous, before)
	}

	for _, tx := range pending.added {
		if err := u.transactions.Add(ctx, tx); err != nil {
			return errors.Join(err, restore())
		}
	}
	return nil
}

// stagedAccounts records balance updates without touching the underlying store.
// Add is not staged: account creation does not run inside a unit of work.
type stagedAccounts struct {
	base    accounts.Repository
	updates map[string]accounts.Account
}

func (s *stagedAccounts) Add(ctx context.Context, account accounts.Account) (accounts.Account, error) {
	return s.base.Add(ctx, account)
}

func (s *stagedAccounts) GetByNumber(ctx context.Context, number string) (accounts.Account, error) {
	for _, acc := range s.updates {
		if acc.Number == number {
			return acc, nil
		}
	}
	return s.base.GetByNumber(ctx, number)
}

func (s *stagedAccounts) GetByID(ctx context.Context, id string) (accounts.Account, error) {
	if acc, ok := s.updates[id]; ok {
		return acc, nil
	}
	return s.base.GetByID(ctx, id)
}

func (s *stagedAccounts) Update(ctx context.Context, account accounts.Account) error {
	current, err := s.GetByID(ctx, account.ID)
	if err != nil {
		return err
	}
	current.Balance = account.Balance
	s.updates[account.ID] = current
	return nil
}

func (s *stagedAccounts) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	return s.base.ExistsByNumber(ctx, number)
}

type stagedTransactions struct {
	base  Repository
	added []Transaction
}

func (s *stagedTransactions) Add(_ context.Context, tx Transaction) error {
	s.added = append(s.added, tx)
	return nil
}

func (s *stagedTransactions) ListByAccountID(ctx context.Context, accountID string) ([]Transaction, error) {
	committed, err := s.base.ListByAccountID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	for _, tx := range s.added {
		if tx.AccountID == accountID {
			committed = append(committed, tx)
		}
	}
	return committed, nil
}

type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
