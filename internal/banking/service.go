package banking

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/congo-pay/banking_ledger/internal/accounts"
	"github.com/congo-pay/banking_ledger/internal/clients"
	"github.com/congo-pay/banking_ledger/internal/ledger"
	"github.com/congo-pay/banking_ledger/internal/notification"
)

// MoneyScale is the number of fractional digits the stores keep for money values.
const MoneyScale int32 = 4

// Deps aggregates the collaborators of the banking service.
type Deps struct {
	Clients      clients.Repository
	Accounts   accounts.Repository
	UnitOfWork ledger.UnitOfWork

	// Optional.
	Numbers  NumberGenerator
	Notifier notification.Notifier
	Logger   *slog.Logger
	Now      func() time.Time
}

// Service implements client registration, account provisioning and money movement.
type Service struct {
	clients  clients.Repository
	accounts accounts.Repository
	uow      ledger.UnitOfWork
	numbers  NumberGenerator
	notifier notification.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewService validates the dependencies and fills in defaults for the optional ones.
func NewService(d Deps) (*Service, error) {
	switch {
	case d.Clients == nil:
		return nil, fmt.Errorf("client repository is required")
	case d.Accounts == nil:
		return nil, fmt.Errorf("account repository is required")
	case d.UnitOfWork == nil:
		return nil, fmt.Errorf("unit of work is required")
	}

	s := &Service{
		clients:  d.Clients,
		accounts: d.Accounts,
		uow:      d.UnitOfWork,
		numbers:  d.Numbers,
		notifier: d.Notifier,
		logger:   d.Logger,
		now:      d.Now,
	}
	if s.numbers == nil {
		s.numbers = NewRandomNumberGenerator(rand.NewPCG(seed(), seed()))
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

func seed() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:])
}

func fitsScale(v decimal.Decimal) bool {
	return v.Equal(v.Truncate(MoneyScale))
}

// CreateClient stores the client; the repository assigns its identity.
func (s *Service) CreateClient(ctx context.Context, client clients.Client) (clients.Client, error) {
	if !fitsScale(client.Income) {
		return clients.Client{}, fmt.Errorf("income %s has more than %d decimal places: %w", client.Income, MoneyScale, ErrInvalidArgument)
	}
	return s.clients.Add(ctx, client)
}

// CreateAccount opens an account for an existing client under a fresh account number.
// initialBalance is stored as given, provided it fits MoneyScale.
func (s *Service) CreateAccount(ctx context.Context, clientID string, initialBalance decimal.Decimal) (accounts.Account, error) {
	if !fitsScale(initialBalance) {
		return accounts.Account{}, fmt.Errorf("initial balance %s has more than %d decimal places: %w", initialBalance, MoneyScale, ErrInvalidArgument)
	}
	if _, err := s.clients.GetByID(ctx, clientID); err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			return accounts.Account{}, fmt.Errorf("client %s: %w", clientID, ErrNotFound)
		}
		return accounts.Account{}, err
	}

	for {
		number, err := s.uniqueNumber(ctx)
		if err != nil {
			return accounts.Account{}, err
		}

		account, err := s.accounts.Add(ctx, accounts.Account{
			Number:   number,
			Balance:  initialBalance,
			ClientID: clientID,
		})
		if errors.Is(err, accounts.ErrNumberTaken) {
			// Lost a race with a concurrent insert after the existence probe.
			continue
		}
		if err != nil {
			return accounts.Account{}, err
		}

		s.logger.Info("account created", "client_id", clientID, "account_number", account.Number)
		return account, nil
	}
}

func (s *Service) uniqueNumber(ctx context.Context) (string, error) {
	for {
		candidate := s.numbers.Next()
		exists, err := s.accounts.ExistsByNumber(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
}

// GetAccountBalance returns the balance and whether the account exists. A missing account
// is reported through the boolean, not as an error.
func (s *Service) GetAccountBalance(ctx context.Context, accountNumber string) (decimal.Decimal, bool, error) {
	var (
		balance decimal.Decimal
		found   bool
	)
	// Read under the account's unit of work so a posting is never seen half committed.
	err := s.uow.Within(ctx, accountNumber, func(ctx context.Context, scope ledger.Scope) error {
		account, err := scope.Accounts.GetByNumber(ctx, accountNumber)
		if err != nil {
			if errors.Is(err, accounts.ErrNotFound) {
				return nil
			}
			return err
		}
		balance, found = account.Balance, true
		return nil
	})
	if err != nil {
		return decimal.Zero, false, err
	}
	return balance, found, nil
}

// Deposit credits amount to the account and records the transaction.
func (s *Service) Deposit(ctx context.Context, accountNumber string, amount decimal.Decimal) (ledger.Transaction, error) {
	return s.post(ctx, accountNumber, ledger.KindDeposit, amount)
}

// Withdraw debits amount from the account and records the transaction. The balance never
// goes below zero.
func (s *Service) Withdraw(ctx context.Context, accountNumber string, amount decimal.Decimal) (ledger.Transaction, error) {
	return s.post(ctx, accountNumber, ledger.KindWithdrawal, amount)
}

func (s *Service) post(ctx context.Context, accountNumber string, kind ledger.Kind, amount decimal.Decimal) (ledger.Transaction, error) {
	if !amount.IsPositive() {
		return ledger.Transaction{}, fmt.Errorf("%s amount must be positive, got %s: %w", kind, amount, ErrInvalidArgument)
	}
	if !fitsScale(amount) {
		return ledger.Transaction{}, fmt.Errorf("%s amount %s has more than %d decimal places: %w", kind, amount, MoneyScale, ErrInvalidArgument)
	}

	var posted ledger.Transaction
	err := s.uow.Within(ctx, accountNumber, func(ctx context.Context, scope ledger.Scope) error {
		account, err := scope.Accounts.GetByNumber(ctx, accountNumber)
		if err != nil {
			if errors.Is(err, accounts.ErrNotFound) {
				return fmt.Errorf("account %s: %w", accountNumber, ErrNotFound)
			}
			return err
		}

		switch kind {
		case ledger.KindDeposit:
			account.Balance = account.Balance.Add(amount)
		case ledger.KindWithdrawal:
			if amount.GreaterThan(account.Balance) {
				return fmt.Errorf("account %s: balance %s, requested %s: %w", accountNumber, account.Balance, amount, ErrInsufficientFunds)
			}
			account.Balance = account.Balance.Sub(amount)
		}

		if err := scope.Accounts.Update(ctx, account); err != nil {
			return err
		}

		tx := ledger.Transaction{
			ID:           uuid.NewString(),
			AccountID:    account.ID,
			Kind:         kind,
			Amount:       amount,
			BalanceAfter: account.Balance,
			CreatedAt:    s.now().UTC(),
		}
		if err := scope.Transactions.Add(ctx, tx); err != nil {
			return err
		}
		posted = tx
		return nil
	})
	if err != nil {
		return ledger.Transaction{}, err
	}

	s.notify(ctx, accountNumber, posted)
	return posted, nil
}

func (s *Service) notify(ctx context.Context, accountNumber string, tx ledger.Transaction) {
	if s.notifier == nil {
		return
	}
	kind := notification.KindDepositPosted
	if tx.Kind == ledger.KindWithdrawal {
		kind = notification.KindWithdrawalPosted
	}
	err := s.notifier.Send(ctx, notification.Message{
		Kind:        kind,
		Destination: accountNumber,
		Body:        fmt.Sprintf("%s of %s posted, balance %s", tx.Kind, tx.Amount, tx.BalanceAfter),
		OccurredAt:  tx.CreatedAt,
	})
	if err != nil {
		s.logger.Warn("notification failed", "account_number", accountNumber, "transaction_id", tx.ID, "error", err)
	}
}

// GetAccountTransactions lists the account history oldest first. An existing account with
// no history yields an empty slice.
func (s *Service) GetAccountTransactions(ctx context.Context, accountNumber string) ([]ledger.Transaction, error) {
	var history []ledger.Transaction
	err := s.uow.Within(ctx, accountNumber, func(ctx context.Context, scope ledger.Scope) error {
		account, err := scope.Accounts.GetByNumber(ctx, accountNumber)
		if err != nil {
			if errors.Is(err, accounts.ErrNotFound) {
				return fmt.Errorf("account %s: %w", accountNumber, ErrNotFound)
			}
			return err
		}
		history, err = scope.Transactions.ListByAccountID(ctx, account.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []ledger.Transaction{}
	}
	return history, nil
}
