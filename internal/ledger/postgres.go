package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/congo-pay/banking_ledger/internal/accounts"
	"github.com/congo-pay/banking_ledger/internal/infra"
)

// PostgresRepository persists transactions in PostgreSQL.
type PostgresRepository struct {
	db infra.DBTX
}

// NewPostgresRepository constructs a Postgres-backed transaction store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// WithTx returns a transaction store bound to tx.
func WithTx(tx pgx.Tx) *PostgresRepository {
	return &PostgresRepository{db: tx}
}

// Add appends a transaction record.
func (r *PostgresRepository) Add(ctx context.Context, tx Transaction) error {
	txID, err := uuid.Parse(tx.ID)
	if err != nil {
		return err
	}
	accountID, err := uuid.Parse(tx.AccountID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO transactions (id, account_id, kind, amount, balance_after, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`, txID, accountID, string(tx.Kind), tx.Amount, tx.BalanceAfter, tx.CreatedAt.UTC())
	return err
}

// ListByAccountID returns the account history oldest first; seq breaks timestamp ties.
func (r *PostgresRepository) ListByAccountID(ctx context.Context, accountID string) ([]Transaction, error) {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return []Transaction{}, nil
	}
	rows, err := r.db.Query(ctx, `SELECT id, account_id, kind, amount, balance_after, created_at
        FROM transactions WHERE account_id = $1 ORDER BY created_at, seq`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Transaction{}
	for rows.Next() {
		var (
			tx        Transaction
			txID      uuid.UUID
			accID     uuid.UUID
			kind      string
			createdAt time.Time
		)
		if err := rows.Scan(&txID, &accID, &kind, &tx.Amount, &tx.BalanceAfter, &createdAt); err != nil {
			return nil, err
		}
		tx.ID = txID.String()
		tx.AccountID = accID.String()
		tx.Kind = Kind(kind)
		tx.CreatedAt = createdAt.UTC()
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// PostgresUnitOfWork runs work inside one database transaction. The scoped account store
// locks the row it reads, which serialises concurrent postings to the same account.
type PostgresUnitOfWork struct {
	db *pgxpool.Pool
}

// NewPostgresUnitOfWork builds a unit of work on the pool.
func NewPostgresUnitOfWork(db *pgxpool.Pool) *PostgresUnitOfWork {
	return &PostgresUnitOfWork{db: db}
}

// Within implements UnitOfWork. The account number is unused: row locks do the serialising.
func (u *PostgresUnitOfWork) Within(ctx context.Context, _ string, fn func(ctx context.Context, scope Scope) error) error {
	tx, err := u.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := fn(ctx, Scope{Accounts: accounts.WithTx(tx), Transactions: WithTx(tx)}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
