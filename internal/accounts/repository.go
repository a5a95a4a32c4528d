package accounts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/congo-pay/banking_ledger/internal/infra"
)

var (
	// ErrNotFound is returned when no account matches the lookup.
	ErrNotFound = errors.New("account not found")

	// ErrNumberTaken is returned by Add when another account already holds the number.
	ErrNumberTaken = errors.New("account number already taken")
)

// Repository persists accounts.
type Repository interface {
	Add(ctx context.Context, account Account) (Account, error)
	GetByNumber(ctx context.Context, number string) (Account, error)
	GetByID(ctx context.Context, id string) (Account, error)
	Update(ctx context.Context, account Account) error
	ExistsByNumber(ctx context.Context, number string) (bool, error)
}

// PostgresRepository stores accounts in PostgreSQL.
type PostgresRepository struct {
	db      infra.DBTX
	lockRow bool
}

// NewPostgresRepository builds a repository backed by the connection pool.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// WithTx returns a repository bound to tx. Reads through it take a row lock that is held
// until the transaction ends.
func WithTx(tx pgx.Tx) *PostgresRepository {
	return &PostgresRepository{db: tx, lockRow: true}
}

// Add inserts an account and returns it with its assigned identity.
func (r *PostgresRepository) Add(ctx context.Context, account Account) (Account, error) {
	clientID, err := uuid.Parse(account.ClientID)
	if err != nil {
		return Account{}, err
	}
	id := uuid.New()
	createdAt := time.Now().UTC()
	_, err = r.db.Exec(ctx, `INSERT INTO accounts (id, number, balance, client_id, created_at)
        VALUES ($1, $2, $3, $4, $5)`, id, account.Number, account.Balance, clientID, createdAt)
	if err != nil {
		if infra.IsUniqueViolation(err) {
			return Account{}, ErrNumberTaken
		}
		return Account{}, err
	}
	account.ID = id.String()
	account.CreatedAt = createdAt
	return account, nil
}

// GetByNumber fetches an account by its external number.
func (r *PostgresRepository) GetByNumber(ctx context.Context, number string) (Account, error) {
	query := `SELECT id, number, balance, client_id, created_at FROM accounts WHERE number = $1`
	if r.lockRow {
		query += ` FOR UPDATE`
	}
	return scanAccount(r.db.QueryRow(ctx, query, number))
}

// GetByID fetches an account by its internal identifier.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (Account, error) {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return Account{}, ErrNotFound
	}
	query := `SELECT id, number, balance, client_id, created_at FROM accounts WHERE id = $1`
	if r.lockRow {
		query += ` FOR UPDATE`
	}
	return scanAccount(r.db.QueryRow(ctx, query, accountID))
}

// Update persists the account balance.
func (r *PostgresRepository) Update(ctx context.Context, account Account) error {
	accountID, err := uuid.Parse(account.ID)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET balance = $1 WHERE id = $2`, account.Balance, accountID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ExistsByNumber reports whether an account already holds number.
func (r *PostgresRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE number = $1)`, number).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var (
		a         Account
		id        uuid.UUID
		clientID  uuid.UUID
		createdAt time.Time
	)
	if err := row.Scan(&id, &a.Number, &a.Balance, &clientID, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	a.ID = id.String()
	a.ClientID = clientID.String()
	a.CreatedAt = createdAt.UTC()
	return a, nil
}
