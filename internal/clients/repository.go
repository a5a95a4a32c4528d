package clients

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no client matches the requested identifier.
var ErrNotFound = errors.New("client not found")

// Repository persists clients.
type Repository interface {
	Add(ctx context.Context, client Client) (Client, error)
	GetByID(ctx context.Context, id string) (Client, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed client repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Add inserts a client and returns it with its assigned identity.
func (r *PostgresRepository) Add(ctx context.Context, client Client) (Client, error) {
	id := uuid.New()
	createdAt := time.Now().UTC()
	_, err := r.db.Exec(ctx, `INSERT INTO clients (id, name, date_of_birth, gender, income, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`, id, client.Name, client.DateOfBirth.UTC(), client.Gender, client.Income, createdAt)
	if err != nil {
		return Client{}, err
	}
	client.ID = id.String()
	client.CreatedAt = createdAt
	return client, nil
}

// GetByID fetches a client by identifier.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (Client, error) {
	clientID, err := uuid.Parse(id)
	if err != nil {
		// A malformed identifier cannot match any row.
		return Client{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, name, date_of_birth, gender, income, created_at
        FROM clients WHERE id = $1`, clientID)
	var (
		idVal     uuid.UUID
		client    Client
		birth     time.Time
		createdAt time.Time
	)
	if err := row.Scan(&idVal, &client.Name, &birth, &client.Gender, &client.Income, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, ErrNotFound
		}
		return Client{}, err
	}
	client.ID = idVal.String()
	client.DateOfBirth = birth.UTC()
	client.CreatedAt = createdAt.UTC()
	return client, nil
}
