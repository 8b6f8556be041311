package postgres

import (
	"context"
	"errors"
	"fmt"

	"expense-api/internal/models"
	"expense-api/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

// Store provides Postgres-backed persistence for users, tokens, and expenses.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a new Store and runs migrations.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			expense NUMERIC(14,2) NOT NULL,
			description TEXT NOT NULL,
			user_id BIGINT NOT NULL REFERENCES users(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS expenses_user_id_idx ON expenses (user_id);`,
		`CREATE TABLE IF NOT EXISTS access_tokens (
			token_id UUID PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, name, email, password_hash, created_at;
	`
	row := s.pool.QueryRow(ctx, query, user.Name, user.Email, user.PasswordHash)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}
	return created, nil
}

// FindUserByEmail fetches a user by email address.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `
		SELECT id, name, email, password_hash, created_at
		FROM users
		WHERE email = $1;
	`
	return scanUser(s.pool.QueryRow(ctx, query, email))
}

// CreateToken records an issued access token.
func (s *Store) CreateToken(ctx context.Context, tokenID string, userID int64) error {
	const query = `INSERT INTO access_tokens (token_id, user_id) VALUES ($1, $2);`
	_, err := s.pool.Exec(ctx, query, tokenID, userID)
	return err
}

// FindTokenUser resolves a live token to its user.
func (s *Store) FindTokenUser(ctx context.Context, tokenID string) (models.User, error) {
	const query = `
		SELECT u.id, u.name, u.email, u.password_hash, u.created_at
		FROM access_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.token_id = $1;
	`
	return scanUser(s.pool.QueryRow(ctx, query, tokenID))
}

// DeleteToken revokes a token. Deleting an already-revoked token is a no-op.
func (s *Store) DeleteToken(ctx context.Context, tokenID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM access_tokens WHERE token_id = $1;`, tokenID)
	return err
}

// CreateExpense inserts a new expense row owned by expense.UserID.
func (s *Store) CreateExpense(ctx context.Context, expense models.Expense) (models.Expense, error) {
	const query = `
		INSERT INTO expenses (title, expense, description, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, title, expense, description, user_id, created_at, updated_at;
	`
	row := s.pool.QueryRow(ctx, query, expense.Title, expense.Amount, expense.Description, expense.UserID)
	return scanExpense(row)
}

// ListExpensesByOwner fetches all expenses owned by the given user.
func (s *Store) ListExpensesByOwner(ctx context.Context, ownerID int64) ([]models.Expense, error) {
	const query = `
		SELECT id, title, expense, description, user_id, created_at, updated_at
		FROM expenses
		WHERE user_id = $1
		ORDER BY id;
	`
	rows, err := s.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}
	return expenses, rows.Err()
}

// FindExpenseByID fetches a single expense by its identifier.
func (s *Store) FindExpenseByID(ctx context.Context, id int64) (models.Expense, error) {
	const query = `
		SELECT id, title, expense, description, user_id, created_at, updated_at
		FROM expenses
		WHERE id = $1;
	`
	return scanExpense(s.pool.QueryRow(ctx, query, id))
}

// UpdateExpense persists the mutable fields of an expense. The owner column
// is deliberately absent from the SET list.
func (s *Store) UpdateExpense(ctx context.Context, expense models.Expense) error {
	const query = `
		UPDATE expenses
		SET title = $1, expense = $2, description = $3, updated_at = NOW()
		WHERE id = $4;
	`
	tag, err := s.pool.Exec(ctx, query, expense.Title, expense.Amount, expense.Description, expense.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteExpense removes an expense row permanently.
func (s *Store) DeleteExpense(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func scanExpense(row pgx.Row) (models.Expense, error) {
	var expense models.Expense
	err := row.Scan(&expense.ID, &expense.Title, &expense.Amount, &expense.Description,
		&expense.UserID, &expense.CreatedAt, &expense.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Expense{}, storage.ErrNotFound
		}
		return models.Expense{}, err
	}
	return expense, nil
}
