package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"expense-api/internal/models"
	"expense-api/internal/storage"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

// Store provides SQLite-backed persistence. It backs local development and
// the test suite; production deployments use the postgres store.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and runs migrations.
// Use ":memory:" for an ephemeral store.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps :memory: databases coherent and sidesteps
	// SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

func (s *Store) migrate() error {
	migrations := []string{
		`PRAGMA foreign_keys = ON`,
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			expense REAL NOT NULL,
			description TEXT NOT NULL,
			user_id INTEGER NOT NULL REFERENCES users(id),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS access_tokens (
			token_id TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, created_at) VALUES (?, ?, ?, ?)",
		user.Name, user.Email, user.PasswordHash, time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return models.User{}, err
	}
	return s.findUser(ctx, "id = ?", id)
}

// FindUserByEmail fetches a user by email address.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findUser(ctx, "email = ?", email)
}

func (s *Store) findUser(ctx context.Context, where string, arg any) (models.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, password_hash, created_at FROM users WHERE "+where, arg)

	var u models.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return u, nil
}

// CreateToken records an issued access token.
func (s *Store) CreateToken(ctx context.Context, tokenID string, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO access_tokens (token_id, user_id, created_at) VALUES (?, ?, ?)",
		tokenID, userID, time.Now().UTC(),
	)
	return err
}

// FindTokenUser resolves a live token to its user.
func (s *Store) FindTokenUser(ctx context.Context, tokenID string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.name, u.email, u.password_hash, u.created_at
		FROM access_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.token_id = ?
	`, tokenID)

	var u models.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return u, nil
}

// DeleteToken revokes a token. Deleting an already-revoked token is a no-op.
func (s *Store) DeleteToken(ctx context.Context, tokenID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM access_tokens WHERE token_id = ?", tokenID)
	return err
}

// CreateExpense inserts a new expense row owned by expense.UserID.
func (s *Store) CreateExpense(ctx context.Context, expense models.Expense) (models.Expense, error) {
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO expenses (title, expense, description, user_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		expense.Title, expense.Amount, expense.Description, expense.UserID, now, now,
	)
	if err != nil {
		return models.Expense{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return models.Expense{}, err
	}
	return s.FindExpenseByID(ctx, id)
}

// ListExpensesByOwner fetches all expenses owned by the given user.
func (s *Store) ListExpensesByOwner(ctx context.Context, ownerID int64) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, expense, description, user_id, created_at, updated_at FROM expenses WHERE user_id = ? ORDER BY id",
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.Title, &e.Amount, &e.Description, &e.UserID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// FindExpenseByID fetches a single expense by its identifier.
func (s *Store) FindExpenseByID(ctx context.Context, id int64) (models.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, title, expense, description, user_id, created_at, updated_at FROM expenses WHERE id = ?",
		id,
	)

	var e models.Expense
	if err := row.Scan(&e.ID, &e.Title, &e.Amount, &e.Description, &e.UserID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Expense{}, storage.ErrNotFound
		}
		return models.Expense{}, err
	}
	return e, nil
}

// UpdateExpense persists the mutable fields of an expense. The owner column
// is deliberately absent from the SET list.
func (s *Store) UpdateExpense(ctx context.Context, expense models.Expense) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE expenses SET title = ?, expense = ?, description = ?, updated_at = ? WHERE id = ?",
		expense.Title, expense.Amount, expense.Description, time.Now().UTC(), expense.ID,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteExpense removes an expense row permanently.
func (s *Store) DeleteExpense(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
