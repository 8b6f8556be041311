package storage

import (
	"context"
	"errors"

	"expense-api/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// UserStore captures persistence operations needed by the auth handlers.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
}

// TokenStore persists issued access tokens by their token ID. A token is
// live only while its row exists; deleting the row revokes it.
type TokenStore interface {
	CreateToken(ctx context.Context, tokenID string, userID int64) error
	FindTokenUser(ctx context.Context, tokenID string) (models.User, error)
	DeleteToken(ctx context.Context, tokenID string) error
}

// ExpenseStore captures persistence operations for expense records.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, expense models.Expense) (models.Expense, error)
	ListExpensesByOwner(ctx context.Context, ownerID int64) ([]models.Expense, error)
	FindExpenseByID(ctx context.Context, id int64) (models.Expense, error)
	UpdateExpense(ctx context.Context, expense models.Expense) error
	DeleteExpense(ctx context.Context, id int64) error
}

// Store is the full persistence surface the server wires together.
type Store interface {
	UserStore
	TokenStore
	ExpenseStore
	Close()
}
