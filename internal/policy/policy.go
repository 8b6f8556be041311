// Package policy decides whether an authenticated user may perform an
// operation on an expense record.
package policy

import "expense-api/internal/models"

// Operation names an expense access operation.
type Operation string

const (
	OpList   Operation = "list"
	OpCreate Operation = "create"
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Policy is a pure decision function over (user, operation, expense).
//
// The upstream API never checked ownership on single-record reads, so any
// authenticated user could fetch any expense by ID. EnforceReadOwnership
// keeps that behavior selectable: false reproduces the upstream contract,
// true closes the hole.
type Policy struct {
	EnforceReadOwnership bool
}

// Can reports whether user may perform op on expense. List and create are
// always allowed for an authenticated user; their results and writes are
// scoped to that user by the caller, not here.
func (p Policy) Can(user models.User, op Operation, expense models.Expense) bool {
	switch op {
	case OpList, OpCreate:
		return true
	case OpRead:
		if !p.EnforceReadOwnership {
			return true
		}
		return expense.UserID == user.ID
	case OpUpdate, OpDelete:
		return expense.UserID == user.ID
	default:
		return false
	}
}
