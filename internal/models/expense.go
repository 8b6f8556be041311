package models

import "time"

// Expense is a single spending record owned by exactly one user. The amount
// travels on the wire under the legacy key "expense"; the owner never changes
// after creation.
type Expense struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Amount      float64   `json:"expense"`
	Description string    `json:"description"`
	UserID      int64     `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
