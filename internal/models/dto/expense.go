package dto

// CreateExpenseRequest carries a new expense. Amount is a pointer so a
// missing "expense" key can be told apart from an explicit zero.
type CreateExpenseRequest struct {
	Title       string   `json:"title"`
	Amount      *float64 `json:"expense"`
	Description string   `json:"description"`
}

// UpdateExpenseRequest supports partial updates: nil fields are left alone.
type UpdateExpenseRequest struct {
	Title       *string  `json:"title"`
	Amount      *float64 `json:"expense"`
	Description *string  `json:"description"`
}
