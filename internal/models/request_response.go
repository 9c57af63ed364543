package models

// Request models
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateProfileRequest struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

type CreateCategoryRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type CreateRecordRequest struct {
	CategoryID  *int64       `json:"categoryId"`
	Amount      *AmountInput `json:"amount"`
	Description *string      `json:"description"`
	Date        *string      `json:"date"`
}

// UpdateRecordRequest changes only the keys present; "description": null
// clears the description.
type UpdateRecordRequest struct {
	CategoryID  *int64         `json:"categoryId"`
	Amount      *AmountInput   `json:"amount"`
	Description OptionalString `json:"description"`
	Date        *string        `json:"date"`
}

type CreateBalanceRequest struct {
	Amount   *AmountInput `json:"amount"`
	Currency string       `json:"currency"`
	Date     *string      `json:"date"`
}

type UpdateBalanceRequest struct {
	Amount   *AmountInput `json:"amount"`
	Currency *string      `json:"currency"`
	Date     *string      `json:"date"`
}

// ListQuery carries raw list query parameters as received
type ListQuery struct {
	StartDate  string
	EndDate    string
	CategoryID string
	Type       string
	Limit      string
	Offset     string
}

// Response models
type AuthResponse struct {
	Token     string     `json:"token"`
	ExpiresIn int        `json:"expiresIn"`
	User      PublicUser `json:"user"`
}

type Period struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

type SummaryTotals struct {
	TotalIncome   Money `json:"totalIncome"`
	TotalExpenses Money `json:"totalExpenses"`
	NetAmount     Money `json:"netAmount"`
	IncomeCount   int64 `json:"incomeCount"`
	ExpenseCount  int64 `json:"expenseCount"`
}

type SummaryResponse struct {
	UserID  int64         `json:"userId"`
	Period  Period        `json:"period"`
	Summary SummaryTotals `json:"summary"`
}

type DeletedResponse struct {
	ID int64 `json:"id"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
