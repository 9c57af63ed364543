package models

import (
	"time"
)

// User represents a registered account
type User struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Name         string    `db:"name" json:"name"`
	PasswordHash string    `db:"password_hash" json:"-"` // never serialized
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// PublicUser is the subset of User returned to clients
type PublicUser struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Name: u.Name}
}

// CategoryType is either income or expense
type CategoryType string

const (
	CategoryIncome  CategoryType = "income"
	CategoryExpense CategoryType = "expense"
)

func (t CategoryType) Valid() bool {
	return t == CategoryIncome || t == CategoryExpense
}

// Category groups money records of one type for one user
type Category struct {
	ID        int64        `db:"id" json:"id"`
	UserID    int64        `db:"user_id" json:"userId"`
	Name      string       `db:"name" json:"name"`
	Type      CategoryType `db:"type" json:"type"`
	CreatedAt time.Time    `db:"created_at" json:"createdAt"`
}

// RecordKind selects between the two money record tables
type RecordKind string

const (
	KindIncome  RecordKind = "income"
	KindExpense RecordKind = "expense"
)

// Table is the storage table holding records of this kind
func (k RecordKind) Table() string {
	if k == KindIncome {
		return "incomes"
	}
	return "expenses"
}

// CategoryType is the only category type records of this kind may reference
func (k RecordKind) CategoryType() CategoryType {
	if k == KindIncome {
		return CategoryIncome
	}
	return CategoryExpense
}

// MoneyRecord is an income or an expense
type MoneyRecord struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"userId"`
	CategoryID   int64     `db:"category_id" json:"categoryId"`
	CategoryName string    `db:"category_name" json:"categoryName"`
	Amount       Money     `db:"amount_cents" json:"amount"`
	Description  *string   `db:"description" json:"description"`
	Date         Date      `db:"date" json:"date"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Balance is a point-in-time account balance snapshot
type Balance struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"userId"`
	Amount    Money     `db:"amount_cents" json:"amount"`
	Currency  string    `db:"currency" json:"currency"`
	Date      Date      `db:"date" json:"date"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Totals is the sum and count of money records in a window
type Totals struct {
	Total Money `db:"total" json:"total"`
	Count int64 `db:"count" json:"count"`
}

// CategoryTotal is one row of a per-category aggregation
type CategoryTotal struct {
	CategoryID   int64  `db:"category_id" json:"categoryId"`
	CategoryName string `db:"category_name" json:"categoryName"`
	Total        Money  `db:"total" json:"total"`
	Count        int64  `db:"count" json:"count"`
	Average      Money  `db:"-" json:"average"`
}

// UserOverview is a user with their categories and most recent balance
type UserOverview struct {
	ID            int64      `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	CreatedAt     time.Time  `json:"createdAt"`
	Categories    []Category `json:"categories"`
	LatestBalance *Balance   `json:"latestBalance"`
}

// Page bounds a list query
type Page struct {
	Limit  int
	Offset int
}

// RecordFilter narrows a money record listing; nil fields are ignored
type RecordFilter struct {
	StartDate  *Date
	EndDate    *Date
	CategoryID *int64
}

// BalanceFilter narrows a balance listing
type BalanceFilter struct {
	StartDate *Date
	EndDate   *Date
}

// RecordUpdate holds the fields of a partial money record update
type RecordUpdate struct {
	CategoryID  *int64
	Amount      *Money
	Description OptionalString
	Date        *Date
}

// BalanceUpdate holds the fields of a partial balance update
type BalanceUpdate struct {
	Amount   *Money
	Currency *string
	Date     *Date
}

// UserUpdate holds the fields of a profile update
type UserUpdate struct {
	Name         *string
	PasswordHash *string
}
