package service

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rongwang/finance-server/internal/apperr"
	"github.com/rongwang/finance-server/internal/models"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100

	minPasswordLength = 6
	maxNameLength     = 255
	defaultCurrency   = "USD"
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return apperr.Validation("email is required")
	}
	if !emailPattern.MatchString(email) {
		return apperr.Validation("email is not a valid address")
	}
	return nil
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return apperr.Validation("password must be at least %d characters", minPasswordLength)
	}
	return nil
}

// cleanName trims name and enforces the presence and length rules.
func cleanName(field, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Validation("%s is required", field)
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", apperr.Validation("%s must be at most %d characters", field, maxNameLength)
	}
	return name, nil
}

func parseAmount(field string, in *models.AmountInput, positive bool) (models.Money, error) {
	if in == nil {
		return models.Money{}, apperr.Validation("%s is required", field)
	}
	amount, err := models.ParseMoney(string(*in))
	if errors.Is(err, models.ErrAmountOutOfRange) {
		return models.Money{}, apperr.Validation("%s must be at most %s in magnitude", field, models.NewMoneyFromCents(models.MaxAmountCents))
	}
	if err != nil {
		return models.Money{}, apperr.Validation("%s must be a number", field)
	}
	if positive && !amount.IsPositive() {
		return models.Money{}, apperr.Validation("%s must be greater than 0", field)
	}
	return amount, nil
}

func parseDate(field, value string) (models.Date, error) {
	d, err := models.ParseDate(strings.TrimSpace(value))
	if err != nil {
		return models.Date{}, apperr.Validation("%s must be a date (YYYY-MM-DD)", field)
	}
	return d, nil
}

func parseOptionalDate(field, value string) (*models.Date, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	d, err := parseDate(field, value)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ParseID parses a positive integer identifier.
func ParseID(field, value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("%s must be a positive integer", field)
	}
	return id, nil
}

func validateCategoryID(id *int64) error {
	if id == nil {
		return apperr.Validation("categoryId is required")
	}
	if *id <= 0 {
		return apperr.Validation("categoryId must be a positive integer")
	}
	return nil
}

func parseCurrency(value string) (string, error) {
	currency := strings.ToUpper(strings.TrimSpace(value))
	if currency == "" {
		return defaultCurrency, nil
	}
	if !currencyPattern.MatchString(currency) {
		return "", apperr.Validation("currency must be a 3-letter code")
	}
	return currency, nil
}

// parsePage applies the default limit and caps it.
func parsePage(q models.ListQuery) (models.Page, error) {
	page := models.Page{Limit: DefaultPageLimit}

	if q.Limit != "" {
		limit, err := strconv.Atoi(q.Limit)
		if err != nil || limit < 1 {
			return page, apperr.Validation("limit must be a positive integer")
		}
		if limit > MaxPageLimit {
			limit = MaxPageLimit
		}
		page.Limit = limit
	}

	if q.Offset != "" {
		offset, err := strconv.Atoi(q.Offset)
		if err != nil || offset < 0 {
			return page, apperr.Validation("offset must be a non-negative integer")
		}
		page.Offset = offset
	}

	return page, nil
}

func parseDateRange(q models.ListQuery) (start, end *models.Date, err error) {
	if start, err = parseOptionalDate("startDate", q.StartDate); err != nil {
		return nil, nil, err
	}
	if end, err = parseOptionalDate("endDate", q.EndDate); err != nil {
		return nil, nil, err
	}
	if start != nil && end != nil && start.After(end.Time) {
		return nil, nil, apperr.Validation("startDate must not be after endDate")
	}
	return start, end, nil
}

// parseWindow requires both bounds of an aggregation window.
func parseWindow(startDate, endDate string) (models.Date, models.Date, error) {
	if strings.TrimSpace(startDate) == "" || strings.TrimSpace(endDate) == "" {
		return models.Date{}, models.Date{}, apperr.Validation("startDate and endDate are required")
	}
	start, end, err := parseDateRange(models.ListQuery{StartDate: startDate, EndDate: endDate})
	if err != nil {
		return models.Date{}, models.Date{}, err
	}
	return *start, *end, nil
}

func parseCategoryType(value string) (models.CategoryType, error) {
	typ := models.CategoryType(strings.ToLower(strings.TrimSpace(value)))
	if !typ.Valid() {
		return "", apperr.Validation("type must be income or expense")
	}
	return typ, nil
}

func noFields() error {
	return apperr.Validation("no fields to update")
}
