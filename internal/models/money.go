package models

import (
	"bytes"
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAmountCents bounds the magnitude of a single amount: 100 billion in
// currency units. Sums of up to ~900k maximal records still fit in int64.
const MaxAmountCents = 10_000_000_000_000

var (
	// ErrInvalidAmount is returned when a monetary value cannot be parsed.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrAmountOutOfRange is returned for amounts beyond MaxAmountCents.
	ErrAmountOutOfRange = fmt.Errorf("%w: magnitude exceeds %d cents", ErrInvalidAmount, int64(MaxAmountCents))

	maxAmount = decimal.New(MaxAmountCents, -2)
	// largest magnitude whose cents still fit in int64, for aggregates
	maxRepresentable = decimal.New(math.MaxInt64, -2)
)

// Money is a fixed-point amount with exactly two fractional digits.
// It is persisted as integer cents and serialized as a JSON number.
type Money struct {
	d decimal.Decimal
}

// NewMoneyFromCents builds a Money from an integer number of cents.
func NewMoneyFromCents(cents int64) Money {
	return Money{d: decimal.New(cents, -2)}
}

// ParseMoney parses a decimal string such as "12.50" or "-3".
// More than two fractional digits are rounded half away from zero, and
// amounts beyond MaxAmountCents are rejected.
func ParseMoney(s string) (Money, error) {
	d, err := parseCents(s)
	if err != nil {
		return Money{}, err
	}
	if d.Abs().GreaterThan(maxAmount) {
		return Money{}, ErrAmountOutOfRange
	}
	return Money{d: d}, nil
}

func parseCents(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return d.Round(2), nil
}

// MustParseMoney is ParseMoney for literals known to be valid.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(fmt.Sprintf("models: invalid money literal %q", s))
	}
	return m
}

// Cents returns the amount as an integer number of cents.
func (m Money) Cents() int64 {
	return m.d.Shift(2).Round(0).IntPart()
}

func (m Money) Sub(o Money) Money {
	return Money{d: m.d.Sub(o.d)}
}

// DivRound divides by n and rounds the result to cents. Dividing by zero yields zero.
func (m Money) DivRound(n int64) Money {
	if n == 0 {
		return Money{}
	}
	return Money{d: m.d.DivRound(decimal.NewFromInt(n), 2)}
}

func (m Money) IsPositive() bool { return m.d.IsPositive() }

func (m Money) IsZero() bool { return m.d.IsZero() }

func (m Money) String() string {
	return m.d.StringFixed(2)
}

// MarshalJSON writes the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.d.StringFixed(2)), nil
}

// UnmarshalJSON accepts both JSON numbers and numeric strings. Totals may
// exceed MaxAmountCents, so only the int64 range of cents is enforced.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return ErrInvalidAmount
	}
	d, err := parseCents(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	if d.Abs().GreaterThan(maxRepresentable) {
		return ErrAmountOutOfRange
	}
	*m = Money{d: d}
	return nil
}

// Value stores the amount as cents.
func (m Money) Value() (driver.Value, error) {
	return m.Cents(), nil
}

// Scan reads an integer number of cents. Aggregates may arrive as numeric
// text (Postgres SUM over BIGINT yields NUMERIC).
func (m *Money) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = Money{}
		return nil
	case int64:
		*m = NewMoneyFromCents(v)
		return nil
	case float64:
		*m = Money{d: decimal.NewFromFloat(v).Round(0).Shift(-2)}
		return nil
	case []byte:
		return m.scanText(string(v))
	case string:
		return m.scanText(v)
	default:
		return fmt.Errorf("models: cannot scan %T into Money", src)
	}
}

func (m *Money) scanText(s string) error {
	if cents, err := strconv.ParseInt(s, 10, 64); err == nil {
		*m = NewMoneyFromCents(cents)
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("models: cannot scan %q into Money: %w", s, err)
	}
	*m = Money{d: d.Round(0).Shift(-2)}
	return nil
}

// AmountInput carries a raw amount exactly as the client sent it,
// either as a JSON number or a numeric string.
type AmountInput string

func (a *AmountInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return ErrInvalidAmount
		}
		*a = AmountInput(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	*a = AmountInput(data)
	return nil
}
