package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in    string
		cents int64
		ok    bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true},
		{" 2.50 ", 250, true},
		{"-12.34", -1234, true},
		{"5000", 500000, true},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"100000000000", MaxAmountCents, true},
		{"-100000000000.00", -MaxAmountCents, true},
		{"100000000000.01", 0, false},
		{"184467440737095517.17", 0, false},
		{"-60000000000000000", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if !tc.ok {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.cents, got.Cents(), tc.in)
	}
}

func TestMoneyArithmeticIsExact(t *testing.T) {
	total := MustParseMoney("100")
	for i := 0; i < 1000; i++ {
		total = total.Sub(MustParseMoney("0.10"))
	}
	assert.True(t, total.IsZero())
	assert.Equal(t, int64(0), total.Cents())

	net := MustParseMoney("5000").Sub(MustParseMoney("1200"))
	assert.Equal(t, "3800.00", net.String())
}

func TestMoneyDivRound(t *testing.T) {
	assert.Equal(t, "3.33", MustParseMoney("10").DivRound(3).String())
	assert.Equal(t, "0.67", MustParseMoney("2").DivRound(3).String())
	assert.True(t, MustParseMoney("10").DivRound(0).IsZero())
}

func TestMoneyJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Amount Money `json:"amount"`
	}{Amount: MustParseMoney("12.5")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount": 12.50}`, string(data))

	var fromNumber, fromString Money
	require.NoError(t, json.Unmarshal([]byte(`19.99`), &fromNumber))
	require.NoError(t, json.Unmarshal([]byte(`"19.99"`), &fromString))
	assert.Equal(t, fromNumber.Cents(), fromString.Cents())
	assert.Error(t, json.Unmarshal([]byte(`"nope"`), &fromNumber))
}

func TestMoneyScan(t *testing.T) {
	var m Money
	require.NoError(t, m.Scan(int64(123456)))
	assert.Equal(t, "1234.56", m.String())

	require.NoError(t, m.Scan([]byte("500000")))
	assert.Equal(t, "5000.00", m.String())

	require.NoError(t, m.Scan("42"))
	assert.Equal(t, "0.42", m.String())

	require.NoError(t, m.Scan(nil))
	assert.True(t, m.IsZero())

	assert.Error(t, m.Scan(true))

	v, err := MustParseMoney("-7.25").Value()
	require.NoError(t, err)
	assert.Equal(t, int64(-725), v)
}

func TestAmountInput(t *testing.T) {
	var req struct {
		A *AmountInput `json:"a"`
		B *AmountInput `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 12.34, "b": "56.78"}`), &req))
	assert.Equal(t, AmountInput("12.34"), *req.A)
	assert.Equal(t, AmountInput("56.78"), *req.B)
}

func TestParseMoneyRejectsOutOfRange(t *testing.T) {
	_, err := ParseMoney("184467440737095517.17")
	assert.ErrorIs(t, err, ErrAmountOutOfRange)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	var m Money
	assert.ErrorIs(t, json.Unmarshal([]byte(`"184467440737095517.17"`), &m), ErrInvalidAmount)

	// totals above the per-amount bound still decode
	require.NoError(t, json.Unmarshal([]byte(`300000000000.00`), &m))
	assert.Equal(t, int64(30000000000000), m.Cents())

	// rounding to cents happens before the bound is checked
	got, err := ParseMoney("100000000000.004")
	require.NoError(t, err)
	assert.Equal(t, int64(MaxAmountCents), got.Cents())
}
