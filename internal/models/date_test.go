package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-05")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05", d.String())

	d, err = ParseDate("2024-01-05T23:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05", d.String())

	_, err = ParseDate("05/01/2024")
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = ParseDate("2024-02-30")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-03-09", d.String())

	require.NoError(t, d.Scan("2024-03-10"))
	assert.Equal(t, "2024-03-10", d.String())

	require.NoError(t, d.Scan([]byte("2024-03-11T00:00:00Z")))
	assert.Equal(t, "2024-03-11", d.String())

	assert.Error(t, d.Scan(int64(5)))
}

func TestDateJSON(t *testing.T) {
	data, err := json.Marshal(NewDate(2024, time.January, 31))
	require.NoError(t, err)
	assert.Equal(t, `"2024-01-31"`, string(data))

	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-12-01"`), &d))
	assert.True(t, d.Equal(NewDate(2024, time.December, 1).Time))
}

func TestRecordKind(t *testing.T) {
	assert.Equal(t, "incomes", KindIncome.Table())
	assert.Equal(t, "expenses", KindExpense.Table())
	assert.Equal(t, CategoryIncome, KindIncome.CategoryType())
	assert.Equal(t, CategoryExpense, KindExpense.CategoryType())
	assert.False(t, CategoryType("transfer").Valid())
}
