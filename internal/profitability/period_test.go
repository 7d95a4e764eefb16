package profitability

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2024-02")
	require.NoError(t, err)
	assert.Equal(t, 2024, m.Year)
	assert.Equal(t, time.February, m.Month)
	assert.Equal(t, 29, m.Days())
	assert.Equal(t, "2024-02", m.String())
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), m.End())
}

func TestParseMonthRejectsMalformedKeys(t *testing.T) {
	for _, key := range []string{"", "2024-3", "2024/03", "24-03", "2024-13", "2024-00", "2024-03-01", "marzo"} {
		_, err := ParseMonth(key)
		assert.Truef(t, errors.Is(err, ErrInvalidPeriod), "key %q should be rejected", key)
	}
}

func TestMonthWindowCrossesYear(t *testing.T) {
	m, err := ParseMonth("2024-02")
	require.NoError(t, err)
	window := m.Window(6)
	require.Len(t, window, 6)
	assert.Equal(t, "2023-09", window[0].String())
	assert.Equal(t, "2024-02", window[5].String())
	assert.Equal(t, "sep", window[0].Label())
}

func TestMonthContainsIsHalfOpen(t *testing.T) {
	m := Month{Year: 2024, Month: time.March}
	assert.True(t, m.Contains(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, m.Contains(time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC)))
	assert.False(t, m.Contains(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, m.Contains(time.Time{}))
}
