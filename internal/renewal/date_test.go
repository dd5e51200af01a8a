package renewal

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateValue(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  time.Time
		ok    bool
	}{
		{
			name:  "time passes through as UTC",
			value: time.Date(2024, 3, 15, 12, 0, 0, 0, time.FixedZone("MST", -7*3600)),
			want:  time.Date(2024, 3, 15, 19, 0, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "bare year becomes jan 1",
			value: float64(2023),
			want:  time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "year boundary 1900 counts",
			value: 1900,
			want:  time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "epoch milliseconds",
			value: float64(1672531200000),
			want:  time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "epoch seconds",
			value: float64(1672531200),
			want:  time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "epoch day count",
			value: float64(19358), // days to 2023-01-01
			want:  time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "wire format",
			value: "/Date(1672531200000)/",
			want:  time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "wire format with offset suffix",
			value: "/Date(1672531200000-0700)/",
			want:  time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "iso date embedded in text",
			value: "renewed 2024-06-15 by clerk",
			want:  time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "numeric string reinterpreted",
			value: "2024",
			want:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "slash date",
			value: "6/15/2024",
			want:  time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "long month name",
			value: "June 15, 2024",
			want:  time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
			ok:    true,
		},
		{name: "nil", value: nil, ok: false},
		{name: "zero time", value: time.Time{}, ok: false},
		{name: "empty string", value: "", ok: false},
		{name: "whitespace string", value: "   ", ok: false},
		{name: "garbage string", value: "not a date", ok: false},
		{name: "bool", value: true, ok: false},
		{name: "negative number", value: float64(-5), ok: false},
		{name: "zero", value: float64(0), ok: false},
		{name: "nan", value: math.NaN(), ok: false},
		{name: "infinity", value: math.Inf(1), ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDateValue(tt.value)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, got.Equal(tt.want), "got %s want %s", got, tt.want)
			}
		})
	}
}

func TestParseDateValueYearBeatsEpochInterpretation(t *testing.T) {
	// 2100 is both a plausible year and a plausible day count; the year
	// interpretation wins for integers inside the calendar range.
	got, ok := ParseDateValue(float64(2100))
	require.True(t, ok)
	assert.Equal(t, 2100, got.Year())
	assert.Equal(t, time.January, got.Month())
}
