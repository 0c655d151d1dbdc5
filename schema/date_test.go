package schema

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerceDate(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want time.Time
	}{
		{"iso date", String("2024-01-15"), time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"padded", String("  2024-01-15 "), time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"rfc3339", String("2024-01-15T08:30:00Z"), time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC)},
		{"offset", String("2024-01-15T08:30:00+02:00"), time.Date(2024, 1, 15, 6, 30, 0, 0, time.UTC)},
		{"local datetime", String("2024-01-15T08:30:00"), time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC)},
		{"space separated", String("2024-01-15 08:30"), time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC)},
		{"year month", String("2024-03"), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"year", String("2024"), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"long form", String("January 15, 2024"), time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"epoch millis", Number(1705276800000), time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"zero", Number(0), time.Unix(0, 0).UTC()},
		{"expanded year", String("+275760-09-13T00:00:00.000Z"), time.UnixMilli(8.64e15).UTC()},
		{"negative expanded year", String("-000001-01-01"), time.Date(-1, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CoerceDate(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}
}

func TestCoerceDateFailures(t *testing.T) {
	tests := []struct {
		name string
		in   Value
	}{
		{"not a date", String("not-a-date")},
		{"empty", String("")},
		{"blank", String("   ")},
		{"impossible day", String("2024-02-30")},
		{"dangling slash", String("1/")},
		{"trailing junk", String("2009-08-12T22:15:09.99Z(")},
		{"digit run", String("1705276800")},
		{"expanded year too large", String("+275761-01-01")},
		{"expanded feb 29 in common year", String("+100001-02-29")},
		{"nan", Number(math.NaN())},
		{"infinite", Number(math.Inf(1))},
		{"out of range", Number(9e15)},
		{"bool", Bool(true)},
		{"null", Null()},
		{"sequence", Sequence(String("2024-01-15"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CoerceDate(tt.in)
			assert.Error(t, err)
		})
	}
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		in   time.Time
		want string
	}{
		{time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "2024-01-15T00:00:00Z"},
		{time.UnixMilli(8e15).UTC(), "+255479-11-28T14:13:20Z"},
		{time.UnixMilli(-8e15).UTC(), "-251540-02-04T09:46:40Z"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := FormatDate(tt.in)
			assert.Equal(t, tt.want, got)

			back, err := CoerceDate(String(got))
			require.NoError(t, err)
			assert.True(t, tt.in.Equal(back), "got %v, want %v", back, tt.in)
		})
	}
}
