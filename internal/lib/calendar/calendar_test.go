package calendar

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMonths_TableTests(t *testing.T) {
	tests := []struct {
		name string
		date Date
		n    int
		want Date
	}{
		{
			name: "leap year clamp",
			date: New(2024, time.January, 31),
			n:    1,
			want: New(2024, time.February, 29),
		},
		{
			name: "non-leap year clamp",
			date: New(2023, time.January, 31),
			n:    1,
			want: New(2023, time.February, 28),
		},
		{
			name: "year rollover with clamp",
			date: New(2024, time.November, 30),
			n:    3,
			want: New(2025, time.February, 28),
		},
		{
			name: "plain month",
			date: New(2025, time.January, 15),
			n:    2,
			want: New(2025, time.March, 15),
		},
		{
			name: "december lands in next year",
			date: New(2024, time.December, 15),
			n:    1,
			want: New(2025, time.January, 15),
		},
		{
			name: "november plus one stays in year",
			date: New(2024, time.November, 15),
			n:    1,
			want: New(2024, time.December, 15),
		},
		{
			name: "twelve months",
			date: New(2024, time.February, 29),
			n:    12,
			want: New(2025, time.February, 28),
		},
		{
			name: "forty eight months back to leap day",
			date: New(2024, time.February, 29),
			n:    48,
			want: New(2028, time.February, 29),
		},
		{
			name: "century not leap",
			date: New(2099, time.December, 31),
			n:    2,
			want: New(2100, time.February, 28),
		},
		{
			name: "400 year century is leap",
			date: New(1999, time.December, 31),
			n:    2,
			want: New(2000, time.February, 29),
		},
		{
			name: "zero is identity",
			date: New(2023, time.March, 31),
			n:    0,
			want: New(2023, time.March, 31),
		},
		{
			name: "negative delta",
			date: New(2024, time.March, 31),
			n:    -1,
			want: New(2024, time.February, 29),
		},
		{
			name: "negative delta across year",
			date: New(2025, time.January, 31),
			n:    -2,
			want: New(2024, time.November, 30),
		},
		{
			name: "negative whole years",
			date: New(2025, time.January, 10),
			n:    -12,
			want: New(2024, time.January, 10),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddMonths(tt.date, tt.n)
			if got != tt.want {
				t.Errorf("AddMonths(%v, %d) = %v, want %v", tt.date, tt.n, got, tt.want)
			}
		})
	}
}

func TestAddMonths_MonthAndClampInvariant(t *testing.T) {
	start := New(2023, time.January, 1)
	for offset := 0; offset < 2*366; offset++ {
		d := FromTime(start.Time().AddDate(0, 0, offset))
		for n := 0; n <= 27; n++ {
			got := AddMonths(d, n)

			wantMonth := time.Month((int(d.Month)-1+n)%12 + 1)
			require.Equal(t, wantMonth, got.Month, "month of AddMonths(%v, %d)", d, n)
			require.LessOrEqual(t, got.Day, DaysIn(got.Year, got.Month), "day of AddMonths(%v, %d)", d, n)
			require.True(t, got.Valid(), "AddMonths(%v, %d) = %v", d, n, got)
		}
	}
}

func TestDaysIn(t *testing.T) {
	assert.Equal(t, 29, DaysIn(2024, time.February))
	assert.Equal(t, 28, DaysIn(2023, time.February))
	assert.Equal(t, 28, DaysIn(1900, time.February))
	assert.Equal(t, 29, DaysIn(2000, time.February))
	assert.Equal(t, 30, DaysIn(2025, time.April))
	assert.Equal(t, 31, DaysIn(2025, time.December))
}

func TestParse(t *testing.T) {
	d, err := Parse("2025-06-10")
	require.NoError(t, err)
	assert.Equal(t, New(2025, time.June, 10), d)
	assert.Equal(t, "2025-06-10", d.String())

	last, err := Parse("9999-12-31")
	require.NoError(t, err)
	assert.True(t, last.Valid())

	for _, bad := range []string{"2024-02-30", "2024-2-3", "10-06-2025", "garbage", "", "2025-13-01", "0000-01-01", "0000-02-29"} {
		_, err := Parse(bad)
		assert.True(t, errors.Is(err, ErrInvalidDate), "Parse(%q) err = %v", bad, err)
	}
}

func TestValid(t *testing.T) {
	assert.True(t, New(2024, time.February, 29).Valid())
	assert.False(t, New(2023, time.February, 29).Valid())
	assert.False(t, Date{}.Valid())
	assert.False(t, New(2025, 0, 1).Valid())
	assert.True(t, Date{}.IsZero())
}

func TestDaysBetween(t *testing.T) {
	today := New(2025, time.June, 10)
	assert.Equal(t, 0, DaysBetween(today, today))
	assert.Equal(t, 3, DaysBetween(today, New(2025, time.June, 13)))
	assert.Equal(t, -1, DaysBetween(today, New(2025, time.June, 9)))
	assert.Equal(t, 366, DaysBetween(New(2024, time.January, 1), New(2025, time.January, 1)))
}

func TestToday_UsesUTCDate(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	now := time.Date(2025, time.June, 11, 2, 0, 0, 0, loc)

	assert.Equal(t, New(2025, time.June, 10), Today(now))
}

func TestJSON(t *testing.T) {
	type payload struct {
		End *Date `json:"end_date"`
	}

	b, err := json.Marshal(payload{End: &Date{Year: 2025, Month: time.March, Day: 5}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"end_date":"2025-03-05"}`, string(b))

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"end_date":null}`), &p))
	assert.Nil(t, p.End)

	err = json.Unmarshal([]byte(`{"end_date":"2025-02-30"}`), &p)
	assert.True(t, errors.Is(err, ErrInvalidDate))
}

func TestNullDate_Scan(t *testing.T) {
	var n NullDate
	require.NoError(t, n.Scan(nil))
	assert.Nil(t, n.Ptr())

	require.NoError(t, n.Scan(time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)))
	require.NotNil(t, n.Ptr())
	assert.Equal(t, "2025-05-01", n.Ptr().String())

	var d Date
	assert.Error(t, d.Scan(nil))
	assert.Error(t, d.Scan(42))
}
