package dateparse_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citypulse/cityingest/internal/dateparse"
)

var bucharest = mustLoadLocation("Europe/Bucharest")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestParseNumeric(t *testing.T) {
	p := dateparse.New(bucharest)

	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{
			name: "full date and time",
			raw:  "19.05.2024, 20:00",
			want: time.Date(2024, time.May, 19, 20, 0, 0, 0, bucharest),
		},
		{
			name: "missing time defaults to 19:00",
			raw:  "19.05.2024,",
			want: time.Date(2024, time.May, 19, 19, 0, 0, 0, bucharest),
		},
		{
			name: "no trailing comma",
			raw:  "1.12.2024",
			want: time.Date(2024, time.December, 1, 19, 0, 0, 0, bucharest),
		},
		{
			name: "surrounding text is tolerated",
			raw:  "Sala Palatului | 03.11.2024, 18:30",
			want: time.Date(2024, time.November, 3, 18, 30, 0, 0, bucharest),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.ParseNumeric(tt.raw)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestParseNumericInvalid(t *testing.T) {
	p := dateparse.New(bucharest)

	invalid := []string{
		"",
		"mai 2024",
		"19/05/2024",
		"32.05.2024",
		"19.13.2024",
	}

	for _, raw := range invalid {
		t.Run(raw, func(t *testing.T) {
			_, err := p.ParseNumeric(raw)
			assert.ErrorIs(t, err, dateparse.ErrUnparseableDate)
		})
	}
}

func TestParseMonthName(t *testing.T) {
	now := time.Date(2024, time.April, 10, 12, 0, 0, 0, bucharest)
	p := dateparse.NewWithClock(bucharest, fixedClock(now))

	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{
			name: "full month name",
			raw:  "5 mai",
			want: time.Date(2024, time.May, 5, 19, 0, 0, 0, bucharest),
		},
		{
			name: "abbreviation",
			raw:  "12 sept",
			want: time.Date(2024, time.September, 12, 19, 0, 0, 0, bucharest),
		},
		{
			name: "abbreviation with trailing dot",
			raw:  "3 oct.",
			want: time.Date(2024, time.October, 3, 19, 0, 0, 0, bucharest),
		},
		{
			name: "uppercase month",
			raw:  "21 Iunie",
			want: time.Date(2024, time.June, 21, 19, 0, 0, 0, bucharest),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.ParseMonthName(tt.raw)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestParseMonthNameUnknownToken(t *testing.T) {
	p := dateparse.NewWithClock(bucharest, fixedClock(time.Date(2024, time.April, 10, 12, 0, 0, 0, bucharest)))

	_, err := p.ParseMonthName("5 xyz")
	assert.ErrorIs(t, err, dateparse.ErrUnparseableDate)

	_, err = p.ParseMonthName("mai")
	assert.ErrorIs(t, err, dateparse.ErrUnparseableDate)
}

func TestParseMonthNameYearRollover(t *testing.T) {
	// Scraping in December: a January date belongs to the next year.
	december := time.Date(2024, time.December, 28, 12, 0, 0, 0, bucharest)
	p := dateparse.NewWithClock(bucharest, fixedClock(december))

	got, err := p.ParseMonthName("5 ian")
	require.NoError(t, err)
	assert.Equal(t, 2025, got.Year())
	assert.Equal(t, time.January, got.Month())

	// A date a few days back stays in the current year; the window
	// filter decides what to do with it.
	got, err = p.ParseMonthName("20 dec")
	require.NoError(t, err)
	assert.Equal(t, 2024, got.Year())
}

func TestParseDispatch(t *testing.T) {
	now := time.Date(2024, time.April, 10, 12, 0, 0, 0, bucharest)
	p := dateparse.NewWithClock(bucharest, fixedClock(now))

	got, err := p.Parse("19.05.2024, 20:00", dateparse.FormatNumeric)
	require.NoError(t, err)
	assert.Equal(t, 20, got.Hour())

	got, err = p.Parse("5 mai", dateparse.FormatMonthName)
	require.NoError(t, err)
	assert.Equal(t, time.May, got.Month())

	_, err = p.Parse("5 mai", dateparse.Format("csv"))
	assert.ErrorIs(t, err, dateparse.ErrUnparseableDate)
}
