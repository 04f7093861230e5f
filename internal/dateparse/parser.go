// Package dateparse normalizes the date text shapes the listing sources
// produce into absolute instants.
package dateparse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrUnparseableDate is returned when raw date text does not match the
// expected shape for its format. Callers drop the record and count it;
// an unparseable date never halts a run.
var ErrUnparseableDate = errors.New("unparseable date")

// Format selects the parsing algorithm for a source's raw date text.
type Format string

const (
	// FormatNumeric parses "DD.MM.YYYY[, HH:MM]" ticketing-site dates.
	FormatNumeric Format = "numeric"
	// FormatMonthName parses "D <month-abbrev>" agenda-site dates.
	FormatMonthName Format = "month-name"
)

// defaultEventHour is assumed when the source omits a time component.
// Listing sites overwhelmingly describe evening events.
const defaultEventHour = 19

// rolloverGrace is how far in the past a year-less date may fall before
// it is attributed to the next calendar year. The ingest window only
// reaches one day back, so anything older than this is a December scrape
// reading a January date, not a stale listing.
const rolloverGrace = 30 * 24 * time.Hour

var (
	numericPattern   = regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\.(\d{4})(?:\s*,\s*(\d{1,2}):(\d{2}))?`)
	monthNamePattern = regexp.MustCompile(`(?i)(\d{1,2})\s+([\p{L}.]+)`)
)

// monthNames maps Romanian month names and their common abbreviations
// to month numbers. Trailing dots are stripped before lookup.
var monthNames = map[string]time.Month{
	"ianuarie":   time.January,
	"ian":        time.January,
	"februarie":  time.February,
	"feb":        time.February,
	"martie":     time.March,
	"mar":        time.March,
	"aprilie":    time.April,
	"apr":        time.April,
	"mai":        time.May,
	"iunie":      time.June,
	"iun":        time.June,
	"iulie":      time.July,
	"iul":        time.July,
	"august":     time.August,
	"aug":        time.August,
	"septembrie": time.September,
	"sept":       time.September,
	"sep":        time.September,
	"octombrie":  time.October,
	"oct":        time.October,
	"noiembrie":  time.November,
	"noi":        time.November,
	"nov":        time.November,
	"decembrie":  time.December,
	"dec":        time.December,
}

// Parser converts raw date text into instants in a fixed location.
type Parser struct {
	loc *time.Location
	now func() time.Time
}

// New creates a parser producing instants in the given location.
func New(loc *time.Location) *Parser {
	return &Parser{loc: loc, now: time.Now}
}

// NewWithClock creates a parser with an injected clock. Used in tests and
// anywhere the current-year assumption must be reproducible.
func NewWithClock(loc *time.Location, now func() time.Time) *Parser {
	return &Parser{loc: loc, now: now}
}

// Parse normalizes raw date text using the algorithm for the given format.
func (p *Parser) Parse(raw string, format Format) (time.Time, error) {
	switch format {
	case FormatNumeric:
		return p.ParseNumeric(raw)
	case FormatMonthName:
		return p.ParseMonthName(raw)
	default:
		return time.Time{}, fmt.Errorf("%w: unknown format %q", ErrUnparseableDate, format)
	}
}

// ParseNumeric parses "DD.MM.YYYY, HH:MM". The time component is optional
// and defaults to 19:00.
func (p *Parser) ParseNumeric(raw string) (time.Time, error) {
	m := numericPattern.FindStringSubmatch(raw)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDate, raw)
	}

	day, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDate, raw)
	}
	month, err := strconv.Atoi(m[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDate, raw)
	}
	year, err := strconv.Atoi(m[3])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDate, raw)
	}

	hour, minute := defaultEventHour, 0
	if m[4] != "" {
		hour, _ = strconv.Atoi(m[4])
		minute, _ = strconv.Atoi(m[5])
	}

	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, p.loc)
	// time.Date normalizes out-of-range fields; a round-trip mismatch
	// means the source text named a day or month that does not exist.
	if t.Day() != day || t.Month() != time.Month(month) || t.Year() != year ||
		t.Hour() != hour || t.Minute() != minute {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDate, raw)
	}

	return t, nil
}

// ParseMonthName parses "D <month-name>" where the month name is a
// Romanian name or abbreviation. The source format carries no year: the
// current calendar year is assumed, rolling to the next year when the
// result would be more than rolloverGrace in the past. Time defaults
// to 19:00.
func (p *Parser) ParseMonthName(raw string) (time.Time, error) {
	m := monthNamePattern.FindStringSubmatch(raw)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDate, raw)
	}

	day, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDate, raw)
	}

	token := strings.ToLower(strings.TrimSuffix(m[2], "."))
	month, ok := monthNames[token]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: unknown month %q", ErrUnparseableDate, token)
	}

	now := p.now().In(p.loc)
	t := time.Date(now.Year(), month, day, defaultEventHour, 0, 0, 0, p.loc)
	if t.Day() != day || t.Month() != month {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDate, raw)
	}

	if now.Sub(t) > rolloverGrace {
		t = t.AddDate(1, 0, 0)
	}

	return t, nil
}
