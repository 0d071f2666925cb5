package core

// dates.go is the single source of date truth for the pipeline. Every date
// that enters the system, whatever its spreadsheet encoding, passes through
// NormalizeDate and comes out as a canonical YYYY-MM-DD string.

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// CanonicalDateLayout is the one true date format.
const CanonicalDateLayout = "2006-01-02"

// serialEpoch is the conventional spreadsheet date epoch (1899-12-30);
// modern serials land where Excel and LibreOffice put them.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

const millisPerDay = 24 * 60 * 60 * 1000

// TwoDigitYearPivot controls how 2-digit years are read: parsed years more
// than this many years in the future are shifted back a century.
var TwoDigitYearPivot = 20

var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06",
	}
	fourDigitYearLayouts = []string{
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006",
		"2006-01-02", "2006/01/02",
		"Jan 2, 2006", "2 Jan 2006",
		"20060102",
	}
	// Day-first fallbacks, tried only after month-first layouts fail, so
	// they fire exactly when the day is unambiguous (e.g. 14/03/2019).
	dayFirstLayouts = []string{
		"2/1/2006", "02/01/2006", "2-1-2006",
	}
)

// NormalizeDate converts a heterogeneous spreadsheet cell value into a
// canonical date string. It accepts native time values, spreadsheet serial
// numbers (as numbers or numeric text), and free-text dates. The second
// return value is false for empty, unparseable, or unsupported input.
//
// The function is pure and total; it never panics and consults no clock
// beyond the 2-digit-year pivot.
func NormalizeDate(value any) (string, bool) {
	switch v := value.(type) {
	case time.Time:
		if v.IsZero() {
			return "", false
		}
		return v.Format(CanonicalDateLayout), true
	case float64:
		return serialToDate(v)
	case float32:
		return serialToDate(float64(v))
	case int:
		return serialToDate(float64(v))
	case int64:
		return serialToDate(float64(v))
	case string:
		return normalizeTextDate(v)
	default:
		return "", false
	}
}

// serialToDate interprets a number as a day-count offset from the 1899-12-30
// epoch. The fractional time-of-day part is truncated to whole milliseconds
// and then discarded by date formatting.
func serialToDate(serial float64) (string, bool) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) {
		return "", false
	}
	// Serials outside year 1..9999 are rejected up front; the bound also
	// keeps the arithmetic exact in float64.
	const minSerial, maxSerial = -693593, 2958465
	if serial < minSerial || serial > maxSerial {
		return "", false
	}
	ms := math.Trunc(serial * millisPerDay)
	days := int(math.Floor(ms / millisPerDay))
	t := serialEpoch.AddDate(0, 0, days)
	if t.Year() < 1 || t.Year() > 9999 {
		return "", false
	}
	return t.Format(CanonicalDateLayout), true
}

// normalizeTextDate parses a free-text date. Literal '.' separators are
// rewritten to '/' first, tolerating locale punctuation like "14.03.2019".
// Numeric text is treated as a spreadsheet serial, which is how date cells
// arrive when the workbook is read with raw cell values.
func normalizeTextDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		return serialToDate(serial)
	}

	s = strings.ReplaceAll(s, ".", "/")

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(CanonicalDateLayout), true
		}
	}
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(CanonicalDateLayout), true
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t.Format(CanonicalDateLayout), true
		}
	}

	return "", false
}

// firstOfMonth truncates a wall-clock time to the first day of its calendar
// month and formats it canonically. Assignments are scoped to this value.
func firstOfMonth(t time.Time) string {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).Format(CanonicalDateLayout)
}
