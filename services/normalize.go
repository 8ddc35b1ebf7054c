package services

import (
	"fmt"
	"maps"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	json "github.com/goccy/go-json"
	"github.com/spf13/cast"
)

// RawRow is one spreadsheet row keyed by its header as written. Values are
// strings or float64; empty cells are omitted.
type RawRow map[string]any

// ValueKind tags the type held by a Value.
type ValueKind uint8

const (
	KindText ValueKind = iota + 1
	KindNumber
)

// Value is a present cell after normalization. Absence is represented by the
// key missing from the NormalizedRow, never by a zero Value.
type Value struct {
	Kind   ValueKind
	Text   string
	Number float64
}

// Text returns a text Value.
func Text(s string) Value { return Value{Kind: KindText, Text: s} }

// Number returns a numeric Value.
func Number(f float64) Value { return Value{Kind: KindNumber, Number: f} }

// String renders the value the way it is sent on the wire.
func (v Value) String() string {
	if v.Kind == KindNumber {
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	}
	return v.Text
}

// MarshalJSON writes numbers as JSON numbers and everything else as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Kind == KindNumber {
		return json.Marshal(v.Number)
	}
	return json.Marshal(v.Text)
}

// UnmarshalJSON accepts a JSON string or number.
func (v *Value) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = Text(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("value must be a string or number: %w", err)
	}
	*v = Number(f)
	return nil
}

// NormalizedRow maps canonical snake_case keys to present values.
type NormalizedRow map[string]Value

// Get returns the value for key and whether it is present.
func (r NormalizedRow) Get(key string) (Value, bool) {
	v, ok := r[key]
	return v, ok
}

// Str returns the wire string for key, or "" when absent.
func (r NormalizedRow) Str(key string) string {
	if v, ok := r[key]; ok {
		return v.String()
	}
	return ""
}

// DateOrder selects how slash/dash separated dates are read.
type DateOrder string

const (
	// DateOrderAuto reads the first component as the month when it is <= 12,
	// otherwise the second.
	DateOrderAuto DateOrder = "auto"
	DateOrderMDY  DateOrder = "mdy"
	DateOrderDMY  DateOrder = "dmy"
)

// excelEpochOffset is the number of days between 1899-12-30 (the
// spreadsheet serial epoch) and 1970-01-01.
const excelEpochOffset = 25569

// maxSerialDays bounds serials before conversion to seconds; anything larger
// is far outside the four-digit years a stored date can hold.
const maxSerialDays = 3e6

// byteOrderMark is written by spreadsheet "CSV UTF-8" exports before the
// first header.
const byteOrderMark = "\ufeff"

var (
	whitespaceRun  = regexp.MustCompile(`\s+`)
	slashDashDate  = regexp.MustCompile(`^\s*(\d{1,2})[/-](\d{1,2})[/-](\d{4})\b`)
	isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	// Comma grouping is accepted in thousands (1,250,000) or lakh
	// (12,50,000) form only. Anything else, e.g. a decimal comma, stays
	// unparseable.
	groupedNumber = regexp.MustCompile(`^[+-]?(\d{1,3}(,\d{3})+|\d{1,2}(,\d{2})+,\d{3})(\.\d+)?$`)
)

// CanonicalKey turns a free-form header into its snake_case key: trim,
// collapse whitespace runs to "_", lowercase. A leading byte order mark and a
// trailing "*" (the template's required marker) are dropped first.
func CanonicalKey(header string) string {
	h := strings.TrimSpace(strings.TrimPrefix(header, byteOrderMark))
	h = strings.TrimSpace(strings.TrimSuffix(h, "*"))
	return strings.ToLower(whitespaceRun.ReplaceAllString(h, "_"))
}

// Normalizer converts raw rows into the canonical key space.
type Normalizer struct {
	DateOrder DateOrder
}

// Normalize canonicalizes every key of raw and coerces numeric and date
// fields. Values that are empty or fail coercion are omitted.
//
// Headers are applied in byte order, so when two headers share a canonical
// key the one sorting last wins among those with a usable value. The sheet
// readers drop such duplicate columns before rows get here.
func (n Normalizer) Normalize(raw RawRow) NormalizedRow {
	row := make(NormalizedRow, len(raw))
	for _, header := range slices.Sorted(maps.Keys(raw)) {
		cell := raw[header]
		key := CanonicalKey(header)
		if key == "" || cell == nil {
			continue
		}

		switch {
		case IsNumericField(key):
			if f, ok := coerceNumber(cell); ok {
				row[key] = Number(f)
			}
		case IsDateField(key):
			if d, ok := n.coerceDate(cell); ok {
				row[key] = Text(d)
			}
		default:
			if s, ok := coerceText(cell); ok {
				row[key] = Text(s)
			}
		}
	}
	return row
}

func coerceText(cell any) (string, bool) {
	if f, ok := cell.(float64); ok {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", false
		}
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	s, err := cast.ToStringE(cell)
	if err != nil {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func coerceNumber(cell any) (float64, bool) {
	if s, ok := cell.(string); ok {
		s = strings.TrimSpace(s)
		if groupedNumber.MatchString(s) {
			s = strings.ReplaceAll(s, ",", "")
		}
		if s == "" {
			return 0, false
		}
		cell = s
	}
	f, err := cast.ToFloat64E(cell)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func (n Normalizer) coerceDate(cell any) (string, bool) {
	var t time.Time
	var ok bool
	switch v := cell.(type) {
	case float64:
		t, ok = serialToDate(v)
	case string:
		t, ok = n.parseDateString(v)
	default:
		return "", false
	}
	if !ok || t.Year() < 1 || t.Year() > 9999 {
		return "", false
	}
	return t.Format(time.DateOnly), true
}

// serialToDate converts a spreadsheet serial date to a UTC calendar day.
func serialToDate(serial float64) (time.Time, bool) {
	if math.IsNaN(serial) || math.Abs(serial) > maxSerialDays {
		return time.Time{}, false
	}
	secs := math.Round((serial - excelEpochOffset) * 86400)
	return time.Unix(int64(secs), 0).UTC(), true
}

func (n Normalizer) parseDateString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if m := slashDashDate.FindStringSubmatch(s); m != nil {
		first, _ := strconv.Atoi(m[1])
		second, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])

		var month, day int
		switch n.DateOrder {
		case DateOrderMDY:
			month, day = first, second
		case DateOrderDMY:
			month, day = second, first
		default:
			if first <= 12 {
				month, day = first, second
			} else {
				month, day = second, first
			}
		}
		return calendarDate(year, month, day)
	}

	if !strings.ContainsAny(s, "0123456789") {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
}

// calendarDate builds a UTC date, rejecting values time.Date would
// silently roll over (e.g. month 13, 31 February).
func calendarDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// IsISODate reports whether s has the stored YYYY-MM-DD shape.
func IsISODate(s string) bool {
	return isoDatePattern.MatchString(s)
}
