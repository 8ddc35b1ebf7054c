package services

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ValidationError represents a single field-level error on one row.
type ValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// String renders the error as one report line: "Row N: message".
func (e ValidationError) String() string {
	return fmt.Sprintf("Row %d: %s", e.Row, e.Message)
}

// RowValidation is the outcome of validating one row.
type RowValidation struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors"`
}

// FieldLabel turns a canonical key into a human-readable name:
// "rider1_sum_assured" -> "Rider1 Sum Assured".
func FieldLabel(key string) string {
	// Casers keep state between calls, so each call gets its own.
	return cases.Title(language.English).String(strings.ReplaceAll(key, "_", " "))
}

// RowValidator applies the order field schema to normalized rows.
type RowValidator struct {
	// AllowZeroAmounts makes a numeric 0 count as filled. Off by default:
	// a zero premium or sum assured is treated as missing.
	AllowZeroAmounts bool
}

// IsFilled reports whether key holds a provided value: text that is not
// blank, or a number that is not NaN and (unless AllowZeroAmounts) not zero.
func (v RowValidator) IsFilled(row NormalizedRow, key string) bool {
	val, ok := row[key]
	if !ok {
		return false
	}
	switch val.Kind {
	case KindNumber:
		if math.IsNaN(val.Number) {
			return false
		}
		return val.Number != 0 || v.AllowZeroAmounts
	case KindText:
		return strings.TrimSpace(val.Text) != ""
	default:
		return false
	}
}

// Validate checks one row. rowIndex is the 0-based position in the upload;
// errors carry the 1-based row number. Checks run in a fixed order: core
// fields, numbers, dates, riders, spouses, kids.
func (v RowValidator) Validate(row NormalizedRow, rowIndex int) RowValidation {
	rowNum := rowIndex + 1
	var errs []ValidationError

	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{
			Row:     rowNum,
			Field:   field,
			Message: fmt.Sprintf(format, args...),
		})
	}

	for _, key := range CoreKeys {
		if !v.IsFilled(row, key) {
			label := FieldLabel(key)
			add(label, "%s is required", label)
		}
	}

	for _, key := range NumericFields {
		val, ok := row[key]
		if !ok || val.Kind == KindNumber {
			continue
		}
		if _, ok := coerceNumber(val.Text); !ok {
			label := FieldLabel(key)
			add(label, "%s must be a valid number", label)
		}
	}

	for _, key := range DateFields {
		val, ok := row[key]
		if !ok {
			continue
		}
		if val.Kind != KindText || !IsISODate(val.Text) {
			label := FieldLabel(key)
			add(label, "%s must be a valid date (YYYY-MM-DD)", label)
		}
	}

	for _, r := range RiderGroups {
		covered := v.IsFilled(row, r.CoveredField)
		sum := v.IsFilled(row, r.SumAssuredField)
		switch {
		case covered && !sum:
			label := FieldLabel(r.SumAssuredField)
			add(label, "%s is required when %s is provided", label, FieldLabel(r.CoveredField))
		case sum && !covered:
			label := FieldLabel(r.CoveredField)
			add(label, "%s is required when %s is provided", label, FieldLabel(r.SumAssuredField))
		}
	}

	for _, g := range SpouseGroups {
		if e, ok := v.checkGroup(row, rowNum, g); ok {
			errs = append(errs, e)
		}
	}
	for _, g := range KidGroups {
		if e, ok := v.checkGroup(row, rowNum, g); ok {
			errs = append(errs, e)
		}
	}

	return RowValidation{Valid: len(errs) == 0, Errors: errs}
}

// checkGroup reports the missing required fields of a beneficiary slot once
// any of the slot's fields is filled. The first filled field in declaration
// order is named as the trigger.
func (v RowValidator) checkGroup(row NormalizedRow, rowNum int, g BeneficiaryGroup) (ValidationError, bool) {
	trigger := ""
	for _, key := range g.Fields {
		if v.IsFilled(row, key) {
			trigger = key
			break
		}
	}
	if trigger == "" {
		return ValidationError{}, false
	}

	var missing []string
	for _, key := range g.Required {
		if !v.IsFilled(row, key) {
			missing = append(missing, FieldLabel(key))
		}
	}
	if len(missing) == 0 {
		return ValidationError{}, false
	}

	verb := "are"
	if len(missing) == 1 {
		verb = "is"
	}
	return ValidationError{
		Row:   rowNum,
		Field: FieldLabel(g.Slot),
		Message: fmt.Sprintf("%s %s required because %s is provided",
			strings.Join(missing, ", "), verb, FieldLabel(trigger)),
	}, true
}

// FormatErrorReport joins errors into the newline-separated report shown to
// the uploader.
func FormatErrorReport(errs []ValidationError) string {
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = e.String()
	}
	return strings.Join(lines, "\n")
}
