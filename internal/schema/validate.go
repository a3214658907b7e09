package schema

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/nconklindev/leadbook/internal/types"
	"github.com/xuri/excelize/v2"
)

const (
	msgNumber      = "Must be a valid number"
	msgNonNegative = "Must be a non-negative number"
	msgDate        = "Must be a valid date"
	msgString      = "Must be text"
)

// ValidationError is a single failed check of one cell.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// RowError collects every failed column of one sheet row.
type RowError struct {
	Row    int
	Errors []*ValidationError
}

func (e *RowError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		parts[i] = ve.Error()
	}
	return fmt.Sprintf("Row %d: %s", e.Row, strings.Join(parts, "; "))
}

// String builds a free-text column. Any string or number is accepted.
func String(key string, optional bool) Column {
	return Column{Key: key, Type: TypeString, Optional: optional, check: func(c types.Cell) string {
		if c.Kind != types.CellString && c.Kind != types.CellNumber {
			return msgString
		}
		return ""
	}}
}

// Number builds a column that must hold a finite number.
func Number(key string, optional bool) Column {
	return Column{Key: key, Type: TypeNumber, Optional: optional, check: func(c types.Cell) string {
		if _, ok := ParseNumber(c); !ok {
			return msgNumber
		}
		return ""
	}}
}

// NonNegative is a Number column that also rejects values below zero.
func NonNegative(key string, optional bool) Column {
	col := Number(key, optional)
	col.check = func(c types.Cell) string {
		n, ok := ParseNumber(c)
		if !ok {
			return msgNumber
		}
		if n < 0 {
			return msgNonNegative
		}
		return ""
	}
	return col
}

// Date builds a column that must hold a calendar date or timestamp.
func Date(key string, optional bool) Column {
	return Column{Key: key, Type: TypeDate, Optional: optional, check: func(c types.Cell) string {
		if _, ok := ParseDate(c); !ok {
			return msgDate
		}
		return ""
	}}
}

// Enum builds a column restricted to a fixed set of values.
func Enum(key string, optional bool, values ...string) Column {
	msg := "Must be one of: " + strings.Join(values, ", ")
	return Column{Key: key, Type: TypeEnum, Optional: optional, Values: values, check: func(c types.Cell) string {
		if !slices.Contains(values, strings.TrimSpace(c.String())) {
			return msg
		}
		return ""
	}}
}

// ValidateColumn classifies one cell against its column. It returns nil
// when the value is acceptable.
func ValidateColumn(value types.Cell, col Column) error {
	if blank(value) {
		if col.Optional {
			return nil
		}
		return &ValidationError{Field: col.Key, Message: col.Key + " is required"}
	}

	if col.check == nil {
		return nil
	}
	if msg := col.check(value); msg != "" {
		return &ValidationError{Field: col.Key, Value: value.String(), Message: msg}
	}
	return nil
}

// ValidateRow checks every column of row and returns a *RowError naming
// all failures, or nil. rowNum is the 1-based sheet row.
func ValidateRow(row map[string]types.Cell, rowNum int, cols []Column) error {
	var errs []*ValidationError
	for _, col := range cols {
		if err := ValidateColumn(row[col.Key], col); err != nil {
			errs = append(errs, err.(*ValidationError))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &RowError{Row: rowNum, Errors: errs}
}

// ParseNumber converts a cell to a finite float.
func ParseNumber(c types.Cell) (float64, bool) {
	var n float64
	switch c.Kind {
	case types.CellNumber:
		n = c.Number
	case types.CellString:
		v, err := strconv.ParseFloat(strings.TrimSpace(c.Text), 64)
		if err != nil {
			return 0, false
		}
		n = v
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// ParseDate converts a cell to a UTC time. Text is tried as RFC 3339
// first and then as any common layout; numbers are Excel serial dates.
func ParseDate(c types.Cell) (time.Time, bool) {
	switch c.Kind {
	case types.CellString:
		s := strings.TrimSpace(c.Text)
		if s == "" {
			return time.Time{}, false
		}
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t.UTC(), true
		}
		t, err := dateparse.ParseIn(s, time.UTC)
		if err != nil {
			return time.Time{}, false
		}
		return t.UTC(), true
	case types.CellNumber:
		if c.Number < 0 || math.IsNaN(c.Number) || math.IsInf(c.Number, 0) {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(c.Number, false)
		if err != nil {
			return time.Time{}, false
		}
		return t.UTC(), true
	default:
		return time.Time{}, false
	}
}

func blank(c types.Cell) bool {
	return c.IsEmpty() || (c.Kind == types.CellString && strings.TrimSpace(c.Text) == "")
}
