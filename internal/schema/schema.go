// Package schema defines the canonical lead columns and validates raw
// sheet cells against them.
//
// Each column is built by a per-type constructor (String, Number,
// NonNegative, Date, Enum) that attaches the check for that type, so the
// validator never has to inspect values reflectively. A Column with an
// unrecognised Type and no check is accepted as-is.
package schema

import (
	"strings"

	"github.com/nconklindev/leadbook/internal/types"
)

type Type string

const (
	TypeString Type = "string"
	TypeNumber Type = "number"
	TypeDate   Type = "date"
	TypeEnum   Type = "enum"
)

// Column keys, in sheet order.
const (
	KeyID          = "ID"
	KeyTitle       = "Title"
	KeyClient      = "Client"
	KeyValue       = "Value"
	KeyDate        = "Date"
	KeyStatus      = "Status"
	KeyPriority    = "Priority"
	KeyDescription = "Description"
	KeyEmail       = "Email"
	KeyPhone       = "Phone"
	KeyCreatedAt   = "Created At"
	KeyUpdatedAt   = "Updated At"
)

// Column describes one column of the lead sheet.
type Column struct {
	Key      string
	Type     Type
	Optional bool
	Values   []string

	check func(types.Cell) string
}

// Leads is the fixed lead schema. It is never mutated at runtime.
var Leads = []Column{
	String(KeyID, true),
	String(KeyTitle, false),
	String(KeyClient, false),
	NonNegative(KeyValue, false),
	Date(KeyDate, false),
	Enum(KeyStatus, false, statusValues()...),
	Enum(KeyPriority, false, priorityValues()...),
	String(KeyDescription, true),
	String(KeyEmail, true),
	String(KeyPhone, true),
	Date(KeyCreatedAt, true),
	Date(KeyUpdatedAt, true),
}

func statusValues() []string {
	out := make([]string, len(types.Statuses))
	for i, s := range types.Statuses {
		out[i] = string(s)
	}
	return out
}

func priorityValues() []string {
	out := make([]string, len(types.Priorities))
	for i, p := range types.Priorities {
		out[i] = string(p)
	}
	return out
}

// Headers returns the column keys in schema order.
func Headers(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Key
	}
	return out
}

// MissingRequired returns the keys of required columns absent from headers.
func MissingRequired(headers []string, cols []Column) []string {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[strings.TrimSpace(h)] = true
	}

	var missing []string
	for _, c := range cols {
		if !c.Optional && !present[c.Key] {
			missing = append(missing, c.Key)
		}
	}
	return missing
}

// InfoHeader is the header row of the Column Info sheet.
var InfoHeader = []string{"Column", "Type", "Required", "Valid Values"}

// Info describes each column for a human editing the workbook.
func Info(cols []Column) [][]string {
	rows := make([][]string, 0, len(cols))
	for _, c := range cols {
		required := "Yes"
		if c.Optional {
			required = "No"
		}
		rows = append(rows, []string{c.Key, string(c.Type), required, strings.Join(c.Values, ", ")})
	}
	return rows
}
