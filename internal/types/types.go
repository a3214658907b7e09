package types

import (
	"strconv"
	"time"
)

type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusQualified Status = "qualified"
	StatusProposal  Status = "proposal"
	StatusWon       Status = "won"
)

// Statuses lists the pipeline stages in board order.
var Statuses = []Status{StatusNew, StatusContacted, StatusQualified, StatusProposal, StatusWon}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// Lead is a single tracked sales opportunity.
type Lead struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Client      string    `json:"client"`
	Value       float64   `json:"value"`
	Date        time.Time `json:"date"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	Description string    `json:"description,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Artifact is a serialized workbook ready to be written or downloaded.
type Artifact struct {
	Name      string
	MediaType string
	Data      []byte
}

// ImportResult holds the leads recovered from an artifact together with
// the row errors of every row that was rejected.
type ImportResult struct {
	Source string
	Leads  []Lead
	Errors []string
}

// FileData is a parsed table: the header row and every row below it.
// HeaderRow is the 1-based sheet row number of the header.
type FileData struct {
	Headers   []string
	Rows      [][]Cell
	HeaderRow int
}

type CellKind int

const (
	CellNull CellKind = iota
	CellString
	CellNumber
)

// Cell is one raw value read from a sheet, before validation.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
}

func NullCell() Cell { return Cell{Kind: CellNull} }

func StringCell(s string) Cell { return Cell{Kind: CellString, Text: s} }

func NumberCell(n float64) Cell { return Cell{Kind: CellNumber, Number: n} }

// IsEmpty reports whether the cell carries no value at all.
func (c Cell) IsEmpty() bool {
	return c.Kind == CellNull || (c.Kind == CellString && c.Text == "")
}

// String renders the cell as text. Numbers use the shortest
// representation that round-trips.
func (c Cell) String() string {
	switch c.Kind {
	case CellString:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	default:
		return ""
	}
}
