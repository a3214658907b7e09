package converter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nconklindev/leadbook/internal/schema"
	"github.com/nconklindev/leadbook/internal/types"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const RowDetectionLimit = 10

const (
	MediaTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	SheetLeads    = "Leads"
	SheetTemplate = "Template"
	SheetInfo     = "Column Info"

	DatabaseFile = "leads_database.xlsx"
	TemplateFile = "leads-template.xlsx"

	// TimeLayout matches the ISO-8601 form browsers emit for Date.toISOString.
	TimeLayout = "2006-01-02T15:04:05.000Z"
)

var (
	ErrUnreadable      = errors.New("file could not be read as a spreadsheet")
	ErrMissingColumns  = errors.New("missing required columns")
	ErrNoValidLeads    = errors.New("no valid leads found in the file")
	ErrUnsupportedFile = errors.New("unsupported file type")
)

// MissingColumnsError lists the required headers absent from an import.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingColumns, strings.Join(e.Columns, ", "))
}

func (e *MissingColumnsError) Unwrap() error { return ErrMissingColumns }

// Overridden in tests.
var (
	now   = time.Now
	newID = uuid.NewString
)

// Export serializes leads into a workbook with a Leads sheet and a
// Column Info sheet.
func Export(leads []types.Lead) (*types.Artifact, error) {
	return buildWorkbook(DatabaseFile, SheetLeads, leads)
}

// ExportCopy is Export under a dated default name, for backups and downloads.
func ExportCopy(leads []types.Lead) (*types.Artifact, error) {
	return buildWorkbook(CopyName(now()), SheetLeads, leads)
}

// CopyName returns the day-stamped export file name for t.
func CopyName(t time.Time) string {
	return fmt.Sprintf("leads-export-%s.xlsx", t.UTC().Format(time.DateOnly))
}

// Template returns a header-only workbook for filling in by hand.
func Template() (*types.Artifact, error) {
	return buildWorkbook(TemplateFile, SheetTemplate, nil)
}

// LeadRow maps a lead onto the schema columns, in schema order. Absent
// optional fields become empty strings.
func LeadRow(l types.Lead) []any {
	return []any{
		l.ID,
		l.Title,
		l.Client,
		l.Value,
		FormatTime(l.Date),
		string(l.Status),
		string(l.Priority),
		l.Description,
		l.Email,
		l.Phone,
		FormatTime(l.CreatedAt),
		FormatTime(l.UpdatedAt),
	}
}

// FormatTime renders t in TimeLayout, or "" for the zero time.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeLayout)
}

func buildWorkbook(name, sheet string, leads []types.Lead) (*types.Artifact, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("naming sheet %q: %w", sheet, err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	headers := toAny(schema.Headers(schema.Leads))
	if err := writeRow(f, sheet, 1, headers); err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return nil, fmt.Errorf("styling header: %w", err)
	}

	for i, lead := range leads {
		if err := writeRow(f, sheet, i+2, LeadRow(lead)); err != nil {
			return nil, err
		}
	}

	if _, err := f.NewSheet(SheetInfo); err != nil {
		return nil, fmt.Errorf("creating %q sheet: %w", SheetInfo, err)
	}
	if err := writeRow(f, SheetInfo, 1, toAny(schema.InfoHeader)); err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(SheetInfo, 1, 1, headerStyle); err != nil {
		return nil, fmt.Errorf("styling header: %w", err)
	}
	for i, info := range schema.Info(schema.Leads) {
		if err := writeRow(f, SheetInfo, i+2, toAny(info)); err != nil {
			return nil, err
		}
	}

	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}

	return &types.Artifact{
		Name:      name,
		MediaType: MediaTypeXLSX,
		Data:      buf.Bytes(),
	}, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// Import parses an xlsx workbook and rebuilds the leads on its first sheet.
// Rows that fail validation are reported in the result's Errors and left
// out of Leads; a workbook that cannot be opened or lacks required
// columns fails as a whole.
func Import(data []byte) (*types.ImportResult, error) {
	table, err := readXLSX(data)
	if err != nil {
		return nil, err
	}
	return BuildLeads(table)
}

// ImportFile reads path (.xlsx or .csv) and rebuilds its leads.
func ImportFile(path string) (*types.ImportResult, error) {
	table, err := ReadFileData(path)
	if err != nil {
		return nil, err
	}
	res, err := BuildLeads(table)
	if err != nil {
		return nil, err
	}
	res.Source = path
	return res, nil
}

// Verify turns a result in which every row failed into ErrNoValidLeads.
// An empty result with no errors is a valid empty import.
func Verify(res *types.ImportResult) error {
	if len(res.Leads) == 0 && len(res.Errors) > 0 {
		return fmt.Errorf("%w (%d rows rejected)", ErrNoValidLeads, len(res.Errors))
	}
	return nil
}

// ReadFileData reads the header and data rows of a file
func ReadFileData(filePath string) (*types.FileData, error) {
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".csv":
		return readCSVData(filePath)
	case ".xlsx":
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, err
		}
		return readXLSX(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, ext)
	}
}

func readCSVData(filePath string) (*types.FileData, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	// Excel prefixes UTF-8 CSV with a byte order mark.
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}

	headerRowIdx := findHeaderRow(records)
	table := &types.FileData{HeaderRow: headerRowIdx + 1}
	if len(records) == 0 {
		return table, nil
	}

	table.Headers = records[headerRowIdx]
	for _, record := range records[headerRowIdx+1:] {
		row := make([]types.Cell, len(record))
		for i, v := range record {
			row[i] = textCell(v)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func readXLSX(data []byte) (*types.FileData, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrUnreadable)
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	headerRowIdx := findHeaderRow(rows)
	table := &types.FileData{HeaderRow: headerRowIdx + 1}
	if len(rows) == 0 {
		return table, nil
	}

	table.Headers = rows[headerRowIdx]
	for rowIdx := headerRowIdx + 1; rowIdx < len(rows); rowIdx++ {
		row := make([]types.Cell, len(rows[rowIdx]))
		for colIdx, raw := range rows[rowIdx] {
			cell, err := typedCell(f, sheetName, colIdx+1, rowIdx+1, raw)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
			}
			row[colIdx] = cell
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// typedCell recovers whether a non-empty cell was stored as a number.
// In SpreadsheetML a cell without a type attribute is numeric.
func typedCell(f *excelize.File, sheet string, col, row int, raw string) (types.Cell, error) {
	if strings.TrimSpace(raw) == "" {
		return types.NullCell(), nil
	}

	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return types.Cell{}, err
	}
	cellType, err := f.GetCellType(sheet, name)
	if err != nil {
		return types.Cell{}, err
	}

	if cellType == excelize.CellTypeUnset || cellType == excelize.CellTypeNumber {
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return types.NumberCell(n), nil
		}
	}
	return textCell(raw), nil
}

func textCell(raw string) types.Cell {
	v := strings.TrimSpace(raw)
	if v == "" {
		return types.NullCell()
	}
	return types.StringCell(v)
}

// BuildLeads validates every data row of table and converts the good ones.
func BuildLeads(table *types.FileData) (*types.ImportResult, error) {
	if missing := schema.MissingRequired(table.Headers, schema.Leads); len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	positions := make(map[string]int, len(table.Headers))
	for i, h := range table.Headers {
		key := strings.TrimSpace(h)
		if _, seen := positions[key]; !seen {
			positions[key] = i
		}
	}

	stamp := now().UTC()
	res := &types.ImportResult{Leads: []types.Lead{}, Errors: []string{}}
	ids := make(map[string]bool, len(table.Rows))

	for i, raw := range table.Rows {
		if isBlankRow(raw) {
			continue
		}

		row := make(map[string]types.Cell, len(schema.Leads))
		for _, col := range schema.Leads {
			if pos, ok := positions[col.Key]; ok && pos < len(raw) {
				row[col.Key] = raw[pos]
			}
		}

		rowNum := table.HeaderRow + i + 1
		if err := schema.ValidateRow(row, rowNum, schema.Leads); err != nil {
			res.Errors = append(res.Errors, err.Error())
			continue
		}
		lead := toLead(row, stamp)
		// A repeated id in the same file gets a fresh one.
		if ids[lead.ID] {
			lead.ID = newID()
		}
		ids[lead.ID] = true
		res.Leads = append(res.Leads, lead)
	}

	return res, nil
}

// toLead assumes row already passed validation.
func toLead(row map[string]types.Cell, stamp time.Time) types.Lead {
	text := func(key string) string {
		return strings.TrimSpace(row[key].String())
	}

	value, _ := schema.ParseNumber(row[schema.KeyValue])
	date, _ := schema.ParseDate(row[schema.KeyDate])

	lead := types.Lead{
		ID:          text(schema.KeyID),
		Title:       text(schema.KeyTitle),
		Client:      text(schema.KeyClient),
		Value:       value,
		Date:        date,
		Status:      types.Status(text(schema.KeyStatus)),
		Priority:    types.Priority(text(schema.KeyPriority)),
		Description: text(schema.KeyDescription),
		Email:       text(schema.KeyEmail),
		Phone:       text(schema.KeyPhone),
		CreatedAt:   stamp,
		UpdatedAt:   stamp,
	}

	if lead.ID == "" {
		lead.ID = newID()
	}
	if created, ok := schema.ParseDate(row[schema.KeyCreatedAt]); ok {
		lead.CreatedAt = created
	}

	return lead
}

func isBlankRow(row []types.Cell) bool {
	for _, c := range row {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// findHeaderRow locates the header among the first rows: the row with
// the most cells naming a schema column. Falls back to the first row.
func findHeaderRow(rows [][]string) int {
	known := make(map[string]bool, len(schema.Leads))
	for _, c := range schema.Leads {
		known[c.Key] = true
	}

	maxMatches := 0
	headerIdx := 0

	searchLimit := len(rows)
	if searchLimit > RowDetectionLimit*2 {
		searchLimit = RowDetectionLimit * 2
	}

	for i := 0; i < searchLimit; i++ {
		matches := 0
		for _, cell := range rows[i] {
			if known[strings.TrimSpace(cell)] {
				matches++
			}
		}
		if matches > maxMatches {
			maxMatches = matches
			headerIdx = i
		}
	}

	return headerIdx
}
