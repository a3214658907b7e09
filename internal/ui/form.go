package ui

import (
	"slices"
	"strings"
	"time"

	"github.com/nconklindev/leadbook/internal/leads"
	"github.com/nconklindev/leadbook/internal/schema"
	"github.com/nconklindev/leadbook/internal/types"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// formFields are the schema columns the add-lead form asks for.
var formFields = []string{
	schema.KeyTitle,
	schema.KeyClient,
	schema.KeyValue,
	schema.KeyDate,
	schema.KeyStatus,
	schema.KeyPriority,
	schema.KeyEmail,
	schema.KeyPhone,
	schema.KeyDescription,
}

type form struct {
	inputs []textinput.Model
	active int
	errors []string
}

func newForm() form {
	f := form{inputs: make([]textinput.Model, len(formFields))}
	for i, key := range formFields {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 200
		in.Width = 40
		switch key {
		case schema.KeyDate:
			in.SetValue(time.Now().Format(time.DateOnly))
		case schema.KeyStatus:
			in.SetValue(string(types.StatusNew))
			in.Placeholder = statusHint()
		case schema.KeyPriority:
			in.SetValue(string(types.PriorityMedium))
			in.Placeholder = "high, medium or low"
		case schema.KeyValue:
			in.Placeholder = "0"
		}
		f.inputs[i] = in
	}
	return f
}

func statusHint() string {
	names := make([]string, len(types.Statuses))
	for i, st := range types.Statuses {
		names[i] = string(st)
	}
	return strings.Join(names, ", ")
}

func (f *form) focus(i int) tea.Cmd {
	for j := range f.inputs {
		f.inputs[j].Blur()
	}
	f.active = (i + len(f.inputs)) % len(f.inputs)
	return f.inputs[f.active].Focus()
}

// row maps the inputs onto schema keys.
func (f form) row() map[string]types.Cell {
	row := make(map[string]types.Cell, len(formFields))
	for i, key := range formFields {
		v := strings.TrimSpace(f.inputs[i].Value())
		if v == "" {
			row[key] = types.NullCell()
			continue
		}
		row[key] = types.StringCell(v)
	}
	return row
}

// lead validates the inputs with the lead schema and builds the lead.
func (f form) lead() (types.Lead, []string) {
	row := f.row()
	if err := schema.ValidateRow(row, 0, schema.Leads); err != nil {
		rowErr := err.(*schema.RowError)
		msgs := make([]string, len(rowErr.Errors))
		for i, ve := range rowErr.Errors {
			msgs[i] = ve.Error()
		}
		return types.Lead{}, msgs
	}

	value, _ := schema.ParseNumber(row[schema.KeyValue])
	date, _ := schema.ParseDate(row[schema.KeyDate])
	return types.Lead{
		Title:       row[schema.KeyTitle].String(),
		Client:      row[schema.KeyClient].String(),
		Value:       value,
		Date:        date,
		Status:      types.Status(row[schema.KeyStatus].String()),
		Priority:    types.Priority(row[schema.KeyPriority].String()),
		Email:       row[schema.KeyEmail].String(),
		Phone:       row[schema.KeyPhone].String(),
		Description: row[schema.KeyDescription].String(),
	}, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.state = stateBoard
		return m, nil
	case "tab", "down":
		cmd := m.form.focus(m.form.active + 1)
		return m, cmd
	case "shift+tab", "up":
		cmd := m.form.focus(m.form.active - 1)
		return m, cmd
	case "enter", "ctrl+s":
		if msg.String() == "enter" && m.form.active < len(m.form.inputs)-1 {
			cmd := m.form.focus(m.form.active + 1)
			return m, cmd
		}
		lead, errs := m.form.lead()
		if len(errs) > 0 {
			m.form.errors = errs
			return m, nil
		}
		var added types.Lead
		m.all, added = leads.Add(m.all, lead)
		m.col, m.row = max(slices.Index(types.Statuses, added.Status), 0), 0
		m.clampCursor()
		m.state = stateBoard
		m.setStatus("Lead added successfully: "+added.Title, false)
		cmd := m.save()
		return m, cmd
	}
	return m.updateFormInputs(msg)
}

func (m Model) updateFormInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.form.inputs[m.form.active], cmd = m.form.inputs[m.form.active].Update(msg)
	return m, cmd
}
