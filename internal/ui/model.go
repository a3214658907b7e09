package ui

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/nconklindev/leadbook/internal/converter"
	"github.com/nconklindev/leadbook/internal/leads"
	"github.com/nconklindev/leadbook/internal/store"
	"github.com/nconklindev/leadbook/internal/types"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type state int

const (
	stateLoading state = iota
	stateBoard
	stateDashboard
	stateForm
	stateFilePicker
	stateReport
	stateError
)

// Options wires the model to its collaborators.
type Options struct {
	Store     store.Store
	ExportDir string
	// Watcher is optional; when set the board reloads on external edits.
	Watcher *store.Watcher
	Logger  *slog.Logger
}

type Model struct {
	state      state
	store      store.Store
	exportDir  string
	watcher    *store.Watcher
	logger     *slog.Logger
	all        []types.Lead
	search     textinput.Model
	searching  bool
	col        int
	row        int
	form       form
	filepicker filepicker.Model
	report     []string
	status     string
	statusErr  bool
	err        error
	width      int
	height     int

	// One save is in flight at a time; edits made meanwhile set dirty and
	// are written when it finishes, so the newest collection lands last.
	saving bool
	dirty  bool
}

type leadsLoadedMsg struct {
	leads   []types.Lead
	skipped []string
	err     error
}

type savedMsg struct {
	result *store.SaveResult
	err    error
}

type importedMsg struct {
	result *types.ImportResult
	err    error
}

type exportedMsg struct {
	what string
	path string
	err  error
}

type fileChangedMsg struct{}

func InitialModel(opts Options) Model {
	fp := filepicker.New()
	fp.AllowedTypes = []string{".xlsx", ".csv"}
	fp.CurrentDirectory, _ = os.Getwd()

	// Set filepicker colors to match theme
	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(accent)
	fp.Styles.Symlink = lipgloss.NewStyle().Foreground(highlight)
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(highlight)
	fp.Styles.File = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	fp.Styles.Permission = lipgloss.NewStyle().Foreground(muted)
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(accent).Bold(true)
	fp.Styles.FileSize = lipgloss.NewStyle().Foreground(muted)

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search title, client, email, status…"
	search.CharLimit = 120

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return Model{
		state:      stateLoading,
		store:      opts.Store,
		exportDir:  opts.ExportDir,
		watcher:    opts.Watcher,
		logger:     logger,
		search:     search,
		filepicker: fp,
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{loadLeads(m.store)}
	if m.watcher != nil {
		cmds = append(cmds, waitForChange(m.watcher))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		height := msg.Height - 14
		if height < 5 {
			height = 5
		}
		m.filepicker.SetHeight(height)
		return m, nil

	case leadsLoadedMsg:
		if msg.err != nil {
			m.logger.Error("Failed to load leads", slog.String("error", msg.err.Error()))
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.all = msg.leads
		m.clampCursor()
		if m.state == stateLoading {
			m.state = stateBoard
		}
		if n := len(msg.skipped); n > 0 {
			m.setStatus(fmt.Sprintf("Skipped %d invalid rows in %s; the next save drops them (see log)", n, m.store.Location()), true)
		}
		return m, nil

	case savedMsg:
		m.saving = false
		if msg.err != nil {
			m.logger.Error("Failed to save leads", slog.String("error", msg.err.Error()))
			m.setStatus("Failed to save: "+msg.err.Error(), true)
		} else {
			text := "Saved to " + msg.result.Path
			if msg.result.BackupPath != "" {
				text += " • backup " + msg.result.BackupPath
			}
			m.setStatus(text, false)
		}
		if !m.dirty {
			return m, nil
		}
		m.dirty = false
		cmd := m.save()
		return m, cmd

	case importedMsg:
		return m.handleImport(msg)

	case exportedMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("Failed to write %s: %v", msg.what, msg.err), true)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("%s written to %s", msg.what, msg.path), false)
		return m, nil

	case fileChangedMsg:
		m.setStatus("Database changed on disk, reloaded", false)
		return m, tea.Batch(loadLeads(m.store), waitForChange(m.watcher))

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.state {
		case stateBoard, stateDashboard:
			return m.updateBoard(msg)
		case stateForm:
			return m.updateForm(msg)
		case stateFilePicker:
			switch msg.String() {
			case "q", "esc":
				m.state = stateBoard
				return m, nil
			}
		case stateReport:
			m.report = nil
			m.state = stateBoard
			return m, nil
		case stateError:
			return m, tea.Quit
		}
	}

	// Handle filepicker updates
	if m.state == stateFilePicker {
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)

		if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
			m.state = stateBoard
			m.setStatus("Importing "+path+"…", false)
			return m, importFile(path)
		}
		return m, cmd
	}

	if m.state == stateForm {
		return m.updateFormInputs(msg)
	}

	return m, nil
}

func (m Model) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		switch msg.String() {
		case "enter", "esc":
			m.searching = false
			m.search.Blur()
			if msg.String() == "esc" {
				m.search.SetValue("")
			}
			m.clampCursor()
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.clampCursor()
		return m, cmd
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "tab":
		if m.state == stateBoard {
			m.state = stateDashboard
		} else {
			m.state = stateBoard
		}
	case "/":
		m.searching = true
		m.state = stateBoard
		cmd := m.search.Focus()
		return m, cmd
	case "left", "h":
		if m.col > 0 {
			m.col--
			m.clampCursor()
		}
	case "right", "l":
		if m.col < len(types.Statuses)-1 {
			m.col++
			m.clampCursor()
		}
	case "up", "k":
		if m.row > 0 {
			m.row--
		}
	case "down", "j":
		if m.row < len(m.column(m.col))-1 {
			m.row++
		}
	case "[", "shift+left":
		return m.moveSelected(-1)
	case "]", "shift+right":
		return m.moveSelected(1)
	case "x", "delete":
		lead, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.all = leads.Delete(m.all, lead.ID)
		m.clampCursor()
		m.setStatus("Lead deleted: "+lead.Title, false)
		cmd := m.save()
		return m, cmd
	case "n":
		m.form = newForm()
		m.state = stateForm
		cmd := m.form.focus(0)
		return m, cmd
	case "i":
		m.state = stateFilePicker
		return m, m.filepicker.Init()
	case "e":
		return m, exportCopy(m.all, m.exportDir)
	case "t":
		return m, writeTemplate(m.exportDir)
	case "r":
		return m, loadLeads(m.store)
	}
	return m, nil
}

// moveSelected shifts the selected lead delta stages along the pipeline
// and keeps the cursor on it.
func (m Model) moveSelected(delta int) (tea.Model, tea.Cmd) {
	lead, ok := m.selected()
	if !ok {
		return m, nil
	}
	next := m.col + delta
	if next < 0 || next >= len(types.Statuses) {
		return m, nil
	}

	status := types.Statuses[next]
	leads.SetStatus(m.all, lead.ID, status)
	m.col = next
	m.row = slices.IndexFunc(m.column(next), func(l types.Lead) bool { return l.ID == lead.ID })
	m.clampCursor()
	m.setStatus(fmt.Sprintf("%s moved to %s", lead.Title, status), false)
	cmd := m.save()
	return m, cmd
}

func (m Model) handleImport(msg importedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logger.Error("Import failed", slog.String("error", msg.err.Error()))
		var missing *converter.MissingColumnsError
		switch {
		case errors.As(msg.err, &missing):
			m.report = []string{"Missing required columns: " + strings.Join(missing.Columns, ", ")}
		case errors.Is(msg.err, converter.ErrUnreadable):
			m.report = []string{"Failed to parse file: " + msg.err.Error()}
		default:
			m.report = []string{msg.err.Error()}
		}
		m.statusErr = true
		m.state = stateReport
		return m, nil
	}

	res := msg.result
	for _, rowErr := range res.Errors {
		m.logger.Warn("Rejected import row", slog.String("source", res.Source), slog.String("error", rowErr))
	}

	if err := converter.Verify(res); err != nil {
		m.report = append([]string{err.Error()}, res.Errors...)
		m.statusErr = true
		m.state = stateReport
		return m, nil
	}

	m.all = leads.Merge(m.all, res.Leads)
	m.clampCursor()
	m.logger.Info("Imported leads", slog.String("source", res.Source), slog.Int("count", len(res.Leads)), slog.Int("errors", len(res.Errors)))

	if len(res.Errors) > 0 {
		m.report = append([]string{fmt.Sprintf("Imported %d leads with %d errors", len(res.Leads), len(res.Errors))}, res.Errors...)
		m.statusErr = false
		m.state = stateReport
	} else {
		m.setStatus(fmt.Sprintf("Successfully imported %d leads", len(res.Leads)), false)
	}
	cmd := m.save()
	return m, cmd
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func (m Model) visible() []types.Lead {
	return leads.Filter(m.all, m.search.Value())
}

func (m Model) column(col int) []types.Lead {
	return leads.ByStatus(m.visible())[types.Statuses[col]]
}

func (m Model) selected() (types.Lead, bool) {
	col := m.column(m.col)
	if m.row < 0 || m.row >= len(col) {
		return types.Lead{}, false
	}
	return col[m.row], true
}

func (m *Model) clampCursor() {
	n := len(m.column(m.col))
	if m.row >= n {
		m.row = n - 1
	}
	if m.row < 0 {
		m.row = 0
	}
}

// save writes the collection, or marks it dirty while a save is running.
func (m *Model) save() tea.Cmd {
	if m.saving {
		m.dirty = true
		return nil
	}
	m.saving = true
	return saveLeads(m.store, m.all)
}

func loadLeads(s store.Store) tea.Cmd {
	return func() tea.Msg {
		all, err := s.Load()
		msg := leadsLoadedMsg{leads: all, err: err}
		if sr, ok := s.(store.SkipReporter); ok && err == nil {
			msg.skipped = sr.Skipped()
		}
		return msg
	}
}

// saveLeads persists a snapshot so later edits cannot race the write.
func saveLeads(s store.Store, all []types.Lead) tea.Cmd {
	snapshot := slices.Clone(all)
	return func() tea.Msg {
		res, err := s.Save(snapshot)
		return savedMsg{result: res, err: err}
	}
}

func importFile(path string) tea.Cmd {
	return func() tea.Msg {
		res, err := converter.ImportFile(path)
		return importedMsg{result: res, err: err}
	}
}

func exportCopy(all []types.Lead, dir string) tea.Cmd {
	snapshot := slices.Clone(all)
	return func() tea.Msg {
		art, err := converter.ExportCopy(snapshot)
		if err != nil {
			return exportedMsg{what: "Export", err: err}
		}
		path, err := store.WriteArtifact(dir, art)
		return exportedMsg{what: "Export", path: path, err: err}
	}
}

func writeTemplate(dir string) tea.Cmd {
	return func() tea.Msg {
		art, err := converter.Template()
		if err != nil {
			return exportedMsg{what: "Template", err: err}
		}
		path, err := store.WriteArtifact(dir, art)
		return exportedMsg{what: "Template", path: path, err: err}
	}
}

func waitForChange(w *store.Watcher) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-w.Changes(); !ok {
			return nil
		}
		return fileChangedMsg{}
	}
}
