package ui

import (
	"fmt"
	"strings"

	"github.com/nconklindev/leadbook/internal/leads"
	"github.com/nconklindev/leadbook/internal/types"

	"github.com/charmbracelet/lipgloss"
)

const (
	minColumnWidth = 18
	barWidth       = 30
)

func (m Model) View() string {
	switch m.state {
	case stateLoading:
		return TitleStyle.Render("Loading leads…")
	case stateBoard:
		return m.viewBoard()
	case stateDashboard:
		return m.viewDashboard()
	case stateForm:
		return m.viewForm()
	case stateFilePicker:
		return m.viewFilePicker()
	case stateReport:
		return m.viewReport()
	case stateError:
		return m.viewError()
	}
	return ""
}

func (m Model) header() string {
	title := TitleStyle.Render("Work Pipeline")
	sub := SubtitleStyle.Render(m.store.Location())
	return lipgloss.JoinVertical(lipgloss.Left, title, sub)
}

func (m Model) footer(help string) string {
	var s strings.Builder
	if m.status != "" {
		if m.statusErr {
			s.WriteString(ErrorStyle.Render("✗ " + m.status))
		} else {
			s.WriteString(SuccessStyle.Render("✓ " + m.status))
		}
		s.WriteString("\n")
	}
	s.WriteString(HelpStyle.Render(help))
	return s.String()
}

func (m Model) viewBoard() string {
	var s strings.Builder
	s.WriteString(m.header())
	s.WriteString("\n")

	if m.searching || m.search.Value() != "" {
		s.WriteString(m.search.View())
		s.WriteString("\n\n")
	}

	width := minColumnWidth
	if m.width > 0 {
		if w := m.width/len(types.Statuses) - 4; w > width {
			width = w
		}
	}

	grouped := leads.ByStatus(m.visible())
	columns := make([]string, len(types.Statuses))
	for i, st := range types.Statuses {
		columns[i] = m.renderColumn(i, st, grouped[st], width)
	}
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, columns...))
	s.WriteString("\n")

	s.WriteString(m.footer("←/→: stage • ↑/↓: lead • [/]: move lead • n: new • x: delete • /: search • tab: dashboard • i: import • e: export copy • t: template • r: reload • q: quit"))
	return s.String()
}

func (m Model) renderColumn(idx int, status types.Status, items []types.Lead, width int) string {
	var total float64
	for _, l := range items {
		total += l.Value
	}

	var s strings.Builder
	heading := fmt.Sprintf("%s (%d)", strings.ToUpper(string(status)), len(items))
	if idx == m.col {
		s.WriteString(SelectedStyle.Render(heading))
	} else {
		s.WriteString(UnselectedStyle.Render(heading))
	}
	s.WriteString("\n")
	s.WriteString(StatLabelStyle.Render(leads.FormatValue(total)))
	s.WriteString("\n")

	for i, l := range items {
		s.WriteString("\n")
		title := truncate(l.Title, width-2)
		if idx == m.col && i == m.row {
			s.WriteString(SelectedCardStyle.Render("> " + title))
		} else {
			s.WriteString(CardStyle.Render("  " + title))
		}
		s.WriteString("\n  ")
		s.WriteString(StatLabelStyle.Render(truncate(l.Client, width-4)))
		s.WriteString("\n  ")
		s.WriteString(priorityStyle(l.Priority).Render("● " + string(l.Priority)))
		s.WriteString(" ")
		s.WriteString(StatLabelStyle.Render(leads.FormatValue(l.Value)))
		s.WriteString("\n")
	}

	style := ColumnStyle
	if idx == m.col {
		style = ActiveColumnStyle
	}
	return style.Width(width).Render(s.String())
}

func (m Model) viewDashboard() string {
	var s strings.Builder
	s.WriteString(m.header())
	s.WriteString("\n")

	visible := m.visible()
	sum := leads.Summarize(visible)
	stats := []struct{ label, value string }{
		{"Total Leads", fmt.Sprint(sum.Total)},
		{"In Progress", fmt.Sprint(sum.InProgress)},
		{"Completed", fmt.Sprint(sum.Completed)},
		{"Pipeline Value", leads.FormatValue(sum.PipelineValue)},
		{"Conversion", fmt.Sprintf("%d%%", sum.ConversionRate)},
	}
	cards := make([]string, len(stats))
	for i, st := range stats {
		cards[i] = ColumnStyle.Width(minColumnWidth).Render(
			StatLabelStyle.Render(st.label) + "\n" + StatValueStyle.Render(st.value))
	}
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	s.WriteString("\n\n")

	s.WriteString(SelectedStyle.Render("Leads by status"))
	s.WriteString("\n")
	for _, share := range leads.Shares(visible) {
		n := int(share.Percent / 100 * barWidth)
		s.WriteString(fmt.Sprintf("%-10s %s %d (%.0f%%)\n",
			share.Status, BarStyle.Render(strings.Repeat("█", n)), share.Count, share.Percent))
	}
	s.WriteString("\n")

	s.WriteString(SelectedStyle.Render("Monthly"))
	s.WriteString("\n")
	s.WriteString(StatLabelStyle.Render(fmt.Sprintf("%-10s %6s %12s %5s %8s", "Month", "Leads", "Value (K)", "Won", "Conv.")))
	s.WriteString("\n")
	for _, mo := range leads.Monthly(visible) {
		s.WriteString(fmt.Sprintf("%-10s %6d %12.0f %5d %7.1f%%\n", mo.Label, mo.Leads, mo.Value/1000, mo.Won, mo.ConversionRate))
	}

	s.WriteString(m.footer("tab: board • /: search • e: export copy • q: quit"))
	return s.String()
}

func (m Model) viewForm() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("New Lead"))
	s.WriteString("\n\n")
	for i, key := range formFields {
		label := fmt.Sprintf("%-12s", key)
		if i == m.form.active {
			s.WriteString(SelectedStyle.Render(label))
		} else {
			s.WriteString(UnselectedStyle.Render(label))
		}
		s.WriteString(" ")
		s.WriteString(m.form.inputs[i].View())
		s.WriteString("\n")
	}

	if len(m.form.errors) > 0 {
		s.WriteString("\n")
		for _, e := range m.form.errors {
			s.WriteString(ErrorStyle.Render("✗ " + e))
			s.WriteString("\n")
		}
	}

	s.WriteString(HelpStyle.Render("tab/↑/↓: field • enter: next/save • ctrl+s: save • esc: cancel"))
	return BoxStyle.Render(s.String())
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("Import Leads"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render("Select an XLSX or CSV file to import"))
	s.WriteString("\n\n")
	s.WriteString(m.filepicker.View())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("Press esc to go back"))

	return s.String()
}

func (m Model) viewReport() string {
	var s strings.Builder

	if m.statusErr {
		s.WriteString(ErrorStyle.Render("✗ Import failed"))
	} else {
		s.WriteString(SuccessStyle.Render("✓ Import finished"))
	}
	s.WriteString("\n\n")

	limit := len(m.report)
	if m.height > 0 && limit > m.height-10 {
		limit = max(m.height-10, 1)
	}
	for _, line := range m.report[:limit] {
		s.WriteString(line)
		s.WriteString("\n")
	}
	if limit < len(m.report) {
		s.WriteString(StatLabelStyle.Render(fmt.Sprintf("… and %d more (see log)", len(m.report)-limit)))
		s.WriteString("\n")
	}
	s.WriteString(HelpStyle.Render("Press any key to continue"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewError() string {
	var s strings.Builder

	s.WriteString(ErrorStyle.Render("✗ Failed to load data"))
	s.WriteString("\n\n")
	s.WriteString(m.err.Error())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("The database was left untouched. Press any key to exit"))

	return BoxStyle.Render(s.String())
}

func truncate(s string, n int) string {
	if n <= 1 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
