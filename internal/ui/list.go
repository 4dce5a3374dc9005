package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"empdir/internal/directory"
	"empdir/internal/employee"
)

var listColumns = []table.Column{
	{Title: "Name", Width: 20},
	{Title: "Mother", Width: 14},
	{Title: "Father", Width: 14},
	{Title: "Gender", Width: 7},
	{Title: "DOB", Width: 10},
	{Title: "Country", Width: 14},
	{Title: "State", Width: 14},
	{Title: "Email", Width: 26},
	{Title: "Contact", Width: 11},
	{Title: "Photo", Width: 5},
}

func (m *model) refreshTable() {
	rows := m.sync.Rows()
	pages := directory.PageCount(len(rows), m.opts.PageSize)
	if m.page >= pages {
		m.page = pages - 1
	}
	if m.page < 0 {
		m.page = 0
	}
	m.pageRows = directory.Page(rows, m.page, m.opts.PageSize)

	out := make([]table.Row, 0, len(m.pageRows))
	for _, r := range m.pageRows {
		e := r.Employee
		out = append(out, table.Row{
			e.Name, e.MotherName, e.FatherName, string(e.Gender), displayDOB(e.DOB),
			r.CountryName, r.StateName, e.Email, e.Contact, photoMarker(e),
		})
	}
	m.table.SetRows(out)
	if m.table.Cursor() >= len(out) {
		m.table.GotoBottom()
	}
	if m.table.Cursor() < 0 && len(out) > 0 {
		m.table.GotoTop()
	}
}

func photoMarker(e employee.ViewModel) string {
	if e.ProfileBase64 == "" {
		return "no"
	}
	return "yes"
}

func (m *model) selected() (employee.ViewModel, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.pageRows) {
		return employee.ViewModel{}, false
	}
	return m.pageRows[i].Employee, true
}

func (m *model) updateList(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.searching {
			var cmd tea.Cmd
			m.search, cmd = m.search.Update(msg)
			return cmd
		}
		return nil
	}

	if m.searching {
		switch key.Type {
		case tea.KeyEnter:
			m.searching = false
			m.search.Blur()
			m.table.Focus()
			return nil
		case tea.KeyEsc:
			m.searching = false
			m.search.SetValue("")
			m.search.Blur()
			m.table.Focus()
			m.applySearch()
			return nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.applySearch()
		return cmd
	}

	switch key.String() {
	case "q":
		return tea.Quit
	case "/":
		m.searching = true
		m.table.Blur()
		return m.search.Focus()
	case "n":
		return m.openForm(nil)
	case "e", "enter":
		if emp, ok := m.selected(); ok {
			return m.openForm(&emp)
		}
		return nil
	case "d", "delete":
		if emp, ok := m.selected(); ok {
			m.pendingDelete = emp
			m.pushState(stateConfirmDelete)
		}
		return nil
	case "r":
		m.resetMessages()
		return batchCmds([]tea.Cmd{m.refresh(), m.retryLookups()})
	case "x":
		m.resetMessages()
		return m.exportRows(m.sync.Rows())
	case "right", "pgdown", "]":
		if m.page < directory.PageCount(len(m.sync.Visible()), m.opts.PageSize)-1 {
			m.page++
			m.table.GotoTop()
			m.refreshTable()
		}
		return nil
	case "left", "pgup", "[":
		if m.page > 0 {
			m.page--
			m.table.GotoTop()
			m.refreshTable()
		}
		return nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return cmd
}

func (m *model) applySearch() {
	m.sync.Search(m.search.Value())
	m.page = 0
	m.table.GotoTop()
	m.refreshTable()
}

func (m *model) retryLookups() tea.Cmd {
	if m.index != nil {
		return nil
	}
	return m.loadLookups()
}

func (m *model) updateConfirmDelete(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch key.String() {
	case "y", "Y", "enter":
		id := m.pendingDelete.ID
		m.pendingDelete = employee.ViewModel{}
		m.popState()
		m.resetMessages()
		if !m.sync.Contains(id) {
			return nil
		}
		return m.deleteEmployee(id)
	case "n", "N", "esc":
		m.pendingDelete = employee.ViewModel{}
		m.popState()
	}
	return nil
}

func (m *model) viewList() string {
	title := m.theme.Title.Render("Employee Directory")
	if m.loading() {
		title += " " + m.spinner.View()
	}
	lines := []string{title}

	if m.infoMessage != "" {
		lines = append(lines, m.theme.Notice.Render(m.infoMessage))
	}
	if m.errMessage != "" {
		lines = append(lines, m.theme.Error.Render(m.errMessage))
	}
	lines = append(lines, "")

	searchLabel := m.theme.Label
	if m.searching {
		searchLabel = m.theme.FocusLabel
	}
	lines = append(lines, searchLabel.Render("Search")+m.search.View(), "")

	visible := len(m.sync.Visible())
	switch {
	case visible > 0:
		lines = append(lines, m.table.View())
		pages := directory.PageCount(visible, m.opts.PageSize)
		lines = append(lines, m.theme.Faint.Render(fmt.Sprintf("Page %d/%d  •  %d of %d employees",
			m.page+1, pages, visible, len(m.sync.All()))))
	case m.sync.Phase() == directory.PhaseLoading:
		lines = append(lines, m.theme.Faint.Render("Loading employees..."))
	case m.sync.Phase() == directory.PhaseIdle:
		lines = append(lines, m.theme.Faint.Render("Employees are not loaded. Press r to retry."))
	case strings.TrimSpace(m.sync.Query()) != "":
		lines = append(lines, m.theme.Faint.Render(fmt.Sprintf("No employees match %q.", m.sync.Query())))
	default:
		lines = append(lines, m.theme.Faint.Render("No employees yet. Press n to add one."))
	}

	lines = append(lines, "")
	if m.searching {
		lines = append(lines, m.theme.Help("enter", "done", "esc", "clear"))
	} else {
		lines = append(lines, m.theme.Help(
			"n", "new", "e", "edit", "d", "delete", "/", "search",
			"[ ]", "page", "r", "refresh", "x", "export", "q", "quit",
		))
	}
	return strings.Join(lines, "\n") + "\n"
}

func (m *model) viewConfirmDelete() string {
	emp := m.pendingDelete
	prompt := fmt.Sprintf("Delete %s (%s)?", emp.Name, emp.Email)
	panel := m.theme.Panel.Render(m.theme.Error.Render(prompt) + "\n\n" + m.theme.Help("y", "delete", "n", "keep"))
	return m.viewList() + "\n" + panel + "\n"
}

// displayDOB renders a server date the way the form shows it.
func displayDOB(raw string) string {
	if t, ok := employee.ParseDate(raw); ok {
		return employee.FormatPickerDate(t)
	}
	return raw
}
