package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"empdir/internal/editor"
	"empdir/internal/employee"
	"empdir/internal/profileimage"
)

type fieldKind int

const (
	fieldText fieldKind = iota
	fieldChoice
)

type formField struct {
	key   string
	label string
	kind  fieldKind
	input textinput.Model
}

type employeeForm struct {
	session      int
	ctrl         *editor.Controller
	fields       []formField
	index        int
	issues       map[string]string
	err          string
	saving       bool
	readingImage bool
	imageInfo    string
}

func newTextInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	return ti
}

func newEmployeeForm(ctrl *editor.Controller, session int) *employeeForm {
	fields := []formField{
		{key: employee.FieldName, label: "Full name", input: newTextInput("Full name", 96)},
		{key: employee.FieldMotherName, label: "Mother's name", input: newTextInput("Mother's name", 96)},
		{key: employee.FieldFatherName, label: "Father's name", input: newTextInput("Father's name", 96)},
		{key: employee.FieldGender, label: "Gender", kind: fieldChoice},
		{key: employee.FieldDOB, label: "Date of birth", input: newTextInput("DD-MM-YYYY", 10)},
		{key: employee.FieldCountry, label: "Country", kind: fieldChoice},
		{key: employee.FieldState, label: "State", kind: fieldChoice},
		{key: employee.FieldEmail, label: "Email", input: newTextInput("name@example.com", 128)},
		{key: employee.FieldContact, label: "Contact", input: newTextInput("10 digits", 10)},
		{key: employee.FieldImage, label: "Profile image", input: newTextInput("path to image, enter to load", 256)},
	}
	f := &employeeForm{session: session, ctrl: ctrl, fields: fields, issues: map[string]string{}}

	v := ctrl.Values()
	f.setText(employee.FieldName, v.Name)
	f.setText(employee.FieldMotherName, v.MotherName)
	f.setText(employee.FieldFatherName, v.FatherName)
	f.setText(employee.FieldDOB, employee.FormatPickerDate(v.DOB))
	f.setText(employee.FieldEmail, v.Email)
	f.setText(employee.FieldContact, v.Contact)
	if stored := ctrl.StoredProfile(); stored.FileName != "" {
		f.imageInfo = "current: " + stored.FileName
	} else if stored.Base64 != "" {
		f.imageInfo = "current image kept"
	}
	return f
}

func (f *employeeForm) field(key string) *formField {
	for i := range f.fields {
		if f.fields[i].key == key {
			return &f.fields[i]
		}
	}
	return nil
}

func (f *employeeForm) setText(key, value string) {
	if fld := f.field(key); fld != nil {
		fld.input.SetValue(value)
	}
}

func (f *employeeForm) text(key string) string {
	if fld := f.field(key); fld != nil {
		return fld.input.Value()
	}
	return ""
}

func (f *employeeForm) setIssue(key, reason string) { f.issues[key] = reason }

func (f *employeeForm) clearIssue(key string) { delete(f.issues, key) }

func (f *employeeForm) current() *formField { return &f.fields[f.index] }

func (f *employeeForm) focus(i int) tea.Cmd {
	if i < 0 {
		i = len(f.fields) - 1
	}
	if i >= len(f.fields) {
		i = 0
	}
	f.current().input.Blur()
	f.index = i
	if f.current().kind == fieldText {
		return f.current().input.Focus()
	}
	return nil
}

// values collects the text inputs on top of the controller's choices.
func (f *employeeForm) values() (employee.FormValues, bool) {
	v := f.ctrl.Values()
	v.Name = f.text(employee.FieldName)
	v.MotherName = f.text(employee.FieldMotherName)
	v.FatherName = f.text(employee.FieldFatherName)
	v.Email = f.text(employee.FieldEmail)
	v.Contact = f.text(employee.FieldContact)

	raw := strings.TrimSpace(f.text(employee.FieldDOB))
	dob, ok := employee.ParsePickerDate(raw)
	v.DOB = dob
	return v, raw == "" || ok
}

func (m *model) openForm(prior *employee.ViewModel) tea.Cmd {
	m.resetMessages()
	m.formSession++

	var ctrl *editor.Controller
	if prior == nil {
		ctrl = editor.NewCreate(m.backend)
	} else {
		ctrl = editor.NewEdit(m.backend, *prior)
	}
	if m.index != nil {
		ctrl.SetLookups(m.index)
	}
	m.form = newEmployeeForm(ctrl, m.formSession)
	m.pushState(stateForm)

	cmds := []tea.Cmd{m.form.focus(0)}
	if m.index == nil {
		cmds = append(cmds, m.loadLookups())
	}
	return batchCmds(cmds)
}

func (m *model) closeForm() {
	m.form = nil
	m.popState()
}

func (m *model) updateForm(msg tea.Msg) tea.Cmd {
	f := m.form
	if f == nil {
		m.popState()
		return nil
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		if f.current().kind == fieldText {
			var cmd tea.Cmd
			f.current().input, cmd = f.current().input.Update(msg)
			return cmd
		}
		return nil
	}

	switch key.Type {
	case tea.KeyEsc:
		m.closeForm()
		return nil
	case tea.KeyCtrlS:
		return m.submitForm()
	case tea.KeyTab, tea.KeyDown:
		return f.focus(f.index + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return f.focus(f.index - 1)
	case tea.KeyEnter:
		if f.current().key == employee.FieldImage {
			path := strings.TrimSpace(f.current().input.Value())
			if path == "" {
				return m.submitForm()
			}
			f.readingImage = true
			return m.readImage(f.session, path)
		}
		return f.focus(f.index + 1)
	}

	if f.current().kind == fieldChoice {
		switch key.String() {
		case "right", "l", " ":
			m.cycleChoice(1)
		case "left", "h":
			m.cycleChoice(-1)
		}
		return nil
	}

	var cmd tea.Cmd
	f.current().input, cmd = f.current().input.Update(msg)
	return cmd
}

func (m *model) cycleChoice(step int) {
	f := m.form
	v := f.ctrl.Values()
	switch f.current().key {
	case employee.FieldGender:
		codes := make([]string, 0, len(employee.Genders))
		for _, g := range employee.Genders {
			codes = append(codes, string(g))
		}
		v.Gender = employee.Gender(nextCode(codes, string(v.Gender), step))
		f.ctrl.SetValues(v)
		f.clearIssue(employee.FieldGender)
	case employee.FieldCountry:
		countries := f.ctrl.Countries()
		if len(countries) == 0 {
			f.setIssue(employee.FieldCountry, "Countries are not loaded yet")
			return
		}
		codes := make([]string, 0, len(countries))
		for _, c := range countries {
			codes = append(codes, c.Code)
		}
		f.ctrl.SelectCountry(nextCode(codes, v.Country, step))
		f.clearIssue(employee.FieldCountry)
	case employee.FieldState:
		states := f.ctrl.States()
		if len(states) == 0 {
			f.setIssue(employee.FieldState, "Select a country first")
			return
		}
		codes := make([]string, 0, len(states))
		for _, s := range states {
			codes = append(codes, s.Code)
		}
		if err := f.ctrl.SelectState(nextCode(codes, v.State, step)); err != nil {
			f.setIssue(employee.FieldState, err.Error())
			return
		}
		f.clearIssue(employee.FieldState)
	}
}

// nextCode steps through codes from current, wrapping. An unknown current
// starts from the first or last entry.
func nextCode(codes []string, current string, step int) string {
	idx := -1
	for i, c := range codes {
		if c == current {
			idx = i
			break
		}
	}
	if idx < 0 {
		if step < 0 {
			return codes[len(codes)-1]
		}
		return codes[0]
	}
	n := len(codes)
	return codes[((idx+step)%n+n)%n]
}

func (m *model) submitForm() tea.Cmd {
	f := m.form
	if f.saving || f.readingImage {
		return nil
	}
	values, dobOK := f.values()
	payload, err := f.ctrl.Prepare(values)
	f.issues = map[string]string{}
	f.err = ""
	if err != nil {
		var verr *employee.ValidationError
		if !errors.As(err, &verr) {
			f.err = err.Error()
			return nil
		}
		for _, is := range verr.Issues {
			f.issues[is.Field] = is.Reason
		}
		if !dobOK {
			f.issues[employee.FieldDOB] = "Date must be DD-MM-YYYY"
		}
		f.err = "Please correct the highlighted fields"
		return nil
	}
	f.saving = true
	return m.saveEmployee(f.session, f.ctrl, payload)
}

func (m *model) viewForm() string {
	f := m.form
	if f == nil {
		return ""
	}
	title := "Add Employee"
	if f.ctrl.Mode() == editor.ModeEditing {
		title = "Edit Employee"
	}
	header := m.theme.Title.Render(title)
	if f.saving || f.readingImage || m.lookupsLoading {
		header += " " + m.spinner.View()
	}
	lines := []string{header, ""}

	v := f.ctrl.Values()
	ix := f.ctrl.Index()
	for i, fld := range f.fields {
		label := m.theme.Label
		if i == f.index {
			label = m.theme.FocusLabel
		}
		var value string
		switch fld.key {
		case employee.FieldGender:
			value = m.renderChoice(string(v.Gender), "Select gender", i == f.index)
		case employee.FieldCountry:
			name := ""
			if v.Country != "" {
				name = ix.CountryName(v.Country)
			}
			placeholder := "Select country"
			if !f.ctrl.LookupsLoaded() {
				placeholder = "Loading countries..."
			}
			value = m.renderChoice(name, placeholder, i == f.index)
		case employee.FieldState:
			name := ""
			if v.State != "" {
				name = ix.StateName(v.Country, v.State)
			}
			value = m.renderChoice(name, "Select state", i == f.index)
		default:
			value = fld.input.View()
		}
		lines = append(lines, label.Render(fld.label)+value)
		if fld.key == employee.FieldImage && f.imageInfo != "" {
			lines = append(lines, m.theme.Faint.Copy().PaddingLeft(17).Render(f.imageInfo))
		}
		if reason := f.issues[fld.key]; reason != "" {
			lines = append(lines, m.theme.FieldError.Render(reason))
		}
	}

	lines = append(lines, "")
	if f.err != "" {
		lines = append(lines, m.theme.Error.Render(f.err))
	}
	if f.saving {
		lines = append(lines, m.theme.Faint.Render("Saving..."))
	}
	lines = append(lines, m.theme.Help("tab", "next", "←/→", "choose", "enter", "load image", "ctrl+s", "save", "esc", "cancel"))
	return strings.Join(lines, "\n") + "\n"
}

func (m *model) renderChoice(value, placeholder string, focused bool) string {
	if value == "" {
		value = m.theme.Faint.Render(placeholder)
	} else {
		value = m.theme.Value.Render(value)
	}
	if focused {
		return m.theme.HelpKey.Render("‹ ") + value + m.theme.HelpKey.Render(" ›")
	}
	return value
}

func imageErrorText(err error) string {
	switch {
	case errors.Is(err, profileimage.ErrTooLarge):
		return "Image is too large"
	case errors.Is(err, profileimage.ErrUnsupported):
		return "Only PNG, JPEG, GIF or WebP images are allowed"
	case errors.Is(err, profileimage.ErrEmpty):
		return "Image file is empty"
	}
	return fmt.Sprintf("Could not read image: %v", err)
}
