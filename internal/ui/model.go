package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"empdir/internal/api"
	"empdir/internal/directory"
	"empdir/internal/editor"
	"empdir/internal/employee"
	"empdir/internal/export"
	"empdir/internal/logging"
	"empdir/internal/lookup"
	"empdir/internal/profileimage"
	"empdir/internal/theme"
)

// Backend is the remote side the UI talks to. *api.Service satisfies it.
type Backend interface {
	lookup.Source
	directory.Source
	editor.Writer
	InFlight() bool
}

var _ Backend = (*api.Service)(nil)

// Options tune the session.
type Options struct {
	// PageSize is the number of rows shown per page.
	PageSize int
	// Image controls how chosen profile images are read.
	Image profileimage.Options
	// ExportDir receives spreadsheet exports; the working directory when empty.
	ExportDir string
}

// Program wraps the Bubble Tea program lifecycle.
type Program struct {
	program *tea.Program
}

// NewProgram constructs a new interactive directory session.
func NewProgram(ctx context.Context, backend Backend, opts Options, log logrus.FieldLogger) *Program {
	m := newModel(ctx, backend, opts, log)
	return &Program{program: tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))}
}

// Start launches the Bubble Tea program and blocks until it exits.
func (p *Program) Start() error {
	if p == nil || p.program == nil {
		return fmt.Errorf("nil program")
	}
	_, err := p.program.Run()
	return err
}

type viewState int

const (
	stateList viewState = iota
	stateForm
	stateConfirmDelete
)

type model struct {
	ctx     context.Context
	backend Backend
	log     logrus.FieldLogger
	opts    Options
	theme   theme.Theme

	state       viewState
	prevStates  []viewState
	width       int
	height      int
	infoMessage string
	errMessage  string

	index          *lookup.Index
	lookupsLoading bool

	sync      *directory.Synchronizer
	search    textinput.Model
	searching bool
	table     table.Model
	page      int
	pageRows  []directory.Row
	spinner   spinner.Model

	pendingDelete employee.ViewModel

	form        *employeeForm
	formSession int
}

// Results of the commands. Each carries what it needs to be applied in Update.
type (
	lookupsLoadedMsg struct {
		index *lookup.Index
		err   error
	}
	employeesLoadedMsg struct {
		raws []api.RawEmployee
		err  error
	}
	employeeDeletedMsg struct {
		id  string
		err error
	}
	employeeSavedMsg struct {
		session int
		err     error
	}
	imageReadMsg struct {
		session int
		image   profileimage.Image
		err     error
	}
	exportedMsg struct {
		path string
		rows int
		err  error
	}
)

func newModel(ctx context.Context, backend Backend, opts Options, log logrus.FieldLogger) *model {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		log = logging.Nop()
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 10
	}
	th := theme.Default()

	search := textinput.New()
	search.Prompt = ""
	search.Placeholder = "name, email, contact, country or state"
	search.CharLimit = 64

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = th.Subtitle

	tbl := table.New(
		table.WithColumns(listColumns),
		table.WithHeight(opts.PageSize),
		table.WithFocused(true),
		table.WithStyles(th.Table),
	)

	return &model{
		ctx:     ctx,
		backend: backend,
		log:     log,
		opts:    opts,
		theme:   th,
		state:   stateList,
		sync:    directory.New(backend, nil),
		search:  search,
		table:   tbl,
		spinner: sp,
	}
}

func (m *model) Init() tea.Cmd {
	return batchCmds([]tea.Cmd{m.spinner.Tick, m.loadLookups(), m.refresh()})
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case lookupsLoadedMsg:
		m.applyLookups(msg)
		return m, nil
	case employeesLoadedMsg:
		m.applyEmployees(msg)
		return m, nil
	case employeeDeletedMsg:
		m.applyDelete(msg)
		return m, nil
	case employeeSavedMsg:
		return m, m.applySave(msg)
	case imageReadMsg:
		m.applyImage(msg)
		return m, nil
	case exportedMsg:
		if msg.err != nil {
			m.errMessage = fmt.Sprintf("Export failed: %v", msg.err)
		} else {
			m.infoMessage = fmt.Sprintf("Exported %d employees to %s", msg.rows, msg.path)
		}
		return m, nil
	}

	var cmd tea.Cmd
	switch m.state {
	case stateList:
		cmd = m.updateList(msg)
	case stateForm:
		cmd = m.updateForm(msg)
	case stateConfirmDelete:
		cmd = m.updateConfirmDelete(msg)
	default:
		m.state = stateList
		cmd = m.updateList(msg)
	}
	return m, cmd
}

func (m *model) View() string {
	switch m.state {
	case stateList:
		return m.viewList()
	case stateForm:
		return m.viewForm()
	case stateConfirmDelete:
		return m.viewConfirmDelete()
	default:
		return ""
	}
}

// Navigation helpers
func (m *model) pushState(next viewState) {
	m.prevStates = append(m.prevStates, m.state)
	m.state = next
}

func (m *model) popState() {
	if len(m.prevStates) == 0 {
		m.state = stateList
		return
	}
	idx := len(m.prevStates) - 1
	m.state = m.prevStates[idx]
	m.prevStates = m.prevStates[:idx]
}

func (m *model) resetMessages() {
	m.errMessage = ""
	m.infoMessage = ""
}

func (m *model) loading() bool {
	return m.lookupsLoading || m.sync.Phase() == directory.PhaseLoading || m.backend.InFlight()
}

// Commands. They capture what they need up front and never touch the model.

func (m *model) loadLookups() tea.Cmd {
	if m.lookupsLoading {
		return nil
	}
	m.lookupsLoading = true
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		ix, err := lookup.Load(ctx, backend)
		return lookupsLoadedMsg{index: ix, err: err}
	}
}

func (m *model) refresh() tea.Cmd {
	m.sync.BeginRefresh()
	ctx, sync := m.ctx, m.sync
	return func() tea.Msg {
		raws, err := sync.Fetch(ctx)
		return employeesLoadedMsg{raws: raws, err: err}
	}
}

func (m *model) deleteEmployee(id string) tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		return employeeDeletedMsg{id: id, err: backend.DeleteEmployee(ctx, id)}
	}
}

func (m *model) saveEmployee(session int, ctrl *editor.Controller, payload api.WritePayload) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return employeeSavedMsg{session: session, err: ctrl.Save(ctx, payload)}
	}
}

func (m *model) readImage(session int, raw string) tea.Cmd {
	opts := m.opts.Image
	return func() tea.Msg {
		path, err := expandPath(raw)
		if err != nil {
			return imageReadMsg{session: session, err: err}
		}
		img, err := profileimage.ReadFile(path, opts)
		return imageReadMsg{session: session, image: img, err: err}
	}
}

func (m *model) exportRows(rows []directory.Row) tea.Cmd {
	dir := m.opts.ExportDir
	return func() tea.Msg {
		name := fmt.Sprintf("employees-%s.xlsx", time.Now().Format("20060102-150405"))
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			return exportedMsg{err: err}
		}
		if err := export.WriteXLSX(f, rows); err != nil {
			f.Close()
			return exportedMsg{err: err}
		}
		if err := f.Close(); err != nil {
			return exportedMsg{err: err}
		}
		return exportedMsg{path: path, rows: len(rows)}
	}
}

// Result handlers. All model mutation for command results happens here.

func (m *model) applyLookups(msg lookupsLoadedMsg) {
	m.lookupsLoading = false
	if msg.err != nil {
		m.log.WithError(msg.err).Warn("lookups unavailable")
		m.errMessage = fmt.Sprintf("Could not load countries and states: %v", msg.err)
		return
	}
	m.index = msg.index
	m.sync.SetIndex(msg.index)
	if m.form != nil {
		m.form.ctrl.SetLookups(msg.index)
	}
	m.refreshTable()
}

func (m *model) applyEmployees(msg employeesLoadedMsg) {
	if err := m.sync.FinishRefresh(msg.raws, msg.err); err != nil {
		m.log.WithError(err).Warn("refresh failed")
		m.errMessage = fmt.Sprintf("Could not load employees: %v", msg.err)
		return
	}
	m.search.SetValue("")
	m.page = 0
	m.refreshTable()
}

func (m *model) applyDelete(msg employeeDeletedMsg) {
	if msg.err != nil {
		m.log.WithError(msg.err).WithField("id", msg.id).Warn("delete failed")
		m.errMessage = fmt.Sprintf("Could not delete employee: %v", msg.err)
		return
	}
	m.sync.Remove(msg.id)
	m.infoMessage = "Employee deleted successfully"
	m.refreshTable()
}

func (m *model) applySave(msg employeeSavedMsg) tea.Cmd {
	if m.form == nil || m.form.session != msg.session {
		m.log.WithField("session", msg.session).Debug("discarding save result for a closed form")
		return nil
	}
	m.form.saving = false
	res, err := m.form.ctrl.Complete(msg.err)
	if err != nil {
		m.log.WithError(err).Warn("save failed")
		m.form.err = err.Error()
		return nil
	}
	m.form = nil
	m.popState()
	m.resetMessages()
	m.infoMessage = res.Notice
	return m.refresh()
}

func (m *model) applyImage(msg imageReadMsg) {
	if m.form == nil || m.form.session != msg.session {
		return
	}
	m.form.readingImage = false
	if msg.err != nil {
		m.form.setIssue(employee.FieldImage, imageErrorText(msg.err))
		return
	}
	m.form.ctrl.SetImage(employee.Upload{FileName: msg.image.FileName, Base64: msg.image.Base64})
	m.form.clearIssue(employee.FieldImage)
	m.form.imageInfo = fmt.Sprintf("%s (%dx%d, %s)", msg.image.FileName, msg.image.Width, msg.image.Height, msg.image.MIME)
}
