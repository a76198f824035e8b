package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nconklindev/leadmap/internal/config"
	"github.com/nconklindev/leadmap/internal/leads"
	"github.com/nconklindev/leadmap/internal/logging"
	"github.com/nconklindev/leadmap/internal/mapper"
	"github.com/nconklindev/leadmap/internal/sheet"
	"github.com/nconklindev/leadmap/internal/types"
	"github.com/nconklindev/leadmap/internal/upload"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type state int

const (
	stateFilePicker state = iota
	stateMapping
	statePreview
	stateExporting
	stateComplete
	stateError
)

// Uploader sends the original spreadsheet to the backend once it is exported.
type Uploader interface {
	UploadFile(ctx context.Context, path string) (*upload.Result, error)
}

type Options struct {
	Config   *config.Config
	Logger   *zap.Logger
	Uploader Uploader // nil disables uploads
	Dir      string   // starting directory for the file picker
}

type Model struct {
	state        state
	cfg          *config.Config
	logger       *zap.Logger
	importLog    *zap.Logger
	uploader     Uploader
	filepicker   filepicker.Model
	selectedFile string
	fileData     *types.FileData
	mapping      mapper.Mapping
	cursor       int
	records      []types.Lead
	visible      []types.Lead
	filter       leads.Filter
	teams        []string
	statuses     []string
	search       textinput.Model
	table        table.Model
	outcome      *exportResultMsg
	err          error
	width        int
	height       int
	progress     progress.Model
	progressChan chan float64
	resultChan   chan exportResultMsg
}

type exportResultMsg struct {
	result    *types.ExportResult
	upload    *upload.Result
	uploadErr error
	err       error
}

type fileLoadedMsg struct {
	data *types.FileData
	err  error
}

type exportCompleteMsg exportResultMsg

type progressMsg float64

type waitForProgressMsg struct{}

func InitialModel(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	fp := filepicker.New()
	fp.AllowedTypes = sheet.AllowedTypes
	fp.CurrentDirectory = opts.Dir
	if fp.CurrentDirectory == "" {
		fp.CurrentDirectory, _ = os.Getwd()
	}

	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(accent)
	fp.Styles.Symlink = lipgloss.NewStyle().Foreground(highlight)
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(highlight)
	fp.Styles.File = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	fp.Styles.Permission = lipgloss.NewStyle().Foreground(muted)
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(accent).Bold(true)
	fp.Styles.FileSize = lipgloss.NewStyle().Foreground(muted)

	search := textinput.New()
	search.Placeholder = "search name, email, phone, team, status"
	search.Prompt = "/ "
	search.CharLimit = 64

	t := table.New(
		table.WithColumns(previewColumns()),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(tableStyles())

	return Model{
		state:      stateFilePicker,
		cfg:        cfg,
		logger:     logger,
		importLog:  logger,
		uploader:   opts.Uploader,
		filepicker: fp,
		mapping:    mapper.NewMapping(),
		search:     search,
		table:      t,
		progress:   progress.New(progress.WithGradient("#2EC4B6", "#7BDFF2")),
	}
}

func (m Model) Init() tea.Cmd {
	return m.filepicker.Init()
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
		m.table.SetHeight(height)

		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case stateFilePicker:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			}

		case stateMapping:
			return m.updateMapping(msg)

		case statePreview:
			return m.updatePreview(msg)

		case stateExporting:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}

		case stateComplete, stateError:
			return m, tea.Quit
		}

	case fileLoadedMsg:
		if msg.err != nil {
			m.logger.Warn("file rejected", zap.String("file", m.selectedFile), zap.Error(msg.err))
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.fileData = msg.data
		m.importLog, _ = logging.ForImport(m.logger, filepath.Base(m.selectedFile))
		m.importLog.Info("file loaded",
			zap.Int("columns", len(msg.data.Headers)),
			zap.Int("rows", len(msg.data.Rows)))

		m.mapping = mapper.Infer(msg.data.Headers, msg.data.Rows)
		m.importLog.Info("column mapping detected", logging.Mapping(msg.data.Headers, m.mapping))

		m.cursor = 0
		m.state = stateMapping
		return m, nil

	case exportCompleteMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		outcome := exportResultMsg(msg)
		m.outcome = &outcome
		m.state = stateComplete
		return m, nil

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case progressMsg:
		if m.state == stateExporting {
			cmd := m.progress.SetPercent(float64(msg))
			return m, tea.Batch(cmd, waitForProgress(m.progressChan, m.resultChan))
		}
		return m, nil

	case waitForProgressMsg:
		return m, waitForProgress(m.progressChan, m.resultChan)
	}

	if m.state == stateFilePicker {
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)

		if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
			m.selectedFile = path
			return m, m.loadFile(path)
		}

		return m, cmd
	}

	if m.state == statePreview && m.search.Focused() {
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) updateMapping(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	fields := mapper.Fields()

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(fields)-1 {
			m.cursor++
		}
	case "left", "h":
		m.shiftColumn(-1)
	case "right", "l":
		m.shiftColumn(1)
	case "u", "backspace":
		m.mapping.Assign(fields[m.cursor], mapper.Unmapped)
		m.importLog.Debug("field unmapped", zap.Stringer("field", fields[m.cursor]))
	case "r":
		m.mapping = mapper.Infer(m.fileData.Headers, m.fileData.Rows)
		m.importLog.Debug("mapping reset")
	case "enter":
		m.importLog.Info("mapping confirmed", logging.Mapping(m.fileData.Headers, m.mapping))
		m.buildPreview()
		m.state = statePreview
	}
	return m, nil
}

// shiftColumn moves the field under the cursor through "unmapped" and every
// column, wrapping at both ends.
func (m *Model) shiftColumn(delta int) {
	f := mapper.Fields()[m.cursor]
	slots := len(m.fileData.Headers) + 1

	col, _ := m.mapping.Column(f)
	next := ((col+1+delta)%slots+slots)%slots - 1

	m.mapping.Assign(f, next)
	m.importLog.Debug("field reassigned", zap.Stringer("field", f), zap.Int("column", next))
}

func (m Model) updatePreview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.search.Focused() {
		switch msg.String() {
		case "enter", "esc":
			m.search.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.filter.Search = m.search.Value()
		m.refreshTable()
		return m, cmd
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "/":
		return m, m.search.Focus()
	case "t":
		m.filter.Team = leads.Next(m.teams, m.filter.Team)
		m.refreshTable()
	case "s":
		m.filter.Status = leads.Next(m.statuses, m.filter.Status)
		m.refreshTable()
	case "c":
		m.filter = leads.Filter{Team: leads.AllTeams, Status: leads.AllStatuses}
		m.search.SetValue("")
		m.refreshTable()
	case "b", "esc":
		m.state = stateMapping
	case "e", "enter":
		return m.startExport()
	default:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) buildPreview() {
	m.records = mapper.MaterializeAll(m.fileData.Rows, m.mapping)
	m.teams = leads.Teams(m.records)
	m.statuses = leads.Statuses(m.records)
	m.filter = leads.Filter{Team: leads.AllTeams, Status: leads.AllStatuses}
	m.search.SetValue("")
	m.refreshTable()
}

func (m *Model) refreshTable() {
	m.visible = leads.Apply(m.records, m.filter)

	rows := make([]table.Row, 0, len(m.visible))
	for _, l := range m.visible {
		rows = append(rows, table.Row{l.Name, l.Email, l.Phone1, l.Phone2, l.Status, l.Team})
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

func (m Model) loadFile(path string) tea.Cmd {
	return func() tea.Msg {
		data, err := sheet.ReadFileData(path)
		return fileLoadedMsg{data: data, err: err}
	}
}

type exportJob struct {
	input  string
	output string
	leads  []types.Lead
}

func (m Model) startExport() (Model, tea.Cmd) {
	m.state = stateExporting
	m.progressChan = make(chan float64, 100)
	m.resultChan = make(chan exportResultMsg, 1)

	job := exportJob{
		input:  m.selectedFile,
		output: sheet.OutputPath(m.selectedFile, m.cfg.ExportExt()),
		leads:  m.records,
	}
	progressChan := m.progressChan
	resultChan := m.resultChan
	uploader := m.uploader
	logger := m.importLog

	cmd := tea.Batch(
		func() tea.Msg {
			go func() {
				resultChan <- runExport(context.Background(), job, uploader, logger, progressChan)
				close(progressChan)
				close(resultChan)
			}()
			return waitForProgressMsg{}
		},
		m.progress.Init(),
	)

	return m, cmd
}

// runExport writes the normalized leads while the untouched source file is
// uploaded. An upload failure is reported alongside a successful export; a
// failed export cancels the upload.
func runExport(ctx context.Context, job exportJob, uploader Uploader, logger *zap.Logger, progressChan chan<- float64) exportResultMsg {
	var msg exportResultMsg
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		result, err := sheet.Export(job.input, job.output, job.leads, progressChan)
		if err != nil {
			logger.Error("export failed", zap.String("output", job.output), zap.Error(err))
			return err
		}
		logger.Info("export written", zap.String("output", result.OutputFile), zap.Int("leads", result.LeadsWritten))
		msg.result = result
		return nil
	})

	if uploader != nil {
		g.Go(func() error {
			msg.upload, msg.uploadErr = uploader.UploadFile(ctx, job.input)
			if msg.uploadErr != nil {
				logger.Warn("upload failed", zap.Error(msg.uploadErr))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return exportResultMsg{err: err}
	}
	return msg
}

func waitForProgress(progressChan chan float64, resultChan chan exportResultMsg) tea.Cmd {
	return func() tea.Msg {
		if progressChan == nil {
			return nil
		}

		p, ok := <-progressChan
		if !ok {
			res, ok := <-resultChan
			if ok {
				return exportCompleteMsg(res)
			}
			return nil
		}

		return progressMsg(p)
	}
}

func (m Model) View() string {
	switch m.state {
	case stateFilePicker:
		return m.viewFilePicker()
	case stateMapping:
		return m.viewMapping()
	case statePreview:
		return m.viewPreview()
	case stateExporting:
		return m.viewExporting()
	case stateComplete:
		return m.viewComplete()
	case stateError:
		return m.viewError()
	}
	return ""
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("▤ leadmap - Lead Spreadsheet Import"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render("Select a CSV or XLSX file of leads"))
	s.WriteString("\n\n")
	s.WriteString(m.filepicker.View())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("Press q to quit"))

	return s.String()
}

func (m Model) viewMapping() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("▤ Review Column Mapping"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render(fmt.Sprintf("File: %s • %d rows", filepath.Base(m.selectedFile), len(m.fileData.Rows))))
	s.WriteString("\n\n")

	var sample []string
	if len(m.fileData.Rows) > 0 {
		sample = m.fileData.Rows[0]
	}

	for i, f := range mapper.Fields() {
		cursor := " "
		if m.cursor == i {
			cursor = ">"
		}

		target := UnmappedStyle.Render("(unmapped)")
		example := ""
		if col, ok := m.mapping.Column(f); ok {
			header := m.fileData.Headers[col]
			if header == "" {
				header = fmt.Sprintf("column %d", col+1)
			}
			target = header
			if col < len(sample) && strings.TrimSpace(sample[col]) != "" {
				example = HelpStyle.UnsetMarginTop().Render(" e.g. " + truncate(strings.TrimSpace(sample[col]), 28))
			}
		}

		line := fmt.Sprintf("%s %-8s ← %s", cursor, f.Label(), target)
		if m.cursor == i {
			line = SelectedStyle.Render(line)
		}
		s.WriteString(line)
		s.WriteString(" ")
		s.WriteString(sourceBadge(m.mapping.Source(f)))
		s.WriteString(example)
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("↑/↓: field • ←/→: change column • u: unmap • r: re-detect • enter: preview • q: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewPreview() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("▤ Preview"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render(fmt.Sprintf("Showing %d of %d leads • Team: %s • Status: %s",
		len(m.visible), len(m.records), m.filter.Team, m.filter.Status)))
	s.WriteString("\n")
	if m.search.Focused() || m.search.Value() != "" {
		s.WriteString(m.search.View())
		s.WriteString("\n")
	}
	s.WriteString(m.table.View())
	s.WriteString("\n")

	uploadState := "off"
	if m.uploader != nil {
		uploadState = "on"
	}
	s.WriteString(HelpStyle.Render(fmt.Sprintf(
		"/: search • t: team • s: status • c: clear • b: back • e: export %s (upload %s) • q: quit",
		strings.ToUpper(m.cfg.Export.Format), uploadState)))

	return BoxStyle.Render(s.String())
}

func (m Model) viewExporting() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("▤ Exporting..."))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("Writing %d normalized leads...", len(m.records)))
	s.WriteString("\n\n")
	s.WriteString(m.progress.View())

	return BoxStyle.Render(s.String())
}

func (m Model) viewComplete() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("✓ Import Complete!"))
	s.WriteString("\n\n")

	maxPathLen := m.width - 20
	if maxPathLen < 30 {
		maxPathLen = 30
	}

	result := m.outcome.result
	s.WriteString(fmt.Sprintf("Input:  %s\n", truncatePath(result.InputFile, maxPathLen)))
	s.WriteString(SuccessStyle.Render(fmt.Sprintf("Output: %s\n", truncatePath(result.OutputFile, maxPathLen))))
	s.WriteString("\n")
	s.WriteString(fmt.Sprintf("Leads written: %d\n", result.LeadsWritten))

	switch {
	case m.outcome.uploadErr != nil:
		s.WriteString(ErrorStyle.Render(fmt.Sprintf("Upload failed: %v", m.outcome.uploadErr)))
		s.WriteString("\n")
	case m.outcome.upload != nil:
		s.WriteString(SuccessStyle.Render(fmt.Sprintf("Uploaded (HTTP %d)", m.outcome.upload.Status)))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("Press any key to exit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewError() string {
	var s strings.Builder

	s.WriteString(ErrorStyle.Render("✗ Error"))
	s.WriteString("\n\n")
	s.WriteString(m.err.Error())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("Press any key to exit"))

	return BoxStyle.Render(s.String())
}

func previewColumns() []table.Column {
	widths := []int{20, 26, 16, 16, 12, 12}
	fields := mapper.Fields()
	cols := make([]table.Column, len(fields))
	for i, f := range fields {
		cols[i] = table.Column{Title: f.Label(), Width: widths[i]}
	}
	return cols
}

func truncatePath(path string, max int) string {
	if len(path) > max {
		return "..." + path[len(path)-max+3:]
	}
	return path
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) > max {
		return string(r[:max-1]) + "…"
	}
	return s
}
