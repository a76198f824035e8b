package ui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nconklindev/leadmap/internal/config"
	"github.com/nconklindev/leadmap/internal/leads"
	"github.com/nconklindev/leadmap/internal/mapper"
	"github.com/nconklindev/leadmap/internal/sheet"
	"github.com/nconklindev/leadmap/internal/types"
	"github.com/nconklindev/leadmap/internal/upload"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

type fakeUploader struct {
	paths []string
	err   error
}

func (f *fakeUploader) UploadFile(_ context.Context, path string) (*upload.Result, error) {
	f.paths = append(f.paths, path)
	if f.err != nil {
		return nil, f.err
	}
	return &upload.Result{Status: 204}, nil
}

var testData = &types.FileData{
	Headers: []string{"Full Name", "E-mail", "Mobile", "Status"},
	Rows: [][]string{
		{"Alice Smith", "alice@example.com", "555 0100 11", "New"},
		{"Bob Jones", "bob@example.com", "555 0200 22", "Contacted"},
		{"Carol White", "carol@corp.io", "555 0300 33", "New"},
	},
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m
}

func loaded(t *testing.T) Model {
	m := InitialModel(Options{Logger: zap.NewNop(), Dir: t.TempDir()})
	m.selectedFile = filepath.Join(t.TempDir(), "leads.csv")
	return send(t, m, fileLoadedMsg{data: testData})
}

func TestFileLoadedInfersMapping(t *testing.T) {
	m := loaded(t)

	assert.Equal(t, stateMapping, m.state)
	col, ok := m.mapping.Column(mapper.FieldEmail)
	require.True(t, ok)
	assert.Equal(t, 1, col)
	_, ok = m.mapping.Column(mapper.FieldTeam)
	assert.False(t, ok)
	assert.Contains(t, m.View(), "Review Column Mapping")
}

func TestFileLoadedError(t *testing.T) {
	m := InitialModel(Options{Dir: t.TempDir()})
	m = send(t, m, fileLoadedMsg{err: sheet.ErrNoDataRows})

	assert.Equal(t, stateError, m.state)
	assert.Contains(t, m.View(), "no data rows found")
}

func TestMappingKeys(t *testing.T) {
	m := loaded(t)

	// Cursor on Name (column 0): right moves it to column 1, stealing it from Email.
	m = send(t, m, key("right"))
	col, _ := m.mapping.Column(mapper.FieldName)
	assert.Equal(t, 1, col)
	_, ok := m.mapping.Column(mapper.FieldEmail)
	assert.False(t, ok)
	assert.Equal(t, mapper.SourceManual, m.mapping.Source(mapper.FieldName))

	// Left twice from column 1 reaches "unmapped".
	m = send(t, m, key("left"), key("left"))
	_, ok = m.mapping.Column(mapper.FieldName)
	assert.False(t, ok)

	// Left again wraps to the last column.
	m = send(t, m, key("left"))
	col, _ = m.mapping.Column(mapper.FieldName)
	assert.Equal(t, 3, col)

	m = send(t, m, key("r"))
	assert.Equal(t, mapper.Infer(testData.Headers, testData.Rows), m.mapping)

	m = send(t, m, key("down"), key("u"))
	_, ok = m.mapping.Column(mapper.FieldEmail)
	assert.False(t, ok)
}

func TestPreviewAndFilters(t *testing.T) {
	m := send(t, loaded(t), key("enter"))

	require.Equal(t, statePreview, m.state)
	require.Len(t, m.records, 3)
	assert.Equal(t, "UNASSIGNED", m.records[0].Team)
	assert.Len(t, m.visible, 3)
	assert.Len(t, m.table.Rows(), 3)

	// Status cycles All Statuses -> Contacted -> New.
	m = send(t, m, key("s"))
	assert.Equal(t, "Contacted", m.filter.Status)
	assert.Len(t, m.visible, 1)
	m = send(t, m, key("s"))
	assert.Len(t, m.visible, 2)

	m = send(t, m, key("c"))
	assert.Equal(t, leads.AllStatuses, m.filter.Status)
	assert.Len(t, m.visible, 3)

	m = send(t, m, key("/"))
	require.True(t, m.search.Focused())
	m = send(t, m, key("c"), key("o"), key("r"), key("p"))
	assert.Equal(t, "corp", m.filter.Search)
	require.Len(t, m.visible, 1)
	assert.Equal(t, "Carol White", m.visible[0].Name)

	m = send(t, m, key("esc"))
	assert.False(t, m.search.Focused())
	assert.Equal(t, statePreview, m.state)

	m = send(t, m, key("b"))
	assert.Equal(t, stateMapping, m.state)
}

func TestExportCompleteAndError(t *testing.T) {
	m := send(t, loaded(t), key("enter"))
	m.state = stateExporting

	done := send(t, m, exportCompleteMsg{
		result: &types.ExportResult{InputFile: "in.csv", OutputFile: "in_leads.csv", LeadsWritten: 3},
		upload: &upload.Result{Status: 204},
	})
	assert.Equal(t, stateComplete, done.state)
	assert.Contains(t, done.View(), "Leads written: 3")
	assert.Contains(t, done.View(), "HTTP 204")

	failed := send(t, m, exportCompleteMsg{err: errors.New("disk full")})
	assert.Equal(t, stateError, failed.state)
	assert.Contains(t, failed.View(), "disk full")
}

func TestRunExport(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	input := filepath.Join(dir, "leads.csv")
	require.NoError(t, os.WriteFile(input, []byte("raw"), 0o644))
	job := exportJob{
		input:  input,
		output: sheet.OutputPath(input, ".xlsx"),
		leads:  mapper.MaterializeAll(testData.Rows, mapper.Infer(testData.Headers, testData.Rows)),
	}

	up := &fakeUploader{}
	msg := runExport(context.Background(), job, up, zap.NewNop(), nil)
	require.NoError(t, msg.err)
	assert.Equal(t, 3, msg.result.LeadsWritten)
	assert.Equal(t, []string{input}, up.paths)
	assert.Equal(t, 204, msg.upload.Status)

	data, err := sheet.ReadFileData(job.output)
	require.NoError(t, err)
	assert.Len(t, data.Rows, 3)

	failing := &fakeUploader{err: errors.New("offline")}
	msg = runExport(context.Background(), job, failing, zap.NewNop(), nil)
	require.NoError(t, msg.err)
	assert.EqualError(t, msg.uploadErr, "offline")

	job.output = filepath.Join(dir, "missing", "out.csv")
	msg = runExport(context.Background(), job, nil, zap.NewNop(), nil)
	assert.Error(t, msg.err)
}

func TestStartExportUsesConfiguredFormat(t *testing.T) {
	cfg := config.Default()
	cfg.Export.Format = "xlsx"
	m := InitialModel(Options{Config: cfg, Dir: t.TempDir()})
	m.selectedFile = filepath.Join(t.TempDir(), "leads.csv")
	m = send(t, m, fileLoadedMsg{data: testData}, key("enter"))

	next, cmd := m.Update(key("e"))
	m = next.(Model)
	assert.Equal(t, stateExporting, m.state)
	assert.NotNil(t, cmd)
	assert.NotNil(t, m.progressChan)
	assert.Contains(t, m.View(), "Writing 3 normalized leads")
}

func TestQuitKeys(t *testing.T) {
	tests := []struct {
		name  string
		state state
		key   tea.KeyMsg
	}{
		{"File picker q", stateFilePicker, key("q")},
		{"Exporting ctrl+c", stateExporting, tea.KeyMsg{Type: tea.KeyCtrlC}},
		{"Complete any key", stateComplete, key("x")},
		{"Error any key", stateError, tea.KeyMsg{Type: tea.KeySpace}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := InitialModel(Options{Dir: t.TempDir()})
			m.state = tt.state
			m.err = errors.New("boom")
			_, cmd := m.Update(tt.key)
			require.NotNil(t, cmd)
			assert.IsType(t, tea.QuitMsg{}, cmd())
		})
	}

	m := InitialModel(Options{Dir: t.TempDir()})
	m.state = stateExporting
	_, cmd := m.Update(key("q"))
	assert.Nil(t, cmd)
}
