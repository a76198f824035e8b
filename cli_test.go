package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/nconklindev/leadmap/internal/mapper"
	"github.com/nconklindev/leadmap/internal/sheet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const leadsCSV = "Col1,Col2,Col3,Group\n" +
	"Alice Smith,alice@example.com,+1 555 010 0000,Hunters\n" +
	"Bob Jones,bob@example.com,+1 555 020 0000,fighters\n"

func setupCLI(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, key := range []string{"LEADMAP_CONFIG", "LEADMAP_API_BASE_URL", "LEADMAP_API_TOKEN", "LEADMAP_UPLOAD", "LEADMAP_EXPORT_FORMAT"} {
		t.Setenv(key, "")
	}
	t.Setenv("LEADMAP_LOG_FILE", filepath.Join(dir, "leadmap.log"))

	path := filepath.Join(dir, "leads.csv")
	require.NoError(t, os.WriteFile(path, []byte(leadsCSV), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestMapCommand_JSON(t *testing.T) {
	path := setupCLI(t)

	out, err := execute(t, "map", path, "--format", "json", "--preview", "1")
	require.NoError(t, err)

	var report mapReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Rows)
	require.Len(t, report.Mapping, 6)
	assert.Equal(t, mapper.Entry{Field: "name", Column: 0, Header: "Col1", Source: "inferred"}, report.Mapping[0])
	assert.Equal(t, mapper.Entry{Field: "email", Column: 1, Header: "Col2", Source: "inferred"}, report.Mapping[1])
	assert.Equal(t, mapper.Entry{Field: "contact", Column: 2, Header: "Col3", Source: "inferred"}, report.Mapping[2])
	assert.Equal(t, mapper.Entry{Field: "team", Column: 3, Header: "Group", Source: "alias"}, report.Mapping[5])
	require.Len(t, report.Preview, 1)
	assert.Equal(t, "N/A", report.Preview[0].Status)
	assert.Equal(t, "Hunters", report.Preview[0].Team)
}

func TestMapCommand_YAMLWithAssign(t *testing.T) {
	path := setupCLI(t)

	out, err := execute(t, "map", path, "--assign", "status=group", "--assign", "team=-")
	require.NoError(t, err)

	var report mapReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	assert.Equal(t, mapper.Entry{Field: "status", Column: 3, Header: "Group", Source: "manual"}, report.Mapping[4])
	assert.Equal(t, mapper.Entry{Field: "team", Column: mapper.Unmapped, Source: "none"}, report.Mapping[5])
	assert.Equal(t, "Hunters", report.Preview[0].Status)
	assert.Equal(t, "UNASSIGNED", report.Preview[0].Team)
}

func TestMapCommand_Errors(t *testing.T) {
	path := setupCLI(t)

	tests := []struct {
		name string
		args []string
	}{
		{"Bad format", []string{"map", path, "--format", "xml"}},
		{"Bad field", []string{"map", path, "--assign", "phone=1"}},
		{"Missing equals", []string{"map", path, "--assign", "email"}},
		{"Column out of range", []string{"map", path, "--assign", "email=9"}},
		{"Unknown header", []string{"map", path, "--assign", "email=Work Email"}},
		{"Missing file", []string{"map", filepath.Join(filepath.Dir(path), "nope.csv")}},
		{"No args", []string{"map"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestExportCommand(t *testing.T) {
	path := setupCLI(t)
	output := filepath.Join(filepath.Dir(path), "out.xlsx")

	out, err := execute(t, "export", path, "-o", output)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 2 leads to "+output)

	data, err := sheet.ReadFileData(output)
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Email", "Phone 1", "Phone 2", "Status", "Team"}, data.Headers)
	assert.Equal(t, "Bob Jones", data.Rows[1][0])
	assert.Equal(t, "fighters", data.Rows[1][5])
}

func TestExportCommand_DefaultOutputAndUpload(t *testing.T) {
	path := setupCLI(t)

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	t.Setenv("LEADMAP_API_BASE_URL", srv.URL)
	t.Setenv("LEADMAP_API_TOKEN", "tok")

	out, err := execute(t, "export", path, "--upload")
	require.NoError(t, err)
	assert.Contains(t, out, "Uploaded leads.csv (HTTP 200)")
	assert.Equal(t, "Bearer tok", gotAuth)

	_, err = os.Stat(sheet.OutputPath(path, ".csv"))
	assert.NoError(t, err)
}

func TestExportCommand_UploadWithoutURL(t *testing.T) {
	path := setupCLI(t)

	_, err := execute(t, "export", path, "--upload")
	assert.ErrorContains(t, err, "--upload needs")
}

func TestExportCommand_OutputIsInput(t *testing.T) {
	path := setupCLI(t)

	_, err := execute(t, "export", path, "-o", path)
	assert.ErrorIs(t, err, sheet.ErrOverwriteInput)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, leadsCSV, string(raw))
}

func TestApplyAssignments_FieldSpellings(t *testing.T) {
	headers := []string{"Full Name", "Email", "Mobile", "Backup"}
	m := mapper.Infer(headers, nil)

	require.NoError(t, applyAssignments(&m, headers, []string{"phone2=-", "Phone 1=backup"}))

	_, ok := m.Column(mapper.FieldContact2)
	assert.False(t, ok)
	col, ok := m.Column(mapper.FieldContact)
	require.True(t, ok)
	assert.Equal(t, 3, col)
}

func TestVersionFlag(t *testing.T) {
	setupCLI(t)

	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "leadmap dev")
}
