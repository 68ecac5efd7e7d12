package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const checkingCSV = `Posted Date,Reference Number,Payee,Address,Amount
01/05/2026,1,STARBUCKS STORE #123,SEATTLE,-6.75
01/06/2026,2,DIRECT DEPOSIT PAYROLL,,2500.00
`

const wellsFargoCSV = `"01/07/2026","-42.10","*","","H-E-B #123"
"01/08/2026","-15.49","*","","NETFLIX.COM"
`

// setupEnv points every command at a throwaway file-backed ledger.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("STORAGE_BACKEND", "file")
	t.Setenv("LEDGER_PATH", filepath.Join(dir, "ledger.json"))
	t.Setenv("ARCHIVE_DIR", filepath.Join(dir, "statements"))
	t.Setenv("IMPORT_INBOX_DIR", filepath.Join(dir, "inbox"))
	t.Setenv("IMPORT_RULES_FILE", "")
	t.Setenv("IMPORT_ALWAYS_CONFIRM", "false")
	t.Setenv("SUGGEST_INDEX_PATH", "")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestImportCommand(t *testing.T) {
	dir := setupEnv(t)
	checking := writeFile(t, dir, "checking.csv", checkingCSV)
	wf := writeFile(t, dir, "wf.csv", wellsFargoCSV)

	out, err := run(t, "", "import", checking)
	require.NoError(t, err)
	assert.Contains(t, out, "checking.csv: Imported 2 transactions")

	out, err = run(t, "", "import", "--bank", "wells fargo", "--yes", wf)
	require.NoError(t, err)
	assert.Contains(t, out, "wf.csv: Imported 2 transactions")

	out, err = run(t, "", "export")
	require.NoError(t, err)
	assert.Contains(t, out, "STARBUCKS STORE #123,-6.75,Food & Dining")
	assert.Contains(t, out, "NETFLIX.COM,-15.49")

	out, err = run(t, "", "summary", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"transactionCount": 4`)

	out, err = run(t, "", "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "Transactions: 4")
	assert.Contains(t, out, "MONTH")
}

func TestImportCommand_Interactive(t *testing.T) {
	dir := setupEnv(t)
	wf := writeFile(t, dir, "wf.csv", wellsFargoCSV)

	out, err := run(t, "cancel\n", "import", wf)
	require.NoError(t, err)
	assert.Contains(t, out, "no header row")
	assert.Contains(t, out, "wf.csv: Import cancelled")

	out, err = run(t, "date 1\ndescription 5\namount 2\nok\n", "import", wf)
	require.NoError(t, err)
	assert.Contains(t, out, "wf.csv: Imported 2 transactions")

	// The confirmed mapping is offered again for the same layout.
	out, err = run(t, "ok\n", "import", wf)
	require.NoError(t, err)
	assert.Contains(t, out, "Mapping: date=1 description=5 amount=2")
	assert.Contains(t, out, "wf.csv: Imported 2 transactions")
}

func TestImportCommand_Failures(t *testing.T) {
	dir := setupEnv(t)
	pdf := writeFile(t, dir, "statement.pdf", "%PDF-1.4")
	checking := writeFile(t, dir, "checking.csv", checkingCSV)

	out, err := run(t, "", "import", pdf, checking, filepath.Join(dir, "missing.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 3 files failed")
	assert.Contains(t, out, "checking.csv: Imported 2 transactions")
	assert.Contains(t, out, "statement.pdf:")
}

func TestPresetsCommand(t *testing.T) {
	out, err := run(t, "", "presets")
	require.NoError(t, err)
	assert.Contains(t, out, "wells_fargo")
	assert.Contains(t, out, "no header, 5 columns")
	assert.Contains(t, out, "Chase")
}

func TestSuggestCommand(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "", "suggest", "SHELL", "OIL", "57444")
	require.NoError(t, err)
	assert.Contains(t, out, `gasoline: matches "shell"`)

	out, err = run(t, "", "suggest", "zzqx")
	require.NoError(t, err)
	assert.Contains(t, out, "no rule matches")
}

func TestWatchCommand_Once(t *testing.T) {
	dir := setupEnv(t)
	inbox := filepath.Join(dir, "inbox")
	writeFile(t, inbox, "checking.csv", checkingCSV)
	writeFile(t, inbox, "wf.csv", wellsFargoCSV)

	out, err := run(t, "", "watch", "--once")
	require.NoError(t, err)
	assert.Contains(t, out, "imported 1 files (2 transactions)")
	assert.Contains(t, out, "waiting for confirmation: wf.csv")

	_, err = os.Stat(filepath.Join(inbox, "wf.csv"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(inbox, "checking.csv"))
	assert.True(t, os.IsNotExist(err))
}
