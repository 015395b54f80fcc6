package commands_test

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary once for all tests.
	tmpDir, err := os.MkdirTemp("", "finance-db-test-*")
	if err != nil {
		panic(err)
	}

	binaryPath = filepath.Join(tmpDir, "finance-db")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/finance-db")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		os.RemoveAll(tmpDir)
		panic("failed to build binary: " + err.Error())
	}

	code := m.Run()
	os.RemoveAll(tmpDir)
	os.Exit(code)
}

// runIn runs the binary in dir and returns stdout and stderr separately.
func runIn(t *testing.T, dir string, args ...string) (string, string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = dir
	cmd.Env = cleanEnv()
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func cleanEnv() []string {
	var env []string
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "DATABASE_URL=") || strings.HasPrefix(kv, "FINANCE_DB_PASS=") {
			continue
		}
		env = append(env, kv)
	}
	return env
}

func fixture(t *testing.T, name string) string {
	t.Helper()
	p, err := filepath.Abs(filepath.Join("..", "..", "testdata", name))
	require.NoError(t, err)
	return p
}

func copyFixture(t *testing.T, name, dst string) {
	t.Helper()
	data, err := os.ReadFile(fixture(t, name))
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o755))
	require.NoError(t, os.WriteFile(dst, data, 0o644))
}

func lines(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func TestVersion(t *testing.T) {
	out, _, err := runIn(t, t.TempDir(), "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "finance-db version dev")
}

func TestIngest_DryRun(t *testing.T) {
	out, _, err := runIn(t, t.TempDir(), "ingest", "--dry-run", "--variant", "income-monthly", fixture(t, "income_monthly.csv"))
	require.NoError(t, err)

	got := lines(out)
	require.Len(t, got, 8)
	assert.Equal(t, "gl_number,description,entity,type,date,value,scenario,timestamp", got[0])
	assert.True(t, strings.HasPrefix(got[1], "40000,Sales Revenue,Corp,Income,2024-06-30,12500.00,Actual,"), got[1])
}

func TestIngest_DryRunLegacyModeAndScenario(t *testing.T) {
	out, _, err := runIn(t, t.TempDir(), "ingest", "--dry-run", "--mode", "dump-balance", "--scenario", "Budget", fixture(t, "balance_dump.csv"))
	require.NoError(t, err)

	got := lines(out)
	require.Len(t, got, 4)
	assert.Contains(t, got[1], ",Holdings,ASSETS,2024-01-31,900.00,Budget,")
}

func TestIngest_DryRunSeveralFilesOneHeader(t *testing.T) {
	out, _, err := runIn(t, t.TempDir(), "ingest", "--dry-run", "--variant", "income-dump",
		fixture(t, "income_dump.csv"), fixture(t, "income_dump.csv"))
	require.NoError(t, err)

	got := lines(out)
	assert.Len(t, got, 9)
	assert.Equal(t, 1, strings.Count(out, "gl_number,"))
}

func TestIngest_SQLiteThenExport(t *testing.T) {
	dir := t.TempDir()
	src := fixture(t, "balance_monthly.csv")

	for i := 0; i < 2; i++ {
		out, stderr, err := runIn(t, dir, "ingest", "--variant", "balance-monthly", "--db", "sqlite:facts.db", src)
		require.NoError(t, err, stderr)
		assert.Contains(t, out, "balance_monthly.csv: 7 facts")
	}

	out, stderr, err := runIn(t, dir, "export", "--db", "sqlite:facts.db")
	require.NoError(t, err, stderr)
	got := lines(out)
	require.Len(t, got, 8, "re-ingesting the same export does not duplicate facts")
	assert.Contains(t, out, "10050,Cash and Equivalents,Corp,Current Assets,2024-02-29,1250.00,Actual,")
}

func TestIngest_MissingFile(t *testing.T) {
	_, stderr, err := runIn(t, t.TempDir(), "ingest", "--dry-run", "nope.csv")
	require.Error(t, err)
	assert.Contains(t, stderr, "1 of 1 files failed")
	assert.Contains(t, stderr, "nope.csv")
}

func TestIngest_MissingFileDoesNotStopOthers(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.csv")

	out, stderr, err := runIn(t, dir, "ingest", "--db", "csv:ledger.csv", fixture(t, "income_monthly.csv"), missing)
	require.Error(t, err)
	assert.Contains(t, stderr, "1 of 2 files failed")
	assert.Contains(t, out, "income_monthly.csv: 7 facts")

	data, err := os.ReadFile(filepath.Join(dir, "ledger.csv"))
	require.NoError(t, err)
	assert.Len(t, lines(string(data)), 8)
}

func TestIngest_UnknownVariant(t *testing.T) {
	_, stderr, err := runIn(t, t.TempDir(), "ingest", "--dry-run", "--variant", "cash-flow", fixture(t, "income_monthly.csv"))
	require.Error(t, err)
	assert.Contains(t, stderr, "unknown report variant")
}

func TestIngest_MalformedFileFails(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("hello\n"), 0o644))

	out, stderr, err := runIn(t, dir, "ingest", "--db", "csv:ledger.csv", bad, fixture(t, "income_monthly.csv"))
	require.Error(t, err)
	assert.Contains(t, stderr, "1 of 2 files failed")
	assert.Contains(t, out, "income_monthly.csv: 7 facts", "good files are still loaded")
}

func TestImport_MovesFilesAndLogs(t *testing.T) {
	dir := t.TempDir()
	_, stderr, err := runIn(t, dir, "init")
	require.NoError(t, err, stderr)

	copyFixture(t, "income_monthly.csv", filepath.Join(dir, "import", "income_monthly.csv"))
	copyFixture(t, "balance_dump.csv", filepath.Join(dir, "import", "balance-dump", "balance_dump.csv"))

	out, stderr, err := runIn(t, dir, "import", "--db", "csv:ledger.csv")
	require.NoError(t, err, stderr)
	assert.Contains(t, out, "income_monthly.csv: 7 facts")

	assert.FileExists(t, filepath.Join(dir, "import", "processed", "income_monthly.csv"))
	assert.FileExists(t, filepath.Join(dir, "import", "processed", "balance-dump", "balance_dump.csv"))
	assert.NoFileExists(t, filepath.Join(dir, "import", "income_monthly.csv"))

	ledgerData, err := os.ReadFile(filepath.Join(dir, "ledger.csv"))
	require.NoError(t, err)
	assert.Len(t, lines(string(ledgerData)), 11)

	logData, err := os.ReadFile(filepath.Join(dir, "logs", "ingest-log.csv"))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(logData), ",loaded,"))

	// Nothing left to import.
	out, _, err = runIn(t, dir, "import", "--db", "csv:ledger.csv")
	require.NoError(t, err)
	assert.Contains(t, out, "No exports")
}

func TestImport_DryRunLeavesFiles(t *testing.T) {
	dir := t.TempDir()
	copyFixture(t, "income_dump.csv", filepath.Join(dir, "import", "income-dump", "income_dump.csv"))

	out, stderr, err := runIn(t, dir, "import", "--dry-run")
	require.NoError(t, err, stderr)
	assert.Len(t, lines(out), 5)
	assert.FileExists(t, filepath.Join(dir, "import", "income-dump", "income_dump.csv"))

	logData, err := os.ReadFile(filepath.Join(dir, "logs", "ingest-log.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(logData), ",dry-run,")
}

func TestMapping_PrintsRules(t *testing.T) {
	out, _, err := runIn(t, t.TempDir(), "mapping", "--variant", "income-monthly")
	require.NoError(t, err)

	got := lines(out)
	require.NotEmpty(t, got)
	assert.Equal(t, "variant,raw,canonical", got[0])
	assert.Contains(t, out, "income-monthly,ElectronX,Holdings")
	assert.Contains(t, out, "income-monthly,Total,Consol")
	assert.NotContains(t, out, "balance-dump,")
}

func TestMapping_UnreadableFileFallsBack(t *testing.T) {
	out, stderr, err := runIn(t, t.TempDir(), "mapping", "-v", "--mapping", "nope.csv", "--variant", "balance-dump")
	require.NoError(t, err)
	assert.Contains(t, stderr, "using built-in entity mapping")
	assert.Contains(t, out, "balance-dump,ElectronX,Holdings")
}
