package commands_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/backoffice/internal/accounts"
	"github.com/cleared-dev/backoffice/internal/reference"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary once for all tests.
	tmpDir, err := os.MkdirTemp("", "backoffice-test-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpDir)

	binaryPath = filepath.Join(tmpDir, "backoffice")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/backoffice")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	os.Exit(m.Run())
}

func runBackoffice(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "BACKOFFICE_LOG_LEVEL=warn")
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func initWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	out, err := runBackoffice(t, "init", dir, "--name", "Test Biz")
	require.NoError(t, err, out)
	return dir
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := initWorkspace(t)

	expectedDirs := []string{
		"reference",
		"logs",
		"import",
		filepath.Join("import", "processed"),
		"exports",
	}
	for _, d := range expectedDirs {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}

	_, err := os.Stat(filepath.Join(dir, "backoffice.db"))
	assert.NoError(t, err, "store should be created")
}

func TestInit_Config(t *testing.T) {
	dir := t.TempDir()
	_, err := runBackoffice(t, "init", dir, "--name", "My Company")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "backoffice.yaml"))
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "name: My Company")
	assert.Contains(t, contents, "entity_type: llc_single_member")
	assert.Contains(t, contents, "driver: sqlite")
}

func TestInit_ReferenceData(t *testing.T) {
	dir := initWorkspace(t)

	svc, err := accounts.Load(dir)
	require.NoError(t, err)
	assert.Len(t, svc.All(), 5, "default chart has 5 accounts")

	ref, err := reference.Read(dir)
	require.NoError(t, err)
	assert.Len(t, ref.Tags, len(reference.DefaultTags()))
	assert.Empty(t, ref.Users)
}

func TestInit_GitRepo(t *testing.T) {
	dir := initWorkspace(t)

	// .git directory should exist.
	_, err := os.Stat(filepath.Join(dir, ".git"))
	require.NoError(t, err, ".git should exist")

	// git log should have an init commit.
	log := exec.Command("git", "log", "--format=%s", "-1")
	log.Dir = dir
	out, err := log.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "init:")

	// Verify author.
	authorLog := exec.Command("git", "log", "--format=%an <%ae>", "-1")
	authorLog.Dir = dir
	out, err = authorLog.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "Backoffice <backoffice@cleared.dev>")

	// The database is not tracked.
	ls := exec.Command("git", "ls-files")
	ls.Dir = dir
	out, err = ls.Output()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "backoffice.db")
	assert.Contains(t, string(out), "reference/accounts.csv")
}

func TestInit_Gitignore(t *testing.T) {
	dir := initWorkspace(t)

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	contents := string(data)

	for _, pattern := range []string{"exports/", "*.db", ".env"} {
		assert.Contains(t, contents, pattern, ".gitignore should contain %s", pattern)
	}
}

func TestInit_RequiresName(t *testing.T) {
	dir := t.TempDir()
	_, err := runBackoffice(t, "init", dir)
	require.Error(t, err, "init without --name should fail")
}

func TestVersion(t *testing.T) {
	out, err := runBackoffice(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "commit:")
}
