package cli_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenhq/warden/internal/cli"
)

const testConfig = `apiVersion: warden.wardenhq.dev/v1beta1
kind: Configuration
bundle:
  id: team-rules
  version: "1.0.0"
sources:
  - path: rules
    required: true
`

const testRules = `## Imports

Group stdlib imports first.

## Errors

Wrap errors with context.
`

// writeWorkspace lays out a minimal project and returns its directory and
// config path.
func writeWorkspace(t *testing.T) (dir, cfgPath string) {
	t.Helper()

	dir = t.TempDir()
	cfgPath = filepath.Join(dir, "warden.yaml")

	require.NoError(t, os.WriteFile(cfgPath, []byte(testConfig), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "rules"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rules", "rules.md"), []byte(testRules), 0o600))

	return dir, cfgPath
}

// runWarden executes the CLI with args and returns its stdout.
func runWarden(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	cmd := cli.NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return stdout.String(), err
}

func decodeFindings(t *testing.T, out string) []map[string]any {
	t.Helper()

	var decoded struct {
		Findings []map[string]any `json:"findings"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))

	return decoded.Findings
}

func TestLockGenerateAndDrift(t *testing.T) {
	dir, cfgPath := writeWorkspace(t)

	out, err := runWarden(t, "lock", "generate", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "locked 2 rules")
	assert.FileExists(t, filepath.Join(dir, "warden.lock"))

	out, err = runWarden(t, "drift", "--config", cfgPath, "--format", "json", dir)
	require.NoError(t, err)
	assert.Empty(t, decodeFindings(t, out))
}

func TestDriftAfterUpstreamEdit(t *testing.T) {
	dir, cfgPath := writeWorkspace(t)

	_, err := runWarden(t, "lock", "generate", "--config", cfgPath)
	require.NoError(t, err)

	edited := []byte("## Imports\n\nGroup stdlib imports first, then internal.\n\n## Errors\n\nWrap errors with context.\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rules", "rules.md"), edited, 0o600))

	out, err := runWarden(t, "drift", "--config", cfgPath, "--format", "json", dir)
	require.NoError(t, err)

	findings := decodeFindings(t, out)
	require.NotEmpty(t, findings)
	assert.Equal(t, "lockfile", findings[0]["category"])
}

func TestDriftGatesExitCode(t *testing.T) {
	dir, cfgPath := writeWorkspace(t)

	_, err := runWarden(t, "lock", "generate", "--config", cfgPath)
	require.NoError(t, err)

	// No drift: gates stay quiet.
	_, err = runWarden(t, "drift", "--config", cfgPath, "--format", "json", "--gates", dir)
	require.NoError(t, err)

	edited := []byte("## Imports\n\nChanged upstream.\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rules", "rules.md"), edited, 0o600))

	_, err = runWarden(t, "drift", "--config", cfgPath, "--format", "json", "--gates", dir)
	require.Error(t, err)
	assert.Equal(t, cli.ExitCodeDrift, cli.ExitCode(err))
}

func TestLockInit(t *testing.T) {
	dir, cfgPath := writeWorkspace(t)

	_, err := runWarden(t, "lock", "init", "--config", cfgPath, "--mode", "strict")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "warden.lock"))
}

func TestApprove(t *testing.T) {
	dir, cfgPath := writeWorkspace(t)

	out, err := runWarden(t, "approve", "abc123", "--by", "reviewer@example.com", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "approved abc123 by reviewer@example.com")
	assert.FileExists(t, filepath.Join(dir, "warden-allowlist.yaml"))

	out, err = runWarden(t, "approve", "abc123", "--by", "reviewer@example.com", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "already approved")
}

func TestApproveRequiresBy(t *testing.T) {
	_, cfgPath := writeWorkspace(t)

	_, err := runWarden(t, "approve", "abc123", "--config", cfgPath)
	require.Error(t, err)
	assert.Equal(t, 1, cli.ExitCode(err))
}

func TestOverlayCheck(t *testing.T) {
	_, cfgPath := writeWorkspace(t)

	cfg := testConfig + `overlays:
  overrides:
    - selector: sections[heading=Imports]
      set:
        vendorMetadata.severity: warn
    - selector: sections[heading=Renamed Away]
      set:
        vendorMetadata.severity: warn
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	out, err := runWarden(t, "overlay", "check", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "stale: sections[heading=Renamed Away]")
	assert.Contains(t, out, "1 of 2 overlays are stale")
}

func TestShow(t *testing.T) {
	_, cfgPath := writeWorkspace(t)

	out, err := runWarden(t, "show", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "id: team-rules")
	assert.Contains(t, out, "heading: Imports")
	assert.Contains(t, out, "heading: Errors")
}

func TestSyncReportsConflicts(t *testing.T) {
	dir, cfgPath := writeWorkspace(t)

	exports := filepath.Join(dir, "exports")
	require.NoError(t, os.MkdirAll(exports, 0o750))

	copyA := filepath.Join(exports, "a.md")
	copyB := filepath.Join(exports, "b.md")
	require.NoError(t, os.WriteFile(copyA, []byte("---\nid: imports\n---\n## Imports\n\nedited at ten\n"), 0o600))
	require.NoError(t, os.WriteFile(copyB, []byte("---\nid: imports\n---\n## Imports\n\nedited later\n"), 0o600))

	base := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(copyA, base, base))
	require.NoError(t, os.Chtimes(copyB, base.Add(5*time.Minute), base.Add(5*time.Minute)))

	out, err := runWarden(t, "sync", exports, "--config", cfgPath, "--show-conflicts")
	require.NoError(t, err)

	assert.Contains(t, out, "conflict imports")
	assert.Contains(t, out, "keeping "+copyB)
	assert.Contains(t, out, "retained "+copyA)
	assert.Contains(t, out, "-edited at ten")
	assert.Contains(t, out, "+edited later")
	assert.Contains(t, out, "1 conflicts")

	// Losing copies stay on disk untouched.
	data, err := os.ReadFile(copyA)
	require.NoError(t, err)
	assert.Contains(t, string(data), "edited at ten")
}

func TestExport(t *testing.T) {
	_, cfgPath := writeWorkspace(t)

	cfg := testConfig + `exporters:
  - name: sink
    command: sh -c "cat > /dev/null && echo exported.md"
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	out, err := runWarden(t, "export", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "sink: ok (exported.md)")
}

func TestWriteConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "warden.yaml")

	_, err := runWarden(t, "--write-config", "--config", cfgPath)
	require.NoError(t, err)
	assert.FileExists(t, cfgPath)
}

func TestDriftWithoutConfig(t *testing.T) {
	dir := t.TempDir()

	_, err := runWarden(t, "drift", "--format", "json", dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, cli.ErrNoConfig)
}
