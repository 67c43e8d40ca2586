package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parallelproc/fanout/internal/common/fanouterrors"
)

// testWorkspace creates numImages inputs and a config file running cp as the worker on this host,
// which copies each job's images into the output directory.
func testWorkspace(t *testing.T, numImages int) (string, string) {
	root := t.TempDir()
	inputDir := filepath.Join(root, "images")
	require.NoError(t, os.MkdirAll(inputDir, 0o755))
	for i := 0; i < numImages; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(inputDir, fmt.Sprintf("cat%d.jpg", i)), []byte("meow"), 0o644))
	}
	config := fmt.Sprintf(`
inputDir: %s
outputDir: %s
jobsDir: %s
logDir: %s
logFile: %s
worker:
  command: cp
  args: []
scheduler:
  type: local
watch:
  pollInterval: 10ms
  timeout: 10s
`,
		inputDir,
		filepath.Join(root, "processed_images"),
		filepath.Join(root, "jobs"),
		filepath.Join(root, "condor_output"),
		filepath.Join(root, "main.log"),
	)
	path := filepath.Join(root, "fanout.yaml")
	require.NoError(t, os.WriteFile(path, []byte(config), 0o644))
	return root, path
}

func execute(args ...string) (string, error) {
	out := &bytes.Buffer{}
	cmd := RootCmd()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	// A nil slice makes cobra fall back to os.Args.
	cmd.SetArgs(append([]string{}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestRunCmd_InvalidArguments(t *testing.T) {
	tests := map[string][]string{
		"no arguments":       {},
		"missing num_jobs":   {"run"},
		"too many arguments": {"run", "1", "2"},
		"not an integer":     {"run", "three"},
		"zero":               {"run", "0"},
		"negative":           {"run", "--", "-1"},
		"shorthand":          {"three"},
		"unknown policy":     {"run", "2", "--submit-failure-policy", "retry"},
		"unknown scheduler":  {"run", "2", "--scheduler", "slurm"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := execute(args...)
			require.Error(t, err)
			assert.Equal(t, fanouterrors.ExitCodeInvalidArg, fanouterrors.ExitCodeFromError(err))
		})
	}
}

func TestRunCmd_LocalScheduler(t *testing.T) {
	if _, err := exec.LookPath("cp"); err != nil {
		t.Skip("cp not available")
	}
	for name, args := range map[string][]string{
		"run":       {"run", "3"},
		"shorthand": {"3"},
	} {
		t.Run(name, func(t *testing.T) {
			root, config := testWorkspace(t, 7)

			out, err := execute(append(args, "--config", config)...)
			require.NoError(t, err)

			assert.Contains(t, out, "Time taken to process 7 images across 3 jobs is ")
			outputs, err := os.ReadDir(filepath.Join(root, "processed_images"))
			require.NoError(t, err)
			assert.Len(t, outputs, 7)
			jobs, err := os.ReadDir(filepath.Join(root, "jobs"))
			require.NoError(t, err)
			assert.Len(t, jobs, 3)
			runLog, err := os.ReadFile(filepath.Join(root, "main.log"))
			require.NoError(t, err)
			assert.Equal(t, 1, bytes.Count(runLog, []byte("\n")))
		})
	}
}

func TestRunCmd_Timeout(t *testing.T) {
	root, config := testWorkspace(t, 3)

	// false exits without copying anything.
	t.Setenv("FANOUT_WORKER_COMMAND", "false")
	_, err := execute("run", "2", "--config", config, "--timeout", "50ms")

	require.Error(t, err)
	assert.Equal(t, fanouterrors.ExitCodeTimeout, fanouterrors.ExitCodeFromError(err))
	assert.NoFileExists(t, filepath.Join(root, "main.log"))
}

func TestPlanCmd(t *testing.T) {
	root, config := testWorkspace(t, 5)

	out, err := execute("plan", "2", "--config", config)
	require.NoError(t, err)

	assert.Contains(t, out, "Start  End  Items")
	assert.NoDirExists(t, filepath.Join(root, "jobs"))
}

func TestVersionCmd(t *testing.T) {
	out, err := execute("version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:")
	assert.Contains(t, out, "Commit:")
}

func TestParseNumJobs(t *testing.T) {
	n, err := parseNumJobs("12")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	_, err = parseNumJobs("1.5")
	assert.Error(t, err)
}
