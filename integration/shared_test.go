//go:build basic || database || integration

package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/huangsam/srcmeasure/internal/gitfixture"
	"github.com/stretchr/testify/require"
)

var (
	// sharedBinaryPath holds the path to a srcmeasure binary built once for all tests.
	sharedBinaryPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getSrcmeasureBinary returns the path to the srcmeasure binary, building it once if needed.
func getSrcmeasureBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "srcmeasure-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		binPath := filepath.Join(tempDir, "srcmeasure")
		buildCmd := exec.Command("go", "build", "-o", binPath, ".")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		if out, err := buildCmd.CombinedOutput(); err != nil {
			panic(fmt.Sprintf("failed to build srcmeasure: %v\n%s", err, out))
		}

		sharedBinaryPath = binPath
	})

	return sharedBinaryPath
}

// runSrcmeasure runs the binary in dir and returns its combined output.
func runSrcmeasure(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(getSrcmeasureBinary(), args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Logf("Command failed: %s\nOutput: %s", cmd.String(), string(output))
	}
	return string(output), err
}

// workspace is a definitions tree pointing at a local upstream repository.
type workspace struct {
	Dir     string // Definitions tree
	Config  string
	Mirrors string
	Scratch string
	Head    string // Commit measured by the sample chunk
}

// newWorkspace creates a sample upstream repo and a system that references it twice.
func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	gitfixture.SkipIfGitNotAvailable(t)

	root := t.TempDir()
	_, head := gitfixture.Sample(t, filepath.Join(root, "upstream", "sample"))

	ws := &workspace{
		Dir:     filepath.Join(root, "definitions"),
		Config:  filepath.Join(root, "srcmeasure.yaml"),
		Mirrors: filepath.Join(root, "gits"),
		Scratch: filepath.Join(root, "scratch"),
		Head:    head,
	}
	files := map[string]string{
		"systems/demo.morph": "name: demo\nkind: system\nstrata:\n- morph: strata/app.morph\n",
		"strata/app.morph": fmt.Sprintf(`name: app
kind: stratum
chunks:
- name: sample
  repo: local:sample
  ref: %s
  unpetrify-ref: main
- name: sample-copy
  repo: local:sample
  ref: %s
`, head, head),
	}
	for name, content := range files {
		p := filepath.Join(ws.Dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	config := fmt.Sprintf("repo-aliases:\n  local: %s/\nline-counter: native\ncolor: \"no\"\n", filepath.Join(root, "upstream"))
	require.NoError(t, os.WriteFile(ws.Config, []byte(config), 0o644))
	return ws
}

// args returns the flags that point the binary at the workspace directories.
func (ws *workspace) args(extra ...string) []string {
	return append([]string{
		"--config", ws.Config,
		"--definitions", ws.Dir,
		"--mirror-dir", ws.Mirrors,
		"--scratch-dir", ws.Scratch,
	}, extra...)
}
