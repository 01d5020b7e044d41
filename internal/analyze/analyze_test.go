package analyze

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/srcmeasure/internal/contract"
	"github.com/huangsam/srcmeasure/internal/gitfixture"
	"github.com/huangsam/srcmeasure/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSloccountOutput = `Have a non-directory at the top, so creating directory top_dir
Creating filelist for src
Categorizing files.
SLOC	Directory	SLOC-by-Language (Sorted)
12345   src             ansic=12000,sh=345

Totals grouped by language (dominant language first):
ansic:        12000 (97.21%)
sh:             345 (2.79%)

Total Physical Source Lines of Code (SLOC)                = 12,345
Development Effort Estimate, Person-Years (Person-Months) = 2.88 (34.55)
`

func TestParseSloccount(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    int
		wantErr bool
	}{
		{"thousands separator", sampleSloccountOutput, 12345, false},
		{"plain number", "Total Physical Source Lines of Code (SLOC) = 42\n", 42, false},
		{"zero", "Total Physical Source Lines of Code (SLOC) = 0\n", 0, false},
		{"missing total", "SLOC total is zero, no further info.\n", 0, true},
		{"garbage number", "Total Physical Source Lines of Code (SLOC) = lots\n", 0, true},
		{"empty", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSloccount([]byte(tt.out))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnexpectedOutput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// writeScript creates an executable shell script standing in for sloccount.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	p := filepath.Join(t.TempDir(), "fake-sloccount")
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"+body), 0o755))
	return p
}

func TestSlocCounter(t *testing.T) {
	ctx := context.Background()

	ok := NewSlocCounter(writeScript(t, "echo 'Total Physical Source Lines of Code (SLOC) = 1,024'\n"), time.Minute)
	n, err := ok.Count(ctx, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 1024, n)

	failing := NewSlocCounter(writeScript(t, "echo 'cannot read' >&2\nexit 1\n"), time.Minute)
	_, err = failing.Count(ctx, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot read")

	unparseable := NewSlocCounter(writeScript(t, "echo hello\n"), time.Minute)
	_, err = unparseable.Count(ctx, t.TempDir())
	assert.ErrorIs(t, err, ErrUnexpectedOutput)

	slow := NewSlocCounter(writeScript(t, "exec sleep 5\n"), 50*time.Millisecond)
	_, err = slow.Count(ctx, t.TempDir())
	assert.ErrorIs(t, err, contract.ErrCommandTimeout)

	missing := NewSlocCounter(filepath.Join(t.TempDir(), "nope"), time.Minute)
	_, err = missing.Count(ctx, t.TempDir())
	assert.Error(t, err)

	assert.Equal(t, contract.DefaultSloccountBin, NewSlocCounter("", 0).Bin)
}

func TestNativeCounter(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"main.go":              "package main\n\nfunc main() {\n}\n",
		"src/util.c":           "int add(int a, int b)\n{\n\n\treturn a + b;\n}\n",
		"run.py":               "import sys\n\nprint(sys.argv)\n",
		"vendor/dep/dep.go":    "package dep\n",
		"node_modules/x.js":    "var x = 1;\n",
		".hidden/secret.go":    "package secret\n",
		"README.md":            "# title\n\ntext\n",
		"docs/guide.go":        "package docs\n",
		"config/settings.json": "{\"a\": 1}\n",
		"empty.go":             "",
	}
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blob.bin"), []byte{0x00, 0x01, 0x02, 0x00, 0xff}, 0o644))

	// main.go 3, src/util.c 4, run.py 2
	n, err := NativeCounter{}.Count(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 9, n)
}

func TestNativeCounter_Errors(t *testing.T) {
	_, err := NativeCounter{}.Count(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a\n"), 0o644))
	_, err = NativeCounter{}.Count(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseActivityLog(t *testing.T) {
	out := []byte("alice@example.com|2024-01-02\nbob@example.com|2024-01-01\nalice@example.com|2024-01-01\nAlice@Example.com|2024-01-01\n\n")
	stats, err := ParseActivityLog(out)
	require.NoError(t, err)
	assert.Equal(t, schema.ActivityStats{ActiveDays: 2, ActiveDaysPerAuthor: 3}, stats)

	stats, err = ParseActivityLog(nil)
	require.NoError(t, err)
	assert.Zero(t, stats.ActiveDays)

	_, err = ParseActivityLog([]byte("no separator here\n"))
	assert.ErrorIs(t, err, ErrUnexpectedOutput)
}

func TestGitActivityAnalyzer_Scope(t *testing.T) {
	ctx := context.Background()
	client := new(contract.MockGitClient)
	client.On("GetActivityLog", ctx, "/m", "abc", false).Return([]byte("a|2024-01-01\n"), nil).Once()
	client.On("GetActivityLog", ctx, "/m", "abc", true).Return([]byte("a|2024-01-01\nb|2024-01-03\n"), nil).Once()
	client.On("GetActivityLog", ctx, "/m", "bad", false).Return(nil, errors.New("unknown revision")).Once()

	refOnly := &GitActivityAnalyzer{Client: client, Scope: schema.RefScope}
	stats, err := refOnly.Activity(ctx, "/m", "abc")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ActiveDays)

	all := &GitActivityAnalyzer{Client: client, Scope: schema.AllScope}
	stats, err = all.Activity(ctx, "/m", "abc")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ActiveDays)

	_, err = refOnly.Activity(ctx, "/m", "bad")
	assert.Error(t, err)
	client.AssertExpectations(t)
}

func TestGitAnalyzers_RealGit(t *testing.T) {
	gitfixture.SkipIfGitNotAvailable(t)
	ctx := context.Background()
	repo, head := gitfixture.Sample(t, t.TempDir())
	client := contract.NewLocalGitClient(time.Minute)

	stats, err := (&GitActivityAnalyzer{Client: client}).Activity(ctx, repo.Dir, head)
	require.NoError(t, err)
	assert.Equal(t, schema.ActivityStats{ActiveDays: 2, ActiveDaysPerAuthor: 3}, stats)

	authors, err := (&GitAuthorCounter{Client: client}).Authors(ctx, repo.Dir, head)
	require.NoError(t, err)
	assert.Equal(t, 2, authors)

	_, err = (&GitAuthorCounter{Client: client}).Authors(ctx, repo.Dir, "missing-ref")
	assert.Error(t, err)
}
