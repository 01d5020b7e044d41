// Package gitfixture builds small throwaway git repositories for tests.
package gitfixture

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// Commit describes one commit to create.
type Commit struct {
	Email string
	Date  string // YYYY-MM-DD
	Files map[string]string
}

// Repo is a non-bare repository under a test's temp dir.
type Repo struct {
	Dir string
}

// SkipIfGitNotAvailable skips the test if git binary is not found in PATH.
func SkipIfGitNotAvailable(t testing.TB) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skipf("git binary not found in PATH: %v", err)
	}
}

// New initializes an empty repository at dir.
func New(t testing.TB, dir string) *Repo {
	t.Helper()
	SkipIfGitNotAvailable(t)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	r := &Repo{Dir: dir}
	r.Git(t, nil, "init", "--quiet", "--initial-branch=main")
	return r
}

// Git runs a git command in the repository and returns trimmed stdout.
func (r *Repo) Git(t testing.TB, env []string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(),
		"GIT_CONFIG_NOSYSTEM=1",
		"GIT_CONFIG_GLOBAL="+os.DevNull,
		"GIT_COMMITTER_NAME=fixture",
		"GIT_COMMITTER_EMAIL=fixture@example.com",
	)
	cmd.Env = append(cmd.Env, env...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out))
}

// Commit writes the files and records a commit, returning its hash.
func (r *Repo) Commit(t testing.TB, c Commit) string {
	t.Helper()
	for name, content := range c.Files {
		path := filepath.Join(r.Dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	date := c.Date + "T12:00:00+00:00"
	env := []string{
		"GIT_AUTHOR_NAME=" + strings.SplitN(c.Email, "@", 2)[0],
		"GIT_AUTHOR_EMAIL=" + c.Email,
		"GIT_AUTHOR_DATE=" + date,
		"GIT_COMMITTER_DATE=" + date,
	}
	r.Git(t, env, "add", "--all")
	r.Git(t, env, "commit", "--quiet", "--allow-empty", "-m", "commit by "+c.Email)
	return r.Git(t, nil, "rev-parse", "HEAD")
}

// Tag creates a lightweight tag at HEAD.
func (r *Repo) Tag(t testing.TB, name string) {
	t.Helper()
	r.Git(t, nil, "tag", name)
}

// Sample creates a repository with three commits by two authors over two days.
//
//	alice 2024-01-01, bob 2024-01-01, alice 2024-01-02
//
// Active days: 2. Active (author, day) pairs: 3. Authors: 2.
func Sample(t testing.TB, dir string) (*Repo, string) {
	t.Helper()
	r := New(t, dir)
	r.Commit(t, Commit{Email: "alice@example.com", Date: "2024-01-01", Files: map[string]string{
		"main.go": "package main\n\nfunc main() {\n}\n",
	}})
	r.Commit(t, Commit{Email: "bob@example.com", Date: "2024-01-01", Files: map[string]string{
		"lib/util.c": "int add(int a, int b)\n{\n\treturn a + b;\n}\n",
	}})
	head := r.Commit(t, Commit{Email: "alice@example.com", Date: "2024-01-02", Files: map[string]string{
		"README.md": "# sample\n",
	}})
	return r, head
}
