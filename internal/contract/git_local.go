package contract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalGitClient implements the GitClient interface by executing the
// local 'git' binary installed on the machine.
type LocalGitClient struct {
	Timeout time.Duration // Per-invocation bound (0 = none)
}

var _ GitClient = &LocalGitClient{} // Compile-time check

// NewLocalGitClient creates a new instance of the local Git client.
func NewLocalGitClient(timeout time.Duration) *LocalGitClient {
	return &LocalGitClient{Timeout: timeout}
}

// Run executes a git command and returns its stdout.
func (c *LocalGitClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	return c.RunWithEnv(ctx, repoPath, nil, args...)
}

// RunWithEnv implements the GitClient interface.
func (c *LocalGitClient) RunWithEnv(ctx context.Context, repoPath string, env []string, args ...string) ([]byte, error) {
	fullArgs := append([]string{"-C", repoPath}, args...)
	out, err := RunCommand(ctx, c.Timeout, "", env, "git", fullArgs...)
	if err != nil {
		return nil, fmt.Errorf("git %s in %q: %w", firstArg(args), repoPath, err)
	}
	return out, nil
}

// CloneMirror implements the GitClient interface.
func (c *LocalGitClient) CloneMirror(ctx context.Context, url, mirrorDir string) error {
	parent := filepath.Dir(mirrorDir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("create mirror root: %w", err)
	}
	_, err := c.Run(ctx, parent, "clone", "--mirror", url, filepath.Base(mirrorDir))
	return err
}

// UpdateMirror implements the GitClient interface.
func (c *LocalGitClient) UpdateMirror(ctx context.Context, mirrorDir string) error {
	_, err := c.Run(ctx, mirrorDir, "remote", "update", "--prune")
	return err
}

// HasRevision implements the GitClient interface.
func (c *LocalGitClient) HasRevision(ctx context.Context, repoPath, ref string) bool {
	_, err := c.Run(ctx, repoPath, "cat-file", "-t", ref)
	return err == nil
}

// CheckoutTree implements the GitClient interface.
// A throwaway index file keeps the mirror's own state untouched.
func (c *LocalGitClient) CheckoutTree(ctx context.Context, repoPath, ref, target string) error {
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return err
	}
	index, err := os.CreateTemp("", "srcmeasure-index-*")
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	indexPath := index.Name()
	_ = index.Close()
	// git refuses to read an empty file as an index
	_ = os.Remove(indexPath)
	defer func() { _ = os.Remove(indexPath) }()

	env := []string{"GIT_INDEX_FILE=" + indexPath, "GIT_WORK_TREE=" + absTarget}
	if _, err := c.RunWithEnv(ctx, repoPath, env, "read-tree", ref); err != nil {
		return err
	}
	_, err = c.RunWithEnv(ctx, repoPath, env, "checkout-index", "--all")
	return err
}

// GetActivityLog implements the GitClient interface.
func (c *LocalGitClient) GetActivityLog(ctx context.Context, repoPath, ref string, all bool) ([]byte, error) {
	args := []string{
		"log",
		"--format=%ae|%ad",
		"--date=short",
	}
	if all {
		args = append(args, "--all")
	} else {
		args = append(args, ref, "--")
	}
	return c.Run(ctx, repoPath, args...)
}

// GetShortlog implements the GitClient interface.
func (c *LocalGitClient) GetShortlog(ctx context.Context, repoPath, ref string) ([]byte, error) {
	return c.Run(ctx, repoPath, "shortlog", "--email", "--summary", ref, "--")
}

// CountNonEmptyLines returns the number of lines in out with non-whitespace content.
func CountNonEmptyLines(out []byte) int {
	n := 0
	for line := range strings.SplitSeq(string(out), "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
