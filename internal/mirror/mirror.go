// Package mirror keeps persistent bare mirrors of source repositories and
// materializes single revisions out of them.
package mirror

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/huangsam/srcmeasure/internal/contract"
	"golang.org/x/sync/singleflight"
)

var unsafeName = regexp.MustCompile(`[:/@%]`)

// Mirror mutation is guarded per absolute mirror path for the whole process,
// so stores built for separate runs over one mirror directory never clone or
// fetch into the same repository at once.
var (
	dirLocks sync.Map // absolute mirror path -> *sync.Mutex
	flight   singleflight.Group
)

// Store is a directory of mirrors, one per repository.
type Store struct {
	Dir     string            // Root of the mirror store
	Aliases map[string]string // Shorthand prefix -> URL prefix
	Client  contract.GitClient
}

var _ contract.Materializer = &Store{} // Compile-time check

// NewStore returns a store rooted at dir.
func NewStore(dir string, aliases map[string]string, client contract.GitClient) *Store {
	return &Store{Dir: dir, Aliases: aliases, Client: client}
}

// RepoURL expands an alias:path shorthand into a fetchable URL.
// Locators that already carry a scheme or that name no known alias are returned as is.
func (s *Store) RepoURL(repo string) string {
	if strings.Contains(repo, "://") {
		return repo
	}
	alias, rest, ok := strings.Cut(repo, ":")
	if !ok {
		return repo
	}
	prefix, known := s.Aliases[alias]
	if !known {
		return repo
	}
	if strings.Contains(prefix, "%s") {
		return strings.ReplaceAll(prefix, "%s", rest)
	}
	return prefix + rest
}

// RepoName turns a repository locator into a filesystem-safe mirror directory name.
func (s *Store) RepoName(repo string) string {
	return unsafeName.ReplaceAllString(s.RepoURL(repo), "_")
}

// MirrorDir returns the mirror location for repo, whether or not it exists yet.
func (s *Store) MirrorDir(repo string) string {
	return filepath.Join(s.Dir, s.RepoName(repo))
}

// Exists reports whether a mirror directory is present for repo.
func (s *Store) Exists(repo string) bool {
	info, err := os.Stat(s.MirrorDir(repo))
	return err == nil && info.IsDir()
}

// Ensure makes sure the mirror of repo exists and contains ref.
// A missing mirror is cloned; a mirror lacking ref is updated.
// Callers for the same mirror directory are serialized, even across stores,
// and concurrent calls for the same repo@ref share one attempt.
func (s *Store) Ensure(ctx context.Context, repo, ref string) (string, error) {
	dir := s.MirrorDir(repo)
	_, err, _ := flight.Do(lockKey(dir)+"\x00"+ref, func() (any, error) {
		mu := lock(dir)
		mu.Lock()
		defer mu.Unlock()
		return nil, s.ensureLocked(ctx, repo, ref, dir)
	})
	if err != nil {
		return "", err
	}
	return dir, nil
}

func (s *Store) ensureLocked(ctx context.Context, repo, ref, dir string) error {
	if !s.Exists(repo) {
		url := s.RepoURL(repo)
		if err := s.Client.CloneMirror(ctx, url, dir); err != nil {
			// Remove any partial clone.
			_ = os.RemoveAll(dir)
			return fmt.Errorf("mirror %s: %w", url, err)
		}
	}
	if s.Client.HasRevision(ctx, dir, ref) {
		return nil
	}
	if err := s.Client.UpdateMirror(ctx, dir); err != nil {
		return fmt.Errorf("update mirror of %s: %w", repo, err)
	}
	if !s.Client.HasRevision(ctx, dir, ref) {
		return fmt.Errorf("ref %q not found in %s", ref, repo)
	}
	return nil
}

// Extract populates target with exactly the tree of repo at ref.
func (s *Store) Extract(ctx context.Context, repo, ref, target string) error {
	dir, err := s.Ensure(ctx, repo, ref)
	if err != nil {
		return err
	}
	mu := lock(dir)
	mu.Lock()
	defer mu.Unlock()
	if err := s.Client.CheckoutTree(ctx, dir, ref, target); err != nil {
		return fmt.Errorf("extract %s@%s: %w", repo, ref, err)
	}
	return nil
}

// List returns the mirror directory names present in the store.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func lock(dir string) *sync.Mutex {
	mu, _ := dirLocks.LoadOrStore(lockKey(dir), &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func lockKey(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return filepath.Clean(dir)
}
