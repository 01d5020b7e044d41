package mirror

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/huangsam/srcmeasure/internal/contract"
	"github.com/huangsam/srcmeasure/internal/gitfixture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testAliases = map[string]string{
	"upstream": "git://git.baserock.org/delta/",
	"tmpl":     "https://example.com/%s.git",
}

func TestRepoURL(t *testing.T) {
	s := NewStore(t.TempDir(), testAliases, nil)
	assert.Equal(t, "git://git.baserock.org/delta/zlib", s.RepoURL("upstream:zlib"))
	assert.Equal(t, "https://example.com/foo/bar.git", s.RepoURL("tmpl:foo/bar"))
	assert.Equal(t, "https://github.com/x/y", s.RepoURL("https://github.com/x/y"))
	assert.Equal(t, "unknown:zlib", s.RepoURL("unknown:zlib"))
	assert.Equal(t, "/srv/git/zlib", s.RepoURL("/srv/git/zlib"))
}

func TestRepoName(t *testing.T) {
	s := NewStore(t.TempDir(), testAliases, nil)
	assert.Equal(t, "git___git.baserock.org_delta_zlib", s.RepoName("upstream:zlib"))
	assert.Equal(t, "ssh___git_host_repo_", s.RepoName("ssh://git@host/repo%"))
	assert.Equal(t, filepath.Join(s.Dir, "git___git.baserock.org_delta_zlib"), s.MirrorDir("upstream:zlib"))
}

func TestEnsure_CloneOnMiss(t *testing.T) {
	ctx := context.Background()
	client := new(contract.MockGitClient)
	s := NewStore(t.TempDir(), testAliases, client)
	dir := s.MirrorDir("upstream:zlib")

	client.On("CloneMirror", ctx, "git://git.baserock.org/delta/zlib", dir).
		Run(func(mock.Arguments) { _ = os.MkdirAll(dir, 0o755) }).
		Return(nil).Once()
	client.On("HasRevision", ctx, dir, "abc").Return(true).Once()

	got, err := s.Ensure(ctx, "upstream:zlib", "abc")
	require.NoError(t, err)
	assert.Equal(t, dir, got)
	client.AssertExpectations(t)
	client.AssertNotCalled(t, "UpdateMirror", mock.Anything, mock.Anything)
}

func TestEnsure_UpdateWhenStale(t *testing.T) {
	ctx := context.Background()
	client := new(contract.MockGitClient)
	s := NewStore(t.TempDir(), testAliases, client)
	dir := s.MirrorDir("upstream:zlib")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	client.On("HasRevision", ctx, dir, "abc").Return(false).Once()
	client.On("UpdateMirror", ctx, dir).Return(nil).Once()
	client.On("HasRevision", ctx, dir, "abc").Return(true).Once()

	_, err := s.Ensure(ctx, "upstream:zlib", "abc")
	require.NoError(t, err)
	client.AssertExpectations(t)
	client.AssertNotCalled(t, "CloneMirror", mock.Anything, mock.Anything, mock.Anything)
}

func TestEnsure_RefStillMissing(t *testing.T) {
	ctx := context.Background()
	client := new(contract.MockGitClient)
	s := NewStore(t.TempDir(), testAliases, client)
	dir := s.MirrorDir("upstream:zlib")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	client.On("HasRevision", ctx, dir, "gone").Return(false)
	client.On("UpdateMirror", ctx, dir).Return(nil).Once()

	_, err := s.Ensure(ctx, "upstream:zlib", "gone")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `ref "gone" not found`)
}

func TestEnsure_CloneFailureRemovesPartialMirror(t *testing.T) {
	ctx := context.Background()
	client := new(contract.MockGitClient)
	s := NewStore(t.TempDir(), testAliases, client)
	dir := s.MirrorDir("upstream:zlib")

	client.On("CloneMirror", ctx, mock.Anything, dir).
		Run(func(mock.Arguments) { _ = os.MkdirAll(dir, 0o755) }).
		Return(errors.New("network down")).Once()

	_, err := s.Ensure(ctx, "upstream:zlib", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network down")
	assert.NoDirExists(t, dir)
}

func TestExtract_PropagatesCheckoutError(t *testing.T) {
	ctx := context.Background()
	client := new(contract.MockGitClient)
	s := NewStore(t.TempDir(), testAliases, client)
	dir := s.MirrorDir("upstream:zlib")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	client.On("HasRevision", ctx, dir, "abc").Return(true)
	client.On("CheckoutTree", ctx, dir, "abc", "/target").Return(errors.New("bad tree"))

	err := s.Extract(ctx, "upstream:zlib", "abc", "/target")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extract upstream:zlib@abc")
}

// TestEnsure_ConcurrentCallersCloneOnce checks that mirror mutation is serialized per repository.
func TestEnsure_ConcurrentCallersCloneOnce(t *testing.T) {
	ctx := context.Background()
	client := new(contract.MockGitClient)
	s := NewStore(t.TempDir(), testAliases, client)
	dir := s.MirrorDir("upstream:zlib")

	client.On("CloneMirror", ctx, mock.Anything, dir).
		Run(func(mock.Arguments) { _ = os.MkdirAll(dir, 0o755) }).
		Return(nil).Once()
	client.On("HasRevision", ctx, dir, mock.Anything).Return(true)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ref := "abc"
			if i%2 == 1 {
				ref = "def"
			}
			_, err := s.Ensure(ctx, "upstream:zlib", ref)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	client.AssertNumberOfCalls(t, "CloneMirror", 1)
}

// TestEnsure_SeparateStoresShareMirrorLock checks that two stores over one
// mirror directory, as built by concurrent runs, never clone the same repository twice.
func TestEnsure_SeparateStoresShareMirrorLock(t *testing.T) {
	ctx := context.Background()
	client := new(contract.MockGitClient)
	root := t.TempDir()
	stores := []*Store{NewStore(root, testAliases, client), NewStore(root, testAliases, client)}
	dir := stores[0].MirrorDir("upstream:zlib")
	require.Equal(t, dir, stores[1].MirrorDir("upstream:zlib"))

	var active, peak int32
	client.On("CloneMirror", mock.Anything, mock.Anything, dir).
		Run(func(mock.Arguments) {
			n := atomic.AddInt32(&active, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(50 * time.Millisecond)
			_ = os.MkdirAll(dir, 0o755)
			atomic.AddInt32(&active, -1)
		}).
		Return(nil)
	client.On("HasRevision", mock.Anything, dir, mock.Anything).Return(true)

	var wg sync.WaitGroup
	for i, s := range stores {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Ensure(ctx, "upstream:zlib", []string{"abc", "def"}[i])
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	client.AssertNumberOfCalls(t, "CloneMirror", 1)
	assert.Equal(t, int32(1), atomic.LoadInt32(&peak))
	assert.DirExists(t, dir)
}

func TestStore_RealGit(t *testing.T) {
	gitfixture.SkipIfGitNotAvailable(t)
	ctx := context.Background()
	root := t.TempDir()
	upstream, first := gitfixture.Sample(t, filepath.Join(root, "upstream", "sample"))

	s := NewStore(filepath.Join(root, "gits"), map[string]string{"local": filepath.Join(root, "upstream") + "/"}, contract.NewLocalGitClient(0))

	target := filepath.Join(root, "tree1")
	require.NoError(t, os.MkdirAll(target, 0o755))
	require.NoError(t, s.Extract(ctx, "local:sample", first, target))
	assert.FileExists(t, filepath.Join(target, "main.go"))
	assert.NoDirExists(t, filepath.Join(target, ".git"))
	assert.True(t, s.Exists("local:sample"))

	second := upstream.Commit(t, gitfixture.Commit{Email: "dave@example.com", Date: "2024-03-01", Files: map[string]string{"later.txt": "later\n"}})
	target2 := filepath.Join(root, "tree2")
	require.NoError(t, os.MkdirAll(target2, 0o755))
	require.NoError(t, s.Extract(ctx, "local:sample", second, target2), "stale mirror is updated")
	assert.FileExists(t, filepath.Join(target2, "later.txt"))

	names, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{s.RepoName("local:sample")}, names)
}
