// Package contract provides interfaces and shared utilities for srcmeasure's internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/srcmeasure/schema"
)

// GitClient defines the git operations needed to mirror, materialize and inspect repositories.
// This allows the measurement logic to be tested without needing a real git executable.
type GitClient interface {
	// --- Generic / Low-Level ---

	// Run executes a git command inside repoPath and returns its stdout.
	Run(ctx context.Context, repoPath string, args ...string) ([]byte, error)

	// RunWithEnv is Run with extra KEY=VALUE entries appended to the environment.
	RunWithEnv(ctx context.Context, repoPath string, env []string, args ...string) ([]byte, error)

	// --- Mirrors ---

	// CloneMirror creates a bare mirror of url at mirrorDir.
	CloneMirror(ctx context.Context, url, mirrorDir string) error

	// UpdateMirror fetches all refs of an existing mirror, pruning deleted ones.
	UpdateMirror(ctx context.Context, mirrorDir string) error

	// HasRevision reports whether ref resolves to an object in the repository.
	HasRevision(ctx context.Context, repoPath, ref string) bool

	// --- Materialization ---

	// CheckoutTree writes the tree of ref into target without creating any git metadata there.
	CheckoutTree(ctx context.Context, repoPath, ref, target string) error

	// --- History ---

	// GetActivityLog returns one "email|YYYY-MM-DD" line per commit reachable from ref,
	// or from every ref when all is set.
	GetActivityLog(ctx context.Context, repoPath, ref string, all bool) ([]byte, error)

	// GetShortlog returns the output of git shortlog --email --summary for ref.
	GetShortlog(ctx context.Context, repoPath, ref string) ([]byte, error)
}

// DefinitionResolver resolves a definition identifier to its component record.
type DefinitionResolver interface {
	Resolve(id string) (schema.ComponentRecord, error)
}

// Materializer produces a directory containing exactly one revision's file tree.
// Mirror creation and refresh happen inside Extract.
type Materializer interface {
	Extract(ctx context.Context, repo, ref, target string) error
	MirrorDir(repo string) string
}

// LineCounter counts physical source lines below a directory.
type LineCounter interface {
	Count(ctx context.Context, dir string) (int, error)
}

// ActivityAnalyzer computes commit activity scalars from a mirror.
type ActivityAnalyzer interface {
	Activity(ctx context.Context, mirrorDir, ref string) (schema.ActivityStats, error)
}

// AuthorCounter counts distinct commit authors reachable from a revision.
type AuthorCounter interface {
	Authors(ctx context.Context, mirrorDir, ref string) (int, error)
}

// ComponentMeasurer turns one work item into a metrics record.
type ComponentMeasurer interface {
	Measure(ctx context.Context, name, repo, ref string) (schema.MetricsRecord, error)
}

// StoreManager defines the interface for managing persistence stores.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetHistoryStore() HistoryStore
}

// HistoryStore records measurement runs for auditing. It is never consulted
// to skip a measurement.
type HistoryStore interface {
	// BeginRun creates a new run row and returns its ID
	BeginRun(runUUID, root string, startTime time.Time, configParams map[string]any) (int64, error)

	// RecordMetrics stores one measured work item
	RecordMetrics(runID int64, rec schema.MetricsRecord) error

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, totalMeasured int, interrupted bool) error

	// GetStatus returns status information about the store
	GetStatus() (schema.HistoryStatus, error)

	// GetAllRuns returns every recorded run, oldest first
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllMetrics returns every recorded metrics row, ordered by run
	GetAllMetrics() ([]schema.MetricsRow, error)

	// Close closes the underlying connection
	Close() error
}
