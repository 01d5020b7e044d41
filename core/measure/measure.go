// Package measure turns one (repository, revision) work item into a metrics record.
package measure

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/srcmeasure/internal/contract"
	"github.com/huangsam/srcmeasure/schema"
)

// Measurer runs the extract, line count, activity and author steps for one work item.
// Line counting may fail without abandoning the item; every other step is fatal.
type Measurer struct {
	ScratchDir string
	Source     contract.Materializer
	Lines      contract.LineCounter
	Activity   contract.ActivityAnalyzer
	Authors    contract.AuthorCounter
	Observer   contract.Observer
}

var _ contract.ComponentMeasurer = &Measurer{} // Compile-time check

// Measure extracts ref of repo into a private scratch directory and measures it.
// The scratch directory is removed before Measure returns.
func (m *Measurer) Measure(ctx context.Context, name, repo, ref string) (schema.MetricsRecord, error) {
	rec := schema.MetricsRecord{
		Name:    name,
		Repo:    repo,
		Ref:     ref,
		RefName: ref,
	}
	key := rec.Key()

	if err := os.MkdirAll(m.ScratchDir, 0o755); err != nil {
		return rec, fmt.Errorf("create scratch dir: %w", err)
	}
	tmp, err := os.MkdirTemp(m.ScratchDir, "measure-*")
	if err != nil {
		return rec, fmt.Errorf("create work dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	// --- 1. Materialize ---
	start := time.Now()
	if err := m.Source.Extract(ctx, repo, ref, tmp); err != nil {
		m.emit(contract.StepExtract, name, key, contract.OutcomeFailed, err, start)
		return rec, fmt.Errorf("extract: %w", err)
	}
	m.emit(contract.StepExtract, name, key, contract.OutcomeOK, nil, start)

	// --- 2. Count lines (recoverable) ---
	start = time.Now()
	sloc, err := m.Lines.Count(ctx, tmp)
	if err != nil {
		if ctx.Err() != nil {
			m.emit(contract.StepLines, name, key, contract.OutcomeInterrupted, err, start)
			return rec, fmt.Errorf("count lines: %w", err)
		}
		rec.SLOC = schema.SLOCUnmeasured
		m.emit(contract.StepLines, name, key, contract.OutcomeDegraded, err, start)
	} else {
		rec.SLOC = sloc
		m.emit(contract.StepLines, name, key, contract.OutcomeOK, nil, start)
	}

	mirrorDir := m.Source.MirrorDir(repo)

	// --- 3. Activity ---
	start = time.Now()
	stats, err := m.Activity.Activity(ctx, mirrorDir, ref)
	if err != nil {
		m.emit(contract.StepActive, name, key, contract.OutcomeFailed, err, start)
		return rec, fmt.Errorf("activity: %w", err)
	}
	rec.ActiveDays = stats.ActiveDays
	rec.ActiveDaysPerAuthor = stats.ActiveDaysPerAuthor
	m.emit(contract.StepActive, name, key, contract.OutcomeOK, nil, start)

	// --- 4. Authors ---
	start = time.Now()
	authors, err := m.Authors.Authors(ctx, mirrorDir, ref)
	if err != nil {
		m.emit(contract.StepAuthors, name, key, contract.OutcomeFailed, err, start)
		return rec, fmt.Errorf("authors: %w", err)
	}
	rec.Authors = authors
	m.emit(contract.StepAuthors, name, key, contract.OutcomeOK, nil, start)

	rec.MeasuredAt = time.Now()
	return rec, nil
}

func (m *Measurer) emit(step contract.Step, name string, key schema.WorkItemKey, outcome contract.Outcome, err error, start time.Time) {
	if m.Observer == nil {
		return
	}
	m.Observer.Observe(contract.Event{
		Step:     step,
		Name:     name,
		Key:      key,
		Outcome:  outcome,
		Err:      err,
		Duration: time.Since(start),
	})
}
