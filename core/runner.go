package core

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/srcmeasure/core/walk"
	"github.com/huangsam/srcmeasure/internal/contract"
	"github.com/huangsam/srcmeasure/schema"
)

// Sentinel errors returned by Run.
var (
	ErrRootNotFound = errors.New("root definition not found")
	ErrAborted      = errors.New("run aborted")
)

// Runner walks a definition graph and measures every unique work item once.
type Runner struct {
	Definitions contract.DefinitionResolver
	Measurer    contract.ComponentMeasurer
	Observer    contract.Observer
	History     contract.HistoryStore // Optional audit trail
	Config      *contract.Config
	RunID       string // Generated when empty
}

// Run measures the component graph rooted at rootID.
//
// The returned result set is never nil. Cancelling ctx, or a measurement tool
// killed by an interrupt signal, stops the run and keeps what was measured so far;
// in that case the summary is marked interrupted and the error is nil. Item failures are recorded in the summary and only end the
// run early under the abort policy, with an error wrapping ErrAborted.
func (r *Runner) Run(ctx context.Context, rootID string) (*schema.ResultSet, *schema.RunSummary, error) {
	start := time.Now()
	if r.RunID == "" {
		r.RunID = uuid.NewString()
	}
	obs := contract.RunObserver{RunID: r.RunID, Next: r.Observer}
	results := schema.NewResultSet()
	summary := &schema.RunSummary{RunID: r.RunID, Root: contract.NormalizeDefinitionID(rootID)}
	defer func() { summary.Duration = time.Since(start) }()

	// --- 1. Resolve the root ---
	root, err := r.Definitions.Resolve(summary.Root)
	if err != nil {
		return results, summary, fmt.Errorf("%w: %s: %w", ErrRootNotFound, rootID, err)
	}

	// --- 2. Walk the graph ---
	walkStart := time.Now()
	records, err := walk.Walk(ctx, r.Definitions, root)
	if err != nil {
		if ctx.Err() != nil {
			summary.Interrupted = true
			obs.Observe(contract.Event{Step: contract.StepRun, Outcome: contract.OutcomeInterrupted, Err: err})
			return results, summary, nil
		}
		obs.Observe(contract.Event{Step: contract.StepWalk, Name: root.ID, Outcome: contract.OutcomeFailed, Err: err})
		return results, summary, err
	}
	records = orderRecords(records, root, r.Config)
	summary.Components = len(records)
	obs.Observe(contract.Event{
		Step:     contract.StepWalk,
		Name:     root.ID,
		Outcome:  contract.OutcomeOK,
		Duration: time.Since(walkStart),
		Detail:   fmt.Sprintf("%s: %d components", root.ID, len(records)),
	})

	// --- 3. Begin history tracking (if configured) ---
	historyID := r.beginHistory(obs, summary.Root, start)

	// --- 4. Measure ---
	runErr := r.measureAll(ctx, obs, records, results, summary, historyID)

	// --- 5. End history tracking ---
	if historyID > 0 {
		if err := r.History.EndRun(historyID, time.Now(), results.Len(), summary.Interrupted); err != nil {
			obs.Observe(contract.Event{Step: contract.StepHistory, Outcome: contract.OutcomeDegraded, Err: fmt.Errorf("finalize run: %w", err)})
		}
	}

	outcome := contract.OutcomeOK
	switch {
	case runErr != nil:
		outcome = contract.OutcomeFailed
	case summary.Interrupted:
		outcome = contract.OutcomeInterrupted
	}
	obs.Observe(contract.Event{
		Step:     contract.StepRun,
		Name:     root.ID,
		Outcome:  outcome,
		Err:      runErr,
		Duration: time.Since(start),
		Detail:   fmt.Sprintf("measured=%d failed=%d", summary.Measured, len(summary.Failed)),
	})
	return results, summary, runErr
}

// measureAll processes records in order, filling results and summary.
func (r *Runner) measureAll(ctx context.Context, obs contract.Observer, records []schema.ComponentRecord, results *schema.ResultSet, summary *schema.RunSummary, historyID int64) error {
	failed := make(map[schema.WorkItemKey]struct{})

	for _, rec := range records {
		if ctx.Err() != nil {
			summary.Interrupted = true
			return nil
		}

		name := rec.DisplayName()
		if !rec.IsMeasurable() {
			summary.Structural++
			obs.Observe(contract.Event{Step: contract.StepItem, Name: name, Outcome: contract.OutcomeSkipped})
			continue
		}

		key := rec.Key()
		if _, seen := failed[key]; seen || results.Has(key) {
			summary.Duplicates++
			obs.Observe(contract.Event{Step: contract.StepItem, Name: name, Key: key, Outcome: contract.OutcomeDuplicate})
			continue
		}

		obs.Observe(contract.Event{Step: contract.StepItem, Name: name, Key: key, Outcome: contract.OutcomeStarted})
		itemStart := time.Now()
		metrics, err := r.Measurer.Measure(ctx, name, rec.Repo, rec.Ref)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, contract.ErrInterrupted) {
				summary.Interrupted = true
				obs.Observe(contract.Event{Step: contract.StepItem, Name: name, Key: key, Outcome: contract.OutcomeInterrupted, Err: err})
				return nil
			}
			failed[key] = struct{}{}
			summary.Failed = append(summary.Failed, schema.ItemFailure{Name: name, Key: key, Err: err.Error()})
			obs.Observe(contract.Event{Step: contract.StepItem, Name: name, Key: key, Outcome: contract.OutcomeFailed, Err: err, Duration: time.Since(itemStart)})
			if r.Config.OnError == schema.AbortOnError {
				return fmt.Errorf("%w: measure %s (%s): %w", ErrAborted, name, key, err)
			}
			continue
		}

		metrics.RefName = rec.RefName()
		results.Add(key, metrics)
		summary.Measured++
		obs.Observe(contract.Event{Step: contract.StepItem, Name: name, Key: key, Outcome: contract.OutcomeOK, Duration: time.Since(itemStart)})

		if historyID > 0 {
			if err := r.History.RecordMetrics(historyID, metrics); err != nil {
				obs.Observe(contract.Event{Step: contract.StepHistory, Name: name, Key: key, Outcome: contract.OutcomeDegraded, Err: fmt.Errorf("record metrics: %w", err)})
			}
		}
	}
	return nil
}

// orderRecords appends the root when configured and applies the processing order.
func orderRecords(records []schema.ComponentRecord, root schema.ComponentRecord, cfg *contract.Config) []schema.ComponentRecord {
	if cfg.IncludeRoot {
		records = append(records, root)
	}
	if cfg.Order != schema.DependencyOrder {
		slices.Reverse(records)
	}
	return records
}

// beginHistory opens a history row and returns its ID, or 0 when tracking is off or failed.
func (r *Runner) beginHistory(obs contract.Observer, root string, start time.Time) int64 {
	if r.History == nil {
		return 0
	}
	id, err := r.History.BeginRun(r.RunID, root, start, r.Config.Params())
	if err != nil {
		obs.Observe(contract.Event{Step: contract.StepHistory, Outcome: contract.OutcomeDegraded, Err: fmt.Errorf("begin run: %w", err)})
		return 0
	}
	return id
}
