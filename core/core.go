// Package core has the run controller and the entry points that wire it to real collaborators.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/huangsam/srcmeasure/core/measure"
	"github.com/huangsam/srcmeasure/core/walk"
	"github.com/huangsam/srcmeasure/internal/analyze"
	"github.com/huangsam/srcmeasure/internal/contract"
	"github.com/huangsam/srcmeasure/internal/definitions"
	"github.com/huangsam/srcmeasure/internal/mirror"
	"github.com/huangsam/srcmeasure/internal/outwriter"
	"github.com/huangsam/srcmeasure/schema"
)

// ExecutorFunc defines the function signature for executing a command against a validated config.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error

// ExecuteMeasure measures every work item reachable from cfg.Root and writes the report.
// It serves as the main entry point for the root command.
//
// Interrupted and aborted runs still write what was measured. Only an abort is
// reported as an error after the report is written.
func ExecuteMeasure(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	defs, err := LoadDefinitions(cfg)
	if err != nil {
		return err
	}

	runner := NewRunner(cfg, defs, mgr, NewObserver(cfg, os.Stderr))
	results, summary, runErr := runner.Run(ctx, cfg.Root)
	if runErr != nil && !errors.Is(runErr, ErrAborted) {
		return runErr
	}

	if err := outwriter.NewOutWriter(os.Stderr).WriteResults(results, summary, cfg); err != nil {
		return err
	}
	return runErr
}

// ExecuteWalk prints the components reachable from cfg.Root in processing order, without measuring.
func ExecuteWalk(ctx context.Context, cfg *contract.Config, _ contract.StoreManager) error {
	defs, err := LoadDefinitions(cfg)
	if err != nil {
		return err
	}
	records, err := PlanWalk(ctx, defs, cfg, cfg.Root)
	if err != nil {
		return err
	}
	return outwriter.WriteWalk(records, cfg, os.Stderr)
}

// LoadDefinitions reads cfg.DefinitionsDir and logs any load warnings.
func LoadDefinitions(cfg *contract.Config) (*definitions.Definitions, error) {
	defs, err := definitions.Load(cfg.DefinitionsDir)
	if err != nil {
		return nil, fmt.Errorf("load definitions from %s: %w", cfg.DefinitionsDir, err)
	}
	for _, w := range defs.Warnings() {
		contract.LogWarn("definitions", errors.New(w))
	}
	return defs, nil
}

// PlanWalk resolves rootID and returns the components in the order a run would process them.
func PlanWalk(ctx context.Context, defs contract.DefinitionResolver, cfg *contract.Config, rootID string) ([]schema.ComponentRecord, error) {
	root, err := defs.Resolve(contract.NormalizeDefinitionID(rootID))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRootNotFound, rootID, err)
	}
	records, err := walk.Walk(ctx, defs, root)
	if err != nil {
		return nil, err
	}
	return orderRecords(records, root, cfg), nil
}

// NewRunner builds a Runner backed by local git, the mirror store and the configured line counter.
// History is recorded when mgr provides a store.
func NewRunner(cfg *contract.Config, defs contract.DefinitionResolver, mgr contract.StoreManager, obs contract.Observer) *Runner {
	if obs == nil {
		obs = contract.NopObserver{}
	}
	runID := uuid.NewString()
	runObs := contract.RunObserver{RunID: runID, Next: obs}

	runner := &Runner{
		Definitions: defs,
		Measurer:    NewMeasurer(cfg, runObs),
		Observer:    obs,
		Config:      cfg,
		RunID:       runID,
	}
	if mgr != nil {
		runner.History = mgr.GetHistoryStore()
	}
	return runner
}

// NewMeasurer wires the measurement steps for cfg.
func NewMeasurer(cfg *contract.Config, obs contract.Observer) *measure.Measurer {
	client := contract.NewLocalGitClient(cfg.CommandTimeout)
	return &measure.Measurer{
		ScratchDir: cfg.ScratchDir,
		Source:     mirror.NewStore(cfg.MirrorDir, cfg.RepoAliases, client),
		Lines:      NewLineCounter(cfg),
		Activity:   &analyze.GitActivityAnalyzer{Client: client, Scope: cfg.ActivityScope},
		Authors:    &analyze.GitAuthorCounter{Client: client},
		Observer:   obs,
	}
}

// NewLineCounter returns the line counter selected by cfg.LineCounter.
func NewLineCounter(cfg *contract.Config) contract.LineCounter {
	if cfg.LineCounter == schema.NativeCounter {
		return analyze.NativeCounter{}
	}
	return analyze.NewSlocCounter(cfg.SloccountBin, cfg.CommandTimeout)
}

// NewObserver returns the observer selected by cfg.LogFormat, writing to w.
func NewObserver(cfg *contract.Config, w io.Writer) contract.Observer {
	if cfg.LogFormat == schema.JSONLog {
		return contract.NewSlogObserver(nil, w)
	}
	return contract.NewConsoleObserver(w, cfg.Verbose)
}
