package schema

import "time"

// ItemFailure records a work item whose measurement was abandoned.
type ItemFailure struct {
	Name string      `json:"name"`
	Key  WorkItemKey `json:"key"`
	Err  string      `json:"error"`
}

// RunSummary describes how a run went, independent of the results themselves.
type RunSummary struct {
	RunID       string        `json:"run_id"`
	Root        string        `json:"root"`
	Components  int           `json:"components"` // Records visited, root included when configured
	Measured    int           `json:"measured"`
	Structural  int           `json:"structural"` // Records without repo/ref
	Duplicates  int           `json:"duplicates"` // Records whose key was already measured
	Failed      []ItemFailure `json:"failed,omitempty"`
	Interrupted bool          `json:"interrupted"`
	Duration    time.Duration `json:"duration"`
}
