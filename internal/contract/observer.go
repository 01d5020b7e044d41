package contract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/huangsam/srcmeasure/schema"
)

// Step names a stage of a run that emits events.
type Step string

// Steps emitted by the walker, measurer and run controller.
const (
	StepWalk    Step = "walk"
	StepExtract Step = "extract"
	StepLines   Step = "count-lines"
	StepActive  Step = "activity"
	StepAuthors Step = "authors"
	StepItem    Step = "item"
	StepHistory Step = "history"
	StepRun     Step = "run"
)

// Outcome describes how a step ended.
type Outcome string

// Outcomes reported by events.
const (
	OutcomeStarted     Outcome = "started"
	OutcomeOK          Outcome = "ok"
	OutcomeDegraded    Outcome = "degraded"    // step failed but the item continues
	OutcomeFailed      Outcome = "failed"      // step failed and the item is abandoned
	OutcomeSkipped     Outcome = "skipped"     // structural record, nothing to measure
	OutcomeDuplicate   Outcome = "duplicate"   // work item key already measured
	OutcomeInterrupted Outcome = "interrupted" // cancellation observed
)

// Event is a structured observation emitted by the core.
type Event struct {
	RunID    string
	Step     Step
	Name     string
	Key      schema.WorkItemKey
	Outcome  Outcome
	Err      error
	Duration time.Duration
	Detail   string
}

// Observer receives events from the core. Implementations must not block for long.
type Observer interface {
	Observe(ev Event)
}

// NopObserver discards every event.
type NopObserver struct{}

var _ Observer = NopObserver{} // Compile-time check

// Observe implements the Observer interface.
func (NopObserver) Observe(Event) {}

// Color variables for console output.
var (
	OKColor      = color.New(color.FgGreen)
	WarnColor    = color.New(color.FgYellow)
	FailColor    = color.New(color.FgRed, color.Bold)
	InfoColor    = color.New(color.FgCyan)
	SubtleColor  = color.New(color.Faint)
	HeadingColor = color.New(color.Bold)
)

// ConsoleObserver renders events as human-readable lines.
type ConsoleObserver struct {
	w       io.Writer
	verbose bool
	mu      sync.Mutex
}

var _ Observer = &ConsoleObserver{} // Compile-time check

// NewConsoleObserver writes to w. Per-step events are only shown when verbose is set.
func NewConsoleObserver(w io.Writer, verbose bool) *ConsoleObserver {
	return &ConsoleObserver{w: w, verbose: verbose}
}

// Observe implements the Observer interface.
func (o *ConsoleObserver) Observe(ev Event) {
	line := o.format(ev)
	if line == "" {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	_, _ = fmt.Fprintln(o.w, line)
}

func (o *ConsoleObserver) format(ev Event) string {
	subject := ev.Name
	if ev.Key.Repo != "" {
		subject = fmt.Sprintf("%s %s", ev.Name, SubtleColor.Sprintf("(%s)", ev.Key))
	}

	switch ev.Step {
	case StepItem:
		switch ev.Outcome {
		case OutcomeStarted:
			return fmt.Sprintf("📏 Measuring %s", subject)
		case OutcomeOK:
			return fmt.Sprintf("%s %s in %s", OKColor.Sprint("✅ Measured"), subject, ev.Duration.Round(time.Millisecond))
		case OutcomeFailed:
			return fmt.Sprintf("%s %s: %v", FailColor.Sprint("❌ Failed"), subject, ev.Err)
		case OutcomeDuplicate, OutcomeSkipped:
			if !o.verbose {
				return ""
			}
			return fmt.Sprintf("⏭️  %s %s", SubtleColor.Sprint(string(ev.Outcome)), subject)
		case OutcomeInterrupted:
			return fmt.Sprintf("%s while measuring %s", WarnColor.Sprint("🛑 Interrupted"), subject)
		}
	case StepRun:
		if ev.Outcome == OutcomeInterrupted {
			return WarnColor.Sprint("🛑 Interrupted, keeping results measured so far")
		}
		if ev.Outcome == OutcomeFailed {
			return fmt.Sprintf("%s %v", FailColor.Sprint("❌ Run aborted:"), ev.Err)
		}
		if o.verbose {
			return fmt.Sprintf("🏁 Run %s %s", ev.Outcome, ev.Detail)
		}
	case StepWalk:
		if ev.Outcome == OutcomeOK {
			return fmt.Sprintf("%s %s", InfoColor.Sprint("🔎 Walked"), ev.Detail)
		}
		if ev.Outcome == OutcomeFailed {
			return fmt.Sprintf("%s %v", FailColor.Sprint("❌ Walk failed:"), ev.Err)
		}
	case StepHistory:
		if ev.Err != nil {
			return fmt.Sprintf("%s %v", WarnColor.Sprint("⚠️  History:"), ev.Err)
		}
	default:
		if ev.Outcome == OutcomeDegraded {
			return fmt.Sprintf("%s %s for %s: %v", WarnColor.Sprint("⚠️  Degraded"), ev.Step, subject, ev.Err)
		}
		if !o.verbose {
			return ""
		}
		if ev.Err != nil {
			return fmt.Sprintf("   %s %s %s: %v", ev.Step, ev.Outcome, subject, ev.Err)
		}
		return fmt.Sprintf("   %s %s %s %s", ev.Step, ev.Outcome, subject, SubtleColor.Sprint(ev.Duration.Round(time.Millisecond)))
	}
	return ""
}

// SlogObserver logs every event through a slog.Logger.
type SlogObserver struct {
	logger *slog.Logger
}

var _ Observer = &SlogObserver{} // Compile-time check

// NewSlogObserver wraps logger. A nil logger writes JSON to w.
func NewSlogObserver(logger *slog.Logger, w io.Writer) *SlogObserver {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(w, nil))
	}
	return &SlogObserver{logger: logger}
}

// Observe implements the Observer interface.
func (o *SlogObserver) Observe(ev Event) {
	level := slog.LevelInfo
	switch ev.Outcome {
	case OutcomeDegraded, OutcomeInterrupted:
		level = slog.LevelWarn
	case OutcomeFailed:
		level = slog.LevelError
	case OutcomeSkipped, OutcomeDuplicate:
		level = slog.LevelDebug
	}

	attrs := []slog.Attr{
		slog.String("step", string(ev.Step)),
		slog.String("outcome", string(ev.Outcome)),
	}
	if ev.RunID != "" {
		attrs = append(attrs, slog.String("run_id", ev.RunID))
	}
	if ev.Name != "" {
		attrs = append(attrs, slog.String("name", ev.Name))
	}
	if ev.Key.Repo != "" {
		attrs = append(attrs, slog.String("repo", ev.Key.Repo), slog.String("ref", ev.Key.Ref))
	}
	if ev.Duration > 0 {
		attrs = append(attrs, slog.Duration("duration", ev.Duration))
	}
	if ev.Detail != "" {
		attrs = append(attrs, slog.String("detail", ev.Detail))
	}
	if ev.Err != nil {
		attrs = append(attrs, slog.String("error", ev.Err.Error()))
	}
	o.logger.LogAttrs(context.Background(), level, "srcmeasure", attrs...)
}

// RecordingObserver keeps every event in memory.
type RecordingObserver struct {
	mu     sync.Mutex
	events []Event
}

var _ Observer = &RecordingObserver{} // Compile-time check

// Observe implements the Observer interface.
func (o *RecordingObserver) Observe(ev Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, ev)
}

// Events returns a copy of the recorded events.
func (o *RecordingObserver) Events() []Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Event, len(o.events))
	copy(out, o.events)
	return out
}

// Filter returns the recorded events for one step and outcome.
func (o *RecordingObserver) Filter(step Step, outcome Outcome) []Event {
	var out []Event
	for _, ev := range o.Events() {
		if ev.Step == step && ev.Outcome == outcome {
			out = append(out, ev)
		}
	}
	return out
}

// MultiObserver fans events out to several observers.
type MultiObserver []Observer

// Observe implements the Observer interface.
func (m MultiObserver) Observe(ev Event) {
	for _, o := range m {
		o.Observe(ev)
	}
}

// RunObserver stamps every event with a run ID before forwarding it.
type RunObserver struct {
	RunID string
	Next  Observer
}

var _ Observer = RunObserver{} // Compile-time check

// Observe implements the Observer interface.
func (o RunObserver) Observe(ev Event) {
	if ev.RunID == "" {
		ev.RunID = o.RunID
	}
	if o.Next != nil {
		o.Next.Observe(ev)
	}
}
