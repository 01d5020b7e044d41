package schema

import "time"

// RunRecord represents a row from the srcmeasure_runs table.
type RunRecord struct {
	RunID         int64
	RunUUID       string
	Root          string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int64
	TotalMeasured int32
	Interrupted   bool
	ConfigParams  *string
}

// MetricsRow represents a row from the srcmeasure_metrics table.
type MetricsRow struct {
	RunID               int64
	Name                string
	Repo                string
	Ref                 string
	RefName             string
	SLOC                int64
	ActiveDays          int32
	ActiveDaysPerAuthor int32
	Authors             int32
	MeasuredAt          time.Time
}
