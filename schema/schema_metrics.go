package schema

import "time"

// WorkItemKey identifies one unit of measurement.
type WorkItemKey struct {
	Repo string `json:"repo"`
	Ref  string `json:"ref"`
}

// String renders the key as repo@ref.
func (k WorkItemKey) String() string {
	return k.Repo + "@" + k.Ref
}

// MetricsRecord holds the measurements for one work item.
type MetricsRecord struct {
	Name                string    `json:"name"`                       // First component name seen for the key
	Repo                string    `json:"repo"`                       // Source repository locator
	Ref                 string    `json:"ref"`                        // Source revision
	RefName             string    `json:"ref_name"`                   // Display label for Ref
	SLOC                int       `json:"sloc"`                       // Physical source lines, or SLOCUnmeasured
	ActiveDays          int       `json:"git_active_days"`            // Distinct days with commits reachable from Ref
	ActiveDaysPerAuthor int       `json:"git_active_days_per_author"` // Distinct (author, day) pairs
	Authors             int       `json:"git_authors"`                // Distinct commit authors
	MeasuredAt          time.Time `json:"measured_at"`
}

// Key returns the work item key the record was measured for.
func (m MetricsRecord) Key() WorkItemKey {
	return WorkItemKey{Repo: m.Repo, Ref: m.Ref}
}

// HasSLOC reports whether the line count was measured.
func (m MetricsRecord) HasSLOC() bool {
	return m.SLOC != SLOCUnmeasured
}

// ResultSet maps work item keys to metrics, preserving first-insertion order.
type ResultSet struct {
	keys    []WorkItemKey
	records map[WorkItemKey]MetricsRecord
}

// NewResultSet returns an empty result set.
func NewResultSet() *ResultSet {
	return &ResultSet{records: make(map[WorkItemKey]MetricsRecord)}
}

// Has reports whether key has already been measured.
func (rs *ResultSet) Has(key WorkItemKey) bool {
	_, ok := rs.records[key]
	return ok
}

// Add stores rec under key. The first write wins; Add returns false if key was already present.
func (rs *ResultSet) Add(key WorkItemKey, rec MetricsRecord) bool {
	if rs.Has(key) {
		return false
	}
	rs.keys = append(rs.keys, key)
	rs.records[key] = rec
	return true
}

// Get returns the record stored under key.
func (rs *ResultSet) Get(key WorkItemKey) (MetricsRecord, bool) {
	rec, ok := rs.records[key]
	return rec, ok
}

// Len returns the number of measured work items.
func (rs *ResultSet) Len() int {
	return len(rs.keys)
}

// Keys returns the keys in insertion order.
func (rs *ResultSet) Keys() []WorkItemKey {
	out := make([]WorkItemKey, len(rs.keys))
	copy(out, rs.keys)
	return out
}

// Records returns the records in insertion order.
func (rs *ResultSet) Records() []MetricsRecord {
	out := make([]MetricsRecord, 0, len(rs.keys))
	for _, k := range rs.keys {
		out = append(out, rs.records[k])
	}
	return out
}

// ActivityStats holds the activity scalars computed from a mirror's history.
type ActivityStats struct {
	ActiveDays          int `json:"git_active_days"`
	ActiveDaysPerAuthor int `json:"git_active_days_per_author"`
}
