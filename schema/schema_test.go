package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComponentRecord_Dependencies(t *testing.T) {
	c := ComponentRecord{
		ID:           "clusters/minimal.morph",
		BuildDepends: []string{"a.morph"},
		Contents:     []string{"b.morph", "c.morph"},
		Systems:      []SystemEntry{{Path: "systems/x.morph"}},
	}
	assert.Equal(t, []string{"a.morph", "b.morph", "c.morph", "systems/x.morph"}, c.Dependencies())
}

func TestComponentRecord_DependenciesEmpty(t *testing.T) {
	c := ComponentRecord{ID: "leaf"}
	deps := c.Dependencies()
	assert.NotNil(t, deps)
	assert.Empty(t, deps)
}

func TestComponentRecord_IsMeasurable(t *testing.T) {
	tests := []struct {
		name string
		rec  ComponentRecord
		want bool
	}{
		{"both", ComponentRecord{Repo: "upstream:zlib", Ref: "abc"}, true},
		{"repo only", ComponentRecord{Repo: "upstream:zlib"}, false},
		{"ref only", ComponentRecord{Ref: "abc"}, false},
		{"neither", ComponentRecord{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.IsMeasurable())
		})
	}
}

func TestComponentRecord_RefNameAndDisplayName(t *testing.T) {
	c := ComponentRecord{ID: "strata/core/zlib.morph", Ref: "abc123"}
	assert.Equal(t, "abc123", c.RefName())
	assert.Equal(t, "zlib", c.DisplayName())

	c.UnpetrifyRef = "v1.2.11"
	c.Name = "zlib-ng"
	assert.Equal(t, "v1.2.11", c.RefName())
	assert.Equal(t, "zlib-ng", c.DisplayName())
}

func TestResultSet_FirstWriteWinsAndOrder(t *testing.T) {
	rs := NewResultSet()
	k1 := WorkItemKey{Repo: "r1", Ref: "a"}
	k2 := WorkItemKey{Repo: "r2", Ref: "b"}

	assert.True(t, rs.Add(k2, MetricsRecord{Name: "second"}))
	assert.True(t, rs.Add(k1, MetricsRecord{Name: "first"}))
	assert.False(t, rs.Add(k2, MetricsRecord{Name: "dupe"}))

	assert.Equal(t, 2, rs.Len())
	assert.Equal(t, []WorkItemKey{k2, k1}, rs.Keys())

	got, ok := rs.Get(k2)
	assert.True(t, ok)
	assert.Equal(t, "second", got.Name)

	recs := rs.Records()
	assert.Equal(t, "second", recs[0].Name)
	assert.Equal(t, "first", recs[1].Name)
}

func TestResultSet_KeysIsACopy(t *testing.T) {
	rs := NewResultSet()
	rs.Add(WorkItemKey{Repo: "r", Ref: "1"}, MetricsRecord{})
	keys := rs.Keys()
	keys[0].Repo = "mutated"
	assert.True(t, rs.Has(WorkItemKey{Repo: "r", Ref: "1"}))
	assert.Equal(t, "r", rs.Keys()[0].Repo)
}

func TestMetricsRecord_HasSLOC(t *testing.T) {
	assert.False(t, MetricsRecord{SLOC: SLOCUnmeasured}.HasSLOC())
	assert.True(t, MetricsRecord{SLOC: 0}.HasSLOC())
}

func TestWorkItemKey_String(t *testing.T) {
	assert.Equal(t, "upstream:glibc@deadbeef", WorkItemKey{Repo: "upstream:glibc", Ref: "deadbeef"}.String())
}

func TestDefaultExtension(t *testing.T) {
	assert.Equal(t, ".csv", DefaultExtension(CSVOut))
	assert.Equal(t, ".json", DefaultExtension(JSONOut))
	assert.Equal(t, ".parquet", DefaultExtension(ParquetOut))
	assert.Equal(t, ".txt", DefaultExtension(TextOut))
}
