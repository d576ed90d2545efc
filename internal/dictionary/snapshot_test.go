package dictionary

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rgehrsitz/semrex/internal/rules"
)

func TestSnapshotPacksTextBuckets(t *testing.T) {
	d := New()
	for _, term := range rules.Terms(3, 1, "cd", "ab", "x", "héé") {
		d.Insert(term)
	}

	s := d.Snapshot()
	assert.Equal(t, []float64{1, 3}, s.Numbers)
	assert.Equal(t, map[int]string{1: "x", 2: "abcd", 3: "héé"}, s.Texts)
}

func TestSnapshotRoundTrip(t *testing.T) {
	d := New()
	for _, term := range rules.Terms(3, 1, "cd", "ab", "x", "héé", "abc") {
		d.Insert(term)
	}

	data, err := json.Marshal(d.Snapshot())
	require.NoError(t, err)

	var s Snapshot
	require.NoError(t, json.Unmarshal(data, &s))
	restored, err := FromSnapshot(s)
	require.NoError(t, err)

	assert.Equal(t, d.Len(), restored.Len())
	for _, term := range rules.Terms(3, 1, "cd", "ab", "x", "héé", "abc") {
		want, _ := d.Resolve(term)
		got, ok := restored.Resolve(term)
		require.True(t, ok, term.String())
		assert.Equal(t, want, got)
	}
}

func TestSnapshotRoundTrip_InvalidUTF8NotStored(t *testing.T) {
	d := New()
	assert.False(t, d.Insert(rules.Text("\xfe")))
	assert.False(t, d.Insert(rules.Text("\xff")))
	assert.True(t, d.Insert(rules.Text("é")))

	data, err := json.Marshal(d.Snapshot())
	require.NoError(t, err)
	var s Snapshot
	require.NoError(t, json.Unmarshal(data, &s))
	restored, err := FromSnapshot(s)
	require.NoError(t, err)

	assert.Equal(t, 1, restored.Len())
	_, ok := restored.Resolve(rules.Text("\xff"))
	assert.False(t, ok)
	want, _ := d.Resolve(rules.Text("é"))
	got, ok := restored.Resolve(rules.Text("é"))
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestFromSnapshotRejectsBrokenInvariants(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
	}{
		{"unsorted numbers", Snapshot{Numbers: []float64{2, 1}}},
		{"duplicate numbers", Snapshot{Numbers: []float64{1, 1}}},
		{"bad category", Snapshot{Texts: map[int]string{0: "a"}}},
		{"ragged bucket", Snapshot{Texts: map[int]string{2: "abc"}}},
		{"unsorted bucket", Snapshot{Texts: map[int]string{2: "cdab"}}},
		{"duplicate in bucket", Snapshot{Texts: map[int]string{2: "abab"}}},
		{"infinite number", Snapshot{Numbers: []float64{1, math.Inf(1)}}},
		{"invalid utf8", Snapshot{Texts: map[int]string{1: "\xfe\xff"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromSnapshot(tt.snap)
			assert.Error(t, err)
		})
	}
}
