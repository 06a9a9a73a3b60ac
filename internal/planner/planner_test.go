package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func overlaps(a, b Requirement, offA, offB int) bool {
	timeOverlap := !(a.LastUse < b.FirstUse || b.LastUse < a.FirstUse)
	byteOverlap := offA < offB+b.Size && offB < offA+a.Size
	return timeOverlap && byteOverlap
}

func planOf(t *testing.T, align int, reqs []Requirement) ([]int, int) {
	t.Helper()
	g := New(align)
	for _, r := range reqs {
		_, err := g.Add(r.Size, r.FirstUse, r.LastUse)
		require.NoError(t, err)
	}
	offsets, total, err := g.Plan()
	require.NoError(t, err)
	return offsets, total
}

func TestGreedy_NoLifetimeCollisions(t *testing.T) {
	reqs := []Requirement{
		{Size: 64, FirstUse: 0, LastUse: 1},
		{Size: 32, FirstUse: 1, LastUse: 2},
		{Size: 96, FirstUse: 2, LastUse: 3},
		{Size: 16, FirstUse: 0, LastUse: 3},
		{Size: 64, FirstUse: 3, LastUse: 4},
		{Size: 8, FirstUse: 4, LastUse: 4},
	}
	offsets, total := planOf(t, 16, reqs)

	for i := range reqs {
		for j := i + 1; j < len(reqs); j++ {
			assert.False(t, overlaps(reqs[i], reqs[j], offsets[i], offsets[j]),
				"buffers %d and %d share bytes while both alive", i, j)
		}
	}
	for i, r := range reqs {
		assert.LessOrEqual(t, offsets[i]+r.Size, total)
		assert.Zero(t, offsets[i]%16, "offset of buffer %d not aligned", i)
	}
}

func TestGreedy_ReusesDisjointLifetimes(t *testing.T) {
	// Three equally-sized buffers alive one after another must all fit in
	// the footprint of one.
	reqs := []Requirement{
		{Size: 128, FirstUse: 0, LastUse: 0},
		{Size: 128, FirstUse: 1, LastUse: 1},
		{Size: 128, FirstUse: 2, LastUse: 2},
	}
	_, total := planOf(t, 16, reqs)
	assert.Equal(t, 128, total)
}

func TestGreedy_WorstCaseBound(t *testing.T) {
	// All buffers alive simultaneously: the plan degenerates to the sum of
	// aligned sizes, never more.
	reqs := []Requirement{
		{Size: 100, FirstUse: 0, LastUse: 5},
		{Size: 50, FirstUse: 0, LastUse: 5},
		{Size: 20, FirstUse: 0, LastUse: 5},
	}
	_, total := planOf(t, 16, reqs)

	sum := 0
	for _, r := range reqs {
		sum += (r.Size + 15) &^ 15
	}
	assert.LessOrEqual(t, total, sum)
}

func TestGreedy_Deterministic(t *testing.T) {
	reqs := []Requirement{
		{Size: 64, FirstUse: 0, LastUse: 2},
		{Size: 64, FirstUse: 1, LastUse: 3},
		{Size: 64, FirstUse: 2, LastUse: 4},
		{Size: 32, FirstUse: 0, LastUse: 0},
		{Size: 32, FirstUse: 4, LastUse: 4},
	}

	first, firstTotal := planOf(t, 16, reqs)
	for i := 0; i < 10; i++ {
		offsets, total := planOf(t, 16, reqs)
		assert.Equal(t, first, offsets, "plan changed between runs")
		assert.Equal(t, firstTotal, total)
	}
}

func TestGreedy_ZeroAndEmpty(t *testing.T) {
	t.Run("empty plan", func(t *testing.T) {
		offsets, total, err := New(16).Plan()
		require.NoError(t, err)
		assert.Empty(t, offsets)
		assert.Zero(t, total)
	})

	t.Run("zero sized buffer", func(t *testing.T) {
		g := New(16)
		_, err := g.Add(0, 0, 1)
		require.NoError(t, err)
		_, total, err := g.Plan()
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("invalid requirements", func(t *testing.T) {
		g := New(16)
		_, err := g.Add(-1, 0, 1)
		assert.Error(t, err)
		_, err = g.Add(8, 3, 1)
		assert.Error(t, err)
	})
}
