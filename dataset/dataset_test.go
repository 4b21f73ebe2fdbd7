package dataset_test

import (
	"path/filepath"
	"testing"

	"github.com/neurlang/denoise/clips"
	"github.com/neurlang/denoise/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp(n int, k float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = k * float64(i)
	}
	return out
}

func TestChunkSet_Segments(t *testing.T) {
	all := []clips.Clip{
		{NoisyRaw: ramp(25, 1), CleanRaw: ramp(25, 0.5)}, // two chunks, tail dropped
		{NoisyRaw: ramp(6, 1), CleanRaw: ramp(6, 1)},     // padded to one chunk
		{NoisyRaw: ramp(30, 2), CleanRaw: ramp(30, 1)},   // three chunks
		{},
	}
	set, err := dataset.NewChunkSet(all, 10, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, set.Len())

	b, err := set.Batch(0)
	require.NoError(t, err)
	require.Len(t, b.Mixture, 2)
	assert.Equal(t, ramp(10, 1), b.Mixture[0])
	assert.Equal(t, ramp(10, 0.5), b.Clean[0])
	assert.Equal(t, ramp(10, 0.5), b.Noise[0])

	b, err = set.Batch(1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5, 0, 0, 0, 0}, b.Mixture[0])
	assert.Equal(t, make([]float64, 10), b.Noise[0])
	assert.Equal(t, ramp(10, 2), b.Mixture[1])

	_, err = set.Batch(3)
	assert.Error(t, err)
}

func TestChunkSet_ShuffleIsDeterministicPerEpoch(t *testing.T) {
	var all []clips.Clip
	for i := 0; i < 16; i++ {
		all = append(all, clips.Clip{NoisyRaw: ramp(4, float64(i)), CleanRaw: ramp(4, 0)})
	}
	a, err := dataset.NewChunkSet(all, 4, 4, 7)
	require.NoError(t, err)
	b, err := dataset.NewChunkSet(all, 4, 4, 7)
	require.NoError(t, err)

	a.Shuffle(3)
	b.Shuffle(3)
	for i := 0; i < a.Len(); i++ {
		x, _ := a.Batch(i)
		y, _ := b.Batch(i)
		assert.Equal(t, x, y)
	}

	var _ dataset.Shuffler = a
}

func TestChunkSet_Empty(t *testing.T) {
	_, err := dataset.NewChunkSet([]clips.Clip{{NoisyRaw: ramp(4, 1), CleanRaw: ramp(4, 1)}}, 4, 2, 0)
	assert.ErrorIs(t, err, dataset.ErrEmpty)
}

func TestClipSet(t *testing.T) {
	set := dataset.NewClipSet([]clips.Clip{
		{NoisyRaw: ramp(5, 1), CleanRaw: ramp(4, 1)},
		{NoisyRaw: nil, CleanRaw: ramp(4, 1)},
		{NoisyRaw: ramp(3, 1), CleanRaw: ramp(3, 2)},
	})
	assert.Equal(t, 2, set.Len())

	b, err := set.Batch(0)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{ramp(4, 1)}, b.Mixture)
	assert.Equal(t, [][]float64{ramp(4, 1)}, b.Clean)

	_, err = set.Batch(2)
	assert.Error(t, err)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, clips.Write(filepath.Join(dir, "tr_a_0.samp"),
		[]clips.Clip{{NoisyRaw: []float64{1}, CleanRaw: []float64{0.5}}}, clips.Single))
	require.NoError(t, clips.Write(filepath.Join(dir, "tr_b_0.samp"),
		[]clips.Clip{{NoisyRaw: []float64{2}, CleanRaw: []float64{0.25}}, {NoisyRaw: []float64{3}, CleanRaw: []float64{0}}}, clips.Single))

	all, err := dataset.LoadDir(dir, 2)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []float64{1}, all[0].NoisyRaw)
	assert.Equal(t, []float64{3}, all[2].NoisyRaw)
}
