package audio_test

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/neurlang/denoise/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveWav_LoadRoundTrip(t *testing.T) {
	name := filepath.Join(t.TempDir(), "tone.wav")
	vec := make([]float64, 1600)
	for i := range vec {
		vec[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/16000)
	}
	require.NoError(t, audio.SaveWav(name, vec, 16000))

	got, sr, err := audio.Load(name)
	require.NoError(t, err)
	assert.Equal(t, 16000, sr)
	require.Len(t, got, len(vec))
	assert.InDeltaSlice(t, vec, got, 1.0/16000)
}

func TestSaveWav_Clips(t *testing.T) {
	name := filepath.Join(t.TempDir(), "loud.wav")
	require.NoError(t, audio.SaveWav(name, []float64{3, -3, 0.25, 0}, 8000))

	got, _, err := audio.LoadWav(name)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.InDelta(t, 1, got[0], 1e-3)
	assert.InDelta(t, -1, got[1], 1e-3)
	assert.InDelta(t, 0.25, got[2], 1e-3)
}

func TestLoad_Errors(t *testing.T) {
	_, _, err := audio.Load("song.mp3")
	assert.ErrorIs(t, err, audio.ErrFormat)

	_, _, err = audio.Load(filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	out, scale := audio.Normalize([]float64{0.1, -0.5, 0.25})
	assert.InDelta(t, 2, scale, 1e-12)
	assert.InDeltaSlice(t, []float64{0.2, -1, 0.5}, out, 1e-12)

	out, scale = audio.Normalize([]float64{0, 0})
	assert.Equal(t, 1.0, scale)
	assert.Equal(t, []float64{0, 0}, out)
}

func TestTruncate(t *testing.T) {
	out := audio.Truncate([]float64{1, 2, 3}, []float64{4, 5}, []float64{6, 7, 8, 9})
	assert.Equal(t, [][]float64{{1, 2}, {4, 5}, {6, 7}}, out)
	assert.Nil(t, audio.Truncate())
}

func TestLoadWav_KeepsLevelAcrossResave(t *testing.T) {
	dir := t.TempDir()
	vec := make([]float64, 800)
	for i := range vec {
		vec[i] = 0.5 * math.Sin(float64(i)*0.3)
	}
	name := filepath.Join(dir, "a.wav")
	require.NoError(t, audio.SaveWav(name, vec, 8000))
	for k := 0; k < 3; k++ {
		got, _, err := audio.LoadWav(name)
		require.NoError(t, err)
		assert.InDeltaSlice(t, vec, got, 3e-4, "generation %d", k)
		name = filepath.Join(dir, "resaved.wav")
		require.NoError(t, audio.SaveWav(name, got, 8000))
	}
}
