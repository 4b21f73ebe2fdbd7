package stft_test

import (
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/neurlang/denoise/stft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noise(seed int64, n int) []float64 {
	r := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = r.Float64()*2 - 1
	}
	return out
}

func roundTrip(t *testing.T, tr *stft.Transform, wave []float64) []float64 {
	t.Helper()
	mag, phase, err := tr.Forward([][]float64{wave})
	require.NoError(t, err)
	out, err := tr.InversePolar(mag, phase, len(wave))
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Len(t, out[0], len(wave))
	return out[0]
}

// TestTransform_AlternatingScenario reconstructs an 80 sample +1/-1 signal
// with an 8 sample window and a 4 sample hop.
func TestTransform_AlternatingScenario(t *testing.T) {
	tr, err := stft.New(8, 4)
	require.NoError(t, err)

	wave := make([]float64, 80)
	for i := range wave {
		wave[i] = 1
		if i%2 == 1 {
			wave[i] = -1
		}
	}
	out := roundTrip(t, tr, wave)
	for i := 8; i < 72; i++ {
		assert.InDelta(t, wave[i], out[i], 1e-5, "sample %d", i)
	}
}

func TestTransform_ReconstructionIdentity(t *testing.T) {
	cases := []struct {
		name         string
		size, shift  int
		length       int
		backend      stft.Backend
	}{
		{"half overlap", 512, 256, 4000, stft.BackendGoDSP},
		{"quarter hop", 320, 80, 1601, stft.BackendGoDSP},
		{"odd size", 255, 64, 999, stft.BackendGoDSP},
		{"one hop long", 64, 16, 16, stft.BackendGoDSP},
		{"gonum half overlap", 512, 256, 4000, stft.BackendGonum},
		{"gonum odd length", 320, 160, 1234, stft.BackendGonum},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr, err := stft.New(tc.size, tc.shift, stft.WithBackend(tc.backend))
			require.NoError(t, err)
			wave := noise(int64(tc.length), tc.length)
			out := roundTrip(t, tr, wave)
			for i := range wave {
				assert.InDelta(t, wave[i], out[i], 1e-9, "sample %d", i)
			}
		})
	}
}

func TestTransform_ShapeAndRanges(t *testing.T) {
	tr, err := stft.New(64, 16, stft.WithWorkers(3))
	require.NoError(t, err)

	batch := [][]float64{noise(1, 300), noise(2, 300), noise(3, 300)}
	batch[1][0] = 0
	mag, phase, err := tr.Forward(batch)
	require.NoError(t, err)

	assert.Equal(t, 3, mag.Batch)
	assert.Equal(t, 33, mag.Bins)
	assert.Equal(t, tr.NumFrames(300), mag.Frames)
	assert.Equal(t, 20, mag.Frames)
	assert.True(t, mag.SameShape(phase))

	for i := range mag.Data {
		assert.GreaterOrEqual(t, mag.Data[i], 0.0)
		assert.Greater(t, phase.Data[i], -math.Pi)
		assert.LessOrEqual(t, phase.Data[i], math.Pi)
	}
}

func TestTransform_BatchRowsAreIndependent(t *testing.T) {
	tr, err := stft.New(128, 32, stft.WithWorkers(4))
	require.NoError(t, err)

	a, b := noise(10, 700), noise(11, 700)
	magAB, _, err := tr.Forward([][]float64{a, b})
	require.NoError(t, err)
	magB, _, err := tr.Forward([][]float64{b})
	require.NoError(t, err)

	assert.InDeltaSlice(t, magB.Row(0), magAB.Row(1), 1e-12)
}

func TestTransform_BackendsAgree(t *testing.T) {
	wave := noise(7, 2048)
	dsp, err := stft.New(256, 64, stft.WithBackend(stft.BackendGoDSP))
	require.NoError(t, err)
	gon, err := stft.New(256, 64, stft.WithBackend(stft.BackendGonum))
	require.NoError(t, err)

	m1, _, err := dsp.Forward([][]float64{wave})
	require.NoError(t, err)
	m2, _, err := gon.Forward([][]float64{wave})
	require.NoError(t, err)
	assert.InDeltaSlice(t, m1.Data, m2.Data, 1e-8)
}

func TestTransform_ForwardErrors(t *testing.T) {
	tr, err := stft.New(16, 8)
	require.NoError(t, err)

	_, _, err = tr.Forward(nil)
	assert.ErrorIs(t, err, stft.ErrShape, "empty batch")

	_, _, err = tr.Forward([][]float64{make([]float64, 7)})
	assert.ErrorIs(t, err, stft.ErrShape, "shorter than one hop")

	_, _, err = tr.Forward([][]float64{make([]float64, 40), make([]float64, 41)})
	assert.ErrorIs(t, err, stft.ErrShape, "ragged batch")

	bad := make([]float64, 40)
	bad[3] = math.NaN()
	_, _, err = tr.Forward([][]float64{bad})
	assert.ErrorIs(t, err, stft.ErrNonFinite, "nan sample")

	bad[3] = math.Inf(-1)
	_, _, err = tr.Forward([][]float64{bad})
	assert.ErrorIs(t, err, stft.ErrNonFinite, "inf sample")
}

func TestTransform_InverseErrors(t *testing.T) {
	tr, err := stft.New(16, 8)
	require.NoError(t, err)

	_, err = tr.Inverse(stft.NewSpectrogram(1, 9, 4), stft.NewSpectrogram(1, 9, 5), 0)
	assert.ErrorIs(t, err, stft.ErrShape, "mismatched frames")

	_, err = tr.Inverse(stft.NewSpectrogram(1, 8, 4), stft.NewSpectrogram(1, 8, 4), 0)
	assert.ErrorIs(t, err, stft.ErrShape, "wrong bin count")

	_, err = tr.InversePolar(stft.NewSpectrogram(2, 9, 4), stft.NewSpectrogram(1, 9, 4), 0)
	assert.ErrorIs(t, err, stft.ErrShape, "mismatched batch")

	out, err := tr.Inverse(stft.NewSpectrogram(1, 9, 4), stft.NewSpectrogram(1, 9, 4), 0)
	require.NoError(t, err)
	assert.Len(t, out[0], 24)
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	for _, c := range [][2]int{{1, 1}, {16, 0}, {16, 17}} {
		_, err := stft.New(c[0], c[1])
		assert.ErrorIs(t, err, stft.ErrConfig, "size %d shift %d", c[0], c[1])
	}

	// the Hann window vanishes at both ends, so a hop equal to the frame
	// leaves samples without window energy
	_, err := stft.New(16, 16)
	assert.ErrorIs(t, err, stft.ErrConfig)

	rect := make([]float64, 16)
	for i := range rect {
		rect[i] = 1
	}
	tr, err := stft.New(16, 16, stft.WithWindow(rect))
	require.NoError(t, err)
	wave := noise(5, 100)
	out := roundTrip(t, tr, wave)
	assert.InDeltaSlice(t, wave, out, 1e-9)
}

func TestWindow_LargeHops(t *testing.T) {
	_, err := stft.New(16, 15)
	assert.ErrorIs(t, err, stft.ErrConfig, "symmetric hann leaves a residue uncovered")

	cases := []struct {
		name  string
		shift int
	}{
		{"periodic-hann", 15},
		{"hamming", 16},
		{"rect", 16},
		{"hann", 14},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, err := stft.Window(tc.name, 16)
			require.NoError(t, err)
			require.Len(t, w, 16)
			tr, err := stft.New(16, tc.shift, stft.WithWindow(w))
			require.NoError(t, err)
			wave := noise(7, 200)
			out := roundTrip(t, tr, wave)
			assert.InDeltaSlice(t, wave, out, 1e-9)
		})
	}

	w, err := stft.Window("periodic-hann", 16)
	require.NoError(t, err)
	assert.Equal(t, 0.0, w[0])
	assert.InDelta(t, 1.0, w[8], 1e-12)

	_, err = stft.Window("kaiser", 16)
	assert.ErrorIs(t, err, stft.ErrWindow)
}

func TestParseBackend(t *testing.T) {
	b, err := stft.ParseBackend("gonum")
	assert.NoError(t, err)
	assert.Equal(t, stft.BackendGonum, b)

	b, err = stft.ParseBackend("")
	assert.NoError(t, err)
	assert.Equal(t, stft.BackendGoDSP, b)

	_, err = stft.ParseBackend("fftw")
	assert.ErrorIs(t, err, stft.ErrBackend)
}

func TestWriteImage(t *testing.T) {
	tr, err := stft.New(64, 16)
	require.NoError(t, err)
	mag, _, err := tr.Forward([][]float64{noise(3, 500)})
	require.NoError(t, err)

	name := filepath.Join(t.TempDir(), "spec.png")
	assert.NoError(t, stft.WriteImage(name, mag, 0, true))
	assert.FileExists(t, name)
	assert.ErrorIs(t, stft.WriteImage(name, mag, 1, true), stft.ErrShape)
}
