package stft

import "errors"
import "math"
import "math/cmplx"

import gossp "github.com/r9y9/gossp/stft"

import "github.com/neurlang/denoise/parallel"

var (
	// ErrShape reports a malformed, too short or mismatched input.
	ErrShape = errors.New("stft: bad input shape")
	// ErrNonFinite reports a NaN or infinite input sample.
	ErrNonFinite = errors.New("stft: non-finite input")
	// ErrConfig reports an invalid frame size or frame shift.
	ErrConfig = errors.New("stft: invalid frame size or frame shift")
	// ErrBackend reports an unknown FFT backend name.
	ErrBackend = errors.New("stft: unknown fft backend")
)

// Transform is the analysis/synthesis pair for one frame size and frame shift.
// It holds no per-call state and is safe for concurrent use.
type Transform struct {
	FrameSize  int
	FrameShift int
	Window     []float64

	backend Backend
	workers int
}

// Option configures a Transform.
type Option func(*Transform)

// WithBackend selects the FFT implementation.
func WithBackend(b Backend) Option {
	return func(t *Transform) { t.backend = b }
}

// WithWindow replaces the default Hann window. The window must have
// FrameSize taps and its squared shifted copies must not vanish anywhere.
func WithWindow(w []float64) Option {
	return func(t *Transform) { t.Window = append([]float64(nil), w...) }
}

// WithWorkers sets how many batch rows are transformed concurrently.
func WithWorkers(n int) Option {
	return func(t *Transform) { t.workers = n }
}

// New creates a Transform with window length frameSize and hop frameShift.
// The default symmetric Hann window is zero at both ends and needs
// frameShift < frameSize-1. Larger hops need another window, see Window and
// WithWindow.
func New(frameSize, frameShift int, opts ...Option) (*Transform, error) {
	if frameSize < 2 || frameShift < 1 || frameShift > frameSize {
		return nil, ErrConfig
	}
	t := &Transform{
		FrameSize:  frameSize,
		FrameShift: frameShift,
		Window:     gossp.New(frameShift, frameSize).Window,
		workers:    1,
	}
	for _, o := range opts {
		o(t)
	}
	if len(t.Window) != frameSize {
		return nil, ErrConfig
	}
	// every residue modulo the hop must see some window energy, otherwise
	// overlap-add cannot undo the analysis window there
	for r := 0; r < frameShift; r++ {
		var sum float64
		for j := r; j < frameSize; j += frameShift {
			sum += t.Window[j] * t.Window[j]
		}
		if sum < 1e-10 {
			return nil, ErrConfig
		}
	}
	return t, nil
}

// Bins is the number of frequency bins per frame, N/2+1.
func (t *Transform) Bins() int {
	return t.FrameSize/2 + 1
}

// NumFrames is the number of frames Forward produces for n input samples.
func (t *Transform) NumFrames(n int) int {
	return (n+t.FrameShift-1)/t.FrameShift + 1
}

// pad places buf after N/2 zeros and extends the tail with zeros until the
// frames tile the padded signal exactly.
func (t *Transform) pad(buf []float64) []float64 {
	frames := t.NumFrames(len(buf))
	out := make([]float64, (frames-1)*t.FrameShift+t.FrameSize)
	copy(out[t.FrameSize/2:], buf)
	return out
}

// Forward computes the magnitude and phase spectrograms of a batch of
// equally long waveforms.
func (t *Transform) Forward(batch [][]float64) (mag, phase *Spectrogram, err error) {
	if len(batch) == 0 {
		return nil, nil, ErrShape
	}
	length := len(batch[0])
	if length < t.FrameShift {
		return nil, nil, ErrShape
	}
	for _, row := range batch {
		if len(row) != length {
			return nil, nil, ErrShape
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, nil, ErrNonFinite
			}
		}
	}

	bins, frames := t.Bins(), t.NumFrames(length)
	mag = NewSpectrogram(len(batch), bins, frames)
	phase = NewSpectrogram(len(batch), bins, frames)

	err = parallel.ForEach(len(batch), t.workers, func(b int) error {
		p := newPlan(t.backend, t.FrameSize)
		buf := t.pad(batch[b])
		frame := make([]float64, t.FrameSize)
		for i := 0; i < frames; i++ {
			off := i * t.FrameShift
			for j := range frame {
				frame[j] = buf[off+j] * t.Window[j]
			}
			spectrum := p.forward(frame)
			for f := 0; f < bins; f++ {
				mag.Set(b, f, i, cmplx.Abs(spectrum[f]))
				phase.Set(b, f, i, wrap(cmplx.Phase(spectrum[f])))
			}
		}
		return nil
	})
	return mag, phase, err
}

// wrap maps -Pi onto Pi so that phase lies in (-Pi, Pi].
func wrap(ph float64) float64 {
	if ph <= -math.Pi {
		return math.Pi
	}
	return ph
}

// Inverse rebuilds waveforms from a real/imaginary spectrogram pair by
// windowed overlap-add. A positive length cuts or zero-extends the output,
// otherwise (frames-1)*FrameShift samples are returned.
func (t *Transform) Inverse(re, im *Spectrogram, length int) ([][]float64, error) {
	if !re.SameShape(im) || re.Bins != t.Bins() || re.Frames < 1 || re.Batch < 1 {
		return nil, ErrShape
	}
	frames := re.Frames
	total := (frames-1)*t.FrameShift + t.FrameSize

	// the squared window sum is the same for every row
	windowSum := make([]float64, total)
	for i := 0; i < frames; i++ {
		for j := 0; j < t.FrameSize; j++ {
			windowSum[i*t.FrameShift+j] += t.Window[j] * t.Window[j]
		}
	}

	if length <= 0 {
		length = (frames - 1) * t.FrameShift
	}
	out := make([][]float64, re.Batch)

	err := parallel.ForEach(re.Batch, t.workers, func(b int) error {
		p := newPlan(t.backend, t.FrameSize)
		signal := make([]float64, total)
		coeffs := make([]complex128, t.Bins())
		for i := 0; i < frames; i++ {
			for f := range coeffs {
				coeffs[f] = complex(re.At(b, f, i), im.At(b, f, i))
			}
			buf := p.inverse(coeffs)
			off := i * t.FrameShift
			for j, v := range buf {
				signal[off+j] += v * t.Window[j]
			}
		}
		for i := range signal {
			if windowSum[i] > 1e-12 {
				signal[i] /= windowSum[i]
			}
		}
		row := make([]float64, length)
		copy(row, signal[t.FrameSize/2:])
		out[b] = row
		return nil
	})
	return out, err
}

// InversePolar recombines a magnitude with a phase and rebuilds the waveforms.
func (t *Transform) InversePolar(mag, phase *Spectrogram, length int) ([][]float64, error) {
	re, im, err := Polar(mag, phase)
	if err != nil {
		return nil, err
	}
	return t.Inverse(re, im, length)
}
