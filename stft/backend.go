package stft

import "github.com/mjibson/go-dsp/fft"
import "gonum.org/v1/gonum/dsp/fourier"

// Backend selects the FFT implementation used by a Transform.
type Backend int

const (
	// BackendGoDSP uses github.com/mjibson/go-dsp/fft.
	BackendGoDSP Backend = iota
	// BackendGonum uses gonum.org/v1/gonum/dsp/fourier.
	BackendGonum
)

func (b Backend) String() string {
	switch b {
	case BackendGoDSP:
		return "godsp"
	case BackendGonum:
		return "gonum"
	}
	return "unknown"
}

// ParseBackend maps a configuration name to a Backend.
func ParseBackend(name string) (Backend, error) {
	switch name {
	case "", "godsp", "go-dsp":
		return BackendGoDSP, nil
	case "gonum":
		return BackendGonum, nil
	}
	return 0, ErrBackend
}

// plan is a per-goroutine FFT of a fixed length n.
// forward returns n/2+1 coefficients, inverse returns n samples scaled by 1/n.
type plan interface {
	forward(frame []float64) []complex128
	inverse(coeffs []complex128) []float64
}

func newPlan(b Backend, n int) plan {
	if b == BackendGonum {
		return &gonumPlan{n: n, fft: fourier.NewFFT(n)}
	}
	return &dspPlan{n: n, full: make([]complex128, n)}
}

type dspPlan struct {
	n    int
	full []complex128
}

func (p *dspPlan) forward(frame []float64) []complex128 {
	return fft.FFTReal(frame)[:p.n/2+1]
}

func (p *dspPlan) inverse(coeffs []complex128) []float64 {
	// rebuild the conjugate symmetric half
	for k := range p.full {
		p.full[k] = 0
	}
	copy(p.full, coeffs)
	for k := 1; k < p.n-k; k++ {
		p.full[p.n-k] = complex(real(coeffs[k]), -imag(coeffs[k]))
	}
	buf := fft.IFFT(p.full)
	out := make([]float64, p.n)
	for i := range out {
		out[i] = real(buf[i])
	}
	return out
}

type gonumPlan struct {
	n   int
	fft *fourier.FFT
}

func (p *gonumPlan) forward(frame []float64) []complex128 {
	return p.fft.Coefficients(nil, frame)
}

func (p *gonumPlan) inverse(coeffs []complex128) []float64 {
	out := p.fft.Sequence(nil, coeffs)
	scale := 1 / float64(p.n)
	for i := range out {
		out[i] *= scale
	}
	return out
}
