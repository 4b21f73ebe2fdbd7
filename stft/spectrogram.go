package stft

import "math"

// Spectrogram is a dense real valued array indexed by (batch, bin, frame).
type Spectrogram struct {
	Batch  int
	Bins   int
	Frames int
	Data   []float64
}

// NewSpectrogram allocates a zeroed spectrogram of the given shape.
func NewSpectrogram(batch, bins, frames int) *Spectrogram {
	return &Spectrogram{
		Batch:  batch,
		Bins:   bins,
		Frames: frames,
		Data:   make([]float64, batch*bins*frames),
	}
}

// Index returns the offset of (b, f, t) in Data.
func (s *Spectrogram) Index(b, f, t int) int {
	return (b*s.Bins+f)*s.Frames + t
}

func (s *Spectrogram) At(b, f, t int) float64 {
	return s.Data[s.Index(b, f, t)]
}

func (s *Spectrogram) Set(b, f, t int, v float64) {
	s.Data[s.Index(b, f, t)] = v
}

// Row returns the bins*frames slice belonging to batch item b.
func (s *Spectrogram) Row(b int) []float64 {
	n := s.Bins * s.Frames
	return s.Data[b*n : (b+1)*n]
}

// SameShape reports whether o has the same (batch, bin, frame) shape as s.
func (s *Spectrogram) SameShape(o *Spectrogram) bool {
	if s == nil || o == nil {
		return false
	}
	return s.Batch == o.Batch && s.Bins == o.Bins && s.Frames == o.Frames &&
		len(s.Data) == len(o.Data)
}

// Clone returns a deep copy.
func (s *Spectrogram) Clone() *Spectrogram {
	c := *s
	c.Data = append([]float64(nil), s.Data...)
	return &c
}

// Finite reports whether every element is neither NaN nor infinite.
func (s *Spectrogram) Finite() bool {
	for _, v := range s.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Polar converts a magnitude/phase pair into a real/imaginary pair.
func Polar(mag, phase *Spectrogram) (re, im *Spectrogram, err error) {
	if !mag.SameShape(phase) {
		return nil, nil, ErrShape
	}
	re = NewSpectrogram(mag.Batch, mag.Bins, mag.Frames)
	im = NewSpectrogram(mag.Batch, mag.Bins, mag.Frames)
	for i, m := range mag.Data {
		sin, cos := math.Sincos(phase.Data[i])
		re.Data[i] = m * cos
		im.Data[i] = m * sin
	}
	return re, im, nil
}
