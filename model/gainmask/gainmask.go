// Package gainmask is a small reference network: one sigmoid gain per
// frequency bin driven by the log-compressed input magnitude,
//
//	est = x * sigmoid(w[f]*log(1+x) + b[f])
//
// It is enough to exercise training, checkpointing and inference end to end.
package gainmask

import (
	"fmt"
	"math"

	"github.com/neurlang/denoise/model"
	"github.com/neurlang/denoise/stft"
)

// Net is a per-bin gain mask.
type Net struct {
	bins     int
	weight   *model.Parameter
	bias     *model.Parameter
	training bool

	// cached by a training Forward
	input *stft.Spectrogram
	gate  []float64
}

// New creates a mask for spectrograms with the given number of bins.
// Gains start at sigmoid(bias).
func New(bins int, bias float64) *Net {
	n := &Net{
		bins:     bins,
		weight:   &model.Parameter{Name: "weight", Value: make([]float64, bins), Grad: make([]float64, bins)},
		bias:     &model.Parameter{Name: "bias", Value: make([]float64, bins), Grad: make([]float64, bins)},
		training: true,
	}
	for i := range n.bias.Value {
		n.bias.Value[i] = bias
	}
	return n
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func (n *Net) Forward(mag *stft.Spectrogram) (*stft.Spectrogram, error) {
	if mag.Bins != n.bins {
		return nil, fmt.Errorf("gainmask: %d bins, want %d: %w", mag.Bins, n.bins, stft.ErrShape)
	}
	out := stft.NewSpectrogram(mag.Batch, mag.Bins, mag.Frames)
	gate := make([]float64, len(mag.Data))
	for b := 0; b < mag.Batch; b++ {
		for f := 0; f < mag.Bins; f++ {
			w, c := n.weight.Value[f], n.bias.Value[f]
			for t := 0; t < mag.Frames; t++ {
				i := mag.Index(b, f, t)
				x := mag.Data[i]
				g := sigmoid(w*math.Log1p(x) + c)
				gate[i] = g
				out.Data[i] = g * x
			}
		}
	}
	if n.training {
		n.input, n.gate = mag, gate
	} else {
		n.input, n.gate = nil, nil
	}
	return out, nil
}

func (n *Net) Backward(grad *stft.Spectrogram) error {
	if !n.training || n.input == nil {
		return model.ErrNotTraining
	}
	if !grad.SameShape(n.input) {
		return stft.ErrShape
	}
	in := n.input
	for b := 0; b < in.Batch; b++ {
		for f := 0; f < in.Bins; f++ {
			for t := 0; t < in.Frames; t++ {
				i := in.Index(b, f, t)
				x, g := in.Data[i], n.gate[i]
				dz := grad.Data[i] * x * g * (1 - g)
				n.weight.Grad[f] += dz * math.Log1p(x)
				n.bias.Grad[f] += dz
			}
		}
	}
	return nil
}

func (n *Net) Parameters() []*model.Parameter {
	return []*model.Parameter{n.weight, n.bias}
}

func (n *Net) SetTraining(training bool) {
	n.training = training
	if !training {
		n.input, n.gate = nil, nil
	}
}

func (n *Net) Training() bool {
	return n.training
}

func (n *Net) StateDict() map[string][]float64 {
	return model.StateDict(n.Parameters())
}

func (n *Net) LoadStateDict(state map[string][]float64) error {
	return model.LoadStateDict(n.Parameters(), state)
}
