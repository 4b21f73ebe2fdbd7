// Package model declares the contracts the training and inference code
// expects from a network, a loss function and an optimizer.
//
// A Network maps a magnitude spectrogram batch to an estimated magnitude
// spectrogram batch of the same shape. Training mode caches what Backward
// needs; inference mode must not mutate parameters or retain inputs.
package model

import (
	"errors"
	"math"

	"github.com/neurlang/denoise/stft"
)

var (
	// ErrShapeMismatch reports a parameter snapshot that does not fit the network.
	ErrShapeMismatch = errors.New("model: parameter shape mismatch")
	// ErrNonFiniteLoss reports a NaN or infinite loss value.
	ErrNonFiniteLoss = errors.New("model: non-finite loss")
	// ErrNotTraining is returned by Backward when no training forward pass is cached.
	ErrNotTraining = errors.New("model: backward without a training forward pass")
)

// Parameter is a trainable vector together with its accumulated gradient.
type Parameter struct {
	Name  string
	Value []float64
	Grad  []float64
}

// Network is the opaque enhancement model.
type Network interface {
	Forward(mag *stft.Spectrogram) (*stft.Spectrogram, error)
	// Backward accumulates parameter gradients given the loss gradient
	// with respect to the last training Forward output.
	Backward(grad *stft.Spectrogram) error
	Parameters() []*Parameter
	SetTraining(training bool)
	Training() bool
	StateDict() map[string][]float64
	LoadStateDict(state map[string][]float64) error
}

// Loss scores an estimate against a target and returns the gradient of the
// score with respect to the estimate.
type Loss interface {
	Loss(est, tgt *stft.Spectrogram) (float64, *stft.Spectrogram, error)
}

// Optimizer updates network parameters from their gradients.
type Optimizer interface {
	ZeroGrad()
	Step() error
	LearningRate() float64
	SetLearningRate(lr float64)
	StateDict() map[string][]float64
	LoadStateDict(state map[string][]float64) error
}

// NumParameters counts the trainable scalars of a network.
func NumParameters(n Network) int {
	var total int
	for _, p := range n.Parameters() {
		total += len(p.Value)
	}
	return total
}

// CheckFinite returns ErrNonFiniteLoss for NaN or infinite values.
func CheckFinite(loss float64) error {
	if math.IsNaN(loss) || math.IsInf(loss, 0) {
		return ErrNonFiniteLoss
	}
	return nil
}

// StateDict copies the parameter values keyed by name.
func StateDict(params []*Parameter) map[string][]float64 {
	out := make(map[string][]float64, len(params))
	for _, p := range params {
		out[p.Name] = append([]float64(nil), p.Value...)
	}
	return out
}

// LoadStateDict copies values from state into params. Every parameter must be
// present with the same length, otherwise nothing is changed.
func LoadStateDict(params []*Parameter, state map[string][]float64) error {
	for _, p := range params {
		v, ok := state[p.Name]
		if !ok || len(v) != len(p.Value) {
			return ErrShapeMismatch
		}
	}
	for _, p := range params {
		copy(p.Value, state[p.Name])
	}
	return nil
}
