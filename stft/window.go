package stft

import "errors"

import "github.com/r9y9/gossp/window"

// ErrWindow reports an unknown analysis window name.
var ErrWindow = errors.New("stft: unknown window")

// Window builds the analysis window called name with n taps.
//
// "hann" is the symmetric Hann window used by default. It vanishes at both
// ends, so it needs a frame shift below n-1. "periodic-hann" drops the last
// tap of an n+1 symmetric window and only vanishes at the start, which
// allows any frame shift below n. "hamming" and "rect" never vanish and
// allow a frame shift of n.
func Window(name string, n int) ([]float64, error) {
	switch name {
	case "", "hann", "hanning":
		return window.CreateHanning(n), nil
	case "periodic-hann":
		return window.CreateHanning(n + 1)[:n], nil
	case "hamming":
		return window.CreateHamming(n), nil
	case "rect", "rectangle", "boxcar":
		w := make([]float64, n)
		for i := range w {
			w[i] = 1
		}
		return w, nil
	}
	return nil, ErrWindow
}
