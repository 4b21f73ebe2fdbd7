// Package loss holds the reference spectral loss.
package loss

import "github.com/neurlang/denoise/stft"

// MSE is the mean squared error over every element of the spectrogram.
type MSE struct{}

func (MSE) Loss(est, tgt *stft.Spectrogram) (float64, *stft.Spectrogram, error) {
	if !est.SameShape(tgt) || len(est.Data) == 0 {
		return 0, nil, stft.ErrShape
	}
	grad := stft.NewSpectrogram(est.Batch, est.Bins, est.Frames)
	n := float64(len(est.Data))
	var sum float64
	for i, e := range est.Data {
		d := e - tgt.Data[i]
		sum += d * d
		grad.Data[i] = 2 * d / n
	}
	return sum / n, grad, nil
}
