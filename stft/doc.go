// Package stft provides the short-time Fourier analysis and synthesis used
// by every part of the denoiser that touches raw audio.
//
// A Transform is configured by a frame size N (window length) and a frame
// shift H (hop). Forward turns a batch of waveforms into magnitude and phase
// spectrograms of shape (batch, N/2+1, frames); Inverse rebuilds waveforms
// from a real/imaginary pair by windowed overlap-add. It supports:
//   - Centered padding of N/2 zeros so that the edge samples are fully covered
//   - Overlap-add normalised by the squared window sum, so that
//     Inverse(Forward(w)) reproduces w up to floating point precision
//   - Two FFT backends (go-dsp and gonum) selected with an Option
//   - Log-magnitude PNG dumps of a spectrogram row, optionally pooled into
//     mel bands
package stft
