// Package metrics scores enhanced audio against a clean reference and
// aggregates the scores per noise type and SNR bucket.
package metrics

import (
	"errors"
	"math"
)

// ErrLength is returned when reference and test have different or zero length.
var ErrLength = errors.New("metrics: reference and test lengths differ or are zero")

// Func scores test against reference at the given sample rate.
type Func func(reference, test []float64, sampleRate int) (float64, error)

// Suite groups the three scores reported by the test run.
type Suite struct {
	Energy          Func
	Perceptual      Func
	Intelligibility Func
}

// Scores holds one value per metric.
type Scores struct {
	Energy          float64
	Perceptual      float64
	Intelligibility float64
}

// Score evaluates every metric of the suite. A nil metric scores NaN.
func (s Suite) Score(reference, test []float64, sampleRate int) (Scores, error) {
	var out Scores
	for _, m := range []struct {
		fn  Func
		dst *float64
	}{
		{s.Energy, &out.Energy},
		{s.Perceptual, &out.Perceptual},
		{s.Intelligibility, &out.Intelligibility},
	} {
		if m.fn == nil {
			*m.dst = math.NaN()
			continue
		}
		v, err := m.fn(reference, test, sampleRate)
		if err != nil {
			return Scores{}, err
		}
		*m.dst = v
	}
	return out, nil
}

// SNR is the signal to noise ratio in dB of test against reference,
// treating their difference as noise.
func SNR(reference, test []float64, _ int) (float64, error) {
	if len(reference) != len(test) || len(reference) == 0 {
		return 0, ErrLength
	}
	var signal, noise float64
	for i, r := range reference {
		d := r - test[i]
		signal += r * r
		noise += d * d
	}
	return 10 * math.Log10(signal/noise), nil
}
