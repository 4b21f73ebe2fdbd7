package stft

import "math"

func melToHz(value float64) float64 {
	const melBreakFrequencyHertz = 700.0
	const melHighFrequencyQ = 1127.0
	return melBreakFrequencyHertz * (math.Exp(value/melHighFrequencyQ) - 1.0)
}

func hzToMel(value float64) float64 {
	const melBreakFrequencyHertz = 700.0
	const melHighFrequencyQ = 1127.0
	return melHighFrequencyQ * math.Log(1.0+(value/melBreakFrequencyHertz))
}

// Mel pools a magnitude spectrogram into mels bands equally spaced on the
// mel scale between fmin and fmax Hz. Each band averages the bins it covers;
// a band narrower than one bin interpolates between its two neighbours.
func Mel(mag *Spectrogram, mels int, fmin, fmax float64, sampleRate int) (*Spectrogram, error) {
	nyquist := float64(sampleRate) / 2
	if mels < 1 || mag.Bins < 2 || fmin < 0 || fmax <= fmin || fmax > nyquist {
		return nil, ErrConfig
	}
	hzPerBin := nyquist / float64(mag.Bins-1)
	lowMel := hzToMel(fmin)
	melbin := (hzToMel(fmax) - lowMel) / float64(mels)

	out := NewSpectrogram(mag.Batch, mels, mag.Frames)
	for i := 0; i < mels; i++ {
		vallo := melToHz(lowMel+melbin*float64(i)) / hzPerBin
		valhi := melToHz(lowMel+melbin*float64(i+1)) / hzPerBin
		inlo, modlo := math.Modf(vallo)
		inhi := math.Floor(valhi)
		lo, hi := int(inlo), int(inhi)
		if hi > mag.Bins-1 {
			hi = mag.Bins - 1
		}

		for b := 0; b < mag.Batch; b++ {
			for t := 0; t < mag.Frames; t++ {
				var total float64
				if hi <= lo+1 {
					next := lo + 1
					if next > mag.Bins-1 {
						next = mag.Bins - 1
					}
					total = mag.At(b, lo, t)*(1-modlo) + mag.At(b, next, t)*modlo
				} else {
					for k := lo; k <= hi; k++ {
						total += mag.At(b, k, t)
					}
					total /= float64(hi - lo + 1)
				}
				out.Set(b, i, t, total)
			}
		}
	}
	return out, nil
}
