package trainer

import "fmt"
import "path/filepath"

import "github.com/neurlang/denoise/audio"
import "github.com/neurlang/denoise/dataset"
import "github.com/neurlang/denoise/stft"

// dumpSamples writes the peak normalized mixture, target and estimate of
// every batch item, and a picture of the estimated magnitude, into the
// validation directory.
func (t *Trainer) dumpSamples(batch dataset.TrainBatch, est, phase *stft.Spectrogram) error {
	dir := t.cfg.ValidationDir
	length := len(batch.Mixture[0])
	waves, err := t.deps.Transform.InversePolar(est, phase, length)
	if err != nil {
		return err
	}
	for b := range batch.Mixture {
		for suffix, vec := range map[string][]float64{
			"mix":  batch.Mixture[b],
			"tgt":  batch.Clean[b],
			"time": waves[b],
		} {
			norm, _ := audio.Normalize(vec)
			name := filepath.Join(dir, fmt.Sprintf("Batch%d_%s.wav", b, suffix))
			if err := audio.SaveWav(name, norm, t.cfg.SampleRate); err != nil {
				return err
			}
		}
		name := filepath.Join(dir, fmt.Sprintf("Batch%d_est.png", b))
		if err := stft.WriteImage(name, est, b, true); err != nil {
			return err
		}
	}
	return nil
}
