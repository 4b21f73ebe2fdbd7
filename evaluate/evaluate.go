// Package evaluate measures a network on held-out data: the mean validation
// loss used for model selection, and the per-condition scores of a test run.
package evaluate

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/neurlang/denoise/audio"
	"github.com/neurlang/denoise/clips"
	"github.com/neurlang/denoise/dataset"
	"github.com/neurlang/denoise/inference"
	"github.com/neurlang/denoise/metrics"
	"github.com/neurlang/denoise/model"
	"github.com/neurlang/denoise/progress"
	"github.com/neurlang/denoise/stft"
)

// ErrEmptySet is returned when there is nothing to evaluate.
var ErrEmptySet = errors.New("evaluate: empty evaluation set")

// Validate returns the mean loss of net over every batch of src. The
// network runs in inference mode and is put back into training mode before
// Validate returns, also on error.
func Validate(net model.Network, src dataset.EvalSource, tr *stft.Transform, loss model.Loss, rep progress.Reporter) (float64, error) {
	n := src.Len()
	if n == 0 {
		return 0, ErrEmptySet
	}
	if rep == nil {
		rep = progress.Nop{}
	}
	net.SetTraining(false)
	defer net.SetTraining(true)

	bar := rep.NewBar("validate", n)
	defer bar.Done()

	var sum float64
	for i := 0; i < n; i++ {
		start := time.Now()
		batch, err := src.Batch(i)
		if err != nil {
			return 0, err
		}
		mix, _, err := tr.Forward(batch.Mixture)
		if err != nil {
			return 0, fmt.Errorf("validate item %d: %w", i, err)
		}
		tgt, _, err := tr.Forward(batch.Clean)
		if err != nil {
			return 0, fmt.Errorf("validate item %d: %w", i, err)
		}
		est, err := net.Forward(mix)
		if err != nil {
			return 0, fmt.Errorf("validate item %d: %w", i, err)
		}
		l, _, err := loss.Loss(est, tgt)
		if err != nil {
			return 0, fmt.Errorf("validate item %d: %w", i, err)
		}
		if err := model.CheckFinite(l); err != nil {
			return 0, fmt.Errorf("validate item %d: %w", i, err)
		}
		sum += l
		bar.Increment(time.Since(start))
	}
	return sum / float64(n), nil
}

// Runner scores a network on clip archives.
type Runner struct {
	Enhancer   *inference.Enhancer
	Metrics    metrics.Suite
	SampleRate int
	// PredictionDir receives the normalized mixture, target and estimate
	// of every clip when not empty.
	PredictionDir string
	Log           logrus.FieldLogger
	Progress      progress.Reporter
}

// RunTestSuite enhances every clip of the given archives and returns the
// mean scores of mixture and estimate per noise type and SNR.
func (r *Runner) RunTestSuite(net model.Network, archives []string) (*metrics.Report, error) {
	rep := r.Progress
	if rep == nil {
		rep = progress.Nop{}
	}
	net.SetTraining(false)
	defer net.SetTraining(true)

	acc := metrics.NewAccumulator()
	var total int
	for _, name := range archives {
		noise, snr, err := clips.ParseName(name)
		if err != nil {
			return nil, err
		}
		all, err := clips.Read(name)
		if err != nil {
			return nil, err
		}
		bucket := metrics.Bucket{Noise: noise, SNR: snr}
		if r.Log != nil {
			r.Log.WithFields(logrus.Fields{"archive": filepath.Base(name), "clips": len(all)}).Info("testing")
		}
		bar := rep.NewBar(bucket.String(), len(all))
		for k, c := range all {
			start := time.Now()
			pair, err := r.score(net, bucket, k, c)
			if err != nil {
				bar.Done()
				return nil, fmt.Errorf("%s clip %d: %w", name, k, err)
			}
			acc.Add(bucket, pair)
			total++
			bar.Increment(time.Since(start))
		}
		bar.Done()
	}
	if total == 0 {
		return nil, ErrEmptySet
	}
	return acc.Report(), nil
}

func (r *Runner) score(net model.Network, bucket metrics.Bucket, k int, c clips.Clip) (metrics.Pair, error) {
	est, err := r.Enhancer.Enhance(net, c.NoisyRaw)
	if err != nil {
		return metrics.Pair{}, err
	}
	cut := audio.Truncate(c.NoisyRaw, c.CleanRaw, est)
	mix, clean, est := cut[0], cut[1], cut[2]

	var pair metrics.Pair
	if pair.Mixture, err = r.Metrics.Score(clean, mix, r.SampleRate); err != nil {
		return pair, err
	}
	if pair.Estimate, err = r.Metrics.Score(clean, est, r.SampleRate); err != nil {
		return pair, err
	}

	if r.PredictionDir != "" {
		prefix := filepath.Join(r.PredictionDir, fmt.Sprintf("S%03d_%s_%s_", k, bucket.Noise, bucket.SNR))
		for suffix, vec := range map[string][]float64{"mix": mix, "tgt": clean, "time": est} {
			norm, _ := audio.Normalize(vec)
			if err := audio.SaveWav(prefix+suffix+".wav", norm, r.SampleRate); err != nil {
				return pair, err
			}
		}
	}
	return pair, nil
}
