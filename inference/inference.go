// Package inference turns noisy waveforms into enhanced waveforms with a
// trained network, keeping the noisy phase.
package inference

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/neurlang/denoise/audio"
	"github.com/neurlang/denoise/model"
	"github.com/neurlang/denoise/stft"
)

// Suffix is appended to the base name of every enhanced file.
const Suffix = "_time.wav"

// Enhancer runs a network over single waveforms.
type Enhancer struct {
	Transform *stft.Transform
	Log       logrus.FieldLogger
}

// Enhance returns the estimate of the clean speech in wave. The output has
// the same length as the input.
func (e *Enhancer) Enhance(net model.Network, wave []float64) ([]float64, error) {
	mag, phase, err := e.Transform.Forward([][]float64{wave})
	if err != nil {
		return nil, err
	}
	est, err := net.Forward(mag)
	if err != nil {
		return nil, err
	}
	if !est.SameShape(mag) {
		return nil, fmt.Errorf("inference: estimate %dx%dx%d: %w", est.Batch, est.Bins, est.Frames, stft.ErrShape)
	}
	out, err := e.Transform.InversePolar(est, phase, len(wave))
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EnhanceFile decodes in, enhances it and writes a wav file to out at the
// input's sample rate.
func (e *Enhancer) EnhanceFile(net model.Network, in, out string) error {
	wave, rate, err := audio.Load(in)
	if err != nil {
		return err
	}
	est, err := e.Enhance(net, wave)
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	return audio.SaveWav(out, est, rate)
}

// EnhanceDir enhances every wav file in inDir into outDir as
// <name>_time.wav. An empty outDir writes next to the inputs. It returns the
// number of files written.
func (e *Enhancer) EnhanceDir(net model.Network, inDir, outDir string) (int, error) {
	if outDir == "" {
		outDir = inDir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return 0, err
	}
	entries, err := os.ReadDir(inDir)
	if err != nil {
		return 0, err
	}
	net.SetTraining(false)
	defer net.SetTraining(true)

	var done int
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(name), ".wav") || strings.HasSuffix(name, Suffix) {
			continue
		}
		out := filepath.Join(outDir, strings.TrimSuffix(name, filepath.Ext(name))+Suffix)
		if err := e.EnhanceFile(net, filepath.Join(inDir, name), out); err != nil {
			return done, err
		}
		done++
		if e.Log != nil {
			e.Log.WithField("file", out).Debug("enhanced")
		}
	}
	return done, nil
}
