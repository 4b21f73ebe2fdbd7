package metrics

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/neurlang/denoise/audio"
)

// Command returns a metric that runs an external scorer. The reference and
// test signals are written to temporary wav files and the placeholders
// {ref}, {test} and {rate} in args are replaced by their paths and the
// sample rate. When either signal exceeds full scale both are divided by
// the larger peak, so that the wav files keep their relative level
// without clipping. The last whitespace separated token of the scorer's standard
// output is parsed as the score.
func Command(path string, args ...string) Func {
	return func(reference, test []float64, sampleRate int) (float64, error) {
		if len(reference) != len(test) || len(reference) == 0 {
			return 0, ErrLength
		}
		dir, err := os.MkdirTemp("", "denoise-metric-*")
		if err != nil {
			return 0, err
		}
		defer os.RemoveAll(dir)

		reference, test = fitFullScale(reference, test)
		ref := filepath.Join(dir, "ref.wav")
		deg := filepath.Join(dir, "test.wav")
		if err := audio.SaveWav(ref, reference, sampleRate); err != nil {
			return 0, err
		}
		if err := audio.SaveWav(deg, test, sampleRate); err != nil {
			return 0, err
		}

		replacer := strings.NewReplacer("{ref}", ref, "{test}", deg, "{rate}", strconv.Itoa(sampleRate))
		argv := make([]string, len(args))
		for i, a := range args {
			argv[i] = replacer.Replace(a)
		}

		var stdout, stderr bytes.Buffer
		cmd := exec.CommandContext(context.Background(), path, argv...)
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			return 0, fmt.Errorf("metrics: %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
		}
		fields := strings.Fields(stdout.String())
		if len(fields) == 0 {
			return 0, fmt.Errorf("metrics: %s printed no score", path)
		}
		v, err := strconv.ParseFloat(fields[len(fields)-1], 64)
		if err != nil {
			return 0, fmt.Errorf("metrics: %s: %w", path, err)
		}
		return v, nil
	}
}

// fitFullScale scales a and b by one common factor so that neither exceeds
// 1 in magnitude. Signals already in range are returned as they are.
func fitFullScale(a, b []float64) ([]float64, []float64) {
	var peak float64
	for _, v := range a {
		peak = math.Max(peak, math.Abs(v))
	}
	for _, v := range b {
		peak = math.Max(peak, math.Abs(v))
	}
	if peak <= 1 {
		return a, b
	}
	scale := func(vec []float64) []float64 {
		out := make([]float64, len(vec))
		for i, v := range vec {
			out[i] = v / peak
		}
		return out
	}
	return scale(a), scale(b)
}
