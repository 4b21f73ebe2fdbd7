package main

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/neurlang/denoise/audio"
	"github.com/neurlang/denoise/checkpoint"
	"github.com/neurlang/denoise/clips"
	"github.com/neurlang/denoise/config"
	"github.com/neurlang/denoise/inference"
	"github.com/neurlang/denoise/model/gainmask"
	"github.com/neurlang/denoise/stft"
)

func TestConfigCommand_PrintsDefaults(t *testing.T) {
	a := &app{}
	cmd := a.configCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())

	var back config.Root
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &back))
	assert.Equal(t, config.Default().Transform, back.Transform)
}

func writeConfig(t *testing.T, dir string, mutate ...func(*config.Root)) string {
	t.Helper()
	c := config.Default()
	c.SampleRate = 8000
	c.Transform.FrameSize = 64
	c.Transform.FrameShift = 16
	c.Train.MaxEpoch = 1
	c.Train.BatchSize = 2
	c.Train.ChunkLength = 128
	c.Train.EvalSteps = 1
	c.Paths.Train = filepath.Join(dir, "train")
	c.Paths.Eval = filepath.Join(dir, "eval")
	c.Paths.Test = filepath.Join(dir, "test")
	c.Paths.Model = filepath.Join(dir, "model")
	c.Paths.Validation = filepath.Join(dir, "validation")
	c.Paths.Prediction = filepath.Join(dir, "prediction")
	c.Paths.Log = filepath.Join(dir, "log", "train.log")
	for _, m := range mutate {
		m(c)
	}
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, config.Write(path, c))
	return path
}

func saveModel(t *testing.T, dir string) string {
	t.Helper()
	net := gainmask.New(33, 8)
	path := filepath.Join(dir, "best.ckpt")
	require.NoError(t, checkpoint.NewStore(dir, nil).Save(&checkpoint.State{
		Epoch:    2,
		BestLoss: 0.1,
		Model:    net.StateDict(),
	}, false, path))
	return path
}

func tone(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.3 * math.Sin(float64(i)*0.2)
	}
	return out
}

func TestInferCommand_File(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "noisy.wav")
	require.NoError(t, audio.SaveWav(in, tone(800), 8000))

	a := &app{cfgFile: writeConfig(t, dir)}
	cmd := a.inferCommand()
	cmd.SetArgs([]string{"-m", saveModel(t, dir), "-i", in})
	require.NoError(t, cmd.Execute())

	wave, rate, err := audio.Load(filepath.Join(dir, "noisy"+inference.Suffix))
	require.NoError(t, err)
	assert.Equal(t, 8000, rate)
	assert.Len(t, wave, 800)
}

func TestTestCommand_Report(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "test"), 0o755))
	noisy := tone(600)
	for i := range noisy {
		noisy[i] += 0.05 * math.Cos(float64(i)*2.1)
	}
	require.NoError(t, clips.Write(filepath.Join(dir, "test", "test_hum_snr5.samp"),
		[]clips.Clip{{NoisyRaw: noisy, CleanRaw: tone(600)}}, clips.Half))

	a := &app{cfgFile: writeConfig(t, dir)}
	cmd := a.testCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"-m", saveModel(t, dir)})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "(hum_snr5)")
	assert.FileExists(t, filepath.Join(dir, "prediction", "S000_hum_snr5_time.wav"))
}

func TestSpectrogramCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "tone.wav")
	require.NoError(t, audio.SaveWav(in, tone(2000), 8000))

	a := &app{cfgFile: writeConfig(t, dir)}
	cmd := a.spectrogramCommand()
	cmd.SetArgs([]string{"--mels", "16", in})
	require.NoError(t, cmd.Execute())
	assert.FileExists(t, in+".png")
}

func writeArchive(t *testing.T, dir, name string, lengths ...int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	var all []clips.Clip
	for k, n := range lengths {
		clean := tone(n)
		noisy := make([]float64, n)
		for i := range noisy {
			noisy[i] = clean[i] + 0.05*math.Cos(float64(i+k)*2.1)
		}
		all = append(all, clips.Clip{NoisyRaw: noisy, CleanRaw: clean})
	}
	require.NoError(t, clips.Write(filepath.Join(dir, name), all, clips.Single))
}

// runWithin executes cmd and fails the test when it does not return in time.
func runWithin(t *testing.T, cmd interface{ Execute() error }, limit time.Duration) error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- cmd.Execute() }()
	select {
	case err := <-done:
		return err
	case <-time.After(limit):
		t.Fatal("command did not return")
		return nil
	}
}

func TestTrainCommand_OneEpoch(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, filepath.Join(dir, "train"), "train_hum_snr0.samp", 300, 300)
	writeArchive(t, filepath.Join(dir, "eval"), "eval_hum_snr0.samp", 400)

	a := &app{cfgFile: writeConfig(t, dir)}
	cmd := a.trainCommand()
	cmd.SetArgs(nil)
	require.NoError(t, runWithin(t, cmd, 30*time.Second))

	modelDir := filepath.Join(dir, "model")
	assert.FileExists(t, filepath.Join(modelDir, checkpoint.BestName))
	assert.FileExists(t, filepath.Join(modelDir, "1-1-val.ckpt"))
	assert.FileExists(t, filepath.Join(modelDir, "1-2-val.ckpt"))
	assert.FileExists(t, filepath.Join(modelDir, "config.yaml"))
	assert.FileExists(t, filepath.Join(dir, "log", "train.log"))

	st, err := checkpoint.NewStore(modelDir, nil).Load(filepath.Join(modelDir, "1-2-val.ckpt"))
	require.NoError(t, err)
	assert.Equal(t, 1, st.Epoch)
	assert.NotEmpty(t, st.Optimizer)
}

func TestTrainCommand_ResumeFinished(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, filepath.Join(dir, "train"), "train_hum_snr0.samp", 300, 300)
	writeArchive(t, filepath.Join(dir, "eval"), "eval_hum_snr0.samp", 400)
	cfg := writeConfig(t, dir)

	first := (&app{cfgFile: cfg}).trainCommand()
	first.SetArgs(nil)
	require.NoError(t, runWithin(t, first, 30*time.Second))

	again := (&app{cfgFile: cfg}).trainCommand()
	again.SetArgs([]string{"-m", filepath.Join(dir, "model", "1-2-val.ckpt")})
	require.NoError(t, runWithin(t, again, 30*time.Second))
}

func TestTrainCommand_ValidationFailureReturns(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, filepath.Join(dir, "train"), "train_hum_snr0.samp", 300, 300)
	// shorter than one frame shift
	writeArchive(t, filepath.Join(dir, "eval"), "eval_hum_snr0.samp", 5)

	a := &app{cfgFile: writeConfig(t, dir, func(c *config.Root) {
		c.Train.ValidateOnStart = true
	})}
	cmd := a.trainCommand()
	cmd.SetArgs(nil)
	err := runWithin(t, cmd, 30*time.Second)
	assert.ErrorIs(t, err, stft.ErrShape)
	assert.NoFileExists(t, filepath.Join(dir, "model", checkpoint.BestName))
}
