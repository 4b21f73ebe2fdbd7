// Package config loads the run configuration from a yaml file, environment
// variables prefixed with DENOISE_ and built in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/neurlang/denoise/stft"
)

// ErrInvalid reports inconsistent configuration values.
var ErrInvalid = errors.New("config: invalid value")

type Transform struct {
	FrameSize  int    `yaml:"frame_size" mapstructure:"frame_size"`
	FrameShift int    `yaml:"frame_shift" mapstructure:"frame_shift"`
	Backend    string `yaml:"backend" mapstructure:"backend"`
	// Window names the analysis window: hann, periodic-hann, hamming or
	// rect. The default hann needs frame_shift below frame_size-1.
	Window string `yaml:"window" mapstructure:"window"`
}

type Train struct {
	MaxEpoch        int     `yaml:"max_epoch" mapstructure:"max_epoch"`
	BatchSize       int     `yaml:"batch_size" mapstructure:"batch_size"`
	ChunkLength     int     `yaml:"chunk_length" mapstructure:"chunk_length"`
	EvalSteps       int     `yaml:"eval_steps" mapstructure:"eval_steps"`
	SampleEvery     int     `yaml:"sample_every" mapstructure:"sample_every"`
	ValidateOnStart bool    `yaml:"validate_on_start" mapstructure:"validate_on_start"`
	LR              float64 `yaml:"lr" mapstructure:"lr"`
	AMSGrad         bool    `yaml:"amsgrad" mapstructure:"amsgrad"`
	StepSize        int     `yaml:"step_size" mapstructure:"step_size"`
	Gamma           float64 `yaml:"gamma" mapstructure:"gamma"`
	Seed            int64   `yaml:"seed" mapstructure:"seed"`
	Workers         int     `yaml:"workers" mapstructure:"workers"`
}

type Metrics struct {
	// Perceptual and Intelligibility are external scorer commands; the
	// first element is the executable. Empty disables the metric.
	Perceptual      []string `yaml:"perceptual" mapstructure:"perceptual"`
	Intelligibility []string `yaml:"intelligibility" mapstructure:"intelligibility"`
}

type Paths struct {
	Train      string `yaml:"train" mapstructure:"train"`
	Eval       string `yaml:"eval" mapstructure:"eval"`
	Test       string `yaml:"test" mapstructure:"test"`
	Model      string `yaml:"model" mapstructure:"model"`
	Validation string `yaml:"validation" mapstructure:"validation"`
	Prediction string `yaml:"prediction" mapstructure:"prediction"`
	Log        string `yaml:"log" mapstructure:"log"`
}

// Root is the whole configuration.
type Root struct {
	SampleRate int       `yaml:"sample_rate" mapstructure:"sample_rate"`
	LogLevel   string    `yaml:"log_level" mapstructure:"log_level"`
	Transform  Transform `yaml:"transform" mapstructure:"transform"`
	Train      Train     `yaml:"train" mapstructure:"train"`
	Metrics    Metrics   `yaml:"metrics" mapstructure:"metrics"`
	Paths      Paths     `yaml:"paths" mapstructure:"paths"`
}

var defaults = map[string]any{
	"sample_rate":             16000,
	"log_level":               "info",
	"transform.frame_size":    320,
	"transform.frame_shift":   160,
	"transform.backend":       "godsp",
	"transform.window":        "hann",
	"train.max_epoch":         20,
	"train.batch_size":        4,
	"train.chunk_length":      48000,
	"train.eval_steps":        1000,
	"train.sample_every":      2000,
	"train.validate_on_start": true,
	"train.lr":                0.001,
	"train.amsgrad":           true,
	"train.step_size":         2,
	"train.gamma":             0.98,
	"train.seed":              1,
	"train.workers":           4,
	"metrics.perceptual":      []string{},
	"metrics.intelligibility": []string{},
	"paths.train":             "data/train",
	"paths.eval":              "data/eval",
	"paths.test":              "data/test",
	"paths.model":             "model",
	"paths.validation":        "validation",
	"paths.prediction":        "prediction",
	"paths.log":               "log/train.log",
}

// New returns a viper instance with every default set and environment
// overrides enabled.
func New() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix("DENOISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration from file, or searches config.yaml in the
// working directory and ./config when file is empty. A missing searched
// file is not an error.
func Load(v *viper.Viper, file string) (*Root, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}
	var root Root
	if err := v.Unmarshal(&root); err != nil {
		return nil, err
	}
	if err := root.Validate(); err != nil {
		return nil, err
	}
	return &root, nil
}

// Default is the configuration with no file and no environment.
func Default() *Root {
	var root Root
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	if err := v.Unmarshal(&root); err != nil {
		panic(err)
	}
	return &root
}

// Validate rejects values no run can use.
func (r *Root) Validate() error {
	switch {
	case r.SampleRate < 1:
		return fmt.Errorf("%w: sample_rate %d", ErrInvalid, r.SampleRate)
	case r.Transform.FrameSize < 2:
		return fmt.Errorf("%w: frame_size %d", ErrInvalid, r.Transform.FrameSize)
	case r.Transform.FrameShift < 1 || r.Transform.FrameShift > r.Transform.FrameSize:
		return fmt.Errorf("%w: frame_shift %d with frame_size %d", ErrInvalid, r.Transform.FrameShift, r.Transform.FrameSize)
	case r.Train.BatchSize < 1:
		return fmt.Errorf("%w: batch_size %d", ErrInvalid, r.Train.BatchSize)
	case r.Train.ChunkLength < r.Transform.FrameShift:
		return fmt.Errorf("%w: chunk_length %d shorter than frame_shift", ErrInvalid, r.Train.ChunkLength)
	case r.Train.EvalSteps < 1:
		return fmt.Errorf("%w: eval_steps %d", ErrInvalid, r.Train.EvalSteps)
	case r.Train.MaxEpoch < 0:
		return fmt.Errorf("%w: max_epoch %d", ErrInvalid, r.Train.MaxEpoch)
	case r.Train.LR <= 0:
		return fmt.Errorf("%w: lr %g", ErrInvalid, r.Train.LR)
	case r.Train.StepSize < 1 || r.Train.Gamma <= 0:
		return fmt.Errorf("%w: step_size %d gamma %g", ErrInvalid, r.Train.StepSize, r.Train.Gamma)
	}
	if _, err := stft.ParseBackend(r.Transform.Backend); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	w, err := stft.Window(r.Transform.Window, r.Transform.FrameSize)
	if err != nil {
		return fmt.Errorf("%w: window %q: %v", ErrInvalid, r.Transform.Window, err)
	}
	if _, err := stft.New(r.Transform.FrameSize, r.Transform.FrameShift, stft.WithWindow(w)); err != nil {
		return fmt.Errorf("%w: %s window with frame_size %d and frame_shift %d: %v",
			ErrInvalid, r.Transform.Window, r.Transform.FrameSize, r.Transform.FrameShift, err)
	}
	return nil
}

// Write stores the configuration as yaml at path.
func Write(path string, r *Root) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(r)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
