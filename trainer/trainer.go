package trainer

import "io"
import "math"

import "github.com/sirupsen/logrus"

import "github.com/neurlang/denoise/checkpoint"
import "github.com/neurlang/denoise/dataset"
import "github.com/neurlang/denoise/model"
import "github.com/neurlang/denoise/progress"
import "github.com/neurlang/denoise/stft"

// Config holds the loop parameters.
type Config struct {
	MaxEpoch int
	// EvalSteps is the number of minibatches between validations.
	EvalSteps int
	// SampleEvery is the number of minibatches between sample dumps into
	// ValidationDir. Zero disables them.
	SampleEvery     int
	ValidateOnStart bool
	// StepSize and Gamma configure the step learning rate decay.
	StepSize      int
	Gamma         float64
	SampleRate    int
	ValidationDir string
}

// Checkpointer persists training states. *checkpoint.Store implements it.
type Checkpointer interface {
	Save(state *checkpoint.State, isBest bool, path string) error
	Load(path string) (*checkpoint.State, error)
	RollingPath(epoch, step int) string
}

// Deps are the collaborators of a Trainer.
type Deps struct {
	Net       model.Network
	Optimizer model.Optimizer
	Loss      model.Loss
	Transform *stft.Transform
	Store     Checkpointer
	Train     dataset.TrainSource
	Eval      dataset.EvalSource
	Log       logrus.FieldLogger
	Progress  progress.Reporter
}

// Trainer owns the training state of one run.
type Trainer struct {
	cfg   Config
	deps  Deps
	state checkpoint.State
}

// New creates a trainer in the fresh state: epoch zero, no best loss yet.
func New(cfg Config, deps Deps) *Trainer {
	if deps.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		deps.Log = l
	}
	if deps.Progress == nil {
		deps.Progress = progress.Nop{}
	}
	return &Trainer{
		cfg:   cfg,
		deps:  deps,
		state: checkpoint.State{BestLoss: math.Inf(1)},
	}
}

// Epoch is the next epoch the trainer will run.
func (t *Trainer) Epoch() int {
	return t.state.Epoch
}

// BestLoss is the lowest validation loss seen so far.
func (t *Trainer) BestLoss() float64 {
	return t.state.BestLoss
}
