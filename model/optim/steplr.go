package optim

import "github.com/neurlang/denoise/model"

// StepLR multiplies the learning rate by Gamma every StepSize epochs.
type StepLR struct {
	StepSize int
	Gamma    float64

	opt   model.Optimizer
	epoch int
}

// NewStepLR attaches a schedule to opt. lastEpoch is the number of epochs
// already completed, so a resumed run keeps its decay phase.
func NewStepLR(opt model.Optimizer, stepSize int, gamma float64, lastEpoch int) *StepLR {
	if stepSize < 1 {
		stepSize = 1
	}
	return &StepLR{StepSize: stepSize, Gamma: gamma, opt: opt, epoch: lastEpoch}
}

// Step advances the schedule by one epoch.
func (s *StepLR) Step() {
	s.epoch++
	if s.epoch%s.StepSize == 0 {
		s.opt.SetLearningRate(s.opt.LearningRate() * s.Gamma)
	}
}

// Epoch is the number of completed epochs.
func (s *StepLR) Epoch() int {
	return s.epoch
}
