package trainer

import "fmt"
import "math"

import "github.com/sirupsen/logrus"

import "github.com/neurlang/denoise/checkpoint"
import "github.com/neurlang/denoise/model"

// Resume restores the training state saved at path. An empty path starts a
// fresh run. Any failure must abort the run: a missing, corrupt or
// mismatching checkpoint never falls back to a fresh state, and leaves the
// network as it was.
func (t *Trainer) Resume(path string) error {
	if path == "" {
		t.state = checkpoint.State{BestLoss: math.Inf(1)}
		t.deps.Log.WithField("parameters", model.NumParameters(t.deps.Net)).Info("no model to resume, training a new one")
		return nil
	}
	st, err := t.deps.Store.Load(path)
	if err != nil {
		return fmt.Errorf("resume %s: %w", path, err)
	}
	prev := t.deps.Net.StateDict()
	if err := t.deps.Net.LoadStateDict(st.Model); err != nil {
		return fmt.Errorf("resume %s: network: %w", path, err)
	}
	if err := t.deps.Optimizer.LoadStateDict(st.Optimizer); err != nil {
		if rerr := t.deps.Net.LoadStateDict(prev); rerr != nil {
			return fmt.Errorf("resume %s: optimizer: %w (restore: %v)", path, err, rerr)
		}
		return fmt.Errorf("resume %s: optimizer: %w", path, err)
	}
	t.state = *st
	t.deps.Log.WithFields(logrus.Fields{
		"path":      path,
		"epoch":     st.Epoch,
		"best_loss": st.BestLoss,
		"lr":        t.deps.Optimizer.LearningRate(),
	}).Info("resumed model")
	return nil
}
