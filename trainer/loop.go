package trainer

import "fmt"
import "time"

import "github.com/sirupsen/logrus"

import "github.com/neurlang/denoise/checkpoint"
import "github.com/neurlang/denoise/dataset"
import "github.com/neurlang/denoise/evaluate"
import "github.com/neurlang/denoise/model"
import "github.com/neurlang/denoise/model/optim"
import "github.com/neurlang/denoise/stft"

// Run trains from the current epoch up to MaxEpoch.
func (t *Trainer) Run() error {
	d := t.deps
	sched := optim.NewStepLR(d.Optimizer, t.cfg.StepSize, t.cfg.Gamma, t.state.Epoch)

	if t.cfg.ValidateOnStart {
		loss, err := evaluate.Validate(d.Net, d.Eval, d.Transform, d.Loss, d.Progress)
		if err != nil {
			return fmt.Errorf("initial validation: %w", err)
		}
		d.Log.WithField("eval_loss", loss).Info("initial validation")
	}

	d.Log.WithFields(logrus.Fields{
		"start_epoch": t.state.Epoch,
		"max_epoch":   t.cfg.MaxEpoch,
		"batches":     d.Train.Len(),
	}).Info("start training")

	for epoch := t.state.Epoch; epoch < t.cfg.MaxEpoch; epoch++ {
		if err := t.epoch(epoch); err != nil {
			return err
		}
		sched.Step()
		t.state.Epoch = epoch + 1
		d.Log.WithFields(logrus.Fields{
			"epoch": epoch + 1,
			"lr":    d.Optimizer.LearningRate(),
		}).Info("epoch done")
	}
	return nil
}

func (t *Trainer) epoch(epoch int) error {
	d := t.deps
	if s, ok := d.Train.(dataset.Shuffler); ok {
		s.Shuffle(epoch)
	}
	d.Net.SetTraining(true)

	n := d.Train.Len()
	bar := d.Progress.NewBar(fmt.Sprintf("epoch %d/%d", epoch+1, t.cfg.MaxEpoch), n)
	defer bar.Done()

	var accu float64
	var cnt int
	var mtime time.Duration
	for i := 0; i < n; i++ {
		start := time.Now()
		batch, err := d.Train.Batch(i)
		if err != nil {
			return fmt.Errorf("epoch %d step %d: %w", epoch+1, i+1, err)
		}
		loss, est, phase, err := t.step(batch)
		if err != nil {
			return fmt.Errorf("epoch %d step %d: %w", epoch+1, i+1, err)
		}
		accu += loss
		cnt++
		elapsed := time.Since(start)
		mtime += elapsed
		bar.SetMessage(fmt.Sprintf("loss %.5f/%.5f time %.3f/%.3f",
			loss, accu/float64(cnt), elapsed.Seconds(), mtime.Seconds()/float64(i+1)))
		bar.Increment(elapsed)

		if t.cfg.SampleEvery > 0 && t.cfg.ValidationDir != "" && i%t.cfg.SampleEvery == 0 {
			if err := t.dumpSamples(batch, est, phase); err != nil {
				d.Log.WithError(err).Warn("cannot write training samples")
			}
		}

		if t.cfg.EvalSteps > 0 && (i+1)%t.cfg.EvalSteps == 0 {
			if err := t.checkpoint(epoch, i, accu/float64(cnt)); err != nil {
				return err
			}
			accu, cnt = 0, 0
		}
	}
	return nil
}

// step runs one optimization step and returns the loss, the network
// estimate and the mixture phase.
func (t *Trainer) step(batch dataset.TrainBatch) (float64, *stft.Spectrogram, *stft.Spectrogram, error) {
	d := t.deps
	mixMag, mixPhase, err := d.Transform.Forward(batch.Mixture)
	if err != nil {
		return 0, nil, nil, err
	}
	tgtMag, _, err := d.Transform.Forward(batch.Clean)
	if err != nil {
		return 0, nil, nil, err
	}
	d.Optimizer.ZeroGrad()
	est, err := d.Net.Forward(mixMag)
	if err != nil {
		return 0, nil, nil, err
	}
	loss, grad, err := d.Loss.Loss(est, tgtMag)
	if err != nil {
		return 0, nil, nil, err
	}
	if err := model.CheckFinite(loss); err != nil {
		return 0, nil, nil, err
	}
	if err := d.Net.Backward(grad); err != nil {
		return 0, nil, nil, err
	}
	if err := d.Optimizer.Step(); err != nil {
		return 0, nil, nil, err
	}
	return loss, est, mixPhase, nil
}

// checkpoint validates the network and saves the state reached after
// step of epoch.
func (t *Trainer) checkpoint(epoch, step int, trainLoss float64) error {
	d := t.deps
	evalLoss, err := evaluate.Validate(d.Net, d.Eval, d.Transform, d.Loss, d.Progress)
	if err != nil {
		return fmt.Errorf("epoch %d step %d: validation: %w", epoch+1, step+1, err)
	}
	isBest := evalLoss < t.state.BestLoss
	if isBest {
		t.state.BestLoss = evalLoss
	}
	d.Log.WithFields(logrus.Fields{
		"epoch":      fmt.Sprintf("%d/%d", epoch+1, t.cfg.MaxEpoch),
		"step":       step + 1,
		"train_loss": trainLoss,
		"eval_loss":  evalLoss,
		"best":       isBest,
	}).Info("validation")

	state := &checkpoint.State{
		Epoch:     epoch + 1,
		BestLoss:  t.state.BestLoss,
		Model:     d.Net.StateDict(),
		Optimizer: d.Optimizer.StateDict(),
	}
	if err := d.Store.Save(state, isBest, d.Store.RollingPath(epoch+1, step+1)); err != nil {
		return fmt.Errorf("epoch %d step %d: %w", epoch+1, step+1, err)
	}
	return nil
}
