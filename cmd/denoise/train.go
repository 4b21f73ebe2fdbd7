package main

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/neurlang/denoise/checkpoint"
	"github.com/neurlang/denoise/config"
	"github.com/neurlang/denoise/dataset"
	"github.com/neurlang/denoise/model"
	"github.com/neurlang/denoise/model/gainmask"
	"github.com/neurlang/denoise/model/loss"
	"github.com/neurlang/denoise/model/optim"
	"github.com/neurlang/denoise/progress"
	"github.com/neurlang/denoise/trainer"
)

func (a *app) trainCommand() *cobra.Command {
	var resume string
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the network, optionally resuming from a checkpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(true); err != nil {
				return err
			}
			defer a.close()
			a.log.Banner()
			return a.train(resume)
		},
	}
	cmd.Flags().StringVarP(&resume, "resume-model", "m", "", "checkpoint to resume from")
	return cmd
}

func (a *app) train(resume string) error {
	c := a.conf
	tr, err := a.transform()
	if err != nil {
		return err
	}

	trainClips, err := dataset.LoadDir(c.Paths.Train, c.Train.Workers)
	if err != nil {
		return err
	}
	train, err := dataset.NewChunkSet(trainClips, c.Train.ChunkLength, c.Train.BatchSize, c.Train.Seed)
	if err != nil {
		return err
	}
	evalClips, err := dataset.LoadDir(c.Paths.Eval, c.Train.Workers)
	if err != nil {
		return err
	}
	eval := dataset.NewClipSet(evalClips)

	net := gainmask.New(tr.Bins(), 0)
	opt := optim.NewAdam(net.Parameters(), c.Train.LR, c.Train.AMSGrad)
	a.log.WithFields(logrus.Fields{
		"parameters":  model.NumParameters(net),
		"train_clips": len(trainClips),
		"eval_clips":  eval.Len(),
		"batches":     train.Len(),
	}).Info("data loaded")

	for _, dir := range []string{c.Paths.Model, c.Paths.Validation} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := config.Write(filepath.Join(c.Paths.Model, "config.yaml"), c); err != nil {
		return err
	}

	rep := progress.NewTerminal(os.Stderr)
	t := trainer.New(trainer.Config{
		MaxEpoch:        c.Train.MaxEpoch,
		EvalSteps:       c.Train.EvalSteps,
		SampleEvery:     c.Train.SampleEvery,
		ValidateOnStart: c.Train.ValidateOnStart,
		StepSize:        c.Train.StepSize,
		Gamma:           c.Train.Gamma,
		SampleRate:      c.SampleRate,
		ValidationDir:   c.Paths.Validation,
	}, trainer.Deps{
		Net:       net,
		Optimizer: opt,
		Loss:      loss.MSE{},
		Transform: tr,
		Store:     checkpoint.NewStore(c.Paths.Model, a.log),
		Train:     train,
		Eval:      eval,
		Log:       a.log,
		Progress:  rep,
	})
	if err := t.Resume(resume); err != nil {
		return err
	}
	err = t.Run()
	rep.Wait()
	if err != nil {
		return err
	}
	a.log.WithField("best_loss", t.BestLoss()).Info("training done")
	return nil
}
