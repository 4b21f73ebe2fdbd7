package main

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/neurlang/denoise/clips"
	"github.com/neurlang/denoise/evaluate"
	"github.com/neurlang/denoise/inference"
	"github.com/neurlang/denoise/progress"
)

func (a *app) testCommand() *cobra.Command {
	var modelPath string
	var noPredictions bool
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Score a checkpoint on the test archives per noise type and SNR",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(false); err != nil {
				return err
			}
			defer a.close()

			tr, err := a.transform()
			if err != nil {
				return err
			}
			net, st, err := loadNetwork(modelPath, tr.Bins())
			if err != nil {
				return err
			}
			a.log.WithFields(logrus.Fields{
				"model":     modelPath,
				"epoch":     st.Epoch,
				"best_loss": st.BestLoss,
			}).Info("model loaded for test")

			names, err := clips.List(a.conf.Paths.Test, clips.Suffix)
			if err != nil {
				return err
			}
			for i := range names {
				names[i] = filepath.Join(a.conf.Paths.Test, names[i])
			}

			runner := &evaluate.Runner{
				Enhancer:   &inference.Enhancer{Transform: tr, Log: a.log},
				Metrics:    a.suite(),
				SampleRate: a.conf.SampleRate,
				Log:        a.log,
			}
			if !noPredictions {
				runner.PredictionDir = a.conf.Paths.Prediction
				if err := os.MkdirAll(runner.PredictionDir, 0o755); err != nil {
					return err
				}
			}
			rep := progress.NewTerminal(os.Stderr)
			runner.Progress = rep
			report, err := runner.RunTestSuite(net, names)
			rep.Wait()
			if err != nil {
				return err
			}
			_, err = report.WriteTo(cmd.OutOrStdout())
			return err
		},
	}
	cmd.Flags().StringVarP(&modelPath, "resume-model", "m", "", "checkpoint to test")
	cmd.Flags().BoolVar(&noPredictions, "no-predictions", false, "do not write the enhanced test clips")
	cmd.MarkFlagRequired("resume-model")
	return cmd
}
