package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/neurlang/denoise/inference"
)

func (a *app) inferCommand() *cobra.Command {
	var modelPath, in, out string
	cmd := &cobra.Command{
		Use:   "infer",
		Short: "Enhance a file or every wav file of a directory",
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
			net, _, err := loadNetwork(modelPath, tr.Bins())
			if err != nil {
				return err
			}
			e := &inference.Enhancer{Transform: tr, Log: a.log}

			info, err := os.Stat(in)
			if err != nil {
				return err
			}
			if info.IsDir() {
				n, err := e.EnhanceDir(net, in, out)
				a.log.WithField("files", n).Info("inference done")
				return err
			}
			if out == "" {
				out = strings.TrimSuffix(in, filepath.Ext(in)) + inference.Suffix
			}
			if err := e.EnhanceFile(net, in, out); err != nil {
				return err
			}
			a.log.WithField("file", out).Info("inference done")
			return nil
		},
	}
	cmd.Flags().StringVarP(&modelPath, "resume-model", "m", "", "checkpoint to apply")
	cmd.Flags().StringVarP(&in, "input", "i", "", "input wav/flac file or directory of wav files")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file or directory (default: next to the input)")
	cmd.MarkFlagRequired("resume-model")
	cmd.MarkFlagRequired("input")
	return cmd
}
