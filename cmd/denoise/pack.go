package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/neurlang/denoise/audio"
	"github.com/neurlang/denoise/clips"
	"github.com/neurlang/denoise/parallel"
)

// packCommand builds a clip archive from two directories holding noisy and
// clean versions of the same file names.
func (a *app) packCommand() *cobra.Command {
	var noisyDir, cleanDir, out string
	var half bool
	cmd := &cobra.Command{
		Use:   "pack",
		Short: "Pack matching noisy and clean wav files into a .samp archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(false); err != nil {
				return err
			}
			defer a.close()

			if !strings.HasSuffix(out, clips.Suffix) {
				return fmt.Errorf("output %q must end with %s", out, clips.Suffix)
			}
			if _, _, err := clips.ParseName(out); err != nil {
				a.log.WithError(err).Warn("archive name does not encode noise type and snr, test will reject it")
			}
			names, err := clips.List(noisyDir, ".wav")
			if err != nil {
				return err
			}
			all := make([]clips.Clip, len(names))
			err = parallel.ForEach(len(names), a.conf.Train.Workers, func(i int) error {
				noisy, nrate, err := audio.Load(filepath.Join(noisyDir, names[i]))
				if err != nil {
					return err
				}
				clean, crate, err := audio.Load(filepath.Join(cleanDir, names[i]))
				if err != nil {
					return err
				}
				if nrate != a.conf.SampleRate || crate != a.conf.SampleRate {
					return fmt.Errorf("%s: sample rate %d/%d, want %d", names[i], nrate, crate, a.conf.SampleRate)
				}
				cut := audio.Truncate(noisy, clean)
				all[i] = clips.Clip{NoisyRaw: cut[0], CleanRaw: cut[1]}
				return nil
			})
			if err != nil {
				return err
			}
			precision := clips.Single
			if half {
				precision = clips.Half
			}
			if err := clips.Write(out, all, precision); err != nil {
				return err
			}
			a.log.WithField("clips", len(all)).WithField("archive", out).Info("packed")
			return nil
		},
	}
	cmd.Flags().StringVarP(&noisyDir, "noisy", "n", "", "directory of noisy wav files")
	cmd.Flags().StringVarP(&cleanDir, "clean", "c", "", "directory of clean wav files with the same names")
	cmd.Flags().StringVarP(&out, "output", "o", "", "archive to write, e.g. test_babble_snr0.samp")
	cmd.Flags().BoolVar(&half, "half", false, "store samples in half precision")
	cmd.MarkFlagRequired("noisy")
	cmd.MarkFlagRequired("clean")
	cmd.MarkFlagRequired("output")
	return cmd
}
