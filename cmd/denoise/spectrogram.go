package main

import (
	"github.com/spf13/cobra"

	"github.com/neurlang/denoise/audio"
	"github.com/neurlang/denoise/stft"
)

func (a *app) spectrogramCommand() *cobra.Command {
	var top bool
	var mels int
	var fmin, fmax float64
	cmd := &cobra.Command{
		Use:   "spectrogram <audio_file>",
		Short: "Draw the magnitude spectrogram of a wav/flac file as <audio_file>.png",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(false); err != nil {
				return err
			}
			defer a.close()

			filename := args[0]
			wave, rate, err := audio.Load(filename)
			if err != nil {
				return err
			}
			tr, err := a.transform()
			if err != nil {
				return err
			}
			mag, _, err := tr.Forward([][]float64{wave})
			if err != nil {
				return err
			}
			if mels > 0 {
				if fmax <= 0 {
					fmax = float64(rate) / 2
				}
				if mag, err = stft.Mel(mag, mels, fmin, fmax, rate); err != nil {
					return err
				}
			}
			return stft.WriteImage(filename+".png", mag, 0, !top)
		},
	}
	cmd.Flags().BoolVar(&top, "low-at-top", false, "draw the lowest frequency bin at the top")
	cmd.Flags().IntVar(&mels, "mels", 0, "pool the bins into this many mel bands")
	cmd.Flags().Float64Var(&fmin, "mel-fmin", 0, "lowest mel band edge in Hz")
	cmd.Flags().Float64Var(&fmax, "mel-fmax", 0, "highest mel band edge in Hz (default: half the sample rate)")
	return cmd
}
