package main

import (
	"fmt"

	"github.com/neurlang/denoise/checkpoint"
	"github.com/neurlang/denoise/metrics"
	"github.com/neurlang/denoise/model/gainmask"
	"github.com/neurlang/denoise/stft"
)

func (a *app) transform() (*stft.Transform, error) {
	backend, err := stft.ParseBackend(a.conf.Transform.Backend)
	if err != nil {
		return nil, err
	}
	w, err := stft.Window(a.conf.Transform.Window, a.conf.Transform.FrameSize)
	if err != nil {
		return nil, err
	}
	return stft.New(a.conf.Transform.FrameSize, a.conf.Transform.FrameShift,
		stft.WithBackend(backend), stft.WithWindow(w), stft.WithWorkers(a.conf.Train.Workers))
}

// loadNetwork restores the network weights stored in a checkpoint.
func loadNetwork(path string, bins int) (*gainmask.Net, *checkpoint.State, error) {
	st, err := checkpoint.Load(path)
	if err != nil {
		return nil, nil, err
	}
	net := gainmask.New(bins, 0)
	if err := net.LoadStateDict(st.Model); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	net.SetTraining(false)
	return net, st, nil
}

func (a *app) suite() metrics.Suite {
	s := metrics.Suite{Energy: metrics.SNR}
	if p := a.conf.Metrics.Perceptual; len(p) > 0 {
		s.Perceptual = metrics.Command(p[0], p[1:]...)
	}
	if p := a.conf.Metrics.Intelligibility; len(p) > 0 {
		s.Intelligibility = metrics.Command(p[0], p[1:]...)
	}
	return s
}
