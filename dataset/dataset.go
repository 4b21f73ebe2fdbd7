// Package dataset defines the loader contracts of the trainer and provides
// implementations backed by .samp clip archives.
package dataset

import (
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"

	"github.com/neurlang/denoise/clips"
	"github.com/neurlang/denoise/parallel"
)

// ErrEmpty is returned when a source would contain no items.
var ErrEmpty = errors.New("dataset: no usable clips")

// TrainBatch is one aligned training minibatch. All rows share one length.
type TrainBatch struct {
	Mixture [][]float64
	Clean   [][]float64
	Noise   [][]float64
}

// EvalBatch is one aligned evaluation minibatch.
type EvalBatch struct {
	Mixture [][]float64
	Clean   [][]float64
}

// TrainSource produces the minibatches of one training epoch.
type TrainSource interface {
	Len() int
	Batch(i int) (TrainBatch, error)
}

// EvalSource produces held-out minibatches.
type EvalSource interface {
	Len() int
	Batch(i int) (EvalBatch, error)
}

// Shuffler is implemented by sources that reorder their items every epoch.
type Shuffler interface {
	Shuffle(epoch int)
}

// LoadArchives reads the named archives with up to workers concurrent
// decoders and returns their clips in argument order.
func LoadArchives(names []string, workers int) ([]clips.Clip, error) {
	loaded := make([][]clips.Clip, len(names))
	err := parallel.ForEach(len(names), workers, func(i int) error {
		c, err := clips.Read(names[i])
		if err != nil {
			return err
		}
		loaded[i] = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	var out []clips.Clip
	for _, c := range loaded {
		out = append(out, c...)
	}
	return out, nil
}

// LoadDir reads every archive in dir.
func LoadDir(dir string, workers int) ([]clips.Clip, error) {
	names, err := clips.List(dir, clips.Suffix)
	if err != nil {
		return nil, err
	}
	for i := range names {
		names[i] = filepath.Join(dir, names[i])
	}
	return LoadArchives(names, workers)
}

type segment struct {
	mix, clean []float64
}

// ChunkSet cuts clips into fixed length segments and serves them as
// shuffled minibatches. The noise row of a batch is mixture minus clean.
type ChunkSet struct {
	batchSize int
	seed      int64
	segments  []segment
	order     []int
}

// NewChunkSet cuts every clip into chunk sample segments. The tail shorter
// than chunk is dropped, clips shorter than chunk are zero padded. The last
// incomplete minibatch is dropped.
func NewChunkSet(all []clips.Clip, chunk, batchSize int, seed int64) (*ChunkSet, error) {
	if chunk < 1 || batchSize < 1 {
		return nil, fmt.Errorf("dataset: chunk %d batch %d: %w", chunk, batchSize, ErrEmpty)
	}
	s := &ChunkSet{batchSize: batchSize, seed: seed}
	for _, c := range all {
		n := len(c.NoisyRaw)
		if len(c.CleanRaw) < n {
			n = len(c.CleanRaw)
		}
		if n == 0 {
			continue
		}
		if n < chunk {
			mix, clean := make([]float64, chunk), make([]float64, chunk)
			copy(mix, c.NoisyRaw[:n])
			copy(clean, c.CleanRaw[:n])
			s.segments = append(s.segments, segment{mix, clean})
			continue
		}
		for off := 0; off+chunk <= n; off += chunk {
			s.segments = append(s.segments, segment{c.NoisyRaw[off : off+chunk], c.CleanRaw[off : off+chunk]})
		}
	}
	if len(s.segments) < batchSize {
		return nil, ErrEmpty
	}
	s.order = make([]int, len(s.segments))
	for i := range s.order {
		s.order[i] = i
	}
	return s, nil
}

func (s *ChunkSet) Len() int {
	return len(s.segments) / s.batchSize
}

// Shuffle reorders the segments deterministically for the given epoch.
func (s *ChunkSet) Shuffle(epoch int) {
	for i := range s.order {
		s.order[i] = i
	}
	r := rand.New(rand.NewSource(s.seed + int64(epoch)))
	r.Shuffle(len(s.order), func(i, j int) { s.order[i], s.order[j] = s.order[j], s.order[i] })
}

func (s *ChunkSet) Batch(i int) (TrainBatch, error) {
	if i < 0 || i >= s.Len() {
		return TrainBatch{}, fmt.Errorf("dataset: batch %d out of range", i)
	}
	var b TrainBatch
	for _, idx := range s.order[i*s.batchSize : (i+1)*s.batchSize] {
		seg := s.segments[idx]
		noise := make([]float64, len(seg.mix))
		for k := range noise {
			noise[k] = seg.mix[k] - seg.clean[k]
		}
		b.Mixture = append(b.Mixture, seg.mix)
		b.Clean = append(b.Clean, seg.clean)
		b.Noise = append(b.Noise, noise)
	}
	return b, nil
}

// ClipSet serves every clip as its own single item minibatch, in order.
type ClipSet struct {
	clips []clips.Clip
}

// NewClipSet keeps the clips with non-empty audio, cut to their common length.
func NewClipSet(all []clips.Clip) *ClipSet {
	s := &ClipSet{}
	for _, c := range all {
		n := len(c.NoisyRaw)
		if len(c.CleanRaw) < n {
			n = len(c.CleanRaw)
		}
		if n == 0 {
			continue
		}
		s.clips = append(s.clips, clips.Clip{NoisyRaw: c.NoisyRaw[:n], CleanRaw: c.CleanRaw[:n]})
	}
	return s
}

func (s *ClipSet) Len() int {
	return len(s.clips)
}

func (s *ClipSet) Batch(i int) (EvalBatch, error) {
	if i < 0 || i >= len(s.clips) {
		return EvalBatch{}, fmt.Errorf("dataset: item %d out of range", i)
	}
	c := s.clips[i]
	return EvalBatch{Mixture: [][]float64{c.NoisyRaw}, Clean: [][]float64{c.CleanRaw}}, nil
}
