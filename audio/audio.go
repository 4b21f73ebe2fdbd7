package audio

import "errors"
import "fmt"
import "math"
import "io"
import "os"
import "path/filepath"
import "strings"

import "github.com/faiface/beep"
import "github.com/faiface/beep/wav"
import "github.com/mewkiz/flac"

// ErrFileNotLoaded is returned when a file decodes to no samples.
var ErrFileNotLoaded = errors.New("audio: file not loaded")

// ErrFormat is returned for an unsupported file extension.
var ErrFormat = errors.New("audio: unsupported format")

// Load decodes a mono .wav or .flac file and returns its samples and sample rate.
func Load(name string) ([]float64, int, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".wav":
		return LoadWav(name)
	case ".flac":
		return LoadFlac(name)
	}
	return nil, 0, fmt.Errorf("%s: %w", name, ErrFormat)
}

// LoadWav loads a wav file to a sample vector and its sample rate.
func LoadWav(name string) ([]float64, int, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	stream, format, err := wav.Decode(file)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", name, err)
	}
	defer stream.Close()

	scale := decodeScale(format.Precision)

	var out []float64
	var samples = make([][2]float64, 512)
	for {
		n, ok := stream.Stream(samples)
		for i := 0; i < n; i++ {
			out = append(out, samples[i][0]*scale)
		}
		if !ok {
			break
		}
	}
	if err := stream.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", name, err)
	}
	if len(out) == 0 {
		return nil, 0, fmt.Errorf("%s: %w", name, ErrFileNotLoaded)
	}
	return out, int(format.SampleRate), nil
}

// decodeScale undoes the full-range divisor beep applies to 16 and 24 bit
// samples, so that full scale decodes to 1 instead of 1/2.
func decodeScale(precision int) float64 {
	switch precision {
	case 2:
		return float64(1<<16-1) / (1 << 15)
	case 3:
		return float64(1<<24-1) / (1 << 23)
	}
	return 1
}

// LoadFlac loads a flac file to a sample vector and its sample rate.
func LoadFlac(name string) ([]float64, int, error) {
	stream, err := flac.ParseFile(name)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", name, err)
	}
	defer stream.Close()

	scale := 1 / float64(int64(1)<<(stream.Info.BitsPerSample-1))

	var out []float64
	for {
		frame, err := stream.ParseNext()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, 0, fmt.Errorf("%s: %w", name, err)
		}
		for _, s := range frame.Subframes[0].Samples {
			out = append(out, float64(s)*scale)
		}
	}
	if len(out) == 0 {
		return nil, 0, fmt.Errorf("%s: %w", name, ErrFileNotLoaded)
	}
	return out, int(stream.Info.SampleRate), nil
}

// SaveWav writes vec as a mono 16 bit wav file at sample rate sr.
// Samples outside [-1, 1] are clipped.
func SaveWav(name string, vec []float64, sr int) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}

	format := beep.Format{
		SampleRate:  beep.SampleRate(sr),
		NumChannels: 1,
		Precision:   2,
	}
	pos := 0
	streamer := beep.StreamerFunc(func(samples [][2]float64) (n int, ok bool) {
		if pos >= len(vec) {
			return 0, false
		}
		for n < len(samples) && pos < len(vec) {
			v := math.Max(-1, math.Min(1, vec[pos]))
			samples[n] = [2]float64{v, v}
			n++
			pos++
		}
		return n, true
	})

	if err := wav.Encode(f, streamer, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Normalize scales vec so that its peak magnitude is one and returns the
// scaled copy together with the scale that was applied. Silent input is
// returned unchanged with scale one.
func Normalize(vec []float64) ([]float64, float64) {
	var peak float64
	for _, v := range vec {
		peak = math.Max(peak, math.Abs(v))
	}
	out := append([]float64(nil), vec...)
	if peak == 0 {
		return out, 1
	}
	scale := 1 / peak
	for i := range out {
		out[i] *= scale
	}
	return out, scale
}

// Truncate cuts every vector to the length of the shortest one.
func Truncate(vecs ...[]float64) [][]float64 {
	if len(vecs) == 0 {
		return nil
	}
	n := len(vecs[0])
	for _, v := range vecs[1:] {
		if len(v) < n {
			n = len(v)
		}
	}
	out := make([][]float64, len(vecs))
	for i, v := range vecs {
		out[i] = v[:n]
	}
	return out
}
