// Package clips reads and writes .samp clip archives.
//
// An archive is a BSON document holding a keyed collection of clip records
// ("0", "1", ...). Each record carries the noisy mixture under noisy_raw and
// the clean reference under clean_raw, stored as little endian float32 or as
// IEEE 754 half precision values. The archive file name encodes the noise
// type and the SNR label as underscore separated tokens 2 and 3, for example
// test_ADTbabble_snr-5.samp.
package clips

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/x448/float16"
	"go.mongodb.org/mongo-driver/bson"
)

// Suffix is the file extension of clip archives.
const Suffix = ".samp"

// Precision of stored samples in bits.
const (
	Half   = 16
	Single = 32
)

var (
	// ErrName is returned when an archive name lacks noise and SNR tokens.
	ErrName = errors.New("clips: archive name must look like <set>_<noise>_<snr>[_...]")
	// ErrCorrupt is returned for archives that cannot be decoded.
	ErrCorrupt = errors.New("clips: corrupt archive")
	// ErrPrecision is returned for an unsupported sample precision.
	ErrPrecision = errors.New("clips: unsupported precision")
)

// Clip is one aligned pair of noisy and clean recordings.
type Clip struct {
	NoisyRaw []float64
	CleanRaw []float64
}

type record struct {
	NoisyRaw []byte `bson:"noisy_raw"`
	CleanRaw []byte `bson:"clean_raw"`
}

type archive struct {
	Precision int               `bson:"precision"`
	Clips     map[string]record `bson:"clips"`
}

// Write stores clips under name with the given sample precision.
func Write(name string, clips []Clip, precision int) error {
	if precision != Half && precision != Single {
		return ErrPrecision
	}
	a := archive{Precision: precision, Clips: make(map[string]record, len(clips))}
	for i, c := range clips {
		a.Clips[strconv.Itoa(i)] = record{
			NoisyRaw: encode(c.NoisyRaw, precision),
			CleanRaw: encode(c.CleanRaw, precision),
		}
	}
	data, err := bson.Marshal(a)
	if err != nil {
		return err
	}
	return os.WriteFile(name, data, 0o644)
}

// Read loads every clip of the archive in key order.
func Read(name string) ([]Clip, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	if err := bson.Raw(data).Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", name, ErrCorrupt, err)
	}
	var a archive
	if err := bson.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", name, ErrCorrupt, err)
	}
	if a.Precision != Half && a.Precision != Single {
		return nil, fmt.Errorf("%s: %w", name, ErrPrecision)
	}

	out := make([]Clip, len(a.Clips))
	for i := range out {
		r, ok := a.Clips[strconv.Itoa(i)]
		if !ok {
			return nil, fmt.Errorf("%s: %w: missing clip %d", name, ErrCorrupt, i)
		}
		noisy, err := decode(r.NoisyRaw, a.Precision)
		if err != nil {
			return nil, fmt.Errorf("%s: clip %d noisy_raw: %w", name, i, err)
		}
		clean, err := decode(r.CleanRaw, a.Precision)
		if err != nil {
			return nil, fmt.Errorf("%s: clip %d clean_raw: %w", name, i, err)
		}
		out[i] = Clip{NoisyRaw: noisy, CleanRaw: clean}
	}
	return out, nil
}

func encode(vec []float64, precision int) []byte {
	if precision == Half {
		buf := make([]byte, 2*len(vec))
		for i, v := range vec {
			binary.LittleEndian.PutUint16(buf[2*i:], float16.Fromfloat32(float32(v)).Bits())
		}
		return buf
	}
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(float32(v)))
	}
	return buf
}

func decode(buf []byte, precision int) ([]float64, error) {
	width := precision / 8
	if len(buf)%width != 0 {
		return nil, ErrCorrupt
	}
	out := make([]float64, len(buf)/width)
	for i := range out {
		if precision == Half {
			out[i] = float64(float16.Frombits(binary.LittleEndian.Uint16(buf[2*i:])).Float32())
		} else {
			out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:])))
		}
	}
	return out, nil
}

// ParseName returns the noise type and SNR label encoded in an archive file
// name: tokens 2 and 3 of the underscore separated base name.
func ParseName(name string) (noise, snr string, err error) {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	elements := strings.Split(base, "_")
	if len(elements) < 3 || elements[1] == "" || elements[2] == "" {
		return "", "", fmt.Errorf("%s: %w", name, ErrName)
	}
	return elements[1], elements[2], nil
}

// List returns the sorted names of the files in dir ending with suffix.
func List(dir, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}
