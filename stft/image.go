package stft

import "image"
import "image/color"
import "image/png"
import "math"
import "os"

// WriteImage writes the log-magnitude of batch row item as a PNG, one pixel
// column per frame and one pixel row per bin. With reverse the lowest bin is
// drawn at the bottom.
func WriteImage(name string, s *Spectrogram, item int, reverse bool) error {
	if item < 0 || item >= s.Batch {
		return ErrShape
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}

	img := image.NewRGBA(image.Rect(0, 0, s.Frames, s.Bins))

	var lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range s.Row(item) {
		l := math.Log(math.Max(v, 1e-5))
		lo = math.Min(lo, l)
		hi = math.Max(hi, l)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	for x := 0; x < s.Frames; x++ {
		for y := 0; y < s.Bins; y++ {
			val := (math.Log(math.Max(s.At(item, y, x), 1e-5)) - lo) / span
			var col color.RGBA
			col.R = uint8(int(255 * val))
			col.G = uint8(int(255 * val * val))
			col.B = uint8(int(255 * (1 - val) * 0.5))
			col.A = 255
			if reverse {
				img.SetRGBA(x, s.Bins-y-1, col)
			} else {
				img.SetRGBA(x, y, col)
			}
		}
	}

	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
