package metrics

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
)

// Bucket identifies a test condition.
type Bucket struct {
	Noise string
	SNR   string
}

func (b Bucket) String() string {
	return b.Noise + "_" + b.SNR
}

// Pair holds the scores of the unprocessed mixture and of the estimate.
type Pair struct {
	Mixture  Scores
	Estimate Scores
}

type sums struct {
	pair  Pair
	count int
}

// Accumulator keeps running score sums per bucket.
type Accumulator struct {
	buckets map[Bucket]*sums
	order   []Bucket
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{buckets: make(map[Bucket]*sums)}
}

// Add records the scores of one clip.
func (a *Accumulator) Add(b Bucket, p Pair) {
	s, ok := a.buckets[b]
	if !ok {
		s = &sums{}
		a.buckets[b] = s
		a.order = append(a.order, b)
	}
	s.pair.Mixture = add(s.pair.Mixture, p.Mixture)
	s.pair.Estimate = add(s.pair.Estimate, p.Estimate)
	s.count++
}

// Count is the number of clips recorded for b.
func (a *Accumulator) Count(b Bucket) int {
	if s, ok := a.buckets[b]; ok {
		return s.count
	}
	return 0
}

func add(x, y Scores) Scores {
	return Scores{
		Energy:          x.Energy + y.Energy,
		Perceptual:      x.Perceptual + y.Perceptual,
		Intelligibility: x.Intelligibility + y.Intelligibility,
	}
}

func scale(x Scores, k float64) Scores {
	return Scores{
		Energy:          x.Energy * k,
		Perceptual:      x.Perceptual * k,
		Intelligibility: x.Intelligibility * k,
	}
}

// Row is the mean of one bucket.
type Row struct {
	Bucket Bucket
	Count  int
	Mean   Pair
}

// Report holds per-bucket means sorted by noise type and SNR, and the mean
// over all clips.
type Report struct {
	Rows      []Row
	Aggregate Row
}

// Report divides every bucket's sums by its count.
func (a *Accumulator) Report() *Report {
	r := &Report{Aggregate: Row{Bucket: Bucket{Noise: "all", SNR: "all"}}}
	var total Pair
	for _, b := range a.order {
		s := a.buckets[b]
		k := 1 / float64(s.count)
		r.Rows = append(r.Rows, Row{
			Bucket: b,
			Count:  s.count,
			Mean:   Pair{Mixture: scale(s.pair.Mixture, k), Estimate: scale(s.pair.Estimate, k)},
		})
		total.Mixture = add(total.Mixture, s.pair.Mixture)
		total.Estimate = add(total.Estimate, s.pair.Estimate)
		r.Aggregate.Count += s.count
	}
	sort.Slice(r.Rows, func(i, j int) bool {
		if r.Rows[i].Bucket.Noise != r.Rows[j].Bucket.Noise {
			return r.Rows[i].Bucket.Noise < r.Rows[j].Bucket.Noise
		}
		return r.Rows[i].Bucket.SNR < r.Rows[j].Bucket.SNR
	})
	if r.Aggregate.Count > 0 {
		k := 1 / float64(r.Aggregate.Count)
		r.Aggregate.Mean = Pair{Mixture: scale(total.Mixture, k), Estimate: scale(total.Estimate, k)}
	}
	return r
}

// WriteTo prints one table per metric with a MIX and an EST line, one
// column per bucket plus the aggregate.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	cw := &countWriter{w: w}
	tw := tabwriter.NewWriter(cw, 0, 4, 2, ' ', 0)
	rows := append(append([]Row(nil), r.Rows...), r.Aggregate)
	for _, m := range []struct {
		name string
		get  func(Scores) float64
	}{
		{"SNR", func(s Scores) float64 { return s.Energy }},
		{"STOI", func(s Scores) float64 { return s.Intelligibility }},
		{"PESQ", func(s Scores) float64 { return s.Perceptual }},
	} {
		fmt.Fprint(tw, m.name)
		for _, row := range rows {
			fmt.Fprintf(tw, "\t(%s)", row.Bucket)
		}
		fmt.Fprint(tw, "\nMIX")
		for _, row := range rows {
			fmt.Fprintf(tw, "\t%.4f", m.get(row.Mean.Mixture))
		}
		fmt.Fprint(tw, "\nEST")
		for _, row := range rows {
			fmt.Fprintf(tw, "\t%.4f", m.get(row.Mean.Estimate))
		}
		fmt.Fprint(tw, "\n\n")
	}
	err := tw.Flush()
	return cw.n, err
}

type countWriter struct {
	w io.Writer
	n int64
}

func (c *countWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
