// Package metrics tracks training statistics: rolling windows over
// per-batch measurements and a confusion matrix for classification
// results.
package metrics

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Window is a fixed-capacity rolling window over float64 samples. Once
// full, new samples evict the oldest. Not safe for concurrent use.
type Window struct {
	samples []float64
	next    int
	full    bool
}

// NewWindow creates a window holding up to capacity samples.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		panic(fmt.Sprintf("metrics: window capacity must be positive, got %d", capacity))
	}
	return &Window{samples: make([]float64, 0, capacity)}
}

// Add records one sample.
func (w *Window) Add(v float64) {
	if !w.full && len(w.samples) < cap(w.samples) {
		w.samples = append(w.samples, v)
		if len(w.samples) == cap(w.samples) {
			w.full = true
		}
		return
	}
	w.samples[w.next] = v
	w.next = (w.next + 1) % len(w.samples)
}

// Len returns the number of recorded samples.
func (w *Window) Len() int { return len(w.samples) }

// Mean returns the mean of the recorded samples, or zero when empty.
func (w *Window) Mean() float64 {
	if len(w.samples) == 0 {
		return 0
	}
	return stat.Mean(w.samples, nil)
}

// StdDev returns the sample standard deviation, or zero with fewer than
// two samples.
func (w *Window) StdDev() float64 {
	if len(w.samples) < 2 {
		return 0
	}
	return stat.StdDev(w.samples, nil)
}

// Confusion is a square confusion matrix. Rows are actual classes,
// columns predicted.
type Confusion struct {
	classes []string
	counts  [][]float64
}

// NewConfusion creates an empty matrix over the given class names.
func NewConfusion(classes []string) *Confusion {
	n := len(classes)
	counts := make([][]float64, n)
	for i := range counts {
		counts[i] = make([]float64, n)
	}
	return &Confusion{classes: classes, counts: counts}
}

// Record adds one observation.
func (c *Confusion) Record(actual, predicted int) {
	c.counts[actual][predicted]++
}

// RecordBatch adds a batch of observations.
func (c *Confusion) RecordBatch(actual, predicted []int32) {
	for i := range actual {
		c.Record(int(actual[i]), int(predicted[i]))
	}
}

// Total returns the number of recorded observations.
func (c *Confusion) Total() float64 {
	var total float64
	for _, row := range c.counts {
		total += floats.Sum(row)
	}
	return total
}

// Accuracy returns the fraction of observations on the diagonal.
func (c *Confusion) Accuracy() float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	var correct float64
	for i := range c.counts {
		correct += c.counts[i][i]
	}
	return correct / total
}

// Recall returns the per-class fraction of actual samples predicted
// correctly, or zero for classes never observed.
func (c *Confusion) Recall(class int) float64 {
	actual := floats.Sum(c.counts[class])
	if actual == 0 {
		return 0
	}
	return c.counts[class][class] / actual
}

// Precision returns the per-class fraction of predictions that were
// correct, or zero for classes never predicted.
func (c *Confusion) Precision(class int) float64 {
	var predicted float64
	for i := range c.counts {
		predicted += c.counts[i][class]
	}
	if predicted == 0 {
		return 0
	}
	return c.counts[class][class] / predicted
}

// String renders the matrix with per-class precision and recall.
func (c *Confusion) String() string {
	var b strings.Builder
	width := 0
	for _, name := range c.classes {
		if len(name) > width {
			width = len(name)
		}
	}

	fmt.Fprintf(&b, "%*s", width+2, "")
	for _, name := range c.classes {
		fmt.Fprintf(&b, "%*s", width+2, name)
	}
	b.WriteString("  recall\n")

	for i, name := range c.classes {
		fmt.Fprintf(&b, "%*s", width+2, name)
		for j := range c.classes {
			fmt.Fprintf(&b, "%*d", width+2, int(c.counts[i][j]))
		}
		fmt.Fprintf(&b, "  %.3f\n", c.Recall(i))
	}

	fmt.Fprintf(&b, "%*s", width+2, "prec")
	for j := range c.classes {
		fmt.Fprintf(&b, "%*s", width+2, fmt.Sprintf("%.3f", c.Precision(j)))
	}
	b.WriteString("\n")
	return b.String()
}
