package dataset

import (
	"fmt"
	"math/rand"

	"github.com/tessera-ml/tessera/internal/tensor"
)

// Loader yields fixed-size batches of transformed images and labels. The
// dataset order is preserved unless Shuffle is set; the final batch keeps
// whatever samples remain, so it may be smaller than BatchSize. Decode or
// read failures surface as errors from Next.
type Loader struct {
	dataset   *Dataset
	transform *Transform
	batchSize int

	shuffle bool
	rng     *rand.Rand

	order []int
	pos   int
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithShuffle makes the loader reshuffle the sample order with rng at
// every Reset.
func WithShuffle(rng *rand.Rand) LoaderOption {
	return func(l *Loader) {
		l.shuffle = true
		l.rng = rng
	}
}

// NewLoader creates a loader over the dataset.
func NewLoader(d *Dataset, t *Transform, batchSize int, opts ...LoaderOption) *Loader {
	if batchSize <= 0 {
		panic(fmt.Sprintf("loader: batch size must be positive, got %d", batchSize))
	}
	l := &Loader{
		dataset:   d,
		transform: t,
		batchSize: batchSize,
		order:     make([]int, d.Len()),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.Reset()
	return l
}

// NumBatches returns the batch count per epoch, counting a partial final
// batch.
func (l *Loader) NumBatches() int {
	return (l.dataset.Len() + l.batchSize - 1) / l.batchSize
}

// Reset rewinds the loader to the start of the epoch, reshuffling if
// configured.
func (l *Loader) Reset() {
	if l.shuffle {
		copy(l.order, l.rng.Perm(l.dataset.Len()))
	} else {
		for i := range l.order {
			l.order[i] = i
		}
	}
	l.pos = 0
}

// Next decodes and returns the next batch as images [N,3,S,S] float32 and
// labels [N] int32. After the last batch it returns (nil, nil, nil); call
// Reset to start the next epoch.
func (l *Loader) Next() (images, labels *tensor.RawTensor, err error) {
	if l.pos >= len(l.order) {
		return nil, nil, nil
	}
	end := l.pos + l.batchSize
	if end > len(l.order) {
		end = len(l.order)
	}
	indices := l.order[l.pos:end]
	n := len(indices)
	size := l.transform.Size

	images = tensor.MustRaw(tensor.Shape{n, 3, size, size}, tensor.Float32, tensor.CPU)
	labels = tensor.MustRaw(tensor.Shape{n}, tensor.Int32, tensor.CPU)
	pixels := images.AsFloat32()
	lbl := labels.AsInt32()
	stride := l.transform.NumValues()

	for i, idx := range indices {
		sample := l.dataset.Samples[idx]
		img, err := DecodeImage(sample.Path)
		if err != nil {
			return nil, nil, err
		}
		l.transform.Apply(img, pixels[i*stride:(i+1)*stride])
		lbl[i] = int32(sample.Label)
	}

	l.pos = end
	return images, labels, nil
}
