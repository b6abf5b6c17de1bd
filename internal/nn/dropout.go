package nn

import (
	"fmt"
	"math/rand"

	"github.com/tessera-ml/tessera/internal/tensor"
)

// Dropout zeroes each element with probability p during training and
// scales survivors by 1/(1-p), so activation magnitudes match between
// training and evaluation (inverted dropout). In evaluation mode the
// input passes through unchanged.
//
// The mask multiply goes through the backend, so the gradient is masked
// and scaled identically without a dedicated backward rule.
type Dropout[B tensor.Backend] struct {
	p        float32
	rng      *rand.Rand
	training bool
}

// NewDropout creates a dropout layer in training mode.
func NewDropout[B tensor.Backend](p float32, rng *rand.Rand) *Dropout[B] {
	if p < 0 || p >= 1 {
		panic(fmt.Sprintf("dropout: p must be in [0, 1), got %v", p))
	}
	return &Dropout[B]{p: p, rng: rng, training: true}
}

// SetTraining switches between training and evaluation behavior.
func (d *Dropout[B]) SetTraining(training bool) { d.training = training }

// Forward applies the dropout mask, or passes through in eval mode.
func (d *Dropout[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !d.training || d.p == 0 {
		return x
	}
	scale := 1 / (1 - d.p)
	mask := tensor.Zeros[float32, B](x.Shape(), x.Backend())
	md := mask.Data()
	for i := range md {
		if d.rng.Float32() >= d.p {
			md[i] = scale
		}
	}
	return x.Mul(mask)
}

// Parameters returns nil.
func (d *Dropout[B]) Parameters() []*Parameter[B] { return nil }
