package nn

import (
	"github.com/tessera-ml/tessera/internal/tensor"
)

// ReLU applies max(0, x) element-wise.
type ReLU[B tensor.Backend] struct{}

// NewReLU creates a ReLU activation.
func NewReLU[B tensor.Backend]() *ReLU[B] { return &ReLU[B]{} }

// Forward applies the activation.
func (r *ReLU[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	b := x.Backend()
	return tensor.New[float32, B](b.ReLU(x.Raw()), b)
}

// Parameters returns nil.
func (r *ReLU[B]) Parameters() []*Parameter[B] { return nil }

// LogSoftmax converts logits [batch, classes] to log-probabilities.
type LogSoftmax[B tensor.Backend] struct{}

// NewLogSoftmax creates a log-softmax layer.
func NewLogSoftmax[B tensor.Backend]() *LogSoftmax[B] { return &LogSoftmax[B]{} }

// Forward computes row-wise log-probabilities.
func (l *LogSoftmax[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	b := x.Backend()
	return tensor.New[float32, B](b.LogSoftmax(x.Raw()), b)
}

// Parameters returns nil.
func (l *LogSoftmax[B]) Parameters() []*Parameter[B] { return nil }
