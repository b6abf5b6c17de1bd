package nn

import (
	"github.com/tessera-ml/tessera/internal/tensor"
)

// MaxPool2D downsamples [N,C,H,W] input with a square max window.
type MaxPool2D[B tensor.Backend] struct {
	kernelSize int
	stride     int
}

// NewMaxPool2D creates a pooling layer.
func NewMaxPool2D[B tensor.Backend](kernelSize, stride int) *MaxPool2D[B] {
	return &MaxPool2D[B]{kernelSize: kernelSize, stride: stride}
}

// Forward pools the input.
func (m *MaxPool2D[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	b := x.Backend()
	return tensor.New[float32, B](b.MaxPool2D(x.Raw(), m.kernelSize, m.stride), b)
}

// Parameters returns nil; pooling has no trainable state.
func (m *MaxPool2D[B]) Parameters() []*Parameter[B] { return nil }

// Flatten reshapes [N, ...] input to [N, rest].
type Flatten[B tensor.Backend] struct{}

// NewFlatten creates a flatten layer.
func NewFlatten[B tensor.Backend]() *Flatten[B] { return &Flatten[B]{} }

// Forward collapses all dimensions after the batch.
func (f *Flatten[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	batch := shape[0]
	return x.Reshape(batch, x.NumElements()/batch)
}

// Parameters returns nil.
func (f *Flatten[B]) Parameters() []*Parameter[B] { return nil }
