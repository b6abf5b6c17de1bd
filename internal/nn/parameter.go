package nn

import (
	"github.com/tessera-ml/tessera/internal/tensor"
)

// Parameter is a named trainable tensor. The optimizer looks its gradient
// up by the identity of the underlying RawTensor, so the tensor must not be
// replaced between the forward pass and the update; updates write through
// the tensor's data in place.
type Parameter[B tensor.Backend] struct {
	Name  string
	Value *tensor.Tensor[float32, B]
}

// NewParameter wraps a tensor as a named parameter.
func NewParameter[B tensor.Backend](name string, value *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{Name: name, Value: value}
}

// NumElements returns the parameter's element count.
func (p *Parameter[B]) NumElements() int {
	return p.Value.NumElements()
}
