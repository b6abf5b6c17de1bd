// Package nn provides neural network building blocks on top of the tensor
// package: layers, parameter containers, weight initialization, and losses.
// Layers hold their parameters; gradients come from the autodiff tape and
// are applied by the optim package.
package nn

import (
	"github.com/tessera-ml/tessera/internal/tensor"
)

// Module is a composable network component.
type Module[B tensor.Backend] interface {
	// Forward computes the module's output for a batch.
	Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns the module's trainable parameters, if any.
	Parameters() []*Parameter[B]
}

// Sequential chains modules, feeding each output into the next.
type Sequential[B tensor.Backend] struct {
	modules []Module[B]
}

// NewSequential builds a chain from the given modules.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return &Sequential[B]{modules: modules}
}

// Forward runs the input through every module in order.
func (s *Sequential[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	for _, m := range s.modules {
		x = m.Forward(x)
	}
	return x
}

// Parameters collects the parameters of all contained modules.
func (s *Sequential[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, m := range s.modules {
		params = append(params, m.Parameters()...)
	}
	return params
}
