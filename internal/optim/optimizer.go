// Package optim implements gradient descent optimizers. An optimizer holds
// the model parameters and, given the gradient map produced by a tape
// backward pass, updates each parameter's data in place.
package optim

import (
	"github.com/tessera-ml/tessera/internal/nn"
	"github.com/tessera-ml/tessera/internal/tensor"
)

// Optimizer applies one update step from a gradient map keyed by the
// parameters' underlying RawTensors.
type Optimizer[B tensor.Backend] interface {
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)
}

// gradFor looks up a parameter's gradient. A parameter without a gradient
// did not participate in the forward pass and is skipped.
func gradFor[B tensor.Backend](p *nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) []float32 {
	g, ok := grads[p.Value.Raw()]
	if !ok {
		return nil
	}
	return g.AsFloat32()
}
