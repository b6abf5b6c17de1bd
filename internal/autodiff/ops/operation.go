// Package ops defines the recorded operations of the gradient tape. Each
// operation captures the tensors its backward pass needs and knows how to
// turn the gradient at its output into gradients at its inputs.
package ops

import (
	"github.com/tessera-ml/tessera/internal/tensor"
)

// InputGrad pairs an operation input with its computed gradient.
type InputGrad struct {
	Input *tensor.RawTensor
	Grad  *tensor.RawTensor
}

// Operation is one recorded forward step. Backward receives the gradient of
// the loss with respect to Output and returns the gradients with respect to
// each differentiable input.
type Operation interface {
	Name() string
	Output() *tensor.RawTensor
	Backward(outputGrad *tensor.RawTensor) []InputGrad
}

// reduceBroadcast folds a gradient back to the shape of a broadcast operand
// by summing over the expanded dimensions. Gradients flow backward along the
// same broadcast edges the forward pass expanded.
func reduceBroadcast(b tensor.Backend, grad *tensor.RawTensor, target tensor.Shape) *tensor.RawTensor {
	gs := grad.Shape()
	if gs.Equal(target) {
		return grad
	}
	for len(gs) > len(target) {
		grad = b.SumDim(grad, 0)
		gs = grad.Shape()[1:]
		grad = b.Reshape(grad, gs.Clone())
	}
	for d := range target {
		if target[d] == 1 && gs[d] > 1 {
			grad = b.SumDim(grad, d)
			gs = grad.Shape()
		}
	}
	return grad
}
