package ops

import (
	"github.com/tessera-ml/tessera/internal/tensor"
)

// Reshape records a shape change. The gradient is the output gradient
// reshaped back to the input's shape.
type Reshape struct {
	In, Out *tensor.RawTensor
	Backend tensor.Backend
}

func (o *Reshape) Name() string              { return "reshape" }
func (o *Reshape) Output() *tensor.RawTensor { return o.Out }

func (o *Reshape) Backward(outputGrad *tensor.RawTensor) []InputGrad {
	return []InputGrad{
		{Input: o.In, Grad: o.Backend.Reshape(outputGrad, o.In.Shape().Clone())},
	}
}

// Transpose records a dimension permutation. Axes holds the permutation
// actually applied; the backward pass applies its inverse.
type Transpose struct {
	In, Out *tensor.RawTensor
	Axes    []int
	Backend tensor.Backend
}

func (o *Transpose) Name() string              { return "transpose" }
func (o *Transpose) Output() *tensor.RawTensor { return o.Out }

func (o *Transpose) Backward(outputGrad *tensor.RawTensor) []InputGrad {
	inverse := make([]int, len(o.Axes))
	for i, ax := range o.Axes {
		inverse[ax] = i
	}
	return []InputGrad{
		{Input: o.In, Grad: o.Backend.Transpose(outputGrad, inverse...)},
	}
}
