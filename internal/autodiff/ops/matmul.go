package ops

import (
	"github.com/tessera-ml/tessera/internal/tensor"
)

// MatMul records c = a @ b for 2D matrices.
//
//	dc/da = outputGrad @ b^T
//	dc/db = a^T @ outputGrad
type MatMul struct {
	A, B, Out *tensor.RawTensor
	Backend   tensor.Backend
}

func (o *MatMul) Name() string              { return "matmul" }
func (o *MatMul) Output() *tensor.RawTensor { return o.Out }

func (o *MatMul) Backward(outputGrad *tensor.RawTensor) []InputGrad {
	gradA := o.Backend.MatMul(outputGrad, o.Backend.Transpose(o.B))
	gradB := o.Backend.MatMul(o.Backend.Transpose(o.A), outputGrad)
	return []InputGrad{
		{Input: o.A, Grad: gradA},
		{Input: o.B, Grad: gradB},
	}
}
