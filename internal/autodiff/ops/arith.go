package ops

import (
	"github.com/tessera-ml/tessera/internal/tensor"
)

// Add records c = a + b. Both inputs receive the output gradient, folded
// back through any broadcast.
type Add struct {
	A, B, Out *tensor.RawTensor
	Backend   tensor.Backend
}

func (o *Add) Name() string              { return "add" }
func (o *Add) Output() *tensor.RawTensor { return o.Out }

func (o *Add) Backward(outputGrad *tensor.RawTensor) []InputGrad {
	return []InputGrad{
		{Input: o.A, Grad: reduceBroadcast(o.Backend, outputGrad, o.A.Shape())},
		{Input: o.B, Grad: reduceBroadcast(o.Backend, outputGrad, o.B.Shape())},
	}
}

// Sub records c = a - b.
type Sub struct {
	A, B, Out *tensor.RawTensor
	Backend   tensor.Backend
}

func (o *Sub) Name() string              { return "sub" }
func (o *Sub) Output() *tensor.RawTensor { return o.Out }

func (o *Sub) Backward(outputGrad *tensor.RawTensor) []InputGrad {
	neg := o.Backend.MulScalar(outputGrad, -1)
	return []InputGrad{
		{Input: o.A, Grad: reduceBroadcast(o.Backend, outputGrad, o.A.Shape())},
		{Input: o.B, Grad: reduceBroadcast(o.Backend, neg, o.B.Shape())},
	}
}

// Mul records c = a * b (element-wise).
type Mul struct {
	A, B, Out *tensor.RawTensor
	Backend   tensor.Backend
}

func (o *Mul) Name() string              { return "mul" }
func (o *Mul) Output() *tensor.RawTensor { return o.Out }

func (o *Mul) Backward(outputGrad *tensor.RawTensor) []InputGrad {
	gradA := o.Backend.Mul(outputGrad, o.B)
	gradB := o.Backend.Mul(outputGrad, o.A)
	return []InputGrad{
		{Input: o.A, Grad: reduceBroadcast(o.Backend, gradA, o.A.Shape())},
		{Input: o.B, Grad: reduceBroadcast(o.Backend, gradB, o.B.Shape())},
	}
}

// Div records c = a / b (element-wise).
//
//	dc/da = 1/b
//	dc/db = -a/b^2
type Div struct {
	A, B, Out *tensor.RawTensor
	Backend   tensor.Backend
}

func (o *Div) Name() string              { return "div" }
func (o *Div) Output() *tensor.RawTensor { return o.Out }

func (o *Div) Backward(outputGrad *tensor.RawTensor) []InputGrad {
	gradA := o.Backend.Div(outputGrad, o.B)
	bSquared := o.Backend.Mul(o.B, o.B)
	gradB := o.Backend.MulScalar(o.Backend.Div(o.Backend.Mul(outputGrad, o.A), bSquared), -1)
	return []InputGrad{
		{Input: o.A, Grad: reduceBroadcast(o.Backend, gradA, o.A.Shape())},
		{Input: o.B, Grad: reduceBroadcast(o.Backend, gradB, o.B.Shape())},
	}
}

// MulScalar records c = a * s.
type MulScalar struct {
	A, Out  *tensor.RawTensor
	Scalar  float32
	Backend tensor.Backend
}

func (o *MulScalar) Name() string              { return "mul_scalar" }
func (o *MulScalar) Output() *tensor.RawTensor { return o.Out }

func (o *MulScalar) Backward(outputGrad *tensor.RawTensor) []InputGrad {
	return []InputGrad{
		{Input: o.A, Grad: o.Backend.MulScalar(outputGrad, o.Scalar)},
	}
}
