package ops

import (
	"github.com/tessera-ml/tessera/internal/tensor"
)

// Sum records s = Σx. Every input element contributed with weight one, so
// the scalar gradient is broadcast back over the input shape.
type Sum struct {
	In, Out *tensor.RawTensor
}

func (o *Sum) Name() string              { return "sum" }
func (o *Sum) Output() *tensor.RawTensor { return o.Out }

func (o *Sum) Backward(outputGrad *tensor.RawTensor) []InputGrad {
	g := outputGrad.AsFloat32()[0]
	grad := tensor.MustRaw(o.In.Shape(), o.In.DType(), o.In.Device())
	gd := grad.AsFloat32()
	for i := range gd {
		gd[i] = g
	}
	return []InputGrad{{Input: o.In, Grad: grad}}
}
