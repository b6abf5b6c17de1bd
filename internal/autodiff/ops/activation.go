package ops

import (
	"math"

	"github.com/tessera-ml/tessera/internal/tensor"
)

// ReLU records y = max(0, x). The gradient passes through where the input
// was positive and is zero elsewhere.
type ReLU struct {
	In, Out *tensor.RawTensor
}

func (o *ReLU) Name() string              { return "relu" }
func (o *ReLU) Output() *tensor.RawTensor { return o.Out }

func (o *ReLU) Backward(outputGrad *tensor.RawTensor) []InputGrad {
	grad := tensor.MustRaw(o.In.Shape(), o.In.DType(), o.In.Device())
	in := o.In.AsFloat32()
	og := outputGrad.AsFloat32()
	gd := grad.AsFloat32()
	for i, v := range in {
		if v > 0 {
			gd[i] = og[i]
		}
	}
	return []InputGrad{{Input: o.In, Grad: grad}}
}

// LogSoftmax records y = log_softmax(x) over the rows of a 2D tensor.
// With s = softmax(x) = exp(y), the backward pass per row is
//
//	dx_i = dy_i - s_i * Σ_j dy_j
type LogSoftmax struct {
	In, Out *tensor.RawTensor
}

func (o *LogSoftmax) Name() string              { return "log_softmax" }
func (o *LogSoftmax) Output() *tensor.RawTensor { return o.Out }

func (o *LogSoftmax) Backward(outputGrad *tensor.RawTensor) []InputGrad {
	shape := o.Out.Shape()
	batch, classes := shape[0], shape[1]

	grad := tensor.MustRaw(shape, o.In.DType(), o.In.Device())
	lp := o.Out.AsFloat32()
	og := outputGrad.AsFloat32()
	gd := grad.AsFloat32()

	for b := 0; b < batch; b++ {
		var sum float32
		for c := 0; c < classes; c++ {
			sum += og[b*classes+c]
		}
		for c := 0; c < classes; c++ {
			i := b*classes + c
			gd[i] = og[i] - float32(math.Exp(float64(lp[i])))*sum
		}
	}
	return []InputGrad{{Input: o.In, Grad: grad}}
}

// NLLLoss records loss = mean(-logProbs[b, target_b]). The gradient with
// respect to the log-probabilities is -g/N at each target index and zero
// elsewhere, where g is the incoming scalar gradient. Targets are constants
// and receive no gradient.
type NLLLoss struct {
	LogProbs, Targets, Out *tensor.RawTensor
}

func (o *NLLLoss) Name() string              { return "nll_loss" }
func (o *NLLLoss) Output() *tensor.RawTensor { return o.Out }

func (o *NLLLoss) Backward(outputGrad *tensor.RawTensor) []InputGrad {
	shape := o.LogProbs.Shape()
	batch, classes := shape[0], shape[1]
	g := outputGrad.AsFloat32()[0]

	grad := tensor.MustRaw(shape, o.LogProbs.DType(), o.LogProbs.Device())
	gd := grad.AsFloat32()
	tg := o.Targets.AsInt32()
	scale := -g / float32(batch)
	for b := 0; b < batch; b++ {
		gd[b*classes+int(tg[b])] = scale
	}
	return []InputGrad{{Input: o.LogProbs, Grad: grad}}
}
