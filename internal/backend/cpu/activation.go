package cpu

import (
	"fmt"
	"math"

	"github.com/tessera-ml/tessera/internal/tensor"
)

// ReLU applies max(0, x) element-wise.
func (c *Backend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	out := tensor.MustRaw(x.Shape(), x.DType(), c.device)
	xd := x.AsFloat32()
	od := out.AsFloat32()
	for i, v := range xd {
		if v > 0 {
			od[i] = v
		}
	}
	return out
}

// LogSoftmax computes row-wise log-probabilities for a 2D tensor
// [batch, classes]:
//
//	log_softmax(z)_i = z_i - max(z) - log(Σ_j exp(z_j - max(z)))
//
// Shifting by the row maximum keeps the exponentials from overflowing.
func (c *Backend) LogSoftmax(x *tensor.RawTensor) *tensor.RawTensor {
	shape := x.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("logsoftmax: need 2D [batch, classes], got %v", shape))
	}
	batch, classes := shape[0], shape[1]

	out := tensor.MustRaw(shape, x.DType(), c.device)
	xd := x.AsFloat32()
	od := out.AsFloat32()

	for b := 0; b < batch; b++ {
		row := xd[b*classes : (b+1)*classes]
		dst := od[b*classes : (b+1)*classes]

		maxVal := row[0]
		for _, v := range row[1:] {
			if v > maxVal {
				maxVal = v
			}
		}
		var sumExp float64
		for _, v := range row {
			sumExp += math.Exp(float64(v - maxVal))
		}
		logSumExp := maxVal + float32(math.Log(sumExp))
		for i, v := range row {
			dst[i] = v - logSumExp
		}
	}
	return out
}

// NLLLoss computes the mean negative log-likelihood of int32 class targets
// [batch] under log-probabilities [batch, classes]. The result is a
// single-element tensor.
func (c *Backend) NLLLoss(logProbs, targets *tensor.RawTensor) *tensor.RawTensor {
	ls, ts := logProbs.Shape(), targets.Shape()
	if len(ls) != 2 {
		panic(fmt.Sprintf("nll: log-probs must be 2D [batch, classes], got %v", ls))
	}
	if len(ts) != 1 || ts[0] != ls[0] {
		panic(fmt.Sprintf("nll: targets %v do not match log-probs %v", ts, ls))
	}
	batch, classes := ls[0], ls[1]

	lp := logProbs.AsFloat32()
	tg := targets.AsInt32()

	var total float32
	for b := 0; b < batch; b++ {
		t := int(tg[b])
		if t < 0 || t >= classes {
			panic(fmt.Sprintf("nll: target %d out of range [0, %d)", t, classes))
		}
		total -= lp[b*classes+t]
	}

	out := tensor.MustRaw(tensor.Shape{1}, logProbs.DType(), c.device)
	out.AsFloat32()[0] = total / float32(batch)
	return out
}
