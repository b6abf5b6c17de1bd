package cpu

import (
	"fmt"

	"github.com/tessera-ml/tessera/internal/tensor"
)

// Sum reduces every element to a single-element tensor.
func (c *Backend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	var total float32
	for _, v := range x.AsFloat32() {
		total += v
	}
	out := tensor.MustRaw(tensor.Shape{1}, x.DType(), c.device)
	out.AsFloat32()[0] = total
	return out
}

// Argmax returns int32 indices of the maximum along dim. Only reduction
// over the class dimension of a 2D [batch, classes] tensor is needed here.
func (c *Backend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	if len(shape) != 2 || dim != 1 {
		panic(fmt.Sprintf("argmax: only dim=1 of a 2D tensor is supported, got shape %v dim %d", shape, dim))
	}
	batch, classes := shape[0], shape[1]

	out := tensor.MustRaw(tensor.Shape{batch}, tensor.Int32, c.device)
	xd := x.AsFloat32()
	od := out.AsInt32()

	for b := 0; b < batch; b++ {
		row := xd[b*classes : (b+1)*classes]
		best := 0
		for i, v := range row {
			if v > row[best] {
				best = i
			}
		}
		od[b] = int32(best)
	}
	return out
}

// SumDim reduces one dimension to size 1, keeping the others. Used by the
// autodiff layer to fold broadcast gradients back to parameter shapes.
func (c *Backend) SumDim(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("sumdim: dim %d out of range for shape %v", dim, shape))
	}
	outShape := shape.Clone()
	outShape[dim] = 1

	out := tensor.MustRaw(outShape, x.DType(), c.device)
	xd := x.AsFloat32()
	od := out.AsFloat32()

	inStrides := shape.Strides()
	outStrides := outShape.Strides()

	for i, v := range xd {
		dst := 0
		for d := 0; d < len(shape); d++ {
			coord := i / inStrides[d] % shape[d]
			if d == dim {
				continue
			}
			dst += coord * outStrides[d]
		}
		od[dst] += v
	}
	return out
}
