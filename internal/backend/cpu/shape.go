package cpu

import (
	"fmt"

	"github.com/tessera-ml/tessera/internal/tensor"
)

// Reshape returns a view with the same elements and a new shape.
func (c *Backend) Reshape(t *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	out, err := t.WithShape(shape)
	if err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	return out
}

// Transpose permutes the tensor's dimensions, copying data into the new
// layout. With no axes the dimension order is reversed.
func (c *Backend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: %d axes for %dD tensor", len(axes), ndim))
	}
	seen := make([]bool, ndim)
	outShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		if ax < 0 || ax >= ndim || seen[ax] {
			panic(fmt.Sprintf("transpose: invalid axes %v for shape %v", axes, shape))
		}
		seen[ax] = true
		outShape[i] = shape[ax]
	}

	out := tensor.MustRaw(outShape, t.DType(), c.device)
	td := t.AsFloat32()
	od := out.AsFloat32()

	inStrides := shape.Strides()
	outStrides := outShape.Strides()

	for i := range od {
		// Decompose the output index and recompose it in input order.
		src := 0
		for d := 0; d < ndim; d++ {
			coord := i / outStrides[d] % outShape[d]
			src += coord * inStrides[axes[d]]
		}
		od[i] = td[src]
	}
	return out
}
