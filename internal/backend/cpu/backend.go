// Package cpu implements the single-threaded float32 compute backend.
package cpu

import (
	"fmt"

	"github.com/tessera-ml/tessera/internal/tensor"
)

// Backend implements tensor.Backend with plain Go kernels. All operations
// run on the calling goroutine; there is no worker pool.
type Backend struct {
	device tensor.Device
}

// New creates a CPU backend.
func New() *Backend {
	return &Backend{device: tensor.CPU}
}

// Name returns the backend name.
func (c *Backend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (c *Backend) Device() tensor.Device {
	return c.device
}

// Add performs element-wise addition with broadcasting.
func (c *Backend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binary("add", a, b, func(x, y float32) float32 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (c *Backend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binary("sub", a, b, func(x, y float32) float32 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (c *Backend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binary("mul", a, b, func(x, y float32) float32 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (c *Backend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binary("div", a, b, func(x, y float32) float32 { return x / y })
}

// MulScalar multiplies every element by a scalar.
func (c *Backend) MulScalar(x *tensor.RawTensor, s float32) *tensor.RawTensor {
	out := tensor.MustRaw(x.Shape(), x.DType(), c.device)
	xd := x.AsFloat32()
	od := out.AsFloat32()
	for i, v := range xd {
		od[i] = v * s
	}
	return out
}

// binary applies op element-wise, expanding either operand as needed.
func (c *Backend) binary(name string, a, b *tensor.RawTensor, op func(x, y float32) float32) *tensor.RawTensor {
	outShape, expand, err := tensor.Broadcast(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}
	out := tensor.MustRaw(outShape, a.DType(), c.device)

	ad := a.AsFloat32()
	bd := b.AsFloat32()
	od := out.AsFloat32()

	if !expand {
		for i := range od {
			od[i] = op(ad[i], bd[i])
		}
		return out
	}

	// General path: walk the output index space and map each coordinate
	// back into a and b, pinning broadcast dimensions to index 0.
	aIdx := broadcastIndexer(outShape, a.Shape())
	bIdx := broadcastIndexer(outShape, b.Shape())
	for i := range od {
		od[i] = op(ad[aIdx(i)], bd[bIdx(i)])
	}
	return out
}

// broadcastIndexer returns a function mapping a flat output index to the
// flat index of the (possibly smaller) source shape.
func broadcastIndexer(out, src tensor.Shape) func(int) int {
	outStrides := out.Strides()
	srcStrides := src.Strides()
	offset := len(out) - len(src)

	return func(flat int) int {
		idx := 0
		for d := 0; d < len(out); d++ {
			coord := flat / outStrides[d] % out[d]
			sd := d - offset
			if sd < 0 {
				continue
			}
			if src[sd] == 1 {
				continue
			}
			idx += coord * srcStrides[sd]
		}
		return idx
	}
}
