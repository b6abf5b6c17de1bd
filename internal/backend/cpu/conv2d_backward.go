package cpu

import (
	"github.com/tessera-ml/tessera/internal/tensor"
)

// Conv2DInputBackward computes the gradient of Conv2D with respect to its
// input: the output gradient is scattered back through every kernel tap
// that touched each input position (the transposed convolution).
func (c *Backend) Conv2DInputBackward(input, kernel, outputGrad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	n, cin, h, w, cout, kh, kw, hout, wout := convDims(input, kernel, stride, padding)

	grad := tensor.MustRaw(input.Shape(), input.DType(), c.device)
	gd := grad.AsFloat32()
	ker := kernel.AsFloat32()
	og := outputGrad.AsFloat32()

	for b := 0; b < n; b++ {
		for co := 0; co < cout; co++ {
			ogPlane := og[(b*cout+co)*hout*wout:]
			for oh := 0; oh < hout; oh++ {
				for ow := 0; ow < wout; ow++ {
					g := ogPlane[oh*wout+ow]
					if g == 0 {
						continue
					}
					hStart := oh*stride - padding
					wStart := ow*stride - padding
					for ci := 0; ci < cin; ci++ {
						kPlane := ker[(co*cin+ci)*kh*kw:]
						gPlane := gd[(b*cin+ci)*h*w:]
						for y := 0; y < kh; y++ {
							hh := hStart + y
							if hh < 0 || hh >= h {
								continue
							}
							for x := 0; x < kw; x++ {
								ww := wStart + x
								if ww < 0 || ww >= w {
									continue
								}
								gPlane[hh*w+ww] += g * kPlane[y*kw+x]
							}
						}
					}
				}
			}
		}
	}
	return grad
}

// Conv2DKernelBackward computes the gradient of Conv2D with respect to its
// kernel: a correlation of the input with the output gradient, accumulated
// over the batch.
func (c *Backend) Conv2DKernelBackward(input, kernel, outputGrad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	n, cin, h, w, cout, kh, kw, hout, wout := convDims(input, kernel, stride, padding)

	grad := tensor.MustRaw(kernel.Shape(), kernel.DType(), c.device)
	gd := grad.AsFloat32()
	in := input.AsFloat32()
	og := outputGrad.AsFloat32()

	for b := 0; b < n; b++ {
		for co := 0; co < cout; co++ {
			ogPlane := og[(b*cout+co)*hout*wout:]
			for oh := 0; oh < hout; oh++ {
				for ow := 0; ow < wout; ow++ {
					g := ogPlane[oh*wout+ow]
					if g == 0 {
						continue
					}
					hStart := oh*stride - padding
					wStart := ow*stride - padding
					for ci := 0; ci < cin; ci++ {
						inPlane := in[(b*cin+ci)*h*w:]
						kPlane := gd[(co*cin+ci)*kh*kw:]
						for y := 0; y < kh; y++ {
							hh := hStart + y
							if hh < 0 || hh >= h {
								continue
							}
							for x := 0; x < kw; x++ {
								ww := wStart + x
								if ww < 0 || ww >= w {
									continue
								}
								kPlane[y*kw+x] += g * inPlane[hh*w+ww]
							}
						}
					}
				}
			}
		}
	}
	return grad
}
