package cpu

import (
	"fmt"
	"math"

	"github.com/tessera-ml/tessera/internal/tensor"
)

// MaxPool2D pools input [N,C,H,W] with a square window, producing
// [N,C,H_out,W_out] where H_out = (H-kernelSize)/stride + 1 (same for W).
func (c *Backend) MaxPool2D(input *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	n, ch, h, w, hout, wout := poolDims(input, kernelSize, stride)

	out := tensor.MustRaw(tensor.Shape{n, ch, hout, wout}, input.DType(), c.device)
	in := input.AsFloat32()
	od := out.AsFloat32()

	for b := 0; b < n; b++ {
		for cc := 0; cc < ch; cc++ {
			plane := in[(b*ch+cc)*h*w : (b*ch+cc+1)*h*w]
			dst := od[(b*ch+cc)*hout*wout:]
			for oh := 0; oh < hout; oh++ {
				for ow := 0; ow < wout; ow++ {
					maxVal := float32(math.Inf(-1))
					for y := 0; y < kernelSize; y++ {
						row := plane[(oh*stride+y)*w:]
						for x := 0; x < kernelSize; x++ {
							if v := row[ow*stride+x]; v > maxVal {
								maxVal = v
							}
						}
					}
					dst[oh*wout+ow] = maxVal
				}
			}
		}
	}
	return out
}

// MaxPoolIndices returns, for every output position, the flat input index
// that held the window maximum. The autodiff layer records these during the
// forward pass so the backward pass can route gradients.
func (c *Backend) MaxPoolIndices(input *tensor.RawTensor, kernelSize, stride int) []int {
	n, ch, h, w, hout, wout := poolDims(input, kernelSize, stride)

	in := input.AsFloat32()
	indices := make([]int, n*ch*hout*wout)
	i := 0
	for b := 0; b < n; b++ {
		for cc := 0; cc < ch; cc++ {
			base := (b*ch + cc) * h * w
			for oh := 0; oh < hout; oh++ {
				for ow := 0; ow < wout; ow++ {
					maxVal := float32(math.Inf(-1))
					maxIdx := base
					for y := 0; y < kernelSize; y++ {
						for x := 0; x < kernelSize; x++ {
							idx := base + (oh*stride+y)*w + (ow*stride + x)
							if v := in[idx]; v > maxVal {
								maxVal = v
								maxIdx = idx
							}
						}
					}
					indices[i] = maxIdx
					i++
				}
			}
		}
	}
	return indices
}

// MaxPool2DBackward routes each output gradient value to the input position
// that produced the maximum; every other window position gets zero. This is
// the subgradient of max.
func (c *Backend) MaxPool2DBackward(input, outputGrad *tensor.RawTensor, maxIndices []int) *tensor.RawTensor {
	grad := tensor.MustRaw(input.Shape(), input.DType(), c.device)
	gd := grad.AsFloat32()
	og := outputGrad.AsFloat32()

	if len(og) != len(maxIndices) {
		panic(fmt.Sprintf("maxpool2d backward: %d gradients but %d recorded indices", len(og), len(maxIndices)))
	}
	for i, idx := range maxIndices {
		gd[idx] += og[i]
	}
	return grad
}

func poolDims(input *tensor.RawTensor, kernelSize, stride int) (n, ch, h, w, hout, wout int) {
	is := input.Shape()
	if len(is) != 4 {
		panic(fmt.Sprintf("maxpool2d: input must be 4D [N,C,H,W], got %v", is))
	}
	if kernelSize <= 0 || stride <= 0 {
		panic(fmt.Sprintf("maxpool2d: bad kernel=%d stride=%d", kernelSize, stride))
	}
	n, ch, h, w = is[0], is[1], is[2], is[3]
	if kernelSize > h || kernelSize > w {
		panic(fmt.Sprintf("maxpool2d: kernel %d exceeds input %dx%d", kernelSize, h, w))
	}
	hout = (h-kernelSize)/stride + 1
	wout = (w-kernelSize)/stride + 1
	return
}
