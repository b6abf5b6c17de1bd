package cpu

import (
	"fmt"

	"github.com/tessera-ml/tessera/internal/tensor"
)

// Conv2D convolves input [N,C_in,H,W] with kernel [C_out,C_in,K_h,K_w]
// producing [N,C_out,H_out,W_out], where
//
//	H_out = (H + 2*padding - K_h)/stride + 1
//	W_out = (W + 2*padding - K_w)/stride + 1
//
// The implementation lowers the convolution to a matrix product via im2col
// (Chellapilla et al., 2006): input patches become rows of a column buffer,
// the kernel is viewed as [C_out, C_in*K_h*K_w], and one matmul per batch
// element produces all output channels.
func (c *Backend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	n, cin, h, w, cout, kh, kw, hout, wout := convDims(input, kernel, stride, padding)

	out := tensor.MustRaw(tensor.Shape{n, cout, hout, wout}, input.DType(), c.device)
	in := input.AsFloat32()
	ker := kernel.AsFloat32()
	od := out.AsFloat32()

	colWidth := cin * kh * kw
	colBuf := make([]float32, hout*wout*colWidth)
	planeIn := cin * h * w
	planeOut := cout * hout * wout

	for b := 0; b < n; b++ {
		im2col(colBuf, in[b*planeIn:(b+1)*planeIn], cin, h, w, kh, kw, hout, wout, stride, padding)

		// ker [cout, colWidth] @ colBuf^T [colWidth, hout*wout]
		dst := od[b*planeOut : (b+1)*planeOut]
		for co := 0; co < cout; co++ {
			kRow := ker[co*colWidth : (co+1)*colWidth]
			for p := 0; p < hout*wout; p++ {
				patch := colBuf[p*colWidth : (p+1)*colWidth]
				var sum float32
				for i := range kRow {
					sum += kRow[i] * patch[i]
				}
				dst[co*hout*wout+p] = sum
			}
		}
	}
	return out
}

// im2col unpacks one image [C,H,W] into rows of patches, one row per
// output position. Out-of-bounds positions (padding) contribute zeros.
func im2col(colBuf, img []float32, cin, h, w, kh, kw, hout, wout, stride, padding int) {
	colWidth := cin * kh * kw
	row := 0
	for oh := 0; oh < hout; oh++ {
		for ow := 0; ow < wout; ow++ {
			hStart := oh*stride - padding
			wStart := ow*stride - padding
			buf := colBuf[row*colWidth : (row+1)*colWidth]
			i := 0
			for ci := 0; ci < cin; ci++ {
				plane := img[ci*h*w : (ci+1)*h*w]
				for y := 0; y < kh; y++ {
					hh := hStart + y
					for x := 0; x < kw; x++ {
						ww := wStart + x
						if hh >= 0 && hh < h && ww >= 0 && ww < w {
							buf[i] = plane[hh*w+ww]
						} else {
							buf[i] = 0
						}
						i++
					}
				}
			}
			row++
		}
	}
}

// convDims validates conv shapes and returns all derived dimensions.
func convDims(input, kernel *tensor.RawTensor, stride, padding int) (n, cin, h, w, cout, kh, kw, hout, wout int) {
	is, ks := input.Shape(), kernel.Shape()
	if len(is) != 4 {
		panic(fmt.Sprintf("conv2d: input must be 4D [N,C,H,W], got %v", is))
	}
	if len(ks) != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4D [C_out,C_in,K_h,K_w], got %v", ks))
	}
	if is[1] != ks[1] {
		panic(fmt.Sprintf("conv2d: input channels %d != kernel channels %d", is[1], ks[1]))
	}
	if stride <= 0 || padding < 0 {
		panic(fmt.Sprintf("conv2d: bad stride=%d padding=%d", stride, padding))
	}

	n, cin, h, w = is[0], is[1], is[2], is[3]
	cout, kh, kw = ks[0], ks[2], ks[3]
	hout = (h+2*padding-kh)/stride + 1
	wout = (w+2*padding-kw)/stride + 1
	if hout <= 0 || wout <= 0 {
		panic(fmt.Sprintf("conv2d: empty output %dx%d for input %dx%d kernel %dx%d", hout, wout, h, w, kh, kw))
	}
	return
}
