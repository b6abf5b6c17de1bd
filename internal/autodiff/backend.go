package autodiff

import (
	"github.com/tessera-ml/tessera/internal/autodiff/ops"
	"github.com/tessera-ml/tessera/internal/tensor"
)

// Backend wraps a compute backend and records every differentiable forward
// operation on its tape. It implements tensor.Backend, so tensors built on
// it gain gradients transparently.
type Backend[B tensor.Backend] struct {
	inner B
	tape  *Tape
}

// Wrap decorates a backend with gradient recording.
func Wrap[B tensor.Backend](inner B) *Backend[B] {
	return &Backend[B]{inner: inner, tape: NewTape(inner)}
}

// Tape returns the gradient tape.
func (a *Backend[B]) Tape() *Tape { return a.tape }

// Inner returns the wrapped backend.
func (a *Backend[B]) Inner() B { return a.inner }

// Name returns the decorated backend name.
func (a *Backend[B]) Name() string { return "Autodiff(" + a.inner.Name() + ")" }

// Device returns the wrapped backend's device.
func (a *Backend[B]) Device() tensor.Device { return a.inner.Device() }

func (a *Backend[B]) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	out := a.inner.Add(x, y)
	if a.tape.IsRecording() {
		a.tape.Record(&ops.Add{A: x, B: y, Out: out, Backend: a.inner})
	}
	return out
}

func (a *Backend[B]) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	out := a.inner.Sub(x, y)
	if a.tape.IsRecording() {
		a.tape.Record(&ops.Sub{A: x, B: y, Out: out, Backend: a.inner})
	}
	return out
}

func (a *Backend[B]) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	out := a.inner.Mul(x, y)
	if a.tape.IsRecording() {
		a.tape.Record(&ops.Mul{A: x, B: y, Out: out, Backend: a.inner})
	}
	return out
}

func (a *Backend[B]) Div(x, y *tensor.RawTensor) *tensor.RawTensor {
	out := a.inner.Div(x, y)
	if a.tape.IsRecording() {
		a.tape.Record(&ops.Div{A: x, B: y, Out: out, Backend: a.inner})
	}
	return out
}

func (a *Backend[B]) MulScalar(x *tensor.RawTensor, s float32) *tensor.RawTensor {
	out := a.inner.MulScalar(x, s)
	if a.tape.IsRecording() {
		a.tape.Record(&ops.MulScalar{A: x, Out: out, Scalar: s, Backend: a.inner})
	}
	return out
}

func (a *Backend[B]) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	out := a.inner.MatMul(x, y)
	if a.tape.IsRecording() {
		a.tape.Record(&ops.MatMul{A: x, B: y, Out: out, Backend: a.inner})
	}
	return out
}

func (a *Backend[B]) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	out := a.inner.Conv2D(input, kernel, stride, padding)
	if a.tape.IsRecording() {
		a.tape.Record(&ops.Conv2D{
			Input: input, Kernel: kernel, Out: out,
			Stride: stride, Padding: padding, Backend: a.inner,
		})
	}
	return out
}

// Conv2DInputBackward is a backward kernel; it is forwarded unrecorded.
func (a *Backend[B]) Conv2DInputBackward(input, kernel, outputGrad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	return a.inner.Conv2DInputBackward(input, kernel, outputGrad, stride, padding)
}

// Conv2DKernelBackward is a backward kernel; it is forwarded unrecorded.
func (a *Backend[B]) Conv2DKernelBackward(input, kernel, outputGrad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	return a.inner.Conv2DKernelBackward(input, kernel, outputGrad, stride, padding)
}

// MaxPool2DBackward is a backward kernel; it is forwarded unrecorded.
func (a *Backend[B]) MaxPool2DBackward(input, outputGrad *tensor.RawTensor, maxIndices []int) *tensor.RawTensor {
	return a.inner.MaxPool2DBackward(input, outputGrad, maxIndices)
}

func (a *Backend[B]) MaxPool2D(input *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	out := a.inner.MaxPool2D(input, kernelSize, stride)
	if a.tape.IsRecording() {
		indices := a.inner.MaxPoolIndices(input, kernelSize, stride)
		a.tape.Record(&ops.MaxPool2D{Input: input, Out: out, MaxIndices: indices, Backend: a.inner})
	}
	return out
}

func (a *Backend[B]) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	out := a.inner.ReLU(x)
	if a.tape.IsRecording() {
		a.tape.Record(&ops.ReLU{In: x, Out: out})
	}
	return out
}

func (a *Backend[B]) LogSoftmax(x *tensor.RawTensor) *tensor.RawTensor {
	out := a.inner.LogSoftmax(x)
	if a.tape.IsRecording() {
		a.tape.Record(&ops.LogSoftmax{In: x, Out: out})
	}
	return out
}

func (a *Backend[B]) NLLLoss(logProbs, targets *tensor.RawTensor) *tensor.RawTensor {
	out := a.inner.NLLLoss(logProbs, targets)
	if a.tape.IsRecording() {
		a.tape.Record(&ops.NLLLoss{LogProbs: logProbs, Targets: targets, Out: out})
	}
	return out
}

func (a *Backend[B]) Reshape(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	out := a.inner.Reshape(x, shape)
	if a.tape.IsRecording() {
		a.tape.Record(&ops.Reshape{In: x, Out: out, Backend: a.inner})
	}
	return out
}

func (a *Backend[B]) Transpose(x *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	out := a.inner.Transpose(x, axes...)
	if a.tape.IsRecording() {
		// Normalize the default (reversed) permutation so the backward
		// pass can invert it.
		if len(axes) == 0 {
			ndim := len(x.Shape())
			axes = make([]int, ndim)
			for i := range axes {
				axes[i] = ndim - 1 - i
			}
		}
		a.tape.Record(&ops.Transpose{In: x, Out: out, Axes: axes, Backend: a.inner})
	}
	return out
}

func (a *Backend[B]) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	out := a.inner.Sum(x)
	if a.tape.IsRecording() {
		a.tape.Record(&ops.Sum{In: x, Out: out})
	}
	return out
}

// SumDim is a gradient-accumulation primitive; it is not recorded.
func (a *Backend[B]) SumDim(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return a.inner.SumDim(x, dim)
}

// Argmax produces integer indices; it has no gradient and is not recorded.
func (a *Backend[B]) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return a.inner.Argmax(x, dim)
}

// MaxPoolIndices forwards to the wrapped backend.
func (a *Backend[B]) MaxPoolIndices(input *tensor.RawTensor, kernelSize, stride int) []int {
	return a.inner.MaxPoolIndices(input, kernelSize, stride)
}
