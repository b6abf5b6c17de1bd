package ops

import (
	"github.com/tessera-ml/tessera/internal/tensor"
)

// Conv2D records a convolution. The two gradients are delegated to the
// backend's dedicated backward kernels.
type Conv2D struct {
	Input, Kernel, Out *tensor.RawTensor
	Stride, Padding    int
	Backend            tensor.Backend
}

func (o *Conv2D) Name() string              { return "conv2d" }
func (o *Conv2D) Output() *tensor.RawTensor { return o.Out }

func (o *Conv2D) Backward(outputGrad *tensor.RawTensor) []InputGrad {
	gradInput := o.Backend.Conv2DInputBackward(o.Input, o.Kernel, outputGrad, o.Stride, o.Padding)
	gradKernel := o.Backend.Conv2DKernelBackward(o.Input, o.Kernel, outputGrad, o.Stride, o.Padding)
	return []InputGrad{
		{Input: o.Input, Grad: gradInput},
		{Input: o.Kernel, Grad: gradKernel},
	}
}

// MaxPool2D records a pooling step along with the argmax indices captured
// during the forward pass, so the backward pass can route each output
// gradient to the input position that won the window.
type MaxPool2D struct {
	Input, Out *tensor.RawTensor
	MaxIndices []int
	Backend    tensor.Backend
}

func (o *MaxPool2D) Name() string              { return "maxpool2d" }
func (o *MaxPool2D) Output() *tensor.RawTensor { return o.Out }

func (o *MaxPool2D) Backward(outputGrad *tensor.RawTensor) []InputGrad {
	return []InputGrad{
		{Input: o.Input, Grad: o.Backend.MaxPool2DBackward(o.Input, outputGrad, o.MaxIndices)},
	}
}
