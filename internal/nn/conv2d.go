package nn

import (
	"math/rand"

	"github.com/tessera-ml/tessera/internal/tensor"
)

// Conv2D is a 2D convolution layer over [N,C,H,W] input with a square
// kernel. The bias is stored as [1,C_out,1,1] so it broadcasts over batch
// and spatial dimensions.
type Conv2D[B tensor.Backend] struct {
	weight *Parameter[B]
	bias   *Parameter[B]

	stride  int
	padding int
}

// NewConv2D creates a convolution layer with Xavier-initialized weights
// and zero bias.
func NewConv2D[B tensor.Backend](name string, inChannels, outChannels, kernelSize, stride, padding int, rng *rand.Rand, b B) *Conv2D[B] {
	fanIn := inChannels * kernelSize * kernelSize
	fanOut := outChannels * kernelSize * kernelSize
	weight := XavierUniform(tensor.Shape{outChannels, inChannels, kernelSize, kernelSize}, fanIn, fanOut, rng, b)
	bias := tensor.Zeros[float32, B](tensor.Shape{1, outChannels, 1, 1}, b)
	return &Conv2D[B]{
		weight:  NewParameter(name+".weight", weight),
		bias:    NewParameter(name+".bias", bias),
		stride:  stride,
		padding: padding,
	}
}

// Forward convolves the input and adds the channel bias.
func (c *Conv2D[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	b := x.Backend()
	out := b.Conv2D(x.Raw(), c.weight.Value.Raw(), c.stride, c.padding)
	conv := tensor.New[float32, B](out, b)
	return conv.Add(c.bias.Value)
}

// Parameters returns the kernel and bias.
func (c *Conv2D[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{c.weight, c.bias}
}
