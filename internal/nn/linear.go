package nn

import (
	"math/rand"

	"github.com/tessera-ml/tessera/internal/tensor"
)

// Linear is a fully connected layer computing y = x @ W^T + b for input
// [batch, in] and weight [out, in].
type Linear[B tensor.Backend] struct {
	weight *Parameter[B]
	bias   *Parameter[B]
}

// NewLinear creates a linear layer with Xavier-initialized weights and
// zero bias.
func NewLinear[B tensor.Backend](name string, inFeatures, outFeatures int, rng *rand.Rand, b B) *Linear[B] {
	weight := XavierUniform(tensor.Shape{outFeatures, inFeatures}, inFeatures, outFeatures, rng, b)
	bias := tensor.Zeros[float32, B](tensor.Shape{1, outFeatures}, b)
	return &Linear[B]{
		weight: NewParameter(name+".weight", weight),
		bias:   NewParameter(name+".bias", bias),
	}
}

// Forward computes x @ W^T + b. The bias row broadcasts over the batch.
func (l *Linear[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return x.MatMul(l.weight.Value.T()).Add(l.bias.Value)
}

// Parameters returns the weight and bias.
func (l *Linear[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.weight, l.bias}
}
