// Package model defines the convolutional classifier for shape images.
package model

import (
	"fmt"
	"math/rand"

	"github.com/tessera-ml/tessera/internal/nn"
	"github.com/tessera-ml/tessera/internal/tensor"
)

// Classifier is a three-block convolutional network over RGB images:
//
//	conv 3->16 (3x3, stride 1, pad 1), relu, maxpool 2x2
//	conv 16->32, relu, maxpool 2x2
//	conv 32->64, relu, dropout 0.25
//	flatten, linear -> numClasses, log-softmax
//
// The two pooling stages shrink the spatial dimensions by a factor of
// four, so a size-S input reaches the linear layer as 64*(S/4)^2 features.
type Classifier[B tensor.Backend] struct {
	net     *nn.Sequential[B]
	dropout *nn.Dropout[B]
}

// NewClassifier builds the network for square images of the given size,
// which must be divisible by four. Weights are initialized from rng.
func NewClassifier[B tensor.Backend](imageSize, numClasses int, rng *rand.Rand, b B) *Classifier[B] {
	if imageSize <= 0 || imageSize%4 != 0 {
		panic(fmt.Sprintf("model: image size must be a positive multiple of 4, got %d", imageSize))
	}
	if numClasses < 2 {
		panic(fmt.Sprintf("model: need at least 2 classes, got %d", numClasses))
	}

	pooled := imageSize / 4
	features := 64 * pooled * pooled
	dropout := nn.NewDropout[B](0.25, rng)

	net := nn.NewSequential[B](
		nn.NewConv2D("conv1", 3, 16, 3, 1, 1, rng, b),
		nn.NewReLU[B](),
		nn.NewMaxPool2D[B](2, 2),
		nn.NewConv2D("conv2", 16, 32, 3, 1, 1, rng, b),
		nn.NewReLU[B](),
		nn.NewMaxPool2D[B](2, 2),
		nn.NewConv2D("conv3", 32, 64, 3, 1, 1, rng, b),
		nn.NewReLU[B](),
		dropout,
		nn.NewFlatten[B](),
		nn.NewLinear("fc", features, numClasses, rng, b),
		nn.NewLogSoftmax[B](),
	)
	return &Classifier[B]{net: net, dropout: dropout}
}

// Forward maps a batch [N,3,S,S] to log-probabilities [N, numClasses].
func (c *Classifier[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return c.net.Forward(x)
}

// Parameters returns all trainable parameters.
func (c *Classifier[B]) Parameters() []*nn.Parameter[B] {
	return c.net.Parameters()
}

// Train enables dropout.
func (c *Classifier[B]) Train() {
	c.dropout.SetTraining(true)
}

// Eval disables dropout so inference is deterministic.
func (c *Classifier[B]) Eval() {
	c.dropout.SetTraining(false)
}
