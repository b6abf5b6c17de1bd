package nn

import (
	"github.com/tessera-ml/tessera/internal/tensor"
)

// NLLLoss computes the mean negative log-likelihood of int32 class targets
// [batch] under log-probabilities [batch, classes]. Combined with a
// LogSoftmax output layer this is cross-entropy.
func NLLLoss[B tensor.Backend](logProbs *tensor.Tensor[float32, B], targets *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	b := logProbs.Backend()
	return tensor.New[float32, B](b.NLLLoss(logProbs.Raw(), targets.Raw()), b)
}
