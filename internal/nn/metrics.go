package nn

import (
	"github.com/tessera-ml/tessera/internal/tensor"
)

// Accuracy returns the fraction of rows whose argmax class matches the
// target.
func Accuracy[B tensor.Backend](logProbs *tensor.Tensor[float32, B], targets *tensor.Tensor[int32, B]) float64 {
	predicted := logProbs.Backend().Argmax(logProbs.Raw(), 1).AsInt32()
	actual := targets.Data()

	correct := 0
	for i, p := range predicted {
		if p == actual[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(actual))
}

// Predictions returns the argmax class per row.
func Predictions[B tensor.Backend](logProbs *tensor.Tensor[float32, B]) []int32 {
	return logProbs.Backend().Argmax(logProbs.Raw(), 1).AsInt32()
}
