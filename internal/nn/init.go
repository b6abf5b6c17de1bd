package nn

import (
	"math"
	"math/rand"

	"github.com/tessera-ml/tessera/internal/tensor"
)

// XavierUniform fills a new tensor with values drawn uniformly from
// [-limit, limit] where limit = sqrt(6 / (fanIn + fanOut)) (Glorot &
// Bengio, 2010). Keeps activation variance stable at initialization.
func XavierUniform[B tensor.Backend](shape tensor.Shape, fanIn, fanOut int, rng *rand.Rand, b B) *tensor.Tensor[float32, B] {
	limit := float32(math.Sqrt(6.0 / float64(fanIn+fanOut)))
	raw := tensor.MustRaw(shape, tensor.Float32, b.Device())
	data := raw.AsFloat32()
	for i := range data {
		data[i] = (rng.Float32()*2 - 1) * limit
	}
	return tensor.New[float32, B](raw, b)
}
