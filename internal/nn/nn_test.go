package nn

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-ml/tessera/internal/backend/cpu"
	"github.com/tessera-ml/tessera/internal/tensor"
)

func fromSlice(t *testing.T, b *cpu.Backend, data []float32, shape tensor.Shape) *tensor.Tensor[float32, *cpu.Backend] {
	t.Helper()
	ts, err := tensor.FromSlice[float32](data, shape, b)
	require.NoError(t, err)
	return ts
}

func TestLinearForward(t *testing.T) {
	b := cpu.New()
	l := NewLinear("fc", 3, 2, rand.New(rand.NewSource(1)), b)

	// Overwrite the initialized weights with known values.
	copy(l.weight.Value.Data(), []float32{
		1, 2, 3,
		4, 5, 6,
	})
	copy(l.bias.Value.Data(), []float32{10, 20})

	x := fromSlice(t, b, []float32{1, 1, 1}, tensor.Shape{1, 3})
	out := l.Forward(x)

	assert.Equal(t, tensor.Shape{1, 2}, out.Shape())
	assert.Equal(t, []float32{16, 35}, out.Data())
}

func TestLinearParameterNames(t *testing.T) {
	b := cpu.New()
	l := NewLinear("fc", 4, 2, rand.New(rand.NewSource(1)), b)

	params := l.Parameters()
	require.Len(t, params, 2)
	assert.Equal(t, "fc.weight", params[0].Name)
	assert.Equal(t, "fc.bias", params[1].Name)
	assert.Equal(t, tensor.Shape{2, 4}, params[0].Value.Shape())
	assert.Equal(t, tensor.Shape{1, 2}, params[1].Value.Shape())
}

func TestConv2DForwardShapeAndBias(t *testing.T) {
	b := cpu.New()
	c := NewConv2D("conv", 1, 2, 3, 1, 1, rand.New(rand.NewSource(1)), b)

	// Zero the kernel so the output is the bias alone.
	for i := range c.weight.Value.Data() {
		c.weight.Value.Data()[i] = 0
	}
	copy(c.bias.Value.Data(), []float32{5, -5})

	x := fromSlice(t, b, make([]float32, 16), tensor.Shape{1, 1, 4, 4})
	out := c.Forward(x)

	require.Equal(t, tensor.Shape{1, 2, 4, 4}, out.Shape())
	data := out.Data()
	for i := 0; i < 16; i++ {
		assert.Equal(t, float32(5), data[i])
	}
	for i := 16; i < 32; i++ {
		assert.Equal(t, float32(-5), data[i])
	}
}

func TestMaxPool2DHalvesSpatialDims(t *testing.T) {
	b := cpu.New()
	pool := NewMaxPool2D[*cpu.Backend](2, 2)

	x := fromSlice(t, b, make([]float32, 2*3*8*8), tensor.Shape{2, 3, 8, 8})
	out := pool.Forward(x)

	assert.Equal(t, tensor.Shape{2, 3, 4, 4}, out.Shape())
	assert.Empty(t, pool.Parameters())
}

func TestFlatten(t *testing.T) {
	b := cpu.New()
	f := NewFlatten[*cpu.Backend]()

	x := fromSlice(t, b, make([]float32, 2*3*4*4), tensor.Shape{2, 3, 4, 4})
	out := f.Forward(x)

	assert.Equal(t, tensor.Shape{2, 48}, out.Shape())
}

func TestReLULayer(t *testing.T) {
	b := cpu.New()
	r := NewReLU[*cpu.Backend]()

	x := fromSlice(t, b, []float32{-2, 0, 3}, tensor.Shape{3})
	assert.Equal(t, []float32{0, 0, 3}, r.Forward(x).Data())
}

func TestLogSoftmaxLayerRowsNormalize(t *testing.T) {
	b := cpu.New()
	ls := NewLogSoftmax[*cpu.Backend]()

	x := fromSlice(t, b, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	out := ls.Forward(x)

	data := out.Data()
	for r := 0; r < 2; r++ {
		sum := math.Exp(float64(data[r*2])) + math.Exp(float64(data[r*2+1]))
		assert.InDelta(t, 1.0, sum, 1e-6)
	}
}

func TestDropoutEvalPassthrough(t *testing.T) {
	b := cpu.New()
	d := NewDropout[*cpu.Backend](0.5, rand.New(rand.NewSource(1)))
	d.SetTraining(false)

	x := fromSlice(t, b, []float32{1, 2, 3}, tensor.Shape{3})
	out := d.Forward(x)

	assert.Equal(t, []float32{1, 2, 3}, out.Data())
}

func TestDropoutTrainingMasksAndScales(t *testing.T) {
	b := cpu.New()
	p := float32(0.25)
	d := NewDropout[*cpu.Backend](p, rand.New(rand.NewSource(42)))

	n := 10000
	x := fromSlice(t, b, make([]float32, n), tensor.Shape{n})
	for i := range x.Data() {
		x.Data()[i] = 1
	}
	out := d.Forward(x).Data()

	scale := 1 / (1 - p)
	zeros := 0
	for _, v := range out {
		if v == 0 {
			zeros++
		} else {
			assert.Equal(t, scale, v)
		}
	}
	// Dropped fraction should be near p.
	assert.InDelta(t, float64(p), float64(zeros)/float64(n), 0.02)
}

func TestDropoutBadProbabilityPanics(t *testing.T) {
	assert.Panics(t, func() { NewDropout[*cpu.Backend](1, rand.New(rand.NewSource(1))) })
}

func TestXavierUniformRange(t *testing.T) {
	b := cpu.New()
	fanIn, fanOut := 100, 50
	w := XavierUniform(tensor.Shape{fanOut, fanIn}, fanIn, fanOut, rand.New(rand.NewSource(7)), b)

	limit := float32(math.Sqrt(6.0 / float64(fanIn+fanOut)))
	var nonZero bool
	for _, v := range w.Data() {
		assert.LessOrEqual(t, v, limit)
		assert.GreaterOrEqual(t, v, -limit)
		if v != 0 {
			nonZero = true
		}
	}
	assert.True(t, nonZero)
}

func TestNLLLossKnownValue(t *testing.T) {
	b := cpu.New()
	logProbs := fromSlice(t, b, []float32{
		-0.5, -1.0,
		-2.0, -0.25,
	}, tensor.Shape{2, 2})
	targets, err := tensor.FromSlice[int32]([]int32{0, 1}, tensor.Shape{2}, b)
	require.NoError(t, err)

	loss := NLLLoss(logProbs, targets)
	assert.InDelta(t, (0.5+0.25)/2, float64(loss.Item()), 1e-6)
}

func TestAccuracy(t *testing.T) {
	b := cpu.New()
	logProbs := fromSlice(t, b, []float32{
		-0.1, -3.0,
		-2.0, -0.2,
		-0.3, -1.5,
	}, tensor.Shape{3, 2})
	targets, err := tensor.FromSlice[int32]([]int32{0, 1, 1}, tensor.Shape{3}, b)
	require.NoError(t, err)

	assert.InDelta(t, 2.0/3.0, Accuracy(logProbs, targets), 1e-9)
	assert.Equal(t, []int32{0, 1, 0}, Predictions(logProbs))
}

func TestSequentialCollectsParameters(t *testing.T) {
	b := cpu.New()
	rng := rand.New(rand.NewSource(3))
	seq := NewSequential[*cpu.Backend](
		NewLinear("fc1", 4, 8, rng, b),
		NewReLU[*cpu.Backend](),
		NewLinear("fc2", 8, 2, rng, b),
	)

	params := seq.Parameters()
	require.Len(t, params, 4)
	assert.Equal(t, "fc1.weight", params[0].Name)
	assert.Equal(t, "fc2.bias", params[3].Name)

	x := fromSlice(t, b, make([]float32, 4), tensor.Shape{1, 4})
	assert.Equal(t, tensor.Shape{1, 2}, seq.Forward(x).Shape())
}
