package cpu

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-ml/tessera/internal/tensor"
)

func raw(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	rt, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	copy(rt.AsFloat32(), data)
	return rt
}

func rawInt(t *testing.T, data []int32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	rt, err := tensor.NewRaw(shape, tensor.Int32, tensor.CPU)
	require.NoError(t, err)
	copy(rt.AsInt32(), data)
	return rt
}

func TestAdd(t *testing.T) {
	b := New()
	a := raw(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	c := raw(t, []float32{10, 20, 30, 40}, tensor.Shape{2, 2})

	out := b.Add(a, c)
	assert.Equal(t, []float32{11, 22, 33, 44}, out.AsFloat32())
}

func TestAddBroadcast(t *testing.T) {
	b := New()
	a := raw(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	bias := raw(t, []float32{10, 20, 30}, tensor.Shape{1, 3})

	out := b.Add(a, bias)
	assert.Equal(t, tensor.Shape{2, 3}, out.Shape())
	assert.Equal(t, []float32{11, 22, 33, 14, 25, 36}, out.AsFloat32())
}

func TestAddShapeMismatchPanics(t *testing.T) {
	b := New()
	a := raw(t, []float32{1, 2, 3}, tensor.Shape{3})
	c := raw(t, []float32{1, 2}, tensor.Shape{2})

	assert.Panics(t, func() { b.Add(a, c) })
}

func TestMulScalar(t *testing.T) {
	b := New()
	a := raw(t, []float32{1, -2, 3}, tensor.Shape{3})

	out := b.MulScalar(a, 2)
	assert.Equal(t, []float32{2, -4, 6}, out.AsFloat32())
}

func TestMatMul(t *testing.T) {
	b := New()
	a := raw(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	c := raw(t, []float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2})

	out := b.MatMul(a, c)
	assert.Equal(t, tensor.Shape{2, 2}, out.Shape())
	assert.Equal(t, []float32{58, 64, 139, 154}, out.AsFloat32())
}

func TestMatMulShapeMismatchPanics(t *testing.T) {
	b := New()
	a := raw(t, make([]float32, 6), tensor.Shape{2, 3})
	c := raw(t, make([]float32, 8), tensor.Shape{4, 2})

	assert.Panics(t, func() { b.MatMul(a, c) })
}

func TestConv2DIdentityKernel(t *testing.T) {
	b := New()
	input := raw(t, []float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}, tensor.Shape{1, 1, 3, 3})
	// 1x1 kernel with weight 1 copies the input.
	kernel := raw(t, []float32{1}, tensor.Shape{1, 1, 1, 1})

	out := b.Conv2D(input, kernel, 1, 0)
	assert.Equal(t, tensor.Shape{1, 1, 3, 3}, out.Shape())
	assert.Equal(t, input.AsFloat32(), out.AsFloat32())
}

func TestConv2DKnownValues(t *testing.T) {
	b := New()
	input := raw(t, []float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}, tensor.Shape{1, 1, 3, 3})
	kernel := raw(t, []float32{
		1, 0,
		0, 1,
	}, tensor.Shape{1, 1, 2, 2})

	out := b.Conv2D(input, kernel, 1, 0)
	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, out.Shape())
	// Each output is input[y,x] + input[y+1,x+1].
	assert.Equal(t, []float32{6, 8, 12, 14}, out.AsFloat32())
}

func TestConv2DSamePadding(t *testing.T) {
	b := New()
	input := raw(t, []float32{
		1, 2,
		3, 4,
	}, tensor.Shape{1, 1, 2, 2})
	kernel := raw(t, []float32{
		0, 0, 0,
		0, 1, 0,
		0, 0, 0,
	}, tensor.Shape{1, 1, 3, 3})

	// 3x3 identity kernel with padding 1 preserves shape and content.
	out := b.Conv2D(input, kernel, 1, 1)
	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, out.Shape())
	assert.Equal(t, []float32{1, 2, 3, 4}, out.AsFloat32())
}

func TestConv2DChannelMismatchPanics(t *testing.T) {
	b := New()
	input := raw(t, make([]float32, 2*4), tensor.Shape{1, 2, 2, 2})
	kernel := raw(t, make([]float32, 3*4), tensor.Shape{1, 3, 2, 2})

	assert.Panics(t, func() { b.Conv2D(input, kernel, 1, 0) })
}

func TestConv2DGradientsNumerically(t *testing.T) {
	b := New()
	input := raw(t, []float32{
		0.5, -1, 2,
		1.5, 0.25, -0.75,
		3, -2, 1,
	}, tensor.Shape{1, 1, 3, 3})
	kernel := raw(t, []float32{
		0.1, -0.2,
		0.3, 0.4,
	}, tensor.Shape{1, 1, 2, 2})
	stride, padding := 1, 0

	// Loss = sum of output elements, so the output gradient is all ones.
	out := b.Conv2D(input, kernel, stride, padding)
	ones := raw(t, []float32{1, 1, 1, 1}, out.Shape())

	gradIn := b.Conv2DInputBackward(input, kernel, ones, stride, padding)
	gradK := b.Conv2DKernelBackward(input, kernel, ones, stride, padding)

	const eps = 1e-2
	sumOf := func(rt *tensor.RawTensor) float32 {
		var s float32
		for _, v := range rt.AsFloat32() {
			s += v
		}
		return s
	}
	for i := range input.AsFloat32() {
		orig := input.AsFloat32()[i]
		input.AsFloat32()[i] = orig + eps
		up := sumOf(b.Conv2D(input, kernel, stride, padding))
		input.AsFloat32()[i] = orig - eps
		down := sumOf(b.Conv2D(input, kernel, stride, padding))
		input.AsFloat32()[i] = orig

		numeric := (up - down) / (2 * eps)
		assert.InDelta(t, numeric, gradIn.AsFloat32()[i], 1e-3, "input grad %d", i)
	}
	for i := range kernel.AsFloat32() {
		orig := kernel.AsFloat32()[i]
		kernel.AsFloat32()[i] = orig + eps
		up := sumOf(b.Conv2D(input, kernel, stride, padding))
		kernel.AsFloat32()[i] = orig - eps
		down := sumOf(b.Conv2D(input, kernel, stride, padding))
		kernel.AsFloat32()[i] = orig

		numeric := (up - down) / (2 * eps)
		assert.InDelta(t, numeric, gradK.AsFloat32()[i], 1e-3, "kernel grad %d", i)
	}
}

func TestMaxPool2D(t *testing.T) {
	b := New()
	input := raw(t, []float32{
		1, 2, 5, 6,
		3, 4, 7, 8,
		-1, -2, 0, 1,
		-3, -4, 2, 3,
	}, tensor.Shape{1, 1, 4, 4})

	out := b.MaxPool2D(input, 2, 2)
	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, out.Shape())
	assert.Equal(t, []float32{4, 8, -1, 3}, out.AsFloat32())
}

func TestMaxPoolIndicesAndBackward(t *testing.T) {
	b := New()
	input := raw(t, []float32{
		1, 2, 5, 6,
		3, 4, 7, 8,
		-1, -2, 0, 1,
		-3, -4, 2, 3,
	}, tensor.Shape{1, 1, 4, 4})

	indices := b.MaxPoolIndices(input, 2, 2)
	assert.Equal(t, []int{5, 7, 8, 15}, indices)

	og := raw(t, []float32{10, 20, 30, 40}, tensor.Shape{1, 1, 2, 2})
	grad := b.MaxPool2DBackward(input, og, indices)

	want := make([]float32, 16)
	want[5], want[7], want[8], want[15] = 10, 20, 30, 40
	assert.Equal(t, want, grad.AsFloat32())
}

func TestReLU(t *testing.T) {
	b := New()
	x := raw(t, []float32{-1, 0, 2, -3.5}, tensor.Shape{4})

	out := b.ReLU(x)
	assert.Equal(t, []float32{0, 0, 2, 0}, out.AsFloat32())
}

func TestLogSoftmaxRowsSumToOne(t *testing.T) {
	b := New()
	x := raw(t, []float32{
		1, 2, 3,
		100, 100, 100,
		-50, 0, 50,
	}, tensor.Shape{3, 3})

	out := b.LogSoftmax(x)
	od := out.AsFloat32()
	for r := 0; r < 3; r++ {
		var sum float64
		for c := 0; c < 3; c++ {
			sum += math.Exp(float64(od[r*3+c]))
		}
		assert.InDelta(t, 1.0, sum, 1e-5, "row %d", r)
	}
}

func TestLogSoftmaxUniform(t *testing.T) {
	b := New()
	x := raw(t, []float32{7, 7, 7, 7}, tensor.Shape{1, 4})

	out := b.LogSoftmax(x)
	want := float32(-math.Log(4))
	for _, v := range out.AsFloat32() {
		assert.InDelta(t, want, v, 1e-6)
	}
}

func TestNLLLoss(t *testing.T) {
	b := New()
	logProbs := raw(t, []float32{
		-0.1, -2.0,
		-3.0, -0.2,
	}, tensor.Shape{2, 2})
	targets := rawInt(t, []int32{0, 1}, tensor.Shape{2})

	out := b.NLLLoss(logProbs, targets)
	assert.Equal(t, tensor.Shape{1}, out.Shape())
	assert.InDelta(t, (0.1+0.2)/2, float64(out.AsFloat32()[0]), 1e-6)
}

func TestNLLLossBadTargetPanics(t *testing.T) {
	b := New()
	logProbs := raw(t, make([]float32, 4), tensor.Shape{2, 2})
	targets := rawInt(t, []int32{0, 5}, tensor.Shape{2})

	assert.Panics(t, func() { b.NLLLoss(logProbs, targets) })
}

func TestReshapeSharesData(t *testing.T) {
	b := New()
	x := raw(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	out := b.Reshape(x, tensor.Shape{3, 2})
	assert.Equal(t, tensor.Shape{3, 2}, out.Shape())

	x.AsFloat32()[0] = 99
	assert.Equal(t, float32(99), out.AsFloat32()[0])
}

func TestReshapeBadSizePanics(t *testing.T) {
	b := New()
	x := raw(t, make([]float32, 6), tensor.Shape{2, 3})

	assert.Panics(t, func() { b.Reshape(x, tensor.Shape{4, 2}) })
}

func TestTranspose2D(t *testing.T) {
	b := New()
	x := raw(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	out := b.Transpose(x)
	assert.Equal(t, tensor.Shape{3, 2}, out.Shape())
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, out.AsFloat32())
}

func TestTransposeAxes(t *testing.T) {
	b := New()
	x := raw(t, []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
	}, tensor.Shape{2, 2, 2})

	out := b.Transpose(x, 1, 0, 2)
	assert.Equal(t, tensor.Shape{2, 2, 2}, out.Shape())
	assert.Equal(t, []float32{1, 2, 5, 6, 3, 4, 7, 8}, out.AsFloat32())
}

func TestSum(t *testing.T) {
	b := New()
	x := raw(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})

	out := b.Sum(x)
	assert.Equal(t, tensor.Shape{1}, out.Shape())
	assert.Equal(t, float32(10), out.AsFloat32()[0])
}

func TestSumDim(t *testing.T) {
	b := New()
	x := raw(t, []float32{
		1, 2, 3,
		4, 5, 6,
	}, tensor.Shape{2, 3})

	rows := b.SumDim(x, 0)
	assert.Equal(t, tensor.Shape{1, 3}, rows.Shape())
	assert.Equal(t, []float32{5, 7, 9}, rows.AsFloat32())

	cols := b.SumDim(x, 1)
	assert.Equal(t, tensor.Shape{2, 1}, cols.Shape())
	assert.Equal(t, []float32{6, 15}, cols.AsFloat32())
}

func TestArgmax(t *testing.T) {
	b := New()
	x := raw(t, []float32{
		0.1, 0.7, 0.2,
		0.9, 0.05, 0.05,
	}, tensor.Shape{2, 3})

	out := b.Argmax(x, 1)
	assert.Equal(t, tensor.Shape{2}, out.Shape())
	assert.Equal(t, []int32{1, 0}, out.AsInt32())
}
