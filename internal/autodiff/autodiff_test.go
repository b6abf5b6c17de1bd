package autodiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-ml/tessera/internal/backend/cpu"
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

func ones(shape tensor.Shape) *tensor.RawTensor {
	rt := tensor.MustRaw(shape, tensor.Float32, tensor.CPU)
	d := rt.AsFloat32()
	for i := range d {
		d[i] = 1
	}
	return rt
}

func TestAddBackward(t *testing.T) {
	b := Wrap(cpu.New())
	a := raw(t, []float32{1, 2, 3}, tensor.Shape{3})
	c := raw(t, []float32{4, 5, 6}, tensor.Shape{3})

	out := b.Add(a, c)
	grads := b.Tape().Backward(out, ones(out.Shape()))

	assert.Equal(t, []float32{1, 1, 1}, grads[a].AsFloat32())
	assert.Equal(t, []float32{1, 1, 1}, grads[c].AsFloat32())
}

func TestBroadcastAddFoldsBiasGradient(t *testing.T) {
	b := Wrap(cpu.New())
	x := raw(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	bias := raw(t, []float32{10, 20, 30}, tensor.Shape{1, 3})

	out := b.Add(x, bias)
	grads := b.Tape().Backward(out, ones(out.Shape()))

	require.Contains(t, grads, bias)
	assert.Equal(t, tensor.Shape{1, 3}, grads[bias].Shape())
	// Each bias element fed both batch rows.
	assert.Equal(t, []float32{2, 2, 2}, grads[bias].AsFloat32())
}

func TestMulBackward(t *testing.T) {
	b := Wrap(cpu.New())
	x := raw(t, []float32{2, 3}, tensor.Shape{2})
	y := raw(t, []float32{5, 7}, tensor.Shape{2})

	out := b.Mul(x, y)
	grads := b.Tape().Backward(out, ones(out.Shape()))

	assert.Equal(t, []float32{5, 7}, grads[x].AsFloat32())
	assert.Equal(t, []float32{2, 3}, grads[y].AsFloat32())
}

func TestMatMulBackward(t *testing.T) {
	b := Wrap(cpu.New())
	x := raw(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	w := raw(t, []float32{5, 6, 7, 8}, tensor.Shape{2, 2})

	out := b.MatMul(x, w)
	grads := b.Tape().Backward(out, ones(out.Shape()))

	// d(sum)/dx = ones @ w^T, d(sum)/dw = x^T @ ones.
	assert.Equal(t, []float32{11, 15, 11, 15}, grads[x].AsFloat32())
	assert.Equal(t, []float32{4, 4, 6, 6}, grads[w].AsFloat32())
}

func TestGradientAccumulationAcrossConsumers(t *testing.T) {
	b := Wrap(cpu.New())
	x := raw(t, []float32{1, 2}, tensor.Shape{2})

	// y = x + x, so dy/dx accumulates from both uses.
	out := b.Add(x, x)
	grads := b.Tape().Backward(out, ones(out.Shape()))

	assert.Equal(t, []float32{2, 2}, grads[x].AsFloat32())
}

func TestReLUBackwardMasksNegative(t *testing.T) {
	b := Wrap(cpu.New())
	x := raw(t, []float32{-1, 2, -3, 4}, tensor.Shape{4})

	out := b.ReLU(x)
	og := raw(t, []float32{10, 20, 30, 40}, tensor.Shape{4})
	grads := b.Tape().Backward(out, og)

	assert.Equal(t, []float32{0, 20, 0, 40}, grads[x].AsFloat32())
}

func TestMaxPoolBackwardThroughTape(t *testing.T) {
	b := Wrap(cpu.New())
	x := raw(t, []float32{
		1, 2,
		3, 4,
	}, tensor.Shape{1, 1, 2, 2})

	out := b.MaxPool2D(x, 2, 2)
	grads := b.Tape().Backward(out, ones(out.Shape()))

	assert.Equal(t, []float32{0, 0, 0, 1}, grads[x].AsFloat32())
}

func TestReshapeBackwardRestoresShape(t *testing.T) {
	b := Wrap(cpu.New())
	x := raw(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	out := b.Reshape(x, tensor.Shape{6})
	grads := b.Tape().Backward(out, ones(out.Shape()))

	assert.Equal(t, tensor.Shape{2, 3}, grads[x].Shape())
}

func TestNLLLossBackward(t *testing.T) {
	b := Wrap(cpu.New())
	logProbs := raw(t, []float32{
		-0.5, -1.5,
		-2.0, -0.1,
	}, tensor.Shape{2, 2})
	targets := rawInt(t, []int32{0, 1}, tensor.Shape{2})

	loss := b.NLLLoss(logProbs, targets)
	grads := b.Tape().Backward(loss, ones(tensor.Shape{1}))

	// -1/N at each target index.
	assert.Equal(t, []float32{-0.5, 0, 0, -0.5}, grads[logProbs].AsFloat32())
}

// Numeric gradient check through a full classification head:
// loss = nll(log_softmax(x @ w + bias), targets).
func TestClassifierHeadGradientsNumerically(t *testing.T) {
	inner := cpu.New()
	x := raw(t, []float32{
		0.5, -0.2, 1.0,
		-1.5, 0.3, 0.8,
	}, tensor.Shape{2, 3})
	w := raw(t, []float32{
		0.1, -0.3,
		0.2, 0.4,
		-0.5, 0.6,
	}, tensor.Shape{3, 2})
	bias := raw(t, []float32{0.05, -0.05}, tensor.Shape{1, 2})
	targets := rawInt(t, []int32{1, 0}, tensor.Shape{2})

	forward := func(b tensor.Backend) *tensor.RawTensor {
		logits := b.Add(b.MatMul(x, w), bias)
		return b.NLLLoss(b.LogSoftmax(logits), targets)
	}

	b := Wrap(inner)
	loss := forward(b)
	grads := b.Tape().Backward(loss, ones(tensor.Shape{1}))

	const eps = 1e-2
	check := func(name string, param *tensor.RawTensor) {
		grad := grads[param]
		require.NotNil(t, grad, name)
		for i := range param.AsFloat32() {
			orig := param.AsFloat32()[i]
			param.AsFloat32()[i] = orig + eps
			up := forward(inner).AsFloat32()[0]
			param.AsFloat32()[i] = orig - eps
			down := forward(inner).AsFloat32()[0]
			param.AsFloat32()[i] = orig

			numeric := (up - down) / (2 * eps)
			assert.InDelta(t, numeric, grad.AsFloat32()[i], 1e-3, "%s[%d]", name, i)
		}
	}
	check("w", w)
	check("bias", bias)
	check("x", x)
}

// Numeric gradient check through a convolution feeding a classification
// head. The chain avoids relu and pooling kinks so central differences
// stay accurate.
func TestConvGradientsNumerically(t *testing.T) {
	inner := cpu.New()
	x := raw(t, []float32{
		0.5, -1.0, 2.0, 0.3,
		1.5, 0.25, -0.75, -0.6,
		3.0, -2.0, 1.0, 0.9,
		-0.4, 0.7, -1.2, 0.1,
	}, tensor.Shape{1, 1, 4, 4})
	kernel := raw(t, []float32{
		0.1, -0.2,
		0.3, 0.4,
	}, tensor.Shape{1, 1, 2, 2})
	targets := rawInt(t, []int32{1}, tensor.Shape{1})

	forward := func(b tensor.Backend) *tensor.RawTensor {
		conv := b.Conv2D(x, kernel, 1, 1)
		flat := b.Reshape(conv, tensor.Shape{1, conv.NumElements()})
		return b.NLLLoss(b.LogSoftmax(flat), targets)
	}

	b := Wrap(inner)
	loss := forward(b)
	grads := b.Tape().Backward(loss, ones(tensor.Shape{1}))

	grad := grads[kernel]
	require.NotNil(t, grad)

	const eps = 1e-2
	for i := range kernel.AsFloat32() {
		orig := kernel.AsFloat32()[i]
		kernel.AsFloat32()[i] = orig + eps
		up := forward(inner).AsFloat32()[0]
		kernel.AsFloat32()[i] = orig - eps
		down := forward(inner).AsFloat32()[0]
		kernel.AsFloat32()[i] = orig

		numeric := (up - down) / (2 * eps)
		assert.InDelta(t, numeric, grad.AsFloat32()[i], 1e-3, "kernel[%d]", i)
	}
}

func TestStopRecording(t *testing.T) {
	b := Wrap(cpu.New())
	x := raw(t, []float32{1, 2}, tensor.Shape{2})

	b.Tape().StopRecording()
	b.Add(x, x)
	assert.Zero(t, b.Tape().NumOperations())

	b.Tape().StartRecording()
	b.Add(x, x)
	assert.Equal(t, 1, b.Tape().NumOperations())
}

func TestClear(t *testing.T) {
	b := Wrap(cpu.New())
	x := raw(t, []float32{1, 2}, tensor.Shape{2})

	b.Add(x, x)
	require.Equal(t, 1, b.Tape().NumOperations())

	b.Tape().Clear()
	assert.Zero(t, b.Tape().NumOperations())
}
