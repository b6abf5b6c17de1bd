package tensor

// Backend is the interface compute backends implement. The CPU backend
// provides the kernels; the autodiff backend wraps any Backend and records
// operations on a gradient tape.
//
// Kernels panic on shape violations: a bad shape reaching a kernel is a
// programming error, not a runtime condition to recover from.
type Backend interface {
	// Element-wise arithmetic with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// MulScalar multiplies every element by a scalar.
	MulScalar(x *RawTensor, s float32) *RawTensor

	// MatMul performs 2D matrix multiplication: [M,K] @ [K,N] -> [M,N].
	MatMul(a, b *RawTensor) *RawTensor

	// Conv2D convolves input [N,C_in,H,W] with kernel
	// [C_out,C_in,K_h,K_w] producing [N,C_out,H_out,W_out].
	Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor

	// Conv2DInputBackward and Conv2DKernelBackward compute the two
	// gradients of Conv2D given the output gradient.
	Conv2DInputBackward(input, kernel, outputGrad *RawTensor, stride, padding int) *RawTensor
	Conv2DKernelBackward(input, kernel, outputGrad *RawTensor, stride, padding int) *RawTensor

	// MaxPool2D pools input [N,C,H,W] with a square window.
	MaxPool2D(input *RawTensor, kernelSize, stride int) *RawTensor

	// MaxPoolIndices returns the flat input index of the window maximum
	// for every output position, in output order.
	MaxPoolIndices(input *RawTensor, kernelSize, stride int) []int

	// MaxPool2DBackward routes the output gradient to the argmax
	// positions recorded during the forward pass.
	MaxPool2DBackward(input, outputGrad *RawTensor, maxIndices []int) *RawTensor

	// ReLU applies max(0, x) element-wise.
	ReLU(x *RawTensor) *RawTensor

	// LogSoftmax computes row-wise log-probabilities for a 2D tensor
	// [batch, classes] using the log-sum-exp trick.
	LogSoftmax(x *RawTensor) *RawTensor

	// NLLLoss computes the mean negative log-likelihood of int32 targets
	// [batch] under log-probabilities [batch, classes]. Scalar result.
	NLLLoss(logProbs, targets *RawTensor) *RawTensor

	// Shape operations.
	Reshape(t *RawTensor, shape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Reductions.
	Sum(x *RawTensor) *RawTensor
	SumDim(x *RawTensor, dim int) *RawTensor
	Argmax(x *RawTensor, dim int) *RawTensor

	// Metadata.
	Name() string
	Device() Device
}
