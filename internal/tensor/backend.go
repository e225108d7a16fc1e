package tensor

// Backend defines the compute interface the training loop depends on.
//
// Two implementations exist:
//   - internal/backend/cpu: plain float32 arithmetic
//   - internal/autodiff: a decorator that forwards to an inner backend and
//     records every operation on a gradient tape
//
// The op set is exactly what the SRGAN losses and the plug-in modules need;
// architectures with richer needs bring their own backend that embeds this
// interface.
type Backend interface {
	// Element-wise binary operations with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Scalar operations.
	AddScalar(x *RawTensor, scalar float32) *RawTensor
	MulScalar(x *RawTensor, scalar float32) *RawTensor

	// Matrix operations. 2D only: (M, K) @ (K, N) -> (M, N).
	MatMul(a, b *RawTensor) *RawTensor

	// Shape operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Activations. LeakyReLU is the SRGAN discriminator's nonlinearity,
	// Tanh the generator's output squashing.
	Sigmoid(x *RawTensor) *RawTensor
	ReLU(x *RawTensor) *RawTensor
	LeakyReLU(x *RawTensor, slope float32) *RawTensor
	Tanh(x *RawTensor) *RawTensor

	// Reductions to a scalar-shaped [1] tensor.
	Sum(x *RawTensor) *RawTensor
	Mean(x *RawTensor) *RawTensor

	// Metadata.
	Name() string
	Device() Device
}
