package tensor

// Backend defines the operations a compute backend must provide.
//
// The op set is the closure of what the layer library and its pullbacks
// need: forward kernels paired with the backward kernels that implement
// their vector-Jacobian products.
type Backend interface {
	// Name returns a human-readable backend identifier.
	Name() string

	// Device returns the device this backend computes on.
	Device() Device

	// Element-wise binary operations with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor

	// MatMul performs 2D matrix multiplication: [m, k] @ [k, n] -> [m, n].
	MatMul(a, b *RawTensor) *RawTensor

	// Conv2D performs a 2D convolution over NCHW input with an
	// [outChannels, inChannels, kH, kW] kernel.
	Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor

	// Conv2DInputBackward computes the convolution gradient w.r.t. input
	// (transposed convolution of the output gradient with the kernel).
	Conv2DInputBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor

	// Conv2DKernelBackward computes the convolution gradient w.r.t. kernel.
	Conv2DKernelBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor

	// MaxPool2D performs 2D max pooling over NCHW input.
	MaxPool2D(input *RawTensor, kernelSize, stride int) *RawTensor

	// MaxPool2DWithIndices additionally returns, per output element, the
	// flat index into the input of the selected maximum. The indices feed
	// the backward pass.
	MaxPool2DWithIndices(input *RawTensor, kernelSize, stride int) (*RawTensor, []int)

	// MaxPool2DBackward scatters the output gradient back to the argmax
	// positions recorded by the forward pass.
	MaxPool2DBackward(input, grad *RawTensor, maxIndices []int, kernelSize, stride int) *RawTensor

	// ReLU applies max(x, 0) element-wise.
	ReLU(x *RawTensor) *RawTensor

	// ReLUBackward masks the output gradient by the sign of the forward input.
	ReLUBackward(x, grad *RawTensor) *RawTensor

	// Shape operations.
	Reshape(x *RawTensor, shape Shape) *RawTensor
	Transpose(x *RawTensor, axes ...int) *RawTensor

	// Scalar operations.
	AddScalar(x *RawTensor, scalar any) *RawTensor
	MulScalar(x *RawTensor, scalar any) *RawTensor

	// Reductions.
	Sum(x *RawTensor) *RawTensor
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor

	// CopyTo returns a device-local deep copy of the tensor. Copying a
	// tensor to the device it already resides on must return an equivalent
	// tensor (idempotence).
	CopyTo(x *RawTensor, device Device) *RawTensor
}
