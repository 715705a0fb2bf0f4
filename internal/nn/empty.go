package nn

// EmptyTangent is the tangent of parameter-free layers (activations,
// pooling, reshapes). Its vector space has a single point, so every
// operation returns the same empty value and broadcasts are no-ops.
type EmptyTangent struct{}

// Add returns the empty tangent.
func (EmptyTangent) Add(EmptyTangent) EmptyTangent { return EmptyTangent{} }

// Sub returns the empty tangent.
func (EmptyTangent) Sub(EmptyTangent) EmptyTangent { return EmptyTangent{} }

// Scale returns the empty tangent.
func (EmptyTangent) Scale(Scalar) EmptyTangent { return EmptyTangent{} }

// AddScalar returns the empty tangent; there are no coordinates to
// broadcast into.
func (EmptyTangent) AddScalar(Scalar) EmptyTangent { return EmptyTangent{} }
