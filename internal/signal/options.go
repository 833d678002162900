package signal

// RegisterOptions configures a single call to Registry.Register, following
// the teacher's fluent-builder Options pattern
// (serial.NewOptions().SetReadTimeout(...)).
type RegisterOptions struct {
	activeLow bool
}

// NewRegisterOptions returns the default registration options: active-high
// polarity.
func NewRegisterOptions() *RegisterOptions {
	return &RegisterOptions{}
}

// WithActiveLow marks the signal as active-low: the Registry still stores
// and reports the logical asserted/deasserted level, but transport
// adapters (internal/digitalio) consult this flag to invert the
// electrical level they read or drive.
func (o *RegisterOptions) WithActiveLow(activeLow bool) *RegisterOptions {
	o.activeLow = activeLow
	return o
}

// RegistryOptions configures a Registry at construction time.
type RegistryOptions struct {
	initialCapacity int
}

// NewRegistryOptions returns default registry construction options.
func NewRegistryOptions() *RegistryOptions {
	return &RegistryOptions{initialCapacity: 32}
}

// WithInitialCapacity pre-sizes the internal signal map.
func (o *RegistryOptions) WithInitialCapacity(n int) *RegistryOptions {
	o.initialCapacity = n
	return o
}
