package actuator

// NoopOutput implements Output but does nothing.
// Used when no driver pins are configured.
type NoopOutput struct{}

// Set implements Output.Set.
func (NoopOutput) Set(on bool) error {
	return nil
}

// NewNoopDriver returns a Driver whose outputs do nothing.
func NewNoopDriver() *Driver {
	return &Driver{IN1: NoopOutput{}, IN2: NoopOutput{}}
}
