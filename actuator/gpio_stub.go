//go:build !linux

package actuator

func newLineDriver(chip string, in1, in2 int) (*Driver, error) {
	return nil, ErrDriverNotSupported
}

func newMemDriver(in1, in2 int) (*Driver, error) {
	return nil, ErrDriverNotSupported
}
