//go:build !screen

package video

// ScreenSupported returns whether screen support is compiled in.
func ScreenSupported() bool {
	return false
}

// Config holds video display configuration.
type Config struct {
	Device string `yaml:"device"` // default "/dev/fb0"
	Font   string `yaml:"font"`   // TrueType font, built-in bitmap font if missing
}

// Display is a stub when screen support is not compiled in.
type Display struct{}

// New returns an error when screen support is not compiled in.
func New(cfg Config) (*Display, error) {
	return nil, ErrScreenNotCompiled
}

func (v *Display) Show(s Status)  {}
func (v *Display) Clear()         {}
func (v *Display) Release() error { return nil }
func (v *Display) Width() int     { return 0 }
func (v *Display) Height() int    { return 0 }
