//go:build screen

package video

import (
	"encoding/binary"
	"fmt"
	"image"
	"log"
	"os"
	"sync"

	"github.com/d21d3q/framebuffer"
	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// ScreenSupported returns whether screen support is compiled in.
func ScreenSupported() bool {
	return true
}

// Config holds video display configuration.
type Config struct {
	Device string `yaml:"device"` // default "/dev/fb0"
	Font   string `yaml:"font"`   // TrueType font, built-in bitmap font if missing
}

// Display draws cabinet status screens on a RGB565 framebuffer.
type Display struct {
	mu              sync.Mutex
	dc              *gg.Context
	pixBuffer       []byte
	backBuffer      []byte
	rgbaImage       *image.RGBA
	width           int
	height          int
	lineLengthBytes int
	fontPath        string
	initialized     bool
}

// New opens the framebuffer.
func New(cfg Config) (*Display, error) {
	if cfg.Device == "" {
		cfg.Device = "/dev/fb0"
	}
	if cfg.Font == "" {
		cfg.Font = "/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf"
	}

	v := &Display{fontPath: cfg.Font}
	if err := v.init(cfg.Device); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Display) init(device string) error {
	fbLowLevel, err := framebuffer.OpenFrameBuffer(device, os.O_RDWR)
	if err != nil {
		return fmt.Errorf("open framebuffer: %w", err)
	}

	varInfo, err := fbLowLevel.VarScreenInfo()
	if err != nil {
		return fmt.Errorf("get variable screen info: %w", err)
	}
	fixedInfo, err := fbLowLevel.FixScreenInfo()
	if err != nil {
		return fmt.Errorf("get fixed screen info: %w", err)
	}

	v.pixBuffer, err = fbLowLevel.Pixels()
	if err != nil {
		return fmt.Errorf("get pixel data: %w", err)
	}

	v.width = int(varInfo.XRes)
	v.height = int(varInfo.YRes)
	v.lineLengthBytes = int(fixedInfo.LineLength)
	v.backBuffer = make([]byte, v.height*v.lineLengthBytes)

	log.Printf("Video: framebuffer %dx%d, %d bpp, stride %d bytes",
		v.width, v.height, varInfo.BitsPerPixel, v.lineLengthBytes)

	v.rgbaImage = image.NewRGBA(image.Rect(0, 0, v.width, v.height))
	v.dc = gg.NewContextForRGBA(v.rgbaImage)
	v.initialized = true

	v.clear()
	return nil
}

func (v *Display) clear() {
	for i := range v.pixBuffer {
		v.pixBuffer[i] = 0
	}
}

func (v *Display) update() {
	for y := 0; y < v.height; y++ {
		for x := 0; x < v.width; x++ {
			r, g, b, _ := v.rgbaImage.At(x, y).RGBA()
			r5 := uint16(r >> (16 - 5))
			g6 := uint16(g >> (16 - 6))
			b5 := uint16(b >> (16 - 5))
			pixel16 := (r5 << 11) | (g6 << 5) | b5
			fbIdx := (y * v.lineLengthBytes) + (x * 2)
			if fbIdx+1 < len(v.backBuffer) {
				binary.LittleEndian.PutUint16(v.backBuffer[fbIdx:], pixel16)
			}
		}
	}
	copy(v.pixBuffer, v.backBuffer)
}

func (v *Display) setFontSize(size int) {
	if err := v.dc.LoadFontFace(v.fontPath, float64(size)); err != nil {
		log.Printf("Video: failed to load font: %v", err)
		v.dc.SetFontFace(basicfont.Face7x13)
	}
}

// Show draws s over the whole screen.
func (v *Display) Show(s Status) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.initialized {
		return
	}

	bg, fg := s.Background, s.Foreground
	v.dc.SetRGB(bg[0], bg[1], bg[2])
	v.dc.DrawRectangle(0, 0, float64(v.width), float64(v.height))
	v.dc.Fill()

	y := float64(v.height / 2)
	if s.Detail != "" {
		y -= 30
	}

	v.dc.SetRGB(fg[0], fg[1], fg[2])
	v.setFontSize(64)
	v.dc.DrawStringAnchored(s.Title, float64(v.width/2), y, 0.5, 0.5)

	if s.Detail != "" {
		v.setFontSize(32)
		v.dc.DrawStringWrapped(s.Detail, float64(v.width/2), y+70, 0.5, 0, float64(v.width)*0.9, 1.2, gg.AlignCenter)
	}
	v.update()
}

// Clear blanks the screen.
func (v *Display) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.initialized {
		return
	}
	v.clear()
}

// Release blanks the screen and stops drawing.
func (v *Display) Release() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.clear()
	v.initialized = false
	return nil
}

// Width returns the display width.
func (v *Display) Width() int {
	return v.width
}

// Height returns the display height.
func (v *Display) Height() int {
	return v.height
}
