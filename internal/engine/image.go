package engine

import (
	"errors"
	"fmt"
)

const (
	FallbackImageSide = 256
	FallbackImageGray = 80
)

var ErrInvalidImage = errors.New("invalid image")

// NativeImage is a decoded, read-only pixel buffer. Pix is row-major with
// Channels bytes per pixel; the first three channels are R, G, B.
type NativeImage struct {
	Width    int
	Height   int
	Channels int
	Pix      []byte
}

func (img *NativeImage) Validate() error {
	if img == nil {
		return fmt.Errorf("%w: nil", ErrInvalidImage)
	}
	if img.Width <= 0 || img.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidImage, img.Width, img.Height)
	}
	if img.Channels < 3 {
		return fmt.Errorf("%w: %d channels", ErrInvalidImage, img.Channels)
	}
	if len(img.Pix) < img.Width*img.Height*img.Channels {
		return fmt.Errorf("%w: short buffer (%d bytes)", ErrInvalidImage, len(img.Pix))
	}
	return nil
}

// RGBAt returns the color at (x, y), clamping coordinates into the image.
func (img *NativeImage) RGBAt(x, y int) (r, g, b byte) {
	x = min(max(x, 0), img.Width-1)
	y = min(max(y, 0), img.Height-1)
	i := (y*img.Width + x) * img.Channels
	return img.Pix[i], img.Pix[i+1], img.Pix[i+2]
}

// UniformImage builds a w×h RGB image with every byte set to v.
func UniformImage(w, h int, v byte) *NativeImage {
	pix := make([]byte, w*h*3)
	for i := range pix {
		pix[i] = v
	}
	return &NativeImage{Width: w, Height: h, Channels: 3, Pix: pix}
}

// FallbackImage stands in for an image that could not be decoded.
func FallbackImage() *NativeImage {
	return UniformImage(FallbackImageSide, FallbackImageSide, FallbackImageGray)
}
