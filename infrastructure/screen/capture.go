// Package screen captures desktop regions for recognition.
package screen

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // decode jpeg screenshots
	"image/png"
	"os"

	"github.com/kbinani/screenshot"
)

// Capturer grabs a screen region as an image.
type Capturer interface {
	// Capture returns the pixels inside rect, in virtual screen coordinates.
	Capture(ctx context.Context, rect image.Rectangle) (image.Image, error)

	// Bounds returns the virtual screen rectangle, or an empty rectangle
	// when it is unknown.
	Bounds() image.Rectangle
}

// DesktopCapturer captures from the live desktop.
type DesktopCapturer struct{}

// NewDesktopCapturer creates a capturer for the active displays.
func NewDesktopCapturer() *DesktopCapturer {
	return &DesktopCapturer{}
}

// Capture grabs rect from the desktop.
func (c *DesktopCapturer) Capture(ctx context.Context, rect image.Rectangle) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if rect.Empty() {
		return nil, fmt.Errorf("empty capture region %v", rect)
	}
	img, err := screenshot.CaptureRect(rect)
	if err != nil {
		return nil, fmt.Errorf("failed to capture %v: %w", rect, err)
	}
	return img, nil
}

// Bounds returns the union of all active display bounds.
func (c *DesktopCapturer) Bounds() image.Rectangle {
	return VirtualBounds()
}

// VirtualBounds returns the union of all active display bounds.
func VirtualBounds() image.Rectangle {
	var all image.Rectangle
	for i := 0; i < screenshot.NumActiveDisplays(); i++ {
		all = all.Union(screenshot.GetDisplayBounds(i))
	}
	return all
}

var _ Capturer = (*DesktopCapturer)(nil)

// ImageCapturer serves regions from a stored screenshot, for offline
// recognition checks.
type ImageCapturer struct {
	img image.Image
}

// NewImageCapturer wraps a full-screen image.
func NewImageCapturer(img image.Image) *ImageCapturer {
	return &ImageCapturer{img: img}
}

// LoadImageCapturer decodes a PNG or JPEG screenshot from path.
func LoadImageCapturer(path string) (*ImageCapturer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open screenshot: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot %s: %w", path, err)
	}
	return NewImageCapturer(img), nil
}

// Capture crops rect out of the stored image.
func (c *ImageCapturer) Capture(ctx context.Context, rect image.Rectangle) (image.Image, error) {
	if !rect.In(c.img.Bounds()) {
		return nil, fmt.Errorf("region %v outside screenshot %v", rect, c.img.Bounds())
	}
	return Crop(c.img, rect)
}

// Bounds returns the stored image bounds.
func (c *ImageCapturer) Bounds() image.Rectangle {
	return c.img.Bounds()
}

var _ Capturer = (*ImageCapturer)(nil)

// Crop returns the part of img inside rect.
func Crop(img image.Image, rect image.Rectangle) (image.Image, error) {
	subImager, ok := img.(interface {
		SubImage(r image.Rectangle) image.Image
	})
	if !ok {
		return nil, fmt.Errorf("image does not support SubImage")
	}
	return subImager.SubImage(rect), nil
}

// EncodePNG writes img to path as PNG.
func EncodePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return f.Close()
}
