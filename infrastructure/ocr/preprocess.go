package ocr

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// PreprocessOptions controls how a captured frame is prepared for OCR.
type PreprocessOptions struct {
	// ContrastFactor stretches luminance around the frame mean.
	// 1 leaves the image unchanged; 0 skips the step.
	ContrastFactor float64
	// Threshold binarizes at this level when non-zero.
	Threshold uint8
	// Invert flips light-on-dark text to dark-on-light.
	Invert bool
	// Scale resizes the frame; values <= 1 keep the original size.
	Scale float64
}

// DefaultPreprocessOptions returns the options used for countdown overlays.
func DefaultPreprocessOptions() PreprocessOptions {
	return PreprocessOptions{ContrastFactor: 2.0, Scale: 2.0}
}

// Preprocess converts src to an enhanced greyscale image.
func Preprocess(src image.Image, opts PreprocessOptions) *image.Gray {
	gray := Grayscale(src)

	if opts.ContrastFactor > 0 && opts.ContrastFactor != 1 {
		enhanceContrast(gray, opts.ContrastFactor)
	}
	if opts.Threshold > 0 {
		binarize(gray, opts.Threshold)
	}
	if opts.Invert {
		invert(gray)
	}
	if opts.Scale > 1 {
		gray = upscale(gray, opts.Scale)
	}
	return gray
}

// Grayscale returns a copy of src with its origin moved to (0, 0).
func Grayscale(src image.Image) *image.Gray {
	b := src.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), src, b.Min, draw.Src)
	return gray
}

// MeanLuminance returns the average grey level of img.
func MeanLuminance(img *image.Gray) float64 {
	b := img.Bounds()
	if b.Empty() {
		return 0
	}
	var sum uint64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride:]
		for x := 0; x < b.Dx(); x++ {
			sum += uint64(row[x])
		}
	}
	return float64(sum) / float64(b.Dx()*b.Dy())
}

func enhanceContrast(img *image.Gray, factor float64) {
	mean := math.Round(MeanLuminance(img))
	var lut [256]uint8
	for i := range lut {
		lut[i] = clamp(mean + factor*(float64(i)-mean))
	}
	applyLUT(img, &lut)
}

func binarize(img *image.Gray, level uint8) {
	var lut [256]uint8
	for i := range lut {
		if uint8(i) >= level {
			lut[i] = 255
		}
	}
	applyLUT(img, &lut)
}

func invert(img *image.Gray) {
	var lut [256]uint8
	for i := range lut {
		lut[i] = 255 - uint8(i)
	}
	applyLUT(img, &lut)
}

func applyLUT(img *image.Gray, lut *[256]uint8) {
	for i, v := range img.Pix {
		img.Pix[i] = lut[v]
	}
}

func upscale(img *image.Gray, scale float64) *image.Gray {
	b := img.Bounds()
	w := int(math.Round(float64(b.Dx()) * scale))
	h := int(math.Round(float64(b.Dy()) * scale))
	if w <= 0 || h <= 0 {
		return img
	}
	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func clamp(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(math.Round(v))
	}
}

// Luma returns the grey value of c, used by tests and debug output.
func Luma(c color.Color) uint8 {
	return color.GrayModel.Convert(c).(color.Gray).Y
}
