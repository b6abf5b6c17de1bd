package dataset

import (
	"image"
)

// Transform converts a decoded image into normalized CHW float32 pixels:
// resize to Size x Size, scale channel values to [0,1], then apply
// (v - Mean) / Std per channel. With Mean = Std = 0.5 the output range is
// [-1, 1].
type Transform struct {
	Size int
	Mean float32
	Std  float32
}

// DefaultTransform matches the training pipeline: 128x128, mean and std
// of 0.5 on every channel.
func DefaultTransform() *Transform {
	return &Transform{Size: 128, Mean: 0.5, Std: 0.5}
}

// NumValues returns the element count of one transformed image.
func (t *Transform) NumValues() int {
	return 3 * t.Size * t.Size
}

// Apply writes the transformed image into dst, which must hold NumValues
// elements laid out as [3, Size, Size]. Resizing uses nearest-neighbor
// sampling.
func (t *Transform) Apply(img image.Image, dst []float32) {
	bounds := img.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()
	plane := t.Size * t.Size

	for y := 0; y < t.Size; y++ {
		srcY := bounds.Min.Y + y*srcH/t.Size
		for x := 0; x < t.Size; x++ {
			srcX := bounds.Min.X + x*srcW/t.Size
			r, g, b, _ := img.At(srcX, srcY).RGBA()

			i := y*t.Size + x
			dst[i] = t.normalize(r)
			dst[plane+i] = t.normalize(g)
			dst[2*plane+i] = t.normalize(b)
		}
	}
}

// normalize maps a 16-bit color channel to [0,1] and standardizes it.
func (t *Transform) normalize(v uint32) float32 {
	return (float32(v)/0xffff - t.Mean) / t.Std
}
