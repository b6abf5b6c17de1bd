package dataset

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/tessera-ml/tessera/internal/tensor"
)

// SaveGrid writes a batch [N,3,S,S] as a PNG montage with the given
// column count, undoing the normalization so pixels render in their
// original colors. Useful for eyeballing what the loader feeds the model.
func SaveGrid(path string, batch *tensor.RawTensor, cols int, mean, std float32) error {
	shape := batch.Shape()
	if len(shape) != 4 || shape[1] != 3 {
		return fmt.Errorf("grid: batch must be [N,3,S,S], got %v", shape)
	}
	if cols <= 0 {
		return fmt.Errorf("grid: column count must be positive, got %d", cols)
	}
	n, size := shape[0], shape[2]
	rows := (n + cols - 1) / cols
	plane := size * size

	canvas := image.NewRGBA(image.Rect(0, 0, cols*size, rows*size))
	data := batch.AsFloat32()

	for i := 0; i < n; i++ {
		offsetX := (i % cols) * size
		offsetY := (i / cols) * size
		img := data[i*3*plane:]

		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				p := y*size + x
				canvas.Set(offsetX+x, offsetY+y, color.RGBA{
					R: denormalize(img[p], mean, std),
					G: denormalize(img[plane+p], mean, std),
					B: denormalize(img[2*plane+p], mean, std),
					A: 0xff,
				})
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create grid file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, canvas); err != nil {
		return fmt.Errorf("encode grid: %w", err)
	}
	return nil
}

// denormalize inverts (v - mean)/std and clamps to a byte.
func denormalize(v, mean, std float32) uint8 {
	scaled := (v*std + mean) * 255
	if scaled < 0 {
		return 0
	}
	if scaled > 255 {
		return 255
	}
	return uint8(scaled)
}
