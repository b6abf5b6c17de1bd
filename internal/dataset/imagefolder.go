// Package dataset loads labeled shape images from an ImageFolder layout:
// one subdirectory per class, class index assigned by sorted directory
// name. It provides the deterministic train/test split and the batching
// loader the trainer consumes.
package dataset

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	// Decoders register themselves with image.Decode.
	_ "image/jpeg"
	_ "image/png"
)

// Sample is one labeled image, referenced by path. Pixels are decoded
// lazily by the loader so the dataset itself stays small.
type Sample struct {
	Path  string
	Label int
}

// Dataset is an ordered list of samples plus the class names, indexed by
// label.
type Dataset struct {
	Samples []Sample
	Classes []string
}

// Len returns the number of samples.
func (d *Dataset) Len() int { return len(d.Samples) }

// NumClasses returns the number of classes.
func (d *Dataset) NumClasses() int { return len(d.Classes) }

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// Load scans root for class subdirectories and collects their images.
// Classes are ordered by directory name and samples by file name, so two
// loads of the same tree produce identical datasets.
func Load(root string) (*Dataset, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read dataset root: %w", err)
	}

	var classes []string
	for _, e := range entries {
		if e.IsDir() {
			classes = append(classes, e.Name())
		}
	}
	if len(classes) == 0 {
		return nil, fmt.Errorf("no class directories under %s", root)
	}
	sort.Strings(classes)

	d := &Dataset{Classes: classes}
	for label, class := range classes {
		dir := filepath.Join(root, class)
		files, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("read class %s: %w", class, err)
		}
		names := make([]string, 0, len(files))
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			if imageExtensions[strings.ToLower(filepath.Ext(f.Name()))] {
				names = append(names, f.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			d.Samples = append(d.Samples, Sample{Path: filepath.Join(dir, name), Label: label})
		}
	}
	if len(d.Samples) == 0 {
		return nil, fmt.Errorf("no images under %s", root)
	}
	return d, nil
}

// DecodeImage opens and decodes one image file.
func DecodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}
