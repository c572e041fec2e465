package geometry

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"golang.org/x/image/tiff"
)

// Mask is a segmentation label image. Labels are cell ids starting at 1,
// background is 0.
type Mask struct {
	H, W   int
	Labels []int32
}

func NewMask(h, w int, labels []int32) (*Mask, error) {
	if h <= 0 || w <= 0 || h*w != len(labels) {
		return nil, fmt.Errorf("mask shape %dx%d does not fit %d labels", h, w, len(labels))
	}
	return &Mask{H: h, W: w, Labels: labels}, nil
}

// NumCells returns the highest cell id in the mask.
func (m *Mask) NumCells() int {
	var max int32
	for _, l := range m.Labels {
		if l > max {
			max = l
		}
	}
	return int(max)
}

// EncodeTIFF writes the mask as a 16-bit grayscale TIFF, the interchange
// format the annotation tooling expects. Labels above 65535 are clamped.
func (m *Mask) EncodeTIFF(w io.Writer) error {
	img := image.NewGray16(image.Rect(0, 0, m.W, m.H))
	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			l := m.Labels[y*m.W+x]
			if l < 0 {
				l = 0
			}
			if l > 0xffff {
				l = 0xffff
			}
			img.SetGray16(x, y, color.Gray16{Y: uint16(l)})
		}
	}
	return tiff.Encode(w, img, nil)
}
