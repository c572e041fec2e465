package core

import (
	"context"
	"errors"

	"cellseg-pipeline/internal/geometry"
)

// ErrCollaborator marks a failure inside or in transit to one of the external
// model services. The orchestrator records the wrapped message verbatim.
var ErrCollaborator = errors.New("inference service call failed")

// Segmenter produces a cell mask for a composite image. The mask has the same
// height and width as the input, with integer cell-id labels and background 0.
type Segmenter interface {
	Segment(ctx context.Context, img *geometry.Composite, useWSI bool) (*geometry.Mask, error)
}

// Annotator classifies every cell in a mask. The returned labels are ordered
// by ascending cell id starting at 1.
type Annotator interface {
	Annotate(ctx context.Context, img *geometry.Volume, mask *geometry.Mask, markers []string, mpp float64) ([]string, error)
}
