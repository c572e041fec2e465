package geometry

import (
	"errors"
	"fmt"
)

var (
	ErrNoChannelAxis      = errors.New("cannot locate channel axis")
	ErrChannelOutOfBounds = errors.New("channel index out of bounds")
	ErrShapeMismatch      = errors.New("channel planes differ in shape")
)

// Plane is a single 2-D channel plane extracted from a volume.
type Plane struct {
	H, W int
	Pix  []float32
}

func (p *Plane) SameShape(o *Plane) bool {
	return p.H == o.H && p.W == o.W
}

// ResolveChannelAxis returns the first axis whose size strictly exceeds
// requiredMaxIndex, scanning in axis order. The heuristic assumes channel
// counts are large relative to Z-depth or tile counts; when a spatial axis is
// also larger than the requested index, the earliest axis still wins.
func ResolveChannelAxis(shape []int, requiredMaxIndex int) (int, error) {
	for ax, size := range shape {
		if size > requiredMaxIndex {
			return ax, nil
		}
	}
	return 0, fmt.Errorf("%w: no axis in shape %v can hold channel index %d", ErrNoChannelAxis, shape, requiredMaxIndex)
}

// ExtractPlane slices one channel out of an N-dimensional volume as a 2-D
// plane. The channel axis is fixed to channelIndex; every other axis except
// the trailing two (taken as Y, X) is fixed to its first entry, so extra
// Z-slices or timepoints are truncated rather than projected.
//
// A 2-D volume is returned whole: there is no channel dimension to slice and
// the caller uses the same plane for every requested channel.
func ExtractPlane(v *Volume, channelAxis, channelIndex int) (*Plane, error) {
	nd := v.NDim()
	if nd == 2 {
		pix := make([]float32, len(v.Data))
		copy(pix, v.Data)
		return &Plane{H: v.Shape[0], W: v.Shape[1], Pix: pix}, nil
	}

	if channelAxis < 0 || channelAxis >= nd {
		return nil, fmt.Errorf("channel axis %d out of range for %d-dimensional volume", channelAxis, nd)
	}
	if channelIndex < 0 || channelIndex >= v.Shape[channelAxis] {
		return nil, fmt.Errorf("%w: index %d, axis %d has size %d", ErrChannelOutOfBounds, channelIndex, channelAxis, v.Shape[channelAxis])
	}

	// Per-axis selector: fixed index, or -1 to keep the axis.
	sel := make([]int, nd)
	for ax := range sel {
		sel[ax] = -1
	}
	sel[channelAxis] = channelIndex
	for ax := 0; ax < nd-2; ax++ {
		if ax == channelAxis {
			continue
		}
		if v.Shape[ax] > 1 {
			sel[ax] = 0
		}
	}

	strides := make([]int, nd)
	stride := 1
	for ax := nd - 1; ax >= 0; ax-- {
		strides[ax] = stride
		stride *= v.Shape[ax]
	}

	base := 0
	var kept []int
	for ax, idx := range sel {
		if idx >= 0 {
			base += idx * strides[ax]
		} else {
			kept = append(kept, ax)
		}
	}

	out := gather(v, base, kept, strides)

	// Squeeze size-1 axes.
	var dims []int
	for _, ax := range kept {
		if v.Shape[ax] > 1 {
			dims = append(dims, v.Shape[ax])
		}
	}

	h, w := v.Shape[nd-2], v.Shape[nd-1]
	switch {
	case len(dims) == 2:
		return &Plane{H: dims[0], W: dims[1], Pix: out}, nil
	case len(dims) > 2:
		// Last-resort normalization: collapse onto the trailing two axis
		// sizes by truncating the flattened samples. This is lossy, not a
		// projection, and only reachable with degenerate axis layouts.
		return &Plane{H: h, W: w, Pix: out[:h*w]}, nil
	default:
		return nil, fmt.Errorf("%w: selector collapsed shape %v below two dimensions", ErrNoChannelAxis, v.Shape)
	}
}

func gather(v *Volume, base int, kept []int, strides []int) []float32 {
	n := 1
	for _, ax := range kept {
		n *= v.Shape[ax]
	}
	out := make([]float32, 0, n)

	idx := make([]int, len(kept))
	for {
		off := base
		for i, ax := range kept {
			off += idx[i] * strides[ax]
		}
		out = append(out, v.Data[off])

		i := len(kept) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < v.Shape[kept[i]] {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return out
		}
	}
}
