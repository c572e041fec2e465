package geometry

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/sbinet/npyio"
)

const (
	MinDims = 2
	MaxDims = 5
)

// Volume is an N-dimensional image array in row-major order. Samples are held
// as float32 regardless of the on-disk element type; the pipeline never writes
// a volume back, so the source dtype is not preserved.
type Volume struct {
	Shape []int
	Data  []float32
}

func NewVolume(shape []int, data []float32) (*Volume, error) {
	if len(shape) < MinDims || len(shape) > MaxDims {
		return nil, fmt.Errorf("volume must have between %d and %d dimensions, got shape %v", MinDims, MaxDims, shape)
	}
	n := 1
	for _, s := range shape {
		if s <= 0 {
			return nil, fmt.Errorf("invalid volume shape %v", shape)
		}
		n *= s
	}
	if n != len(data) {
		return nil, fmt.Errorf("shape %v implies %d samples, got %d", shape, n, len(data))
	}
	return &Volume{Shape: shape, Data: data}, nil
}

func (v *Volume) NDim() int {
	return len(v.Shape)
}

func (v *Volume) Size() int {
	n := 1
	for _, s := range v.Shape {
		n *= s
	}
	return n
}

// Squeeze returns a copy of the volume with all size-1 axes removed. The data
// slice is shared; volumes are never mutated after load.
func (v *Volume) Squeeze() *Volume {
	shape := make([]int, 0, len(v.Shape))
	for _, s := range v.Shape {
		if s > 1 {
			shape = append(shape, s)
		}
	}
	if len(shape) == 0 {
		shape = []int{1}
	}
	return &Volume{Shape: shape, Data: v.Data}
}

// LoadVolume reads a NumPy .npy file into a Volume. Unsigned, signed and
// floating element types up to 64 bits are accepted and cast to float32.
func LoadVolume(path string) (*Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image volume: %w", err)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("reading npy header from %s: %w", path, err)
	}

	shape := make([]int, len(r.Header.Descr.Shape))
	copy(shape, r.Header.Descr.Shape)

	n := 1
	for _, s := range shape {
		n *= s
	}

	data, err := readSamples(r, n)
	if err != nil {
		return nil, fmt.Errorf("reading npy data from %s: %w", path, err)
	}

	return NewVolume(shape, data)
}

// readSamples reads the array body in its native element type and casts to
// float32.
func readSamples(r *npyio.Reader, n int) ([]float32, error) {
	dtype := strings.TrimLeft(r.Header.Descr.Type, "<>|=")

	out := make([]float32, n)
	switch dtype {
	case "u1", "b1":
		raw := make([]uint8, n)
		if err := r.Read(&raw); err != nil {
			return nil, err
		}
		for i, s := range raw {
			out[i] = float32(s)
		}
	case "u2":
		raw := make([]uint16, n)
		if err := r.Read(&raw); err != nil {
			return nil, err
		}
		for i, s := range raw {
			out[i] = float32(s)
		}
	case "u4":
		raw := make([]uint32, n)
		if err := r.Read(&raw); err != nil {
			return nil, err
		}
		for i, s := range raw {
			out[i] = float32(s)
		}
	case "i2":
		raw := make([]int16, n)
		if err := r.Read(&raw); err != nil {
			return nil, err
		}
		for i, s := range raw {
			out[i] = float32(s)
		}
	case "i4":
		raw := make([]int32, n)
		if err := r.Read(&raw); err != nil {
			return nil, err
		}
		for i, s := range raw {
			out[i] = float32(s)
		}
	case "f4":
		if err := r.Read(&out); err != nil {
			return nil, err
		}
	case "f8":
		raw := make([]float64, n)
		if err := r.Read(&raw); err != nil {
			return nil, err
		}
		for i, s := range raw {
			out[i] = float32(s)
		}
	default:
		return nil, fmt.Errorf("unsupported npy element type %q", r.Header.Descr.Type)
	}
	return out, nil
}

// SaveVolume writes a volume as a little-endian float32 .npy file. npyio only
// writes 1-D slices and 2-D matrices, so the shaped header is emitted here.
func SaveVolume(path string, v *Volume) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := writeNpyHeader(w, "<f4", v.Shape); err != nil {
		return err
	}
	buf := make([]byte, 4)
	for _, s := range v.Data {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(s))
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return w.Flush()
}

func writeNpyHeader(w *bufio.Writer, descr string, shape []int) error {
	dims := make([]string, len(shape))
	for i, s := range shape {
		dims[i] = fmt.Sprintf("%d", s)
	}
	tuple := strings.Join(dims, ", ")
	if len(shape) == 1 {
		tuple += ","
	}
	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': (%s), }", descr, tuple)

	// Pad so that the full preamble is a multiple of 64 bytes, per the npy
	// format version 1.0.
	preamble := 10
	pad := 64 - (preamble+len(header)+1)%64
	if pad == 64 {
		pad = 0
	}
	header += strings.Repeat(" ", pad) + "\n"

	if _, err := w.Write([]byte("\x93NUMPY")); err != nil {
		return err
	}
	if _, err := w.Write([]byte{1, 0}); err != nil {
		return err
	}
	var hlen [2]byte
	binary.LittleEndian.PutUint16(hlen[:], uint16(len(header)))
	if _, err := w.Write(hlen[:]); err != nil {
		return err
	}
	_, err := w.Write([]byte(header))
	return err
}
