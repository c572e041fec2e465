package geometry

import "fmt"

// Composite is the fixed three-band model input, channel-last. Band 0 is a
// zero placeholder, band 1 the nuclear channel, band 2 the membrane channel.
type Composite struct {
	H, W int
	Pix  []float32 // len == H*W*3
}

// BuildComposite assembles the model input from the two selected channel
// planes. The planes must match exactly; resizing here would corrupt the
// pixel-to-cell correspondence downstream, so a mismatch is fatal.
func BuildComposite(nuclear, membrane *Plane) (*Composite, error) {
	if !nuclear.SameShape(membrane) {
		return nil, fmt.Errorf("%w: %dx%d vs %dx%d", ErrShapeMismatch, nuclear.H, nuclear.W, membrane.H, membrane.W)
	}

	pix := make([]float32, nuclear.H*nuclear.W*3)
	for i := 0; i < nuclear.H*nuclear.W; i++ {
		pix[i*3+1] = nuclear.Pix[i]
		pix[i*3+2] = membrane.Pix[i]
	}

	return &Composite{H: nuclear.H, W: nuclear.W, Pix: pix}, nil
}
