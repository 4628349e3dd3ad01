package genome

import "fmt"

// Margin is the number of bases taken on each side of the variant position
// when building an alignment window. The UCSC service accepts sequences well
// above 2*Margin, but 40,000 bases keeps requests modest.
const Margin = 20000

// Window is a contiguous chunk of a reference sequence around a variant
// position, submitted for alignment search. Start and End are 0-based
// half-open bounds into the full sequence; RelativePos is the 1-based
// position of the variant within the chunk.
type Window struct {
	Accession   string
	Start       int64
	End         int64
	RelativePos int64
	Sequence    string
}

// MakeWindow cuts a window of up to 2*Margin bases around pos (1-based)
// out of seq, clamping at the sequence boundaries. The relative position
// inside the window must dereference to the same base as the absolute
// position in the full sequence; a violation means the construction is
// broken upstream and aborts the resolution.
func MakeWindow(accession, seq string, pos int64) (Window, error) {
	n := int64(len(seq))
	if pos < 1 || pos > n {
		return Window{}, fmt.Errorf("position %d outside sequence %s of length %d", pos, accession, n)
	}

	relative := pos
	start := int64(0)
	if pos-Margin >= 0 {
		start = pos - Margin
		relative = Margin
	}

	end := pos + Margin
	if end > n {
		end = n
	}

	w := Window{
		Accession:   accession,
		Start:       start,
		End:         end,
		RelativePos: relative,
		Sequence:    seq[start:end],
	}

	if w.Sequence[w.RelativePos-1] != seq[pos-1] {
		return Window{}, fmt.Errorf("window invariant violated for %s: chunk base %c at %d != sequence base %c at %d",
			accession, w.Sequence[w.RelativePos-1], w.RelativePos, seq[pos-1], pos)
	}

	return w, nil
}

// Key returns the deterministic cache key for this window.
func (w Window) Key() string {
	return fmt.Sprintf("%s_%d_%d", w.Accession, w.Start, w.End)
}
