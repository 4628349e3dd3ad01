package genome

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/varloc/varloc/internal/hgvs"
)

// The converter's three recoverable failure kinds. Callers treat them all
// the same way: log and fall through to the next resolution strategy.
var (
	ErrTranscriptNotFound = errors.New("transcript not in local table")
	ErrInvalidVariant     = errors.New("variant not convertible locally")
	ErrOutOfRange         = errors.New("position outside reference bounds")
)

// Reference provides random access to an indexed local reference genome.
// Positions are 1-based and inclusive.
type Reference interface {
	Slice(chrom string, start, end int64) (string, error)
}

// MapReference is an in-memory Reference backed by chromosome sequences,
// as loaded by ReadFASTA.
type MapReference map[string]string

// Slice returns the bases in [start, end], 1-based inclusive.
func (m MapReference) Slice(chrom string, start, end int64) (string, error) {
	seq, ok := m[chrom]
	if !ok {
		return "", fmt.Errorf("%w: no sequence for %s", ErrOutOfRange, chrom)
	}
	if start < 1 || end > int64(len(seq)) || end < start {
		return "", fmt.Errorf("%w: %s:%d-%d", ErrOutOfRange, chrom, start, end)
	}
	return seq[start-1 : end], nil
}

// Converter is the local fast path: direct conversion of a parsed variant to
// VCF-style coordinates using an indexed reference genome and the transcript
// table, with no remote calls.
type Converter struct {
	ref    Reference
	lookup func(accession string) *Transcript
	logger *zap.Logger
}

// NewConverter creates a converter over a reference genome and a transcript
// lookup function.
func NewConverter(ref Reference, lookup func(string) *Transcript) *Converter {
	return &Converter{ref: ref, lookup: lookup, logger: zap.NewNop()}
}

// SetLogger sets the logger for conversion messages.
func (c *Converter) SetLogger(l *zap.Logger) {
	c.logger = l
}

// Convert maps a coding-DNA substitution variant to (chromosome, offset,
// ref, alt) on the reference genome. Failures are one of the three
// recoverable kinds and leave the caller free to try other strategies.
func (c *Converter) Convert(v *hgvs.Variant) (chrom string, offset int64, ref, alt string, err error) {
	if v.Coord != hgvs.CoordCoding {
		return "", 0, "", "", fmt.Errorf("%w: only coding variants convert locally, got %q", ErrInvalidVariant, v.Coord)
	}
	if v.Edit != hgvs.EditSubstitution {
		return "", 0, "", "", fmt.Errorf("%w: only substitutions convert locally, got %q", ErrInvalidVariant, v.Edit)
	}

	t := c.lookup(v.Accession)
	if t == nil {
		return "", 0, "", "", fmt.Errorf("%w: %s", ErrTranscriptNotFound, v.Accession)
	}
	if !t.IsCoding() {
		return "", 0, "", "", fmt.Errorf("%w: %s has no coding region", ErrInvalidVariant, v.Accession)
	}

	gpos, err := t.CodingToGenomic(v.Start)
	if err != nil {
		return "", 0, "", "", err
	}

	ref = v.Ref
	alt = v.Alt
	if !t.IsForwardStrand() {
		ref = Complement(ref)
		alt = Complement(alt)
	}

	base, err := c.ref.Slice(t.Chrom, gpos, gpos)
	if err != nil {
		return "", 0, "", "", err
	}
	if !strings.EqualFold(base, ref) {
		c.logger.Warn("reference base disagrees with variant name",
			zap.String("transcript", v.Accession),
			zap.Int64("position", gpos),
			zap.String("reference", strings.ToUpper(base)),
			zap.String("declared", ref))
		return "", 0, "", "", fmt.Errorf("%w: reference base %s != declared %s at %s:%d",
			ErrInvalidVariant, strings.ToUpper(base), ref, t.Chrom, gpos)
	}

	return t.Chrom, gpos, strings.ToUpper(ref), strings.ToUpper(alt), nil
}

// CodingToGenomic maps a 1-based coding position to a 1-based genomic
// position by walking the transcript's coding exon intervals in coding
// order. Positions beyond the coding length or at/below zero are out of
// range for the local path.
func (t *Transcript) CodingToGenomic(pos int64) (int64, error) {
	if pos < 1 {
		return 0, fmt.Errorf("%w: coding position %d", ErrOutOfRange, pos)
	}

	// Clip exons to the coding region (0-based half-open intervals).
	type span struct{ start, end int64 }
	var coding []span
	for _, e := range t.Exons {
		start, end := e.Start, e.End
		if start < t.CDSStart {
			start = t.CDSStart
		}
		if end > t.CDSEnd {
			end = t.CDSEnd
		}
		if start < end {
			coding = append(coding, span{start, end})
		}
	}
	if len(coding) == 0 {
		return 0, fmt.Errorf("%w: no coding exons", ErrInvalidVariant)
	}

	if t.IsForwardStrand() {
		var cum int64
		for _, s := range coding {
			length := s.end - s.start
			if cum+length >= pos {
				return s.start + (pos - cum), nil // 0-based start + offset = 1-based position
			}
			cum += length
		}
	} else {
		// Minus strand: coding order walks the intervals from the genomic
		// end backwards.
		var cum int64
		for i := len(coding) - 1; i >= 0; i-- {
			s := coding[i]
			length := s.end - s.start
			if cum+length >= pos {
				return s.end - (pos - cum) + 1, nil
			}
			cum += length
		}
	}

	return 0, fmt.Errorf("%w: coding position %d beyond coding length", ErrOutOfRange, pos)
}
