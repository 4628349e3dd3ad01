package blat

import (
	"errors"
	"fmt"
	"regexp"

	"go.uber.org/zap"
)

// Strand of an alignment, inferred from the direction of the reference
// coordinates.
type Strand int8

const (
	StrandPlus  Strand = 1
	StrandMinus Strand = -1
)

// Position is a resolved absolute position on the aligned reference.
type Position struct {
	Coordinate int64  // absolute reference coordinate at the query column
	Strand     Strand //
	Matched    bool   // false when the column lacks a match marker
}

// blockRe matches one three-line ladder block of the alignment text:
// query line, match-marker line, reference line, each with running
// coordinate labels at the block boundaries.
var blockRe = regexp.MustCompile(`(\d+) ([acgt.]+) (\d+)\n([<>]+ [| ]* [<>]+)\n(\d+) ([acgt.]+) (\d+)`)

var markerRe = regexp.MustCompile(`[<>]+ ([| ]*) [<>]+`)

var (
	// ErrPositionNotAligned is returned when no ladder block covers the
	// requested query position.
	ErrPositionNotAligned = errors.New("query position not covered by alignment")

	// ErrNoDirection is returned when a block's reference coordinates do
	// not move, leaving the strand undecidable.
	ErrNoDirection = errors.New("alignment block has equal start and end coordinates")
)

// ResolvePosition walks the alignment ladder to the column whose real
// (gap-free) query index equals pos and reads off the aligned reference
// coordinate. Strand is plus when the reference coordinates increase across
// the block and minus when they decrease. A column without a match marker
// is reported via Matched=false but still resolved.
func ResolvePosition(alignment string, pos int64, logger *zap.Logger) (Position, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	blocks := blockRe.FindAllStringSubmatch(alignment, -1)
	if len(blocks) == 0 {
		return Position{}, ErrPositionNotAligned
	}

	var block []string
	for _, b := range blocks {
		start := parseCol(b[1])
		end := parseCol(b[3])
		if start <= pos && pos <= end {
			block = b
			break
		}
	}
	if block == nil {
		return Position{}, fmt.Errorf("%w: position %d", ErrPositionNotAligned, pos)
	}

	queryStart := parseCol(block[1])
	querySeq := block[2]
	alignStart := parseCol(block[5])
	alignEnd := parseCol(block[7])

	var step int64
	var strand Strand
	switch {
	case alignStart < alignEnd:
		step, strand = 1, StrandPlus
	case alignStart > alignEnd:
		step, strand = -1, StrandMinus
	default:
		return Position{}, ErrNoDirection
	}

	var marker string
	if m := markerRe.FindStringSubmatch(block[4]); m != nil {
		marker = m[1]
	}

	// Walk the query sequence left to right. Gap characters advance the
	// alignment column but not the real query index.
	realIndex := int64(-1)
	for i := 0; i < len(querySeq); i++ {
		if querySeq[i] != '.' {
			if realIndex < 0 {
				realIndex = queryStart
			} else {
				realIndex++
			}
		}

		if realIndex == pos {
			coordinate := alignStart + step*int64(i)
			matched := i < len(marker) && marker[i] == '|'
			if !matched {
				logger.Warn("resolved column lacks a match marker",
					zap.Int64("position", pos),
					zap.Int64("coordinate", coordinate))
			}
			return Position{Coordinate: coordinate, Strand: strand, Matched: matched}, nil
		}
	}

	return Position{}, fmt.Errorf("%w: position %d", ErrPositionNotAligned, pos)
}
