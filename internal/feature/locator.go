package feature

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	// ErrAmbiguousGene is returned when the record annotates several genes
	// and no disambiguation hint was supplied. The resolution for that
	// input aborts; there is no way to guess which gene was meant.
	ErrAmbiguousGene = errors.New("record annotates multiple genes, gene hint required")

	// ErrGeneNotFound is returned when the hint names a gene absent from
	// the record.
	ErrGeneNotFound = errors.New("hinted gene not annotated on record")
)

// MapFunc maps a 1-based coding offset to an absolute 1-based sequence
// offset. Offsets at or below zero extend linearly upstream of the first
// coding interval; offsets past the coding length extrapolate linearly from
// the last interval's end. The function is total.
type MapFunc func(codingPos int64) int64

// Map is the transcript feature map of one gene on one record: its ordered
// coding intervals and the lazily usable position mapping.
type Map struct {
	Gene      string
	Intervals []Interval
	Fn        MapFunc
}

// Locator builds coding-to-absolute position maps from annotated records.
type Locator struct {
	logger *zap.Logger
}

// NewLocator creates a locator with a no-op logger.
func NewLocator() *Locator {
	return &Locator{logger: zap.NewNop()}
}

// SetLogger sets the logger for locator messages.
func (l *Locator) SetLogger(lg *zap.Logger) {
	l.logger = lg
}

// Build selects the gene to map (using geneHint when the record is
// ambiguous) and returns its feature map. Coding intervals are preferred;
// records without CDS annotation fall back to the transcript exon set.
// Interval order follows the annotation, which lists coding order; minus
// strand records with non-contiguous direction are not re-ordered.
func (l *Locator) Build(rec *Record, geneHint string) (*Map, error) {
	if len(rec.Genes) == 0 {
		return nil, fmt.Errorf("%w: no genes on record %s", ErrGeneNotFound, rec.Accession)
	}

	gene := geneHint
	if gene == "" {
		if len(rec.Genes) > 1 {
			l.logger.Warn("ambiguous record",
				zap.String("accession", rec.Accession),
				zap.Strings("genes", rec.Genes))
			return nil, fmt.Errorf("%w: %s annotates %v", ErrAmbiguousGene, rec.Accession, rec.Genes)
		}
		gene = rec.Genes[0]
	}

	intervals, ok := rec.CDS[gene]
	if !ok || len(intervals) == 0 {
		l.logger.Info("no coding intervals, falling back to exons",
			zap.String("accession", rec.Accession),
			zap.String("gene", gene))
		intervals = rec.Exons[gene]
	}
	if len(intervals) == 0 {
		return nil, fmt.Errorf("%w: gene %s has no intervals on %s", ErrGeneNotFound, gene, rec.Accession)
	}

	return &Map{
		Gene:      gene,
		Intervals: intervals,
		Fn:        buildMapFunc(intervals),
	}, nil
}

// buildMapFunc returns the coding-offset mapping over ordered intervals.
func buildMapFunc(intervals []Interval) MapFunc {
	return func(pos int64) int64 {
		first := intervals[0]

		// UTR convention: c.-N counts linearly upstream of the first
		// coding base.
		if pos <= 0 {
			return first.Start + pos
		}

		var cum int64
		for _, iv := range intervals {
			if cum+iv.Length() >= pos {
				return iv.Start + (pos - cum) - 1
			}
			cum += iv.Length()
		}

		// Past the last interval: extrapolate linearly from its end.
		last := intervals[len(intervals)-1]
		return last.End + (pos - cum)
	}
}
