// Package assembly resolves complete genomic reference accessions straight
// to a chromosome and assembly name from the record's descriptive metadata.
package assembly

import (
	"errors"
	"fmt"
	"regexp"

	"go.uber.org/zap"
)

// ErrNoMatch means the record title did not carry the expected chromosome
// pattern. For this path that is a hard error: there is nothing to fall
// back on for a complete genomic reference.
var ErrNoMatch = errors.New("record title does not name a chromosome")

// MetadataFetcher fetches the descriptive title of a sequence record.
type MetadataFetcher interface {
	FetchTitle(accession string) (string, error)
}

var (
	chromRe = regexp.MustCompile(`chromosome ([0-9XYM]+)`)
	buildRe = regexp.MustCompile(`(GRCh[0-9]+(?:\.p[0-9]+)?)`)
)

// Source looks up chromosome and assembly for genomic reference accessions.
type Source struct {
	fetcher MetadataFetcher
	logger  *zap.Logger
}

// NewSource creates an assembly lookup over a metadata fetcher.
func NewSource(fetcher MetadataFetcher) *Source {
	return &Source{fetcher: fetcher, logger: zap.NewNop()}
}

// SetLogger sets the logger for lookup messages.
func (s *Source) SetLogger(l *zap.Logger) {
	s.logger = l
}

// Locate extracts the chromosome and assembly name from the record title,
// e.g. "Homo sapiens chromosome 12, GRCh38.p14 Primary Assembly".
// The assembly name may be absent; the chromosome may not.
func (s *Source) Locate(accession string) (chrom, build string, err error) {
	title, err := s.fetcher.FetchTitle(accession)
	if err != nil {
		return "", "", fmt.Errorf("fetch metadata for %s: %w", accession, err)
	}

	m := chromRe.FindStringSubmatch(title)
	if m == nil {
		s.logger.Warn("unexpected record title",
			zap.String("accession", accession),
			zap.String("title", title))
		return "", "", fmt.Errorf("%w: %s (%q)", ErrNoMatch, accession, title)
	}
	chrom = "chr" + m[1]

	if b := buildRe.FindStringSubmatch(title); b != nil {
		build = b[1]
	}

	return chrom, build, nil
}
