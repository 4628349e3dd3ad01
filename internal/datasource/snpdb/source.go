// Package snpdb resolves rs identifiers through a browser-style SNP table:
// named-field rows keyed by the rs name, with strand-relative observed
// alleles and both the submitted and the browser reference base.
package snpdb

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/varloc/varloc/internal/genome"
)

// ErrNotFound means the table has no row for the rs identifier; callers
// fall through to the consequence predictor.
var ErrNotFound = errors.New("rs identifier not in SNP table")

// Row is one SNP table row. Coordinates are the table's native 0-based
// half-open interval; for a single-base variant ChromEnd is the 1-based
// position. Observed alleles are on the submitted strand.
type Row struct {
	Chrom    string
	ChromEnd int64
	Name     string
	Strand   string
	RefNCBI  string
	RefUCSC  string
	Observed string
	Class    string
}

// Fetcher queries the table for an rs identifier.
type Fetcher interface {
	FetchRows(rsID string) ([]Row, error)
}

// Location is the resolved placement of an rs identifier.
type Location struct {
	Chrom string
	// Position is the 1-based coordinate of the variant site.
	Position int64
	Ref      string
	// Alts are the plus-strand observed alleles minus the reference.
	Alts []string
}

// Source resolves rs identifiers against a SNP table.
type Source struct {
	fetcher Fetcher
	logger  *zap.Logger
}

// NewSource creates a SNP table source.
func NewSource(fetcher Fetcher) *Source {
	return &Source{fetcher: fetcher, logger: zap.NewNop()}
}

// SetLogger sets the logger for lookup messages.
func (s *Source) SetLogger(l *zap.Logger) {
	s.logger = l
}

// Locate resolves an rs identifier to one location per table row; most
// identifiers have exactly one row, but some are annotated at several
// placements and all of them are returned in row order. When the submitted
// and browser reference bases disagree the browser base wins, with a log
// line recording the discrepancy. Observed alleles on the minus strand are
// complemented onto the plus strand before the reference allele is removed.
func (s *Source) Locate(rsID string) ([]*Location, error) {
	rows, err := s.fetcher.FetchRows(rsID)
	if err != nil {
		return nil, fmt.Errorf("query SNP table for %s: %w", rsID, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, rsID)
	}
	if len(rows) > 1 {
		s.logger.Info("rs identifier has multiple table rows",
			zap.String("rs", rsID),
			zap.Int("rows", len(rows)))
	}

	locs := make([]*Location, 0, len(rows))
	for _, row := range rows {
		loc, err := s.locateRow(rsID, row)
		if err != nil {
			return nil, err
		}
		locs = append(locs, loc)
	}
	return locs, nil
}

func (s *Source) locateRow(rsID string, row Row) (*Location, error) {
	ref := row.RefUCSC
	if row.RefNCBI != row.RefUCSC {
		s.logger.Warn("submitted and browser reference bases disagree, keeping the browser base",
			zap.String("rs", rsID),
			zap.String("refNCBI", row.RefNCBI),
			zap.String("refUCSC", row.RefUCSC))
	}

	observed := strings.Split(row.Observed, "/")
	if row.Strand == "-" {
		for i, allele := range observed {
			observed[i] = genome.Complement(allele)
		}
	}

	var alts []string
	for _, allele := range observed {
		if allele != ref && allele != "" {
			alts = append(alts, allele)
		}
	}
	if len(alts) == 0 {
		return nil, fmt.Errorf("observed alleles of %s (%q) leave no alternate", rsID, row.Observed)
	}

	if row.Class != "single" {
		s.logger.Info("rs identifier is not a single-base class",
			zap.String("rs", rsID),
			zap.String("class", row.Class))
	}

	return &Location{
		Chrom:    row.Chrom,
		Position: row.ChromEnd,
		Ref:      ref,
		Alts:     alts,
	}, nil
}
