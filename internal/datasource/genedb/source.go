// Package genedb looks up variants in a gene-indexed variant database: a
// bulk gene feed builds a persisted transcript cross-reference table, and
// per-gene variant feeds are matched against the exact coding notation.
package genedb

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/varloc/varloc/internal/store"
)

const crossRefKey = "crossref.json"

// ErrNotIndexed means the transcript is not in the cross-reference table;
// callers fall through to the next strategy.
var ErrNotIndexed = errors.New("transcript not indexed in gene database")

// CrossRef is one persisted cross-reference entry.
type CrossRef struct {
	Gene  string
	Build string
}

// Match is a successful exact-notation match in a gene's variant feed.
// End carries the right-hand flanking position for range entries (not an
// end offset) and equals Start for point entries.
type Match struct {
	Gene  string
	Build string
	Chrom string
	Start int64
	End   int64
}

// VariantFeed fetches the raw per-gene variant feed.
type VariantFeed interface {
	FetchGeneVariants(gene string) (string, error)
}

// Source is the gene database adapter.
type Source struct {
	feed     VariantFeed
	files    *store.Files
	crossref map[string]CrossRef
	logger   *zap.Logger
}

// NewSource creates a gene database source over a variant feed and the
// local file cache.
func NewSource(feed VariantFeed, files *store.Files) *Source {
	return &Source{
		feed:     feed,
		files:    files,
		crossref: make(map[string]CrossRef),
		logger:   zap.NewNop(),
	}
}

// SetLogger sets the logger for lookup messages.
func (s *Source) SetLogger(l *zap.Logger) {
	s.logger = l
}

// EnsureCrossRef loads the persisted cross-reference table, building it
// from the bulk feed only when no persisted copy exists.
func (s *Source) EnsureCrossRef(bulk func() (io.ReadCloser, error)) error {
	if s.files.Exists(store.ConcernGeneDB, crossRefKey) {
		raw, err := s.files.Read(store.ConcernGeneDB, crossRefKey)
		if err != nil {
			return fmt.Errorf("read cross-reference table: %w", err)
		}
		return json.Unmarshal(raw, &s.crossref)
	}

	s.logger.Info("no persisted cross-reference table, building from bulk feed")
	r, err := bulk()
	if err != nil {
		return fmt.Errorf("open bulk feed: %w", err)
	}
	defer r.Close()

	if err := s.LoadCrossRef(r); err != nil {
		return err
	}

	raw, err := json.Marshal(s.crossref)
	if err != nil {
		return fmt.Errorf("encode cross-reference table: %w", err)
	}
	return s.files.Write(store.ConcernGeneDB, crossRefKey, raw)
}

// LoadCrossRef parses the bulk gene feed: blank-line separated entries of
// "field:value" lines. "id" is required; "refseq_build" and "refseq_mrna"
// are optional, and entries without a transcript are skipped.
func (s *Source) LoadCrossRef(r io.Reader) error {
	scanner := bufio.NewScanner(r)

	entry := make(map[string]string)
	flush := func() error {
		defer func() { entry = make(map[string]string) }()
		if len(entry) == 0 {
			return nil
		}
		id, ok := entry["id"]
		if !ok || id == "" {
			return errors.New("bulk feed entry without id")
		}
		transcript := entry["refseq_mrna"]
		if transcript == "" {
			return nil
		}
		s.crossref[transcript] = CrossRef{Gene: id, Build: entry["refseq_build"]}
		return nil
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			if err := flush(); err != nil {
				return err
			}
			continue
		}
		field, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		entry[strings.TrimSpace(field)] = strings.TrimSpace(value)
	}
	if err := flush(); err != nil {
		return err
	}
	return scanner.Err()
}

// CrossRefFor returns the cross-reference entry for a transcript accession,
// trying the versionless accession as well.
func (s *Source) CrossRefFor(accession string) (CrossRef, bool) {
	if cr, ok := s.crossref[accession]; ok {
		return cr, true
	}
	if base, _, found := strings.Cut(accession, "."); found {
		if cr, ok := s.crossref[base]; ok {
			return cr, true
		}
	}
	return CrossRef{}, false
}

// Lookup finds an exact match for the normalized coding notation (e.g.
// "c.1198T>G") among the gene's variant entries. A transcript missing from
// the cross-reference table reports ErrNotIndexed; a feed without a
// matching entry returns (nil, nil). Hard feed errors are returned as-is.
func (s *Source) Lookup(accession, notation string) (*Match, error) {
	cr, ok := s.CrossRefFor(accession)
	if !ok {
		s.logger.Info("transcript not in cross-reference table",
			zap.String("accession", accession))
		return nil, fmt.Errorf("%w: %s", ErrNotIndexed, accession)
	}

	raw, err := s.feed.FetchGeneVariants(cr.Gene)
	if err != nil {
		return nil, fmt.Errorf("fetch variants for gene %s: %w", cr.Gene, err)
	}

	entries, err := parseFeed(raw)
	if err != nil {
		return nil, fmt.Errorf("parse variant feed for gene %s: %w", cr.Gene, err)
	}

	for _, e := range entries {
		if e.dna != notation {
			continue
		}
		start, end, err := parsePosition(e.position)
		if err != nil {
			s.logger.Warn("matched entry carries a bad position",
				zap.String("gene", cr.Gene),
				zap.String("position", e.position),
				zap.Error(err))
			continue
		}
		return &Match{
			Gene:  cr.Gene,
			Build: cr.Build,
			Chrom: e.chrom,
			Start: start,
			End:   end,
		}, nil
	}

	s.logger.Info("no exact notation match in gene feed",
		zap.String("gene", cr.Gene),
		zap.String("notation", notation))
	return nil, nil
}

// parsePosition parses "N" (point) or "N1_N2" where N2 is the right-hand
// flanking value of the variant site, not an end offset.
func parsePosition(pos string) (int64, int64, error) {
	first, second, isRange := strings.Cut(pos, "_")
	start, err := strconv.ParseInt(first, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad position %q", pos)
	}
	if !isRange {
		return start, start, nil
	}
	flank, err := strconv.ParseInt(second, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad position %q", pos)
	}
	return start, flank, nil
}
