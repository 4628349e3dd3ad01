package resolve

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/varloc/varloc/internal/blat"
	"github.com/varloc/varloc/internal/feature"
	"github.com/varloc/varloc/internal/genome"
	"github.com/varloc/varloc/internal/hgvs"
)

// AnnotatedFetcher fetches a sequence record with its feature annotation.
type AnnotatedFetcher interface {
	FetchAnnotated(accession string) (string, error)
}

// SearchClient submits alignment searches and fetches detail alignments.
type SearchClient interface {
	Search(w genome.Window) ([]blat.Hit, error)
	Alignment(hit blat.Hit, w genome.Window) (string, error)
}

// AlignmentResolver is the last HGVS strategy: cut a window around the
// variant out of the fetched sequence, submit it for alignment search, and
// read the genomic coordinate off the top hit's detail alignment. Coding
// variants are first placed on the sequence through the gene feature map.
type AlignmentResolver struct {
	seqs      *genome.SequenceStore
	annotated AnnotatedFetcher
	locator   *feature.Locator
	search    SearchClient
	logger    *zap.Logger
}

// NewAlignmentResolver wires the alignment path.
func NewAlignmentResolver(seqs *genome.SequenceStore, annotated AnnotatedFetcher, search SearchClient) *AlignmentResolver {
	return &AlignmentResolver{
		seqs:      seqs,
		annotated: annotated,
		locator:   feature.NewLocator(),
		search:    search,
		logger:    zap.NewNop(),
	}
}

// SetLogger sets the logger for alignment messages, shared with the
// feature locator.
func (a *AlignmentResolver) SetLogger(l *zap.Logger) {
	a.logger = l
	a.locator.SetLogger(l)
}

// Resolve places a variant through alignment search.
func (a *AlignmentResolver) Resolve(v *hgvs.Variant, geneHint string) (*Record, error) {
	pos := v.Start
	if v.IsCoding() {
		abs, err := a.placeCoding(v, geneHint)
		if err != nil {
			return nil, err
		}
		pos = abs
	}

	seq, err := a.seqs.Sequence(v.Accession)
	if err != nil {
		return nil, fmt.Errorf("fetch sequence %s: %w", v.Accession, err)
	}
	if pos < 1 || pos > int64(len(seq)) {
		return nil, fmt.Errorf("position %d outside sequence %s (%d bases)", pos, v.Accession, len(seq))
	}

	// A declared reference allele that disagrees with the fetched
	// sequence is serious but not fatal; the sequence context wins.
	if v.Ref != "" && !strings.EqualFold(string(seq[pos-1]), v.Ref) {
		a.logger.Warn("declared reference allele disagrees with the fetched sequence",
			zap.String("variant", v.Name()),
			zap.String("declared", v.Ref),
			zap.String("sequence", string(seq[pos-1])))
	}

	w, err := genome.MakeWindow(v.Accession, seq, pos)
	if err != nil {
		return nil, err
	}

	hits, err := a.search.Search(w)
	if err != nil {
		return nil, fmt.Errorf("alignment search: %w", err)
	}
	top := hits[0]

	alignment, err := a.search.Alignment(top, w)
	if err != nil {
		return nil, fmt.Errorf("fetch detail alignment: %w", err)
	}

	p, err := blat.ResolvePosition(alignment, w.RelativePos, a.logger)
	if err != nil {
		return nil, err
	}

	ref := strings.ToUpper(v.Ref)
	alt := strings.ToUpper(v.Alt)
	if ref == "" {
		ref = strings.ToUpper(string(seq[pos-1]))
	}
	if p.Strand == blat.StrandMinus {
		ref = genome.Complement(ref)
		alt = genome.Complement(alt)
	}

	rec := &Record{
		Chrom:  top.Chrom,
		Offset: p.Coordinate,
		Ref:    ref,
		Source: SourceAlignment,
	}
	if alt != "" {
		rec.Alts = []string{alt}
	}
	return rec, nil
}

// placeCoding maps a coding offset onto the transcript sequence through
// the record's feature annotation.
func (a *AlignmentResolver) placeCoding(v *hgvs.Variant, geneHint string) (int64, error) {
	raw, err := a.annotated.FetchAnnotated(v.Accession)
	if err != nil {
		return 0, fmt.Errorf("fetch annotated record %s: %w", v.Accession, err)
	}
	rec, err := feature.ParseGenBank(strings.NewReader(raw))
	if err != nil {
		return 0, fmt.Errorf("parse annotated record %s: %w", v.Accession, err)
	}
	m, err := a.locator.Build(rec, geneHint)
	if err != nil {
		return 0, err
	}
	return m.Fn(v.Start), nil
}
