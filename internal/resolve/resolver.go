package resolve

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/varloc/varloc/internal/datasource/genedb"
	"github.com/varloc/varloc/internal/datasource/namecheck"
	"github.com/varloc/varloc/internal/datasource/snpdb"
	"github.com/varloc/varloc/internal/datasource/vep"
	"github.com/varloc/varloc/internal/hgvs"
	"github.com/varloc/varloc/internal/store"
)

// maxDepth caps re-entry into the pipeline. Depth grows only on the
// documented fan-outs (ambiguity split, name-checker rewrite), so anything
// deeper is a rewrite loop.
const maxDepth = 4

// The cascade depends on capabilities, not concrete providers; tests
// substitute fakes for any of these.
type (
	// Parser attempts a strict parse; false means unparseable.
	Parser interface {
		Parse(name string) (*hgvs.Variant, bool)
	}
	// Corrector repairs near-miss variant names, fanning out on the
	// slash-ambiguity case.
	Corrector interface {
		Correct(variant, transcript string, refType hgvs.CoordType) ([]string, error)
	}
	// CodingMapper projects a coding variant to genomic coordinates.
	CodingMapper interface {
		ToGenomic(v *hgvs.Variant) (*hgvs.Variant, error)
	}
	// AssemblyLocator places complete genomic reference accessions.
	AssemblyLocator interface {
		Locate(accession string) (chrom, build string, err error)
	}
	// LocalConverter is the local fast path.
	LocalConverter interface {
		Convert(v *hgvs.Variant) (chrom string, offset int64, ref, alt string, err error)
	}
	// GeneDatabase matches coding notations against a gene-indexed store.
	GeneDatabase interface {
		Lookup(accession, notation string) (*genedb.Match, error)
	}
	// NameChecker normalizes names the parser and corrector both refuse.
	NameChecker interface {
		Check(variant, geneHint string) (*namecheck.Result, error)
	}
	// SNPDatabase places rs identifiers from a SNP table.
	SNPDatabase interface {
		Locate(rsID string) ([]*snpdb.Location, error)
	}
	// Predictor is the consequence-predictor fallback for rs identifiers.
	Predictor interface {
		Locate(rsID string) (*vep.Location, error)
	}
	// Aligner runs the gene-feature plus alignment-search path.
	Aligner interface {
		Resolve(v *hgvs.Variant, geneHint string) (*Record, error)
	}
)

// Deps collects the cascade's collaborators. Nil members skip their stage.
type Deps struct {
	Parser    Parser
	Corrector Corrector
	Mapper    CodingMapper
	Assembly  AssemblyLocator
	Local     LocalConverter
	GeneDB    GeneDatabase
	NameCheck NameChecker
	SNPDB     SNPDatabase
	Predictor Predictor
	Aligner   Aligner
}

// Options are per-call hints.
type Options struct {
	// Transcript backs the corrector when the name lacks an accession.
	Transcript string
	// RefType backs the corrector when the name lacks a coordinate tag.
	// Must be empty, coding, or genomic.
	RefType hgvs.CoordType
	// GeneHint disambiguates records annotating more than one gene.
	GeneHint string
}

// Resolver runs the resolution cascade.
type Resolver struct {
	deps   Deps
	genome string
	cache  *store.DB
	logger *zap.Logger
}

// New creates a resolver for a genome build.
func New(genome string, deps Deps) *Resolver {
	return &Resolver{deps: deps, genome: genome, logger: zap.NewNop()}
}

// SetLogger sets the logger for cascade messages.
func (r *Resolver) SetLogger(l *zap.Logger) {
	r.logger = l
}

// SetCache attaches the resolved-record cache. Cached inputs short-circuit
// the whole cascade.
func (r *Resolver) SetCache(db *store.DB) {
	r.cache = db
}

// Resolve takes a variant name or rs identifier and returns the records the
// winning strategy produced, in input order for fanned-out inputs. A nil
// slice with a nil error is the no-result outcome; the only non-nil error
// is hard input validation on the options.
func (r *Resolver) Resolve(input string, opts Options) ([]*Record, error) {
	switch opts.RefType {
	case "", hgvs.CoordCoding, hgvs.CoordGenomic:
	default:
		return nil, fmt.Errorf("%w: %q", hgvs.ErrInvalidRefType, opts.RefType)
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}

	if rec := r.cached(input); rec != nil {
		return []*Record{rec}, nil
	}

	recs := r.resolveOne(input, opts, 0)
	if len(recs) == 1 {
		r.remember(input, recs[0])
	}
	return recs, nil
}

// ResolveAll resolves a batch sequentially, preserving input order.
func (r *Resolver) ResolveAll(inputs []string, opts Options) ([][]*Record, error) {
	out := make([][]*Record, 0, len(inputs))
	for _, input := range inputs {
		recs, err := r.Resolve(input, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, recs)
	}
	return out, nil
}

func (r *Resolver) resolveOne(input string, opts Options, depth int) []*Record {
	if depth > maxDepth {
		r.logger.Warn("resolution exceeded re-entry cap", zap.String("input", input))
		return nil
	}

	if hgvs.IsRSID(input) {
		return r.resolveRS(input)
	}

	v, ok := r.deps.Parser.Parse(input)
	if !ok {
		return r.resolveUnparsed(input, opts, depth)
	}
	return r.resolveVariant(v, opts)
}

// resolveUnparsed repairs or rewrites a name the strict parser refused.
func (r *Resolver) resolveUnparsed(input string, opts Options, depth int) []*Record {
	corrected, err := r.deps.Corrector.Correct(input, opts.Transcript, opts.RefType)
	switch {
	case err != nil:
		r.logger.Info("correction failed", zap.String("input", input), zap.Error(err))
	case len(corrected) == 1:
		if corrected[0] == input {
			break // corrector had nothing to add, the name is truly bad
		}
		if v, ok := r.deps.Parser.Parse(corrected[0]); ok {
			return r.resolveVariant(v, opts)
		}
		r.logger.Info("corrected name still unparseable",
			zap.String("input", input), zap.String("corrected", corrected[0]))
	default:
		// Ambiguity fan-out: each alternative resolves independently
		// and results keep the fan-out order.
		var out []*Record
		for _, name := range corrected {
			out = append(out, r.resolveOne(name, opts, depth+1)...)
		}
		return out
	}

	if r.deps.NameCheck == nil {
		return nil
	}
	res, err := r.deps.NameCheck.Check(input, opts.GeneHint)
	if err != nil {
		r.logger.Info("name checker could not normalize",
			zap.String("input", input), zap.Error(err))
		return nil
	}
	r.logger.Info("name checker rewrote the variant",
		zap.String("input", input), zap.String("canonical", res.Canonical))
	return r.resolveOne(res.Canonical, opts, depth+1)
}

// resolveVariant runs the strategy cascade over a parsed variant.
func (r *Resolver) resolveVariant(v *hgvs.Variant, opts Options) []*Record {
	if v.Coord == hgvs.CoordProtein {
		r.logger.Info("protein-level variants carry no genomic placement",
			zap.String("variant", v.Name()))
		return nil
	}

	// Projection updates working state only on success; a failed
	// projection keeps the coding-level variant for the later paths.
	if v.IsCoding() && r.deps.Mapper != nil {
		if g, err := r.deps.Mapper.ToGenomic(v); err == nil {
			r.logger.Debug("projected to genomic coordinates",
				zap.String("from", v.Name()), zap.String("to", g.Name()))
			v = g
		}
	}

	if hgvs.ClassifyAccession(v.Accession) == hgvs.CategoryGenomicReference {
		return r.resolveByAssembly(v)
	}

	if rec := r.resolveLocally(v); rec != nil {
		return []*Record{rec}
	}
	if rec := r.resolveByGeneDB(v); rec != nil {
		return []*Record{rec}
	}
	if rec := r.resolveByAlignment(v, opts.GeneHint); rec != nil {
		return []*Record{rec}
	}
	return nil
}

// resolveByAssembly is the complete-genomic-reference shortcut: it resolves
// or fails here, never reaching the alignment path.
func (r *Resolver) resolveByAssembly(v *hgvs.Variant) []*Record {
	if r.deps.Assembly == nil {
		return nil
	}
	chrom, build, err := r.deps.Assembly.Locate(v.Accession)
	if err != nil {
		r.logger.Warn("reference-assembly lookup failed",
			zap.String("accession", v.Accession), zap.Error(err))
		return nil
	}
	if build == "" {
		build = r.genome
	}
	return []*Record{{
		Chrom:  chrom,
		Offset: v.Start,
		Ref:    strings.ToUpper(v.Ref),
		Alts:   altsOf(v),
		Genome: build,
		Source: SourceAssembly,
	}}
}

func (r *Resolver) resolveLocally(v *hgvs.Variant) *Record {
	if r.deps.Local == nil {
		return nil
	}
	chrom, offset, ref, alt, err := r.deps.Local.Convert(v)
	if err != nil {
		r.logger.Debug("local conversion unavailable",
			zap.String("variant", v.Name()), zap.Error(err))
		return nil
	}
	return &Record{
		Chrom:  chrom,
		Offset: offset,
		Ref:    strings.ToUpper(ref),
		Alts:   []string{strings.ToUpper(alt)},
		Genome: r.genome,
		Source: SourceLocal,
	}
}

func (r *Resolver) resolveByGeneDB(v *hgvs.Variant) *Record {
	if r.deps.GeneDB == nil || !v.IsCoding() {
		return nil
	}
	m, err := r.deps.GeneDB.Lookup(v.Accession, v.Notation())
	if err != nil {
		if !errors.Is(err, genedb.ErrNotIndexed) {
			r.logger.Warn("gene database lookup failed",
				zap.String("variant", v.Name()), zap.Error(err))
		}
		return nil
	}
	if m == nil {
		return nil
	}
	build := m.Build
	if build == "" {
		build = r.genome
	}
	return &Record{
		Chrom:  m.Chrom,
		Offset: m.Start,
		Ref:    strings.ToUpper(v.Ref),
		Alts:   altsOf(v),
		Genome: build,
		Source: SourceGeneDB,
	}
}

func (r *Resolver) resolveByAlignment(v *hgvs.Variant, geneHint string) *Record {
	if r.deps.Aligner == nil {
		return nil
	}
	rec, err := r.deps.Aligner.Resolve(v, geneHint)
	if err != nil {
		r.logger.Warn("alignment path failed",
			zap.String("variant", v.Name()), zap.Error(err))
		return nil
	}
	if rec.Genome == "" {
		rec.Genome = r.genome
	}
	return rec
}

// resolveRS places rs identifiers: SNP table first, consequence predictor
// when the table has nothing.
func (r *Resolver) resolveRS(rsID string) []*Record {
	if r.deps.SNPDB != nil {
		locs, err := r.deps.SNPDB.Locate(rsID)
		if err == nil {
			out := make([]*Record, 0, len(locs))
			for _, loc := range locs {
				out = append(out, &Record{
					Chrom:  loc.Chrom,
					Offset: loc.Position,
					Ref:    loc.Ref,
					Alts:   loc.Alts,
					Genome: r.genome,
					Source: SourceSNPDB,
				})
			}
			return out
		}
		if !errors.Is(err, snpdb.ErrNotFound) {
			r.logger.Warn("SNP table lookup failed", zap.String("rs", rsID), zap.Error(err))
		}
	}

	if r.deps.Predictor == nil {
		return nil
	}
	loc, err := r.deps.Predictor.Locate(rsID)
	if err != nil {
		r.logger.Info("consequence predictor has no placement",
			zap.String("rs", rsID), zap.Error(err))
		return nil
	}
	return []*Record{{
		Chrom:  loc.Chrom,
		Offset: loc.Position,
		Ref:    loc.Ref,
		Alts:   loc.Alts,
		Genome: r.genome,
		Source: SourcePredictor,
	}}
}

func (r *Resolver) cached(input string) *Record {
	if r.cache == nil {
		return nil
	}
	rv, ok, err := r.cache.GetResolved(input)
	if err != nil {
		r.logger.Warn("resolved-record cache read failed", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	return &Record{
		Chrom:  rv.Chrom,
		Offset: rv.Offset,
		Ref:    rv.Ref,
		Alts:   strings.Split(rv.Alt, "/"),
		Genome: rv.Genome,
		Source: Source(rv.Source),
	}
}

func (r *Resolver) remember(input string, rec *Record) {
	if r.cache == nil {
		return
	}
	err := r.cache.PutResolved(store.ResolvedVariant{
		Variant: input,
		Chrom:   rec.Chrom,
		Offset:  rec.Offset,
		Ref:     rec.Ref,
		Alt:     rec.Alt(),
		Genome:  rec.Genome,
		Source:  string(rec.Source),
	})
	if err != nil {
		r.logger.Warn("resolved-record cache write failed", zap.Error(err))
	}
}

func altsOf(v *hgvs.Variant) []string {
	if v.Alt == "" {
		return nil
	}
	return []string{strings.ToUpper(v.Alt)}
}
