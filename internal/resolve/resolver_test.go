package resolve

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varloc/varloc/internal/datasource/genedb"
	"github.com/varloc/varloc/internal/datasource/namecheck"
	"github.com/varloc/varloc/internal/datasource/snpdb"
	"github.com/varloc/varloc/internal/datasource/vep"
	"github.com/varloc/varloc/internal/hgvs"
	"github.com/varloc/varloc/internal/store"
)

type fakeMapper struct {
	result *hgvs.Variant
	err    error
}

func (f *fakeMapper) ToGenomic(*hgvs.Variant) (*hgvs.Variant, error) {
	return f.result, f.err
}

type fakeAssembly struct {
	chrom, build string
	err          error
	calls        int
}

func (f *fakeAssembly) Locate(string) (string, string, error) {
	f.calls++
	return f.chrom, f.build, f.err
}

type fakeLocal struct {
	chrom string
	off   int64
	ref   string
	alt   string
	err   error
}

func (f *fakeLocal) Convert(*hgvs.Variant) (string, int64, string, string, error) {
	if f.err != nil {
		return "", 0, "", "", f.err
	}
	return f.chrom, f.off, f.ref, f.alt, nil
}

type fakeGeneDB struct {
	match *genedb.Match
	err   error
}

func (f *fakeGeneDB) Lookup(string, string) (*genedb.Match, error) {
	return f.match, f.err
}

type fakeNameCheck struct {
	canonical string
	err       error
}

func (f *fakeNameCheck) Check(string, string) (*namecheck.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &namecheck.Result{Canonical: f.canonical}, nil
}

type fakeSNPDB struct {
	locs []*snpdb.Location
	err  error
}

func (f *fakeSNPDB) Locate(string) ([]*snpdb.Location, error) {
	return f.locs, f.err
}

type fakePredictor struct {
	loc   *vep.Location
	err   error
	calls int
}

func (f *fakePredictor) Locate(string) (*vep.Location, error) {
	f.calls++
	return f.loc, f.err
}

type fakeAligner struct {
	rec   *Record
	err   error
	calls int
}

func (f *fakeAligner) Resolve(*hgvs.Variant, string) (*Record, error) {
	f.calls++
	return f.rec, f.err
}

func baseDeps() Deps {
	return Deps{
		Parser:    hgvs.NewStrictParser(),
		Corrector: hgvs.NewCorrector(),
	}
}

func TestResolve_LocalFastPath(t *testing.T) {
	deps := baseDeps()
	deps.Local = &fakeLocal{chrom: "chr11", off: 2167746, ref: "a", alt: "c"}
	aligner := &fakeAligner{}
	deps.Aligner = aligner

	r := New("hg19", deps)
	recs, err := r.Resolve("NM_006446.4:c.1198T>G", Options{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, SourceLocal, recs[0].Source)
	assert.Equal(t, "chr11", recs[0].Chrom)
	assert.Equal(t, int64(2167746), recs[0].Offset)
	assert.Equal(t, "A", recs[0].Ref)
	assert.Equal(t, []string{"C"}, recs[0].Alts)
	assert.Equal(t, "hg19", recs[0].Genome)
	assert.Zero(t, aligner.calls)
}

func TestResolve_GeneDBBeforeAlignment(t *testing.T) {
	deps := baseDeps()
	deps.Local = &fakeLocal{err: errors.New("transcript not indexed")}
	deps.GeneDB = &fakeGeneDB{match: &genedb.Match{
		Gene: "CDKL5", Build: "hg38", Chrom: "chrX", Start: 18602477, End: 18602477,
	}}
	aligner := &fakeAligner{}
	deps.Aligner = aligner

	r := New("hg19", deps)
	recs, err := r.Resolve("NM_003159.2:c.1198T>G", Options{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, SourceGeneDB, recs[0].Source)
	assert.Equal(t, "chrX", recs[0].Chrom)
	// The match's own build wins over the configured default.
	assert.Equal(t, "hg38", recs[0].Genome)
	assert.Zero(t, aligner.calls)
}

func TestResolve_FallsThroughToAlignment(t *testing.T) {
	deps := baseDeps()
	deps.Local = &fakeLocal{err: errors.New("no index")}
	deps.GeneDB = &fakeGeneDB{err: genedb.ErrNotIndexed}
	deps.Aligner = &fakeAligner{rec: &Record{
		Chrom: "chr12", Offset: 21331549, Ref: "T", Alts: []string{"G"}, Source: SourceAlignment,
	}}

	r := New("hg19", deps)
	recs, err := r.Resolve("NM_006231.2:c.4A>G", Options{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, SourceAlignment, recs[0].Source)
	assert.Equal(t, "hg19", recs[0].Genome)
}

func TestResolve_GenomicReferenceShortCircuits(t *testing.T) {
	deps := baseDeps()
	assembly := &fakeAssembly{chrom: "chr1", build: "GRCh37"}
	aligner := &fakeAligner{}
	deps.Assembly = assembly
	deps.Local = &fakeLocal{err: errors.New("not local")}
	deps.Aligner = aligner

	r := New("hg19", deps)
	recs, err := r.Resolve("NC_000001.11:g.100T>G", Options{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, SourceAssembly, recs[0].Source)
	assert.Equal(t, "chr1", recs[0].Chrom)
	assert.Equal(t, int64(100), recs[0].Offset)
	assert.Equal(t, "GRCh37", recs[0].Genome)
	assert.Zero(t, aligner.calls)
}

func TestResolve_GenomicReferenceFailureNeverFallsBack(t *testing.T) {
	deps := baseDeps()
	deps.Assembly = &fakeAssembly{err: errors.New("no chromosome in title")}
	aligner := &fakeAligner{rec: &Record{Chrom: "chr1"}}
	deps.Aligner = aligner
	deps.Local = &fakeLocal{chrom: "chr1", off: 1, ref: "A", alt: "T"}

	r := New("hg19", deps)
	recs, err := r.Resolve("NC_000001.11:g.100T>G", Options{})
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Zero(t, aligner.calls)
}

func TestResolve_CodingProjectionFeedsAssemblyShortcut(t *testing.T) {
	deps := baseDeps()
	deps.Mapper = &fakeMapper{result: &hgvs.Variant{
		Accession: "NC_000012.11", Coord: hgvs.CoordGenomic,
		Start: 21331549, End: 21331549,
		Edit: hgvs.EditSubstitution, Ref: "T", Alt: "G",
	}}
	assembly := &fakeAssembly{chrom: "chr12", build: "GRCh37"}
	deps.Assembly = assembly
	aligner := &fakeAligner{}
	deps.Aligner = aligner

	r := New("hg19", deps)
	recs, err := r.Resolve("NM_006231.2:c.4A>G", Options{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, SourceAssembly, recs[0].Source)
	assert.Equal(t, int64(21331549), recs[0].Offset)
	assert.Equal(t, 1, assembly.calls)
	assert.Zero(t, aligner.calls)
}

func TestResolve_FailedProjectionKeepsCodingVariant(t *testing.T) {
	deps := baseDeps()
	deps.Mapper = &fakeMapper{err: errors.New("no alignment data")}
	deps.Local = &fakeLocal{chrom: "chr12", off: 21331549, ref: "T", alt: "G"}

	r := New("hg19", deps)
	recs, err := r.Resolve("NM_006231.2:c.4A>G", Options{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, SourceLocal, recs[0].Source)
}

func TestResolve_AmbiguityFansOutInOrder(t *testing.T) {
	deps := baseDeps()
	deps.Local = &fakeLocal{chrom: "chr2", off: 1387, ref: "C", alt: "X"}

	r := New("hg19", deps)
	recs, err := r.Resolve("1387C>T/A", Options{Transcript: "NM_1", RefType: hgvs.CoordCoding})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, SourceLocal, recs[0].Source)
	assert.Equal(t, SourceLocal, recs[1].Source)
}

func TestResolve_NameCheckRewriteReenters(t *testing.T) {
	deps := baseDeps()
	deps.NameCheck = &fakeNameCheck{canonical: "NM_006231.2:c.4A>G"}
	deps.Local = &fakeLocal{chrom: "chr12", off: 21331549, ref: "A", alt: "G"}

	r := New("hg19", deps)
	// Spaces make the strict parse and every correction rule fail.
	recs, err := r.Resolve("POLE c.4 A>G", Options{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, SourceLocal, recs[0].Source)
}

func TestResolve_NameCheckFailureIsNoResult(t *testing.T) {
	deps := baseDeps()
	deps.NameCheck = &fakeNameCheck{err: namecheck.ErrRejected}

	r := New("hg19", deps)
	recs, err := r.Resolve("POLE c.4 A>G", Options{})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestResolve_RSThroughSNPTable(t *testing.T) {
	deps := baseDeps()
	deps.SNPDB = &fakeSNPDB{locs: []*snpdb.Location{
		{Chrom: "chr7", Position: 140453136, Ref: "A", Alts: []string{"T"}},
	}}
	predictor := &fakePredictor{}
	deps.Predictor = predictor

	r := New("hg19", deps)
	recs, err := r.Resolve("rs113488022", Options{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, SourceSNPDB, recs[0].Source)
	assert.Equal(t, "A/T", recs[0].Ref+"/"+recs[0].Alt())
	assert.Zero(t, predictor.calls)
}

func TestResolve_RSMultipleRowsReturnAList(t *testing.T) {
	deps := baseDeps()
	deps.SNPDB = &fakeSNPDB{locs: []*snpdb.Location{
		{Chrom: "chr1", Position: 100, Ref: "A", Alts: []string{"T"}},
		{Chrom: "chr1_gl000191_random", Position: 5000, Ref: "A", Alts: []string{"T"}},
	}}

	r := New("hg19", deps)
	recs, err := r.Resolve("rs3", Options{})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "chr1", recs[0].Chrom)
	assert.Equal(t, "chr1_gl000191_random", recs[1].Chrom)
}

func TestResolve_RSFallsThroughToPredictor(t *testing.T) {
	deps := baseDeps()
	deps.SNPDB = &fakeSNPDB{err: snpdb.ErrNotFound}
	deps.Predictor = &fakePredictor{loc: &vep.Location{
		Chrom: "chr7", Position: 140453136, Ref: "A", Alts: []string{"T"},
	}}

	r := New("hg19", deps)
	recs, err := r.Resolve("rs305974", Options{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, SourcePredictor, recs[0].Source)
}

func TestResolve_RSNoResultNeverErrors(t *testing.T) {
	deps := baseDeps()
	deps.SNPDB = &fakeSNPDB{err: snpdb.ErrNotFound}
	deps.Predictor = &fakePredictor{err: vep.ErrNoPrediction}

	r := New("hg19", deps)
	recs, err := r.Resolve("rs305974", Options{})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestResolve_InvalidRefTypeIsHardError(t *testing.T) {
	r := New("hg19", baseDeps())
	_, err := r.Resolve("NM_1:c.1A>T", Options{RefType: hgvs.CoordProtein})
	assert.ErrorIs(t, err, hgvs.ErrInvalidRefType)
}

func TestResolve_ProteinVariantHasNoPlacement(t *testing.T) {
	deps := baseDeps()
	deps.Local = &fakeLocal{chrom: "chr1", off: 1, ref: "A", alt: "T"}

	r := New("hg19", deps)
	recs, err := r.Resolve("NP_000001.1:p.100T>G", Options{})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestResolve_CacheShortCircuits(t *testing.T) {
	db, err := store.OpenDB("")
	require.NoError(t, err)
	defer db.Close()

	local := &fakeLocal{chrom: "chr11", off: 2167746, ref: "T", alt: "G"}
	deps := baseDeps()
	deps.Local = local

	r := New("hg19", deps)
	r.SetCache(db)

	recs, err := r.Resolve("NM_006446.4:c.1198T>G", Options{})
	require.NoError(t, err)
	require.Len(t, recs, 1)

	// The second resolution is served from the cache even when the fast
	// path would now fail.
	local.err = errors.New("index gone")
	recs, err = r.Resolve("NM_006446.4:c.1198T>G", Options{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, SourceLocal, recs[0].Source)
	assert.Equal(t, int64(2167746), recs[0].Offset)
}

func TestResolveAll_PreservesOrder(t *testing.T) {
	deps := baseDeps()
	deps.Local = &fakeLocal{chrom: "chr1", off: 10, ref: "A", alt: "T"}
	deps.SNPDB = &fakeSNPDB{locs: []*snpdb.Location{
		{Chrom: "chr2", Position: 20, Ref: "C", Alts: []string{"G"}},
	}}

	r := New("hg19", deps)
	out, err := r.ResolveAll([]string{"NM_1:c.1A>T", "rs42", "garbage input"}, Options{})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, SourceLocal, out[0][0].Source)
	assert.Equal(t, SourceSNPDB, out[1][0].Source)
	assert.Empty(t, out[2])
}
