package feature

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const singleGeneRecord = `LOCUS       NG_000004            12000 bp    DNA     linear   PRI
DEFINITION  Homo sapiens gene region.
FEATURES             Location/Qualifiers
     source          1..12000
     gene            1..12000
                     /gene="CYP2D6"
     mRNA            join(100..200,300..400,500..700)
                     /gene="CYP2D6"
     CDS             join(150..200,300..400)
                     /gene="CYP2D6"
//
`

const twoGeneRecord = `LOCUS       NG_000099            24000 bp    DNA     linear   PRI
FEATURES             Location/Qualifiers
     gene            1..12000
                     /gene="CYP2D6"
     CDS             join(150..200,300..400)
                     /gene="CYP2D6"
     gene            12001..24000
                     /gene="CYP2D7"
     CDS             join(12150..12200,12300..12400)
                     /gene="CYP2D7"
//
`

const noCDSRecord = `LOCUS       NR_003287            5000 bp    RNA     linear   PRI
FEATURES             Location/Qualifiers
     gene            1..5000
                     /gene="RNA45S5"
     mRNA            join(10..100,200..300)
                     /gene="RNA45S5"
//
`

func TestParseGenBank_SingleGene(t *testing.T) {
	rec, err := ParseGenBank(strings.NewReader(singleGeneRecord))
	require.NoError(t, err)

	assert.Equal(t, "NG_000004", rec.Accession)
	assert.Equal(t, []string{"CYP2D6"}, rec.Genes)
	require.Len(t, rec.CDS["CYP2D6"], 2)
	assert.Equal(t, Interval{150, 200}, rec.CDS["CYP2D6"][0])
	assert.Equal(t, Interval{300, 400}, rec.CDS["CYP2D6"][1])
	assert.Len(t, rec.Exons["CYP2D6"], 3)
}

func TestParseGenBank_MultipleRecordsIsHardError(t *testing.T) {
	two := singleGeneRecord + singleGeneRecord
	_, err := ParseGenBank(strings.NewReader(two))
	assert.ErrorIs(t, err, ErrMultipleRecords)
}

func TestBuild_AmbiguousNeedsHint(t *testing.T) {
	rec, err := ParseGenBank(strings.NewReader(twoGeneRecord))
	require.NoError(t, err)

	_, err = NewLocator().Build(rec, "")
	assert.ErrorIs(t, err, ErrAmbiguousGene)

	m, err := NewLocator().Build(rec, "CYP2D7")
	require.NoError(t, err)
	assert.Equal(t, "CYP2D7", m.Gene)
	assert.Equal(t, int64(12150), m.Fn(1))
}

func TestBuild_UnknownHint(t *testing.T) {
	rec, err := ParseGenBank(strings.NewReader(twoGeneRecord))
	require.NoError(t, err)

	_, err = NewLocator().Build(rec, "NOPE")
	assert.ErrorIs(t, err, ErrGeneNotFound)
}

func TestBuild_FallsBackToExons(t *testing.T) {
	rec, err := ParseGenBank(strings.NewReader(noCDSRecord))
	require.NoError(t, err)

	m, err := NewLocator().Build(rec, "")
	require.NoError(t, err)
	require.Len(t, m.Intervals, 2)
	assert.Equal(t, int64(10), m.Fn(1))
}

func TestMapFunc(t *testing.T) {
	rec, err := ParseGenBank(strings.NewReader(singleGeneRecord))
	require.NoError(t, err)
	m, err := NewLocator().Build(rec, "")
	require.NoError(t, err)

	// Coding intervals: [150,200] (51 bases) then [300,400] (101 bases).
	assert.Equal(t, int64(150), m.Fn(1))
	assert.Equal(t, int64(200), m.Fn(51))
	assert.Equal(t, int64(300), m.Fn(52))
	assert.Equal(t, int64(400), m.Fn(152))

	// UTR convention: offsets at or below zero count upstream of the first
	// coding base.
	assert.Equal(t, int64(149), m.Fn(-1))
	assert.Equal(t, int64(100), m.Fn(-50))

	// Past the last interval: linear extrapolation from its end.
	assert.Equal(t, int64(401), m.Fn(153))
	assert.Equal(t, int64(410), m.Fn(162))
}
