package genome

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varloc/varloc/internal/hgvs"
)

func TestStripFASTA(t *testing.T) {
	raw := ">NM_1 test record\nACGT\nTTAA\n"
	assert.Equal(t, "ACGTTTAA", StripFASTA(raw))

	// Already-plain input passes through.
	assert.Equal(t, "ACGT", StripFASTA("ACGT"))
}

func TestReadFASTA(t *testing.T) {
	raw := ">chr1 assembled\nACGTACGT\nTT\n>chr2\nGGGG\n"
	seqs, err := ReadFASTA(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "ACGTACGTTT", seqs["chr1"])
	assert.Equal(t, "GGGG", seqs["chr2"])
}

func TestComplement_RoundTrip(t *testing.T) {
	assert.Equal(t, "T", Complement("A"))
	assert.Equal(t, "GATC", Complement("CTAG"))
	for _, allele := range []string{"A", "ACGT", "TTGGCCAA"} {
		assert.Equal(t, allele, Complement(Complement(allele)), allele)
	}
	assert.Equal(t, "ACGT", ReverseComplement("ACGT"))
}

func TestMakeWindow_InteriorPosition(t *testing.T) {
	seq := strings.Repeat("A", 50000) + "G" + strings.Repeat("C", 50000)
	pos := int64(50001) // the single G

	w, err := MakeWindow("NM_1", seq, pos)
	require.NoError(t, err)
	assert.Equal(t, int64(pos-Margin), w.Start)
	assert.Equal(t, int64(pos+Margin), w.End)
	assert.Equal(t, int64(Margin), w.RelativePos)
	assert.Equal(t, byte('G'), w.Sequence[w.RelativePos-1])
	assert.Equal(t, "NM_1_30001_70001", w.Key())
}

func TestMakeWindow_NearStart(t *testing.T) {
	seq := strings.Repeat("T", 99) + "G" + strings.Repeat("A", 200)
	pos := int64(100)

	w, err := MakeWindow("NM_1", seq, pos)
	require.NoError(t, err)
	assert.Equal(t, int64(0), w.Start)
	assert.Equal(t, int64(300), w.End)
	assert.Equal(t, pos, w.RelativePos)
	assert.Equal(t, byte('G'), w.Sequence[w.RelativePos-1])
}

// The boundary invariant must hold for every valid position.
func TestMakeWindow_BoundaryInvariant(t *testing.T) {
	seq := "ACGTACGTACGTACGTACGT"
	for pos := int64(1); pos <= int64(len(seq)); pos++ {
		w, err := MakeWindow("NM_1", seq, pos)
		require.NoError(t, err)
		assert.Equal(t, seq[pos-1], w.Sequence[w.RelativePos-1])
	}

	_, err := MakeWindow("NM_1", seq, 0)
	assert.Error(t, err)
	_, err = MakeWindow("NM_1", seq, int64(len(seq))+1)
	assert.Error(t, err)
}

func TestLoadTranscripts(t *testing.T) {
	// refGene format with leading bin column.
	table := "585\tNM_006446.4\tchr12\t+\t21283000\t21394617\t21284127\t21392730\t3\t21283000,21300000,21390000,\t21284500,21300500,21394617,\t0\tSLCO1B1\n"
	idx, err := LoadTranscripts(strings.NewReader(table))
	require.NoError(t, err)

	tr := idx.Get("NM_006446.4")
	require.NotNil(t, tr)
	assert.Equal(t, "chr12", tr.Chrom)
	assert.Equal(t, int8(1), tr.Strand)
	assert.Len(t, tr.Exons, 3)

	// Versionless fallback.
	assert.NotNil(t, idx.Get("NM_006446.4"))
	assert.Nil(t, idx.Get("NM_000000.1"))
}

// testTranscript is a small plus-strand transcript:
// exons [100,110) and [120,130), CDS [103,127) (0-based half-open).
func testTranscript() *Transcript {
	return &Transcript{
		ID:       "NM_1",
		Chrom:    "chr1",
		Strand:   1,
		TxStart:  100,
		TxEnd:    130,
		CDSStart: 103,
		CDSEnd:   127,
		Exons:    []Exon{{100, 110}, {120, 130}},
	}
}

func TestCodingToGenomic_ForwardStrand(t *testing.T) {
	tr := testTranscript()

	// First coding base: 0-based 103 -> 1-based 104.
	pos, err := tr.CodingToGenomic(1)
	require.NoError(t, err)
	assert.Equal(t, int64(104), pos)

	// Last base of exon 1 coding part: c.7 -> 0-based 109 -> 1-based 110.
	pos, err = tr.CodingToGenomic(7)
	require.NoError(t, err)
	assert.Equal(t, int64(110), pos)

	// First base of exon 2: c.8 -> 1-based 121.
	pos, err = tr.CodingToGenomic(8)
	require.NoError(t, err)
	assert.Equal(t, int64(121), pos)

	// Beyond the coding length.
	_, err = tr.CodingToGenomic(100)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = tr.CodingToGenomic(0)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestCodingToGenomic_ReverseStrand(t *testing.T) {
	tr := testTranscript()
	tr.Strand = -1

	// First coding base on minus strand is the genomic CDS end: 1-based 127.
	pos, err := tr.CodingToGenomic(1)
	require.NoError(t, err)
	assert.Equal(t, int64(127), pos)

	// c.7 walks back through exon 2's coding part [120,127): 7 bases, so
	// c.7 is 1-based 121.
	pos, err = tr.CodingToGenomic(7)
	require.NoError(t, err)
	assert.Equal(t, int64(121), pos)

	// c.8 crosses into exon 1 coding part [103,110): 1-based 110.
	pos, err = tr.CodingToGenomic(8)
	require.NoError(t, err)
	assert.Equal(t, int64(110), pos)
}

func TestConvert_ForwardStrand(t *testing.T) {
	tr := testTranscript()
	lookup := func(acc string) *Transcript {
		if acc == "NM_1" {
			return tr
		}
		return nil
	}

	// chr1 sequence: position 104 (1-based) must carry the declared ref T.
	seq := strings.Repeat("A", 103) + "T" + strings.Repeat("A", 100)
	ref := MapReference{"chr1": seq}

	c := NewConverter(ref, lookup)
	v := &hgvs.Variant{Accession: "NM_1", Coord: hgvs.CoordCoding, Start: 1, End: 1,
		Edit: hgvs.EditSubstitution, Ref: "T", Alt: "G"}

	chrom, offset, vref, valt, err := c.Convert(v)
	require.NoError(t, err)
	assert.Equal(t, "chr1", chrom)
	assert.Equal(t, int64(104), offset)
	assert.Equal(t, "T", vref)
	assert.Equal(t, "G", valt)
}

func TestConvert_ReverseStrandComplements(t *testing.T) {
	tr := testTranscript()
	tr.Strand = -1
	lookup := func(string) *Transcript { return tr }

	// c.1 maps to 1-based 127; declared coding ref T means genomic A.
	seq := strings.Repeat("C", 126) + "A" + strings.Repeat("C", 100)
	ref := MapReference{"chr1": seq}

	c := NewConverter(ref, lookup)
	v := &hgvs.Variant{Accession: "NM_1", Coord: hgvs.CoordCoding, Start: 1, End: 1,
		Edit: hgvs.EditSubstitution, Ref: "T", Alt: "G"}

	chrom, offset, vref, valt, err := c.Convert(v)
	require.NoError(t, err)
	assert.Equal(t, "chr1", chrom)
	assert.Equal(t, int64(127), offset)
	assert.Equal(t, "A", vref)
	assert.Equal(t, "C", valt)
}

func TestConvert_FailureKinds(t *testing.T) {
	tr := testTranscript()
	ref := MapReference{"chr1": strings.Repeat("A", 200)}

	c := NewConverter(ref, func(acc string) *Transcript {
		if acc == "NM_1" {
			return tr
		}
		return nil
	})

	// Missing key.
	_, _, _, _, err := c.Convert(&hgvs.Variant{Accession: "NM_2", Coord: hgvs.CoordCoding,
		Start: 1, Edit: hgvs.EditSubstitution, Ref: "A", Alt: "G"})
	assert.ErrorIs(t, err, ErrTranscriptNotFound)

	// Out-of-range index.
	_, _, _, _, err = c.Convert(&hgvs.Variant{Accession: "NM_1", Coord: hgvs.CoordCoding,
		Start: 10000, Edit: hgvs.EditSubstitution, Ref: "A", Alt: "G"})
	assert.ErrorIs(t, err, ErrOutOfRange)

	// Invalid value: declared reference disagrees with the genome.
	_, _, _, _, err = c.Convert(&hgvs.Variant{Accession: "NM_1", Coord: hgvs.CoordCoding,
		Start: 1, Edit: hgvs.EditSubstitution, Ref: "T", Alt: "G"})
	assert.ErrorIs(t, err, ErrInvalidVariant)

	// Genomic variants are not converted locally.
	_, _, _, _, err = c.Convert(&hgvs.Variant{Accession: "NM_1", Coord: hgvs.CoordGenomic,
		Start: 1, Edit: hgvs.EditSubstitution, Ref: "A", Alt: "G"})
	assert.ErrorIs(t, err, ErrInvalidVariant)
}
