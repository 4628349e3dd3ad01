package genome

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Transcript is one row of the local transcript table: the exon layout of a
// RefSeq transcript on its genome assembly.
type Transcript struct {
	ID       string // accession, possibly versioned
	Chrom    string
	Strand   int8  // +1 or -1
	TxStart  int64 // transcript start (0-based, UCSC convention)
	TxEnd    int64
	CDSStart int64 // coding region start (0-based), equal to CDSEnd if non-coding
	CDSEnd   int64
	Exons    []Exon
}

// Exon is a genomic interval of a transcript (0-based half-open,
// UCSC convention).
type Exon struct {
	Start int64
	End   int64
}

// IsCoding returns true if the transcript has a coding region.
func (t *Transcript) IsCoding() bool {
	return t.CDSEnd > t.CDSStart
}

// IsForwardStrand returns true for plus-strand transcripts.
func (t *Transcript) IsForwardStrand() bool {
	return t.Strand == 1
}

// TranscriptIndex maps transcript accessions to their annotation. It is
// loaded once from a reference gene table and read-only afterwards.
type TranscriptIndex map[string]*Transcript

// Get looks up a transcript by accession, falling back to a versionless
// match when the exact accession is absent.
func (idx TranscriptIndex) Get(accession string) *Transcript {
	if t, ok := idx[accession]; ok {
		return t
	}
	if base, _, found := strings.Cut(accession, "."); found {
		if t, ok := idx[base]; ok {
			return t
		}
	}
	return nil
}

// LoadTranscripts parses a UCSC refGene-style table into an index. Lines
// have tab-separated fields, optionally led by a numeric bin column:
// name, chrom, strand, txStart, txEnd, cdsStart, cdsEnd, exonCount,
// exonStarts, exonEnds, ...
func LoadTranscripts(r io.Reader) (TranscriptIndex, error) {
	idx := make(TranscriptIndex)

	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\n")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		// Skip the UCSC bin column when present.
		if len(fields) > 0 {
			if _, err := strconv.Atoi(fields[0]); err == nil {
				fields = fields[1:]
			}
		}
		if len(fields) < 10 {
			return nil, fmt.Errorf("transcript table line %d: want at least 10 fields, got %d", lineNo, len(fields))
		}

		t := &Transcript{
			ID:    fields[0],
			Chrom: fields[1],
		}
		switch fields[2] {
		case "+":
			t.Strand = 1
		case "-":
			t.Strand = -1
		default:
			return nil, fmt.Errorf("transcript table line %d: bad strand %q", lineNo, fields[2])
		}

		var err error
		if t.TxStart, err = strconv.ParseInt(fields[3], 10, 64); err != nil {
			return nil, fmt.Errorf("transcript table line %d: txStart: %w", lineNo, err)
		}
		if t.TxEnd, err = strconv.ParseInt(fields[4], 10, 64); err != nil {
			return nil, fmt.Errorf("transcript table line %d: txEnd: %w", lineNo, err)
		}
		if t.CDSStart, err = strconv.ParseInt(fields[5], 10, 64); err != nil {
			return nil, fmt.Errorf("transcript table line %d: cdsStart: %w", lineNo, err)
		}
		if t.CDSEnd, err = strconv.ParseInt(fields[6], 10, 64); err != nil {
			return nil, fmt.Errorf("transcript table line %d: cdsEnd: %w", lineNo, err)
		}

		starts := splitCommaInts(fields[8])
		ends := splitCommaInts(fields[9])
		if len(starts) != len(ends) {
			return nil, fmt.Errorf("transcript table line %d: exon start/end count mismatch", lineNo)
		}
		for i := range starts {
			t.Exons = append(t.Exons, Exon{Start: starts[i], End: ends[i]})
		}

		idx[t.ID] = t
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan transcript table: %w", err)
	}
	return idx, nil
}

func splitCommaInts(s string) []int64 {
	var out []int64
	for _, part := range strings.Split(strings.TrimSuffix(s, ","), ",") {
		if part == "" {
			continue
		}
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}
