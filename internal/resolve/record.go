// Package resolve drives the resolution cascade: a variant name or rs
// identifier goes in, and a normalized genomic coordinate record comes out
// of whichever strategy succeeds first.
package resolve

import "strings"

// Source tags the strategy that produced a record.
type Source string

const (
	SourceAssembly  Source = "assembly"  // reference-assembly metadata shortcut
	SourceLocal     Source = "local"     // local sequence converter fast path
	SourceGeneDB    Source = "genedb"    // gene-indexed variant database
	SourceAlignment Source = "alignment" // gene feature + alignment search
	SourceSNPDB     Source = "snpdb"     // SNP table lookup
	SourcePredictor Source = "predictor" // consequence predictor fallback
)

// Record is the sole output type: a genome-build-relative, 1-based
// placement of a variant. Alts holds one allele normally and several when
// the authority reported an ambiguous call. Records are constructed once
// by the winning strategy and never mutated.
type Record struct {
	Chrom  string   `json:"chrom"`
	Offset int64    `json:"offset"`
	Ref    string   `json:"ref"`
	Alts   []string `json:"alts"`
	Genome string   `json:"genome"`
	Source Source   `json:"source"`
}

// Alt returns the single alternate allele, or the alternates joined with
// "/" when the record is ambiguous.
func (r *Record) Alt() string {
	return strings.Join(r.Alts, "/")
}
