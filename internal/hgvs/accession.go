package hgvs

import "strings"

// Category is the semantic class of a reference sequence accession,
// determined by its two-letter prefix.
type Category string

const (
	CategoryGenomicReference  Category = "genomic_reference"  // complete genomic molecule (NC)
	CategoryGenomicIncomplete Category = "genomic_incomplete" // incomplete genomic region (NG)
	CategoryContig            Category = "contig"             // contig or scaffold (NT, NW)
	CategoryMRNA              Category = "mrna"               // protein-coding transcript (NM)
	CategoryNCRNA             Category = "ncrna"              // non-coding transcript (NR)
	CategoryProtein           Category = "protein"            // protein product (NP, AP)
	CategoryPredictedMRNA     Category = "predicted_mrna"     // model transcript (XM)
	CategoryPredictedNCRNA    Category = "predicted_ncrna"    // model non-coding transcript (XR)
	CategoryPredictedProtein  Category = "predicted_protein"  // model protein (XP)
	CategoryUnknown           Category = "unknown"
)

// accessionCategories is the fixed prefix table. RefSeq prefix semantics:
// https://www.ncbi.nlm.nih.gov/books/NBK21091/table/ch18.T.refseq_accession_numbers_and_mole
var accessionCategories = map[string]Category{
	"NC": CategoryGenomicReference,
	"AC": CategoryGenomicReference,
	"NG": CategoryGenomicIncomplete,
	"NT": CategoryContig,
	"NW": CategoryContig,
	"NZ": CategoryContig,
	"NM": CategoryMRNA,
	"NR": CategoryNCRNA,
	"NP": CategoryProtein,
	"AP": CategoryProtein,
	"XM": CategoryPredictedMRNA,
	"XR": CategoryPredictedNCRNA,
	"XP": CategoryPredictedProtein,
}

// ClassifyAccession maps an accession to its semantic category using the
// two-letter prefix before the underscore. It is a pure function: unknown or
// malformed prefixes yield CategoryUnknown, never an error, and callers must
// handle that result gracefully.
func ClassifyAccession(accession string) Category {
	prefix, _, found := strings.Cut(accession, "_")
	if !found || len(prefix) != 2 {
		return CategoryUnknown
	}
	if cat, ok := accessionCategories[strings.ToUpper(prefix)]; ok {
		return cat
	}
	return CategoryUnknown
}
