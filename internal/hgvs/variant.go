// Package hgvs provides parsing, repair, and classification of HGVS-style
// variant names.
package hgvs

import "fmt"

// CoordType identifies the coordinate system a variant is expressed in.
type CoordType string

const (
	CoordCoding  CoordType = "c" // coding DNA, relative to the CDS start
	CoordGenomic CoordType = "g" // genomic, relative to the reference sequence
	CoordProtein CoordType = "p" // protein
	CoordRS      CoordType = "rs" // dbSNP rs identifier, no positional payload
)

// EditType identifies the kind of sequence change a variant describes.
type EditType string

const (
	EditSubstitution EditType = "sub"
	EditDeletion     EditType = "del"
	EditInsertion    EditType = "ins"
	EditDelIns       EditType = "delins"
	EditDuplication  EditType = "dup"
)

// Variant is the structured form of a parsed variant name. It is immutable
// once produced by the parser; downstream stages derive coordinate records
// from it but never modify it.
type Variant struct {
	Accession string    // Reference sequence accession (e.g. NM_006446.4)
	Coord     CoordType // Coordinate system tag
	Start     int64     // 1-based start position; negative values are 5'UTR offsets
	End       int64     // 1-based end position for ranged edits, else equal to Start
	Edit      EditType  // Kind of change
	Ref       string    // Declared reference allele, empty when not stated
	Alt       string    // Declared alternate allele, empty for plain deletions/duplications
}

// IsCoding returns true for coding-DNA (c.) variants.
func (v *Variant) IsCoding() bool {
	return v.Coord == CoordCoding
}

// IsGenomic returns true for genomic (g.) variants.
func (v *Variant) IsGenomic() bool {
	return v.Coord == CoordGenomic
}

// Notation renders the position-and-edit part of the name, e.g. "c.1198T>G"
// or "c.2047_2049del". This is the form gene databases index verbatim.
func (v *Variant) Notation() string {
	span := fmt.Sprintf("%d", v.Start)
	if v.End != v.Start {
		span = fmt.Sprintf("%d_%d", v.Start, v.End)
	}
	switch v.Edit {
	case EditSubstitution:
		return fmt.Sprintf("%s.%s%s>%s", v.Coord, span, v.Ref, v.Alt)
	case EditDeletion:
		return fmt.Sprintf("%s.%sdel%s", v.Coord, span, v.Ref)
	case EditInsertion:
		return fmt.Sprintf("%s.%sins%s", v.Coord, span, v.Alt)
	case EditDelIns:
		return fmt.Sprintf("%s.%sdelins%s", v.Coord, span, v.Alt)
	case EditDuplication:
		return fmt.Sprintf("%s.%sdup%s", v.Coord, span, v.Ref)
	}
	return fmt.Sprintf("%s.%s", v.Coord, span)
}

// Name renders the full variant name, accession included.
func (v *Variant) Name() string {
	return v.Accession + ":" + v.Notation()
}
