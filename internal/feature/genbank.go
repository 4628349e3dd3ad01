// Package feature builds coding-position mapping functions from annotated
// sequence records.
package feature

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// ErrMultipleRecords is returned when a feature stream holds more than one
// sequence record; the locator works on a single record only.
var ErrMultipleRecords = errors.New("annotated stream holds more than one record")

// Interval is a 1-based inclusive span on the record's sequence.
type Interval struct {
	Start int64
	End   int64
}

// Length returns the number of bases the interval covers.
func (iv Interval) Length() int64 {
	return iv.End - iv.Start + 1
}

// Record is the parsed feature table of one annotated sequence record.
// Intervals are kept in the order the annotation lists them, which is
// transcript (coding) order.
type Record struct {
	Accession  string
	Genes      []string              // gene names in annotation order
	CDS        map[string][]Interval // gene -> coding sequence intervals
	Exons      map[string][]Interval // gene -> transcript exon intervals
	Complement map[string]bool       // gene -> CDS annotated on the complement strand
}

var (
	locusRe     = regexp.MustCompile(`^LOCUS\s+(\S+)`)
	featureRe   = regexp.MustCompile(`^ {5}(\S+)\s+(.+)$`)
	qualifierRe = regexp.MustCompile(`^\s+/(\w+)(?:="?([^"]*)"?)?$`)
	intervalRe  = regexp.MustCompile(`^<?(\d+)(?:\.\.>?(\d+))?$`)
)

// ParseGenBank parses the feature table of a GenBank flat-file record.
// Exactly one record is allowed; a second LOCUS line is a hard error.
func ParseGenBank(r io.Reader) (*Record, error) {
	rec := &Record{
		CDS:        make(map[string][]Interval),
		Exons:      make(map[string][]Interval),
		Complement: make(map[string]bool),
	}

	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	type pending struct {
		key          string
		location     string
		gene         string
		sawQualifier bool
	}
	var cur *pending
	inFeatures := false
	sawLocus := false

	flush := func() error {
		if cur == nil {
			return nil
		}
		defer func() { cur = nil }()

		if cur.key != "CDS" && cur.key != "mRNA" && cur.key != "gene" {
			return nil
		}
		gene := cur.gene
		if gene == "" {
			gene = rec.Accession
		}

		switch cur.key {
		case "gene":
			for _, known := range rec.Genes {
				if known == gene {
					return nil
				}
			}
			rec.Genes = append(rec.Genes, gene)
		case "CDS", "mRNA":
			intervals, complement, err := parseLocation(cur.location)
			if err != nil {
				return fmt.Errorf("feature %s for gene %s: %w", cur.key, gene, err)
			}
			if cur.key == "CDS" {
				rec.CDS[gene] = intervals
				rec.Complement[gene] = complement
			} else {
				rec.Exons[gene] = intervals
			}
			// Records without explicit gene features still name their genes
			// through CDS/mRNA qualifiers.
			found := false
			for _, known := range rec.Genes {
				if known == gene {
					found = true
					break
				}
			}
			if !found {
				rec.Genes = append(rec.Genes, gene)
			}
		}
		return nil
	}

	for scanner.Scan() {
		line := scanner.Text()

		if m := locusRe.FindStringSubmatch(line); m != nil {
			if sawLocus {
				return nil, ErrMultipleRecords
			}
			sawLocus = true
			rec.Accession = m[1]
			continue
		}
		if strings.HasPrefix(line, "FEATURES") {
			inFeatures = true
			continue
		}
		if strings.HasPrefix(line, "ORIGIN") || line == "//" {
			inFeatures = false
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		if !inFeatures {
			continue
		}

		if m := featureRe.FindStringSubmatch(line); m != nil && !strings.HasPrefix(strings.TrimSpace(line), "/") {
			if err := flush(); err != nil {
				return nil, err
			}
			cur = &pending{key: m[1], location: strings.TrimSpace(m[2])}
			continue
		}
		if cur == nil {
			continue
		}
		if m := qualifierRe.FindStringSubmatch(line); m != nil {
			cur.sawQualifier = true
			if m[1] == "gene" {
				cur.gene = m[2]
			}
			continue
		}
		// A wrapped location continues until the first qualifier.
		if !cur.sawQualifier {
			cur.location += strings.TrimSpace(line)
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan record: %w", err)
	}
	if !sawLocus {
		return nil, errors.New("no LOCUS line: not an annotated record")
	}

	return rec, nil
}

// parseLocation parses a GenBank location string such as
// "join(50..100,200..250)" or "complement(join(10..20,30..40))".
func parseLocation(loc string) ([]Interval, bool, error) {
	loc = strings.TrimSpace(loc)

	complement := false
	if strings.HasPrefix(loc, "complement(") && strings.HasSuffix(loc, ")") {
		complement = true
		loc = loc[len("complement(") : len(loc)-1]
	}
	if strings.HasPrefix(loc, "join(") && strings.HasSuffix(loc, ")") {
		loc = loc[len("join(") : len(loc)-1]
	}

	var intervals []Interval
	for _, part := range strings.Split(loc, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		m := intervalRe.FindStringSubmatch(part)
		if m == nil {
			return nil, false, fmt.Errorf("bad location part %q", part)
		}
		start, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return nil, false, fmt.Errorf("bad location part %q: %w", part, err)
		}
		end := start
		if m[2] != "" {
			end, err = strconv.ParseInt(m[2], 10, 64)
			if err != nil {
				return nil, false, fmt.Errorf("bad location part %q: %w", part, err)
			}
		}
		if end < start {
			return nil, false, fmt.Errorf("inverted interval %q", part)
		}
		intervals = append(intervals, Interval{Start: start, End: end})
	}
	if len(intervals) == 0 {
		return nil, false, fmt.Errorf("empty location %q", loc)
	}
	return intervals, complement, nil
}
