package genedb

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// The per-gene variant feed is an Atom document. Each entry's content holds
// "field:value" lines; the ones we use are "Variant/DNA" (the coding
// notation) and "position_genomic" ("chrX:18602477" for points,
// "chrX:18602477_18602478" for ranges).
type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID      string `xml:"id"`
	Content string `xml:"content"`
}

type feedEntry struct {
	dna      string
	chrom    string
	position string
}

func parseFeed(raw string) ([]feedEntry, error) {
	var feed atomFeed
	if err := xml.Unmarshal([]byte(raw), &feed); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	var entries []feedEntry
	for _, ae := range feed.Entries {
		e := feedEntry{}
		for _, line := range strings.Split(ae.Content, "\n") {
			field, value, found := strings.Cut(strings.TrimSpace(line), ":")
			if !found {
				continue
			}
			value = strings.TrimSpace(value)
			switch strings.TrimSpace(field) {
			case "Variant/DNA":
				e.dna = value
			case "position_genomic":
				e.chrom, e.position = splitGenomicPosition(value)
			}
		}
		if e.dna != "" {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// splitGenomicPosition splits "chrX:18602477_18602478" into chromosome and
// position part. Entries without a chromosome prefix keep an empty chrom.
func splitGenomicPosition(v string) (chrom, pos string) {
	if c, p, found := strings.Cut(v, ":"); found {
		return c, p
	}
	return "", v
}
