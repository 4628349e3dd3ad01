// Package blat submits sequence windows to a BLAT-style alignment search
// service and resolves relative positions to absolute chromosome positions
// from the returned alignments.
package blat

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoHits is returned when the search result table holds no alignments.
var ErrNoHits = errors.New("alignment search returned no hits")

// Hit is one ranked row of the search result table. RelStart and RelEnd are
// positions within the submitted query sequence; Start and End are on the
// matched chromosome.
type Hit struct {
	Query      string
	Score      int64
	RelStart   int64
	RelEnd     int64
	QSize      int64
	Identity   string
	Chrom      string
	Strand     string
	Start      int64
	End        int64
	Span       int64
	BrowseURL  string
	DetailsURL string
}

// ParseHits parses the HTML search result page into ranked hits, best first.
// The table lives in the first <pre> block: a header line naming the
// columns, then one row per hit led by browser/details hyperlinks.
func ParseHits(html string) ([]Hit, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse result page: %w", err)
	}

	pre := doc.Find("pre").First()
	if pre.Length() == 0 {
		return nil, ErrNoHits
	}

	lines := strings.Split(pre.Text(), "\n")
	if len(lines) == 0 {
		return nil, ErrNoHits
	}

	// Header names the columns after the ACTIONS column. START/END appear
	// twice: the first pair is relative to the query sequence.
	header := strings.Fields(lines[0])
	if len(header) > 0 {
		header = header[1:]
	}
	seenStart, seenEnd := false, false
	for i, h := range header {
		switch h {
		case "START":
			if !seenStart {
				header[i] = "RELATIVE_START"
				seenStart = true
			}
		case "END":
			if !seenEnd {
				header[i] = "RELATIVE_END"
				seenEnd = true
			}
		}
	}

	// The row links come in (browser, details) pairs, in row order.
	var urls []string
	pre.Find("a").Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok {
			urls = append(urls, href)
		}
	})

	var hits []Hit
	row := 0
	for _, line := range lines {
		if !strings.Contains(line, "details") {
			continue
		}
		// Skip the two link words ("browser details").
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		fields = fields[2:]

		values := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(fields) {
				values[name] = fields[i]
			}
		}

		hit := Hit{
			Query:    values["QUERY"],
			Score:    parseCol(values["SCORE"]),
			RelStart: parseCol(values["RELATIVE_START"]),
			RelEnd:   parseCol(values["RELATIVE_END"]),
			QSize:    parseCol(values["QSIZE"]),
			Identity: values["IDENTITY"],
			Chrom:    values["CHRO"],
			Strand:   values["STRAND"],
			Start:    parseCol(values["START"]),
			End:      parseCol(values["END"]),
			Span:     parseCol(values["SPAN"]),
		}
		if 2*row+1 < len(urls) {
			hit.BrowseURL = absoluteURL(urls[2*row])
			hit.DetailsURL = absoluteURL(urls[2*row+1])
		}
		hits = append(hits, hit)
		row++
	}

	if len(hits) == 0 {
		return nil, ErrNoHits
	}
	return hits, nil
}

func parseCol(s string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSuffix(s, "%"), 10, 64)
	return n
}

// absoluteURL rewrites the relative cgi-bin links of the result page.
func absoluteURL(href string) string {
	href = strings.Replace(href, "../cgi-bin", "", 1)
	if strings.HasPrefix(href, "http") {
		return href
	}
	return "https://genome.ucsc.edu/cgi-bin" + href
}
