package remote

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/varloc/varloc/internal/datasource/snpdb"
)

const defaultUCSCAPIURL = "https://api.genome.ucsc.edu"

// UCSC queries the genome browser's track API for SNP table rows.
type UCSC struct {
	baseURL    string
	genome     string
	track      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewUCSC creates a SNP table client for a genome build and track name
// (e.g. "snp151").
func NewUCSC(genome, track string) *UCSC {
	return &UCSC{
		baseURL: defaultUCSCAPIURL,
		genome:  genome,
		track:   track,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: zap.NewNop(),
	}
}

// SetBaseURL overrides the endpoint, for tests.
func (u *UCSC) SetBaseURL(base string) {
	u.baseURL = base
}

// SetLogger sets the logger for request messages.
func (u *UCSC) SetLogger(l *zap.Logger) {
	u.logger = l
}

// snpRow mirrors the track API's row fields we consume.
type snpRow struct {
	Chrom    string `json:"chrom"`
	ChromEnd int64  `json:"chromEnd"`
	Name     string `json:"name"`
	Strand   string `json:"strand"`
	RefNCBI  string `json:"refNCBI"`
	RefUCSC  string `json:"refUCSC"`
	Observed string `json:"observed"`
	Class    string `json:"class"`
}

// FetchRows queries the SNP track by rs name. The API answers rows per
// chromosome; all of them are flattened in answer order.
func (u *UCSC) FetchRows(rsID string) ([]snpdb.Row, error) {
	q := url.Values{
		"genome": {u.genome},
		"track":  {u.track},
		"name":   {rsID},
	}
	resp, err := u.httpClient.Get(u.baseURL + "/getData/track?" + q.Encode())
	if err != nil {
		return nil, fmt.Errorf("query SNP track: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("SNP track answered %d for %s", resp.StatusCode, rsID)
	}

	// The row payload is keyed by the track name.
	var body map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode SNP track answer: %w", err)
	}
	raw, ok := body[u.track]
	if !ok {
		return nil, nil
	}

	rows, err := decodeRows(raw)
	if err != nil {
		return nil, fmt.Errorf("decode SNP rows for %s: %w", rsID, err)
	}

	out := make([]snpdb.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, snpdb.Row(r))
	}
	return out, nil
}

// decodeRows accepts both shapes the API uses: a flat row list, and a
// chromosome-keyed object of row lists.
func decodeRows(raw json.RawMessage) ([]snpRow, error) {
	var flat []snpRow
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat, nil
	}

	var byChrom map[string][]snpRow
	if err := json.Unmarshal(raw, &byChrom); err != nil {
		return nil, err
	}
	var out []snpRow
	for _, rows := range byChrom {
		out = append(out, rows...)
	}
	return out, nil
}
