// Package remote implements the HTTP clients behind the datasource and
// genome interfaces: the sequence authority, the gene variant feeds, and
// the SNP table API.
package remote

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const defaultEntrezURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// entrezTool identifies this client to the provider, as its terms require.
const entrezTool = "varloc"

// Entrez fetches sequence records and their metadata from the NCBI E-utils
// endpoints. Every request carries the configured contact email.
type Entrez struct {
	baseURL    string
	email      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewEntrez creates a client for the sequence authority.
func NewEntrez(email string) *Entrez {
	return &Entrez{
		baseURL: defaultEntrezURL,
		email:   email,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: zap.NewNop(),
	}
}

// SetBaseURL overrides the endpoint, for tests.
func (e *Entrez) SetBaseURL(u string) {
	e.baseURL = u
}

// SetLogger sets the logger for request messages.
func (e *Entrez) SetLogger(l *zap.Logger) {
	e.logger = l
}

// FetchSequence returns the FASTA text for an accession.
func (e *Entrez) FetchSequence(accession string) (string, error) {
	return e.efetch(accession, "fasta")
}

// FetchAnnotated returns the flat-file record with feature annotation.
func (e *Entrez) FetchAnnotated(accession string) (string, error) {
	return e.efetch(accession, "gb")
}

func (e *Entrez) efetch(accession, rettype string) (string, error) {
	q := url.Values{
		"db":      {"nucleotide"},
		"id":      {accession},
		"rettype": {rettype},
		"retmode": {"text"},
		"tool":    {entrezTool},
		"email":   {e.email},
	}
	e.logger.Info("fetching sequence record",
		zap.String("accession", accession),
		zap.String("rettype", rettype))

	resp, err := e.httpClient.Get(e.baseURL + "/efetch.fcgi?" + q.Encode())
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", accession, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sequence authority answered %d for %s", resp.StatusCode, accession)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read record %s: %w", accession, err)
	}
	return string(raw), nil
}

// FetchTitle returns the descriptive title of a sequence record from the
// summary endpoint.
func (e *Entrez) FetchTitle(accession string) (string, error) {
	q := url.Values{
		"db":      {"nucleotide"},
		"id":      {accession},
		"retmode": {"json"},
		"tool":    {entrezTool},
		"email":   {e.email},
	}
	resp, err := e.httpClient.Get(e.baseURL + "/esummary.fcgi?" + q.Encode())
	if err != nil {
		return "", fmt.Errorf("fetch summary of %s: %w", accession, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sequence authority answered %d for %s", resp.StatusCode, accession)
	}

	// The summary result is keyed by numeric UID, which we do not know up
	// front; the uids list names it.
	var body struct {
		Result map[string]json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode summary of %s: %w", accession, err)
	}

	var uids []string
	if raw, ok := body.Result["uids"]; ok {
		if err := json.Unmarshal(raw, &uids); err != nil {
			return "", fmt.Errorf("decode summary uids: %w", err)
		}
	}
	if len(uids) == 0 {
		return "", fmt.Errorf("summary of %s names no records", accession)
	}

	var doc struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(body.Result[uids[0]], &doc); err != nil {
		return "", fmt.Errorf("decode summary record of %s: %w", accession, err)
	}
	return doc.Title, nil
}
