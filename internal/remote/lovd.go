package remote

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const defaultLOVDURL = "https://databases.lovd.nl/shared/api/rest.php"

// LOVD serves the gene database feeds: the bulk gene listing the
// cross-reference table is built from, and the per-gene variant feed.
type LOVD struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewLOVD creates a gene database feed client.
func NewLOVD() *LOVD {
	return &LOVD{
		baseURL: defaultLOVDURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: zap.NewNop(),
	}
}

// SetBaseURL overrides the endpoint, for tests.
func (l *LOVD) SetBaseURL(u string) {
	l.baseURL = u
}

// SetLogger sets the logger for request messages.
func (l *LOVD) SetLogger(lg *zap.Logger) {
	l.logger = lg
}

// BulkGenes streams the full gene listing. The caller owns the closer; the
// listing runs to tens of thousands of entries, so it is parsed as a
// stream rather than buffered.
func (l *LOVD) BulkGenes() (io.ReadCloser, error) {
	l.logger.Info("downloading bulk gene feed")
	resp, err := l.httpClient.Get(l.baseURL + "/genes")
	if err != nil {
		return nil, fmt.Errorf("fetch bulk gene feed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("gene feed answered %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// FetchGeneVariants returns the raw variant feed for one gene.
func (l *LOVD) FetchGeneVariants(gene string) (string, error) {
	resp, err := l.httpClient.Get(l.baseURL + "/variants/" + gene)
	if err != nil {
		return "", fmt.Errorf("fetch variants for %s: %w", gene, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("variant feed answered %d for %s", resp.StatusCode, gene)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read variant feed for %s: %w", gene, err)
	}
	return string(raw), nil
}
