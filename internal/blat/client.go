package blat

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/varloc/varloc/internal/genome"
	"github.com/varloc/varloc/internal/store"
)

const (
	defaultSearchURL = "https://genome.ucsc.edu/cgi-bin/hgBlat"
	defaultSiteURL   = "https://genome.ucsc.edu"
)

// Client submits sequence windows to the alignment search service and
// caches the raw responses on disk keyed by window, so repeated lookups are
// served locally.
type Client struct {
	searchURL  string
	siteURL    string
	genomeName string
	files      *store.Files
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client for the given genome build (e.g. "hg19").
func NewClient(genomeName string, files *store.Files) *Client {
	return &Client{
		searchURL:  defaultSearchURL,
		siteURL:    defaultSiteURL,
		genomeName: genomeName,
		files:      files,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		logger:     zap.NewNop(),
	}
}

// SetLogger sets the logger for search and cache messages.
func (c *Client) SetLogger(l *zap.Logger) {
	c.logger = l
}

// SetBaseURLs overrides the service endpoints; used by tests.
func (c *Client) SetBaseURLs(searchURL, siteURL string) {
	c.searchURL = searchURL
	c.siteURL = siteURL
}

// Search submits the window's sequence for alignment and returns the ranked
// hits. The raw result page is persisted per (accession, chunk bounds).
func (c *Client) Search(w genome.Window) ([]Hit, error) {
	key := w.Key() + ".results.html"

	if !c.files.Exists(store.ConcernBlat, key) {
		c.logger.Info("no cached search result, submitting window",
			zap.String("window", w.Key()),
			zap.Int("length", len(w.Sequence)))

		form := url.Values{
			"org":     {"Human"},
			"db":      {c.genomeName},
			"sort":    {"query,score"},
			"output":  {"hyperlink"},
			"userSeq": {w.Sequence},
			"type":    {"BLAT's guess"},
		}
		resp, err := c.httpClient.PostForm(c.searchURL, form)
		if err != nil {
			return nil, fmt.Errorf("submit alignment search: %w", err)
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read search response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("alignment search error %d", resp.StatusCode)
		}
		if err := c.files.Write(store.ConcernBlat, key, body); err != nil {
			return nil, fmt.Errorf("cache search result: %w", err)
		}
	}

	raw, err := c.files.Read(store.ConcernBlat, key)
	if err != nil {
		return nil, fmt.Errorf("read cached search result: %w", err)
	}
	return ParseHits(string(raw))
}

// Alignment returns the detailed alignment text for a hit. The detail page
// references the actual alignment through a nested frame; both fetches are
// collapsed into one cached text file per window.
func (c *Client) Alignment(hit Hit, w genome.Window) (string, error) {
	key := w.Key() + ".blat"

	if c.files.Exists(store.ConcernBlat, key) {
		raw, err := c.files.Read(store.ConcernBlat, key)
		if err != nil {
			return "", fmt.Errorf("read cached alignment: %w", err)
		}
		return string(raw), nil
	}

	c.logger.Info("no cached alignment, fetching detail page",
		zap.String("window", w.Key()),
		zap.String("url", hit.DetailsURL))

	framePage, err := c.get(hit.DetailsURL)
	if err != nil {
		return "", fmt.Errorf("fetch detail page: %w", err)
	}

	frameURL, err := c.alignmentFrameURL(framePage)
	if err != nil {
		return "", err
	}

	alignmentPage, err := c.get(frameURL)
	if err != nil {
		return "", fmt.Errorf("fetch alignment page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(alignmentPage))
	if err != nil {
		return "", fmt.Errorf("parse alignment page: %w", err)
	}
	text := doc.Text()

	if err := c.files.Write(store.ConcernBlat, key, []byte(text)); err != nil {
		return "", fmt.Errorf("cache alignment: %w", err)
	}
	return text, nil
}

// alignmentFrameURL extracts the second frame's target from the detail page.
func (c *Client) alignmentFrameURL(page string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parse detail page: %w", err)
	}

	frames := doc.Find("frame")
	if frames.Length() < 2 {
		return "", fmt.Errorf("detail page has %d frames, want 2", frames.Length())
	}
	src, ok := frames.Eq(1).Attr("src")
	if !ok {
		return "", fmt.Errorf("detail frame has no src")
	}

	return c.siteURL + "/" + strings.ReplaceAll(src, "../", ""), nil
}

func (c *Client) get(u string) (string, error) {
	resp, err := c.httpClient.Get(u)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("http error %d for %s", resp.StatusCode, u)
	}
	return string(body), nil
}
