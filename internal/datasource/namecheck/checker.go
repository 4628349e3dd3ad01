// Package namecheck validates and normalizes variant names against the
// online name-checker service, caching each response page locally.
package namecheck

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/varloc/varloc/internal/store"
)

// ErrRejected means the checker flagged the name as invalid. The cached
// page is discarded so a corrected retry is not served the stale error.
var ErrRejected = errors.New("name checker rejected the variant")

// ErrUncheckable marks inputs the checker cannot take at all, such as
// ambiguous names containing a slash.
var ErrUncheckable = errors.New("variant cannot be submitted to the name checker")

// Result is the checker's verdict on a variant name.
type Result struct {
	// Canonical is the checker's normalized genomic description.
	Canonical string
	// Warnings are non-fatal notes the checker attached.
	Warnings []string
}

// Checker submits variant names to the name-checker service.
type Checker struct {
	baseURL    string
	files      *store.Files
	httpClient *http.Client
	logger     *zap.Logger
}

// NewChecker creates a checker against a service base URL, caching pages
// in the local file cache.
func NewChecker(baseURL string, files *store.Files) *Checker {
	return &Checker{
		baseURL: baseURL,
		files:   files,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for check messages.
func (c *Checker) SetLogger(l *zap.Logger) {
	c.logger = l
}

// Check submits a variant name and returns the checker's normalized
// description. Names containing a slash are ambiguous (two alternates in
// one name) and are refused before any request is made. geneHint, when
// non-empty, is inserted after the accession for transcripts the checker
// cannot pick a gene for on its own.
func (c *Checker) Check(variant, geneHint string) (*Result, error) {
	if strings.Contains(variant, "/") {
		return nil, fmt.Errorf("%w: %q contains a slash", ErrUncheckable, variant)
	}

	name := variant
	if geneHint != "" {
		name = insertGeneHint(variant, geneHint)
	}

	page, key, err := c.fetchPage(name)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse checker page: %w", err)
	}

	if msgs := errorBanners(doc); len(msgs) > 0 {
		// Drop the cached page: a rerun after upstream fixes should
		// refetch instead of replaying the rejection.
		if rmErr := c.files.Remove(store.ConcernNameCheck, key); rmErr != nil {
			c.logger.Warn("could not discard rejected checker page",
				zap.String("key", key), zap.Error(rmErr))
		}
		return nil, fmt.Errorf("%w: %s", ErrRejected, strings.Join(msgs, "; "))
	}

	res := &Result{}
	doc.Find("div.warning p").Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			res.Warnings = append(res.Warnings, text)
		}
	})

	res.Canonical = strings.TrimSpace(doc.Find("#description code").First().Text())
	if res.Canonical == "" {
		return nil, fmt.Errorf("checker page for %q has no description", name)
	}

	if len(res.Warnings) > 0 {
		c.logger.Info("name checker attached warnings",
			zap.String("variant", name),
			zap.Strings("warnings", res.Warnings))
	}
	return res, nil
}

// fetchPage returns the cached checker page for a name, fetching and
// caching it on a miss. The second return is the cache key.
func (c *Checker) fetchPage(name string) (string, string, error) {
	key := cacheKey(name)
	if c.files.Exists(store.ConcernNameCheck, key) {
		raw, err := c.files.Read(store.ConcernNameCheck, key)
		if err != nil {
			return "", "", fmt.Errorf("read cached checker page: %w", err)
		}
		return string(raw), key, nil
	}

	q := url.Values{"description": {name}}
	resp, err := c.httpClient.Get(c.baseURL + "?" + q.Encode())
	if err != nil {
		return "", "", fmt.Errorf("name check request for %q: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("name checker answered %d for %q", resp.StatusCode, name)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("read checker response: %w", err)
	}
	if err := c.files.Write(store.ConcernNameCheck, key, raw); err != nil {
		return "", "", fmt.Errorf("cache checker page: %w", err)
	}
	return string(raw), key, nil
}

// insertGeneHint rewrites "NM_000138.4:c.1A>T" into
// "NM_000138.4(FBN1):c.1A>T". Names without a colon are left alone.
func insertGeneHint(variant, gene string) string {
	accession, rest, found := strings.Cut(variant, ":")
	if !found || strings.Contains(accession, "(") {
		return variant
	}
	return fmt.Sprintf("%s(%s):%s", accession, gene, rest)
}

// errorBanners collects the page's error messages, if any.
func errorBanners(doc *goquery.Document) []string {
	var msgs []string
	doc.Find("div.error p, p.error").Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			msgs = append(msgs, text)
		}
	})
	return msgs
}

// cacheKey flattens a variant name into a file name.
func cacheKey(name string) string {
	r := strings.NewReplacer(">", "_gt_", "<", "_lt_", ":", "_")
	return r.Replace(name) + ".html"
}
