// Package vep is the last-resort rs resolver: a consequence prediction
// service that reports, per transcript, which allele a variant introduces.
// The location comes from the prediction record and the alleles are
// reassembled from the per-transcript predictions.
package vep

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrNoPrediction means the service has no predictions for the identifier.
var ErrNoPrediction = errors.New("no consequence predictions for identifier")

// prediction is one record of the service's JSON answer.
type prediction struct {
	SeqRegionName string `json:"seq_region_name"`
	Start         int64  `json:"start"`
	AlleleString  string `json:"allele_string"`
	Consequences  []struct {
		VariantAllele string `json:"variant_allele"`
	} `json:"transcript_consequences"`
}

// Location is a predicted placement. Alts are the distinct predicted
// variant alleles; Ref is what remains of the allele string once the
// predicted alternates are taken out.
type Location struct {
	Chrom    string
	Position int64
	Ref      string
	Alts     []string
}

// Source queries the consequence prediction service.
type Source struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewSource creates a predictor source for a service base URL.
func NewSource(baseURL string) *Source {
	return &Source{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for prediction messages.
func (s *Source) SetLogger(l *zap.Logger) {
	s.logger = l
}

// Locate resolves an rs identifier through the predictions endpoint.
func (s *Source) Locate(rsID string) (*Location, error) {
	resp, err := s.httpClient.Get(fmt.Sprintf("%s/%s?content-type=application/json", s.baseURL, rsID))
	if err != nil {
		return nil, fmt.Errorf("prediction request for %s: %w", rsID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest {
		return nil, fmt.Errorf("%w: %s", ErrNoPrediction, rsID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("prediction service answered %d for %s", resp.StatusCode, rsID)
	}

	var preds []prediction
	if err := json.NewDecoder(resp.Body).Decode(&preds); err != nil {
		return nil, fmt.Errorf("decode predictions for %s: %w", rsID, err)
	}
	if len(preds) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPrediction, rsID)
	}

	return s.locationFromPrediction(rsID, preds[0])
}

func (s *Source) locationFromPrediction(rsID string, p prediction) (*Location, error) {
	seen := make(map[string]bool)
	var alts []string
	for _, c := range p.Consequences {
		if c.VariantAllele == "" || seen[c.VariantAllele] {
			continue
		}
		seen[c.VariantAllele] = true
		alts = append(alts, c.VariantAllele)
	}
	sort.Strings(alts)
	if len(alts) == 0 {
		return nil, fmt.Errorf("%w: %s has no per-transcript alleles", ErrNoPrediction, rsID)
	}

	// The allele string lists every allele; whatever the predictions do
	// not claim as an alternate is the reference.
	var refs []string
	for _, allele := range strings.Split(p.AlleleString, "/") {
		if allele != "" && !seen[allele] {
			refs = append(refs, allele)
		}
	}
	if len(refs) != 1 {
		s.logger.Warn("allele string does not leave exactly one reference allele",
			zap.String("rs", rsID),
			zap.String("alleleString", p.AlleleString),
			zap.Strings("alts", alts))
	}
	ref := ""
	if len(refs) > 0 {
		ref = refs[0]
	}

	chrom := p.SeqRegionName
	if !strings.HasPrefix(chrom, "chr") {
		chrom = "chr" + chrom
	}

	return &Location{
		Chrom:    chrom,
		Position: p.Start,
		Ref:      ref,
		Alts:     alts,
	}, nil
}
