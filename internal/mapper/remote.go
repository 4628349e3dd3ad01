package mapper

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/varloc/varloc/internal/hgvs"
)

// RemoteBackend queries a position-conversion service over HTTP. The
// service takes the variant name, genome build, and alignment method, and
// answers with the projected genomic location, or 404 when it has no
// alignment data for the transcript under that method.
type RemoteBackend struct {
	baseURL    string
	build      string
	httpClient *http.Client
}

// NewRemoteBackend creates a backend for a conversion service endpoint.
func NewRemoteBackend(baseURL, build string) *RemoteBackend {
	return &RemoteBackend{
		baseURL: baseURL,
		build:   build,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// mapResponse is the service's JSON answer.
type mapResponse struct {
	Accession string `json:"accession"`
	Position  int64  `json:"position"`
	Ref       string `json:"ref"`
	Alt       string `json:"alt"`
}

// MapCoding performs one projection attempt.
func (b *RemoteBackend) MapCoding(v *hgvs.Variant, method string) (*hgvs.Variant, error) {
	name := fmt.Sprintf("%s:c.%d%s>%s", v.Accession, v.Start, v.Ref, v.Alt)

	q := url.Values{
		"build":   {b.build},
		"method":  {method},
		"variant": {name},
	}
	resp, err := b.httpClient.Get(b.baseURL + "?" + q.Encode())
	if err != nil {
		return nil, fmt.Errorf("conversion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNoData
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("conversion service error %d", resp.StatusCode)
	}

	var mr mapResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, fmt.Errorf("decode conversion response: %w", err)
	}
	if mr.Accession == "" || mr.Position == 0 {
		return nil, ErrNoData
	}

	return &hgvs.Variant{
		Accession: mr.Accession,
		Coord:     hgvs.CoordGenomic,
		Start:     mr.Position,
		End:       mr.Position,
		Edit:      v.Edit,
		Ref:       mr.Ref,
		Alt:       mr.Alt,
	}, nil
}
