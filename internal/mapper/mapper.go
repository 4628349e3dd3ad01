// Package mapper projects coding-DNA variants onto genomic coordinates
// through a remote coordinate-mapping authority.
package mapper

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/varloc/varloc/internal/hgvs"
)

var (
	// ErrNoData means the authority has no mapping data for the transcript
	// under the requested method; the next method should be tried.
	ErrNoData = errors.New("mapping data not available")

	// ErrAllMethodsFailed means every alignment method was tried without a
	// successful projection.
	ErrAllMethodsFailed = errors.New("all mapping methods failed")
)

// DefaultMethods is the fixed method precedence. Order matters: it is a
// precedence, not a quality ranking.
var DefaultMethods = []string{"splign", "blat", "genewise"}

// Backend performs a single projection attempt with one alignment method.
type Backend interface {
	MapCoding(v *hgvs.Variant, method string) (*hgvs.Variant, error)
}

// Mapper tries each alignment method in order until one projects the
// variant to genomic coordinates.
type Mapper struct {
	backend Backend
	methods []string
	logger  *zap.Logger
}

// New creates a mapper over a backend using the default method precedence.
func New(backend Backend) *Mapper {
	return &Mapper{backend: backend, methods: DefaultMethods, logger: zap.NewNop()}
}

// SetMethods overrides the method precedence.
func (m *Mapper) SetMethods(methods []string) {
	m.methods = methods
}

// SetLogger sets the logger for mapping messages.
func (m *Mapper) SetLogger(l *zap.Logger) {
	m.logger = l
}

// ToGenomic projects a coding-DNA variant to its genomic assembly. Methods
// failing with missing data or a generic mapping error both fall through to
// the next; if every method fails the caller proceeds to other strategies.
func (m *Mapper) ToGenomic(v *hgvs.Variant) (*hgvs.Variant, error) {
	if v.Coord != hgvs.CoordCoding {
		return nil, fmt.Errorf("variant %s:%s. is not coding", v.Accession, v.Coord)
	}

	for _, method := range m.methods {
		mapped, err := m.backend.MapCoding(v, method)
		if err != nil {
			if errors.Is(err, ErrNoData) {
				m.logger.Info("no mapping data for method",
					zap.String("method", method),
					zap.String("accession", v.Accession))
			} else {
				m.logger.Warn("mapping method failed",
					zap.String("method", method),
					zap.String("accession", v.Accession),
					zap.Error(err))
			}
			continue
		}
		if mapped != nil && mapped.Coord == hgvs.CoordGenomic {
			return mapped, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrAllMethodsFailed, v.Accession)
}
