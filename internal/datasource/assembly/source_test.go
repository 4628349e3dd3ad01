package assembly

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	title string
	err   error
}

func (f *fakeFetcher) FetchTitle(string) (string, error) {
	return f.title, f.err
}

func TestLocate(t *testing.T) {
	s := NewSource(&fakeFetcher{title: "Homo sapiens chromosome 12, GRCh38.p14 Primary Assembly"})

	chrom, build, err := s.Locate("NC_000012.12")
	require.NoError(t, err)
	assert.Equal(t, "chr12", chrom)
	assert.Equal(t, "GRCh38.p14", build)
}

func TestLocate_BuildOptional(t *testing.T) {
	s := NewSource(&fakeFetcher{title: "Homo sapiens chromosome X, complete sequence"})

	chrom, build, err := s.Locate("NC_000023.11")
	require.NoError(t, err)
	assert.Equal(t, "chrX", chrom)
	assert.Empty(t, build)
}

func TestLocate_NoMatchIsHardError(t *testing.T) {
	s := NewSource(&fakeFetcher{title: "Homo sapiens some plasmid"})

	_, _, err := s.Locate("NC_999999.1")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestLocate_FetchError(t *testing.T) {
	s := NewSource(&fakeFetcher{err: errors.New("network down")})

	_, _, err := s.Locate("NC_000012.12")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoMatch)
}
