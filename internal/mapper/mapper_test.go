package mapper

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varloc/varloc/internal/hgvs"
)

// fakeBackend scripts per-method outcomes.
type fakeBackend struct {
	results map[string]*hgvs.Variant
	errs    map[string]error
	calls   []string
}

func (f *fakeBackend) MapCoding(v *hgvs.Variant, method string) (*hgvs.Variant, error) {
	f.calls = append(f.calls, method)
	if err, ok := f.errs[method]; ok {
		return nil, err
	}
	return f.results[method], nil
}

func codingVariant() *hgvs.Variant {
	return &hgvs.Variant{Accession: "NM_1", Coord: hgvs.CoordCoding, Start: 100, End: 100,
		Edit: hgvs.EditSubstitution, Ref: "A", Alt: "G"}
}

func TestToGenomic_FirstMethodWins(t *testing.T) {
	want := &hgvs.Variant{Accession: "NC_000012.11", Coord: hgvs.CoordGenomic, Start: 500}
	b := &fakeBackend{results: map[string]*hgvs.Variant{"splign": want}}

	m := New(b)
	got, err := m.ToGenomic(codingVariant())
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, []string{"splign"}, b.calls)
}

func TestToGenomic_FallsThroughInOrder(t *testing.T) {
	want := &hgvs.Variant{Accession: "NC_000012.11", Coord: hgvs.CoordGenomic, Start: 500}
	b := &fakeBackend{
		errs:    map[string]error{"splign": ErrNoData, "blat": errors.New("backend exploded")},
		results: map[string]*hgvs.Variant{"genewise": want},
	}

	m := New(b)
	got, err := m.ToGenomic(codingVariant())
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, []string{"splign", "blat", "genewise"}, b.calls)
}

func TestToGenomic_AllFail(t *testing.T) {
	b := &fakeBackend{errs: map[string]error{
		"splign": ErrNoData, "blat": ErrNoData, "genewise": ErrNoData,
	}}

	m := New(b)
	_, err := m.ToGenomic(codingVariant())
	assert.ErrorIs(t, err, ErrAllMethodsFailed)
}

func TestToGenomic_RejectsNonCoding(t *testing.T) {
	m := New(&fakeBackend{})
	_, err := m.ToGenomic(&hgvs.Variant{Accession: "NG_1", Coord: hgvs.CoordGenomic})
	assert.Error(t, err)
}

func TestRemoteBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("method") {
		case "splign":
			http.NotFound(w, r)
		case "blat":
			fmt.Fprint(w, `{"accession":"NC_000012.11","position":21331549,"ref":"T","alt":"G"}`)
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	b := NewRemoteBackend(srv.URL, "hg19")

	_, err := b.MapCoding(codingVariant(), "splign")
	assert.ErrorIs(t, err, ErrNoData)

	got, err := b.MapCoding(codingVariant(), "blat")
	require.NoError(t, err)
	assert.Equal(t, "NC_000012.11", got.Accession)
	assert.Equal(t, hgvs.CoordGenomic, got.Coord)
	assert.Equal(t, int64(21331549), got.Start)

	_, err = b.MapCoding(codingVariant(), "genewise")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoData)
}
