package namecheck

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varloc/varloc/internal/store"
)

const okPage = `<html><body>
<div class="warning"><p>Sequence version not given; assuming latest.</p></div>
<div id="description">
  <p>Genomic description:</p>
  <code>NC_000012.11:g.21331549T&gt;G</code>
</div>
</body></html>`

const errorPage = `<html><body>
<div class="error"><p>EPARSE: could not parse the variant description.</p></div>
</body></html>`

func newTestChecker(t *testing.T, handler http.HandlerFunc) (*Checker, *store.Files, *int) {
	t.Helper()
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	files, err := store.NewFiles(t.TempDir())
	require.NoError(t, err)
	return NewChecker(srv.URL, files), files, &requests
}

func TestCheck(t *testing.T) {
	c, _, requests := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "NM_006231.2:c.4A>G", r.URL.Query().Get("description"))
		fmt.Fprint(w, okPage)
	})

	res, err := c.Check("NM_006231.2:c.4A>G", "")
	require.NoError(t, err)
	assert.Equal(t, "NC_000012.11:g.21331549T>G", res.Canonical)
	assert.Equal(t, []string{"Sequence version not given; assuming latest."}, res.Warnings)

	// Second check is served from the cache.
	_, err = c.Check("NM_006231.2:c.4A>G", "")
	require.NoError(t, err)
	assert.Equal(t, 1, *requests)
}

func TestCheck_GeneHint(t *testing.T) {
	c, _, _ := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "NM_000138.4(FBN1):c.1A>T", r.URL.Query().Get("description"))
		fmt.Fprint(w, okPage)
	})

	_, err := c.Check("NM_000138.4:c.1A>T", "FBN1")
	require.NoError(t, err)
}

func TestCheck_SlashRefusedBeforeRequest(t *testing.T) {
	c, _, requests := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, okPage)
	})

	_, err := c.Check("NM_1:c.1387C>T/A", "")
	assert.ErrorIs(t, err, ErrUncheckable)
	assert.Equal(t, 0, *requests)
}

func TestCheck_RejectionDiscardsCache(t *testing.T) {
	c, files, requests := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, errorPage)
	})

	_, err := c.Check("NM_1:c.bogus", "")
	require.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "EPARSE")

	// The rejected page must not linger in the cache.
	assert.False(t, files.Exists(store.ConcernNameCheck, cacheKey("NM_1:c.bogus")))

	// A retry hits the service again rather than replaying the rejection.
	_, err = c.Check("NM_1:c.bogus", "")
	assert.ErrorIs(t, err, ErrRejected)
	assert.Equal(t, 2, *requests)
}

func TestCheck_MissingDescription(t *testing.T) {
	c, _, _ := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><p>nothing here</p></body></html>")
	})

	_, err := c.Check("NM_1:c.1A>T", "")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrRejected)
}

func TestInsertGeneHint(t *testing.T) {
	assert.Equal(t, "NM_1(KIT):c.1A>T", insertGeneHint("NM_1:c.1A>T", "KIT"))
	// Already hinted or colonless names pass through.
	assert.Equal(t, "NM_1(KIT):c.1A>T", insertGeneHint("NM_1(KIT):c.1A>T", "OTHER"))
	assert.Equal(t, "rs12345", insertGeneHint("rs12345", "KIT"))
}
