package hgvs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrect_ArrowNotation(t *testing.T) {
	c := NewCorrector()

	out, err := c.Correct("1048G->C", "NM_001042351.1", CoordCoding)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "NM_001042351.1:c.1048G>C", out[0])

	// Idempotent on its own output
	again, err := c.Correct(out[0], "", "")
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestCorrect_NoTranscript(t *testing.T) {
	c := NewCorrector()

	out, err := c.Correct("1048G->C", "", "")
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrCannotCorrect)
}

func TestCorrect_NoRefType(t *testing.T) {
	c := NewCorrector()

	out, err := c.Correct("1048G>C", "NM_001042351.1", "")
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrCannotCorrect)
}

func TestCorrect_RefTypeInferredFromText(t *testing.T) {
	c := NewCorrector()

	// The name carries its own "c." tag, so no refType is needed.
	out, err := c.Correct("c.1048G>C", "NM_001042351.1", "")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "NM_001042351.1:c.1048G>C", out[0])
}

func TestCorrect_InvalidRefType(t *testing.T) {
	c := NewCorrector()

	_, err := c.Correct("1048G>C", "NM_001042351.1", CoordProtein)
	assert.ErrorIs(t, err, ErrInvalidRefType)
}

func TestCorrect_AmbiguousCall(t *testing.T) {
	c := NewCorrector()

	out, err := c.Correct("1387C>T/A", "NM_1", CoordCoding)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "NM_1:c.1387C>T", out[0])
	assert.Equal(t, "NM_1:c.1387C>A", out[1])
}

func TestCorrect_ParenthesizedSubstitution(t *testing.T) {
	c := NewCorrector()

	out, err := c.Correct("-1923(A>C)", "NT_1", CoordGenomic)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "NT_1:g.-1923A>C", out[0])
}

func TestCorrect_MultiBaseSubstitution(t *testing.T) {
	c := NewCorrector()

	// A two-base reference is illegal for a substitution; rewrite as delins.
	out, err := c.Correct("NM_1:c.100AT>GC", "", "")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "NM_1:c.100_101delinsGC", out[0])

	// Single-base reference with multi-base alternate keeps a point span.
	out, err = c.Correct("NM_1:c.100A>GC", "", "")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "NM_1:c.100delinsGC", out[0])
}

func TestCorrect_WellFormedPassthrough(t *testing.T) {
	c := NewCorrector()

	out, err := c.Correct("NM_006446.4:c.1198T>G", "", "")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "NM_006446.4:c.1198T>G", out[0])
}
