package name_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tracy-project/tracy/internal/name"
)

func TestCanonicalize_Lowercases(t *testing.T) {
	got, err := name.Canonicalize("Http.Request")
	assert.NoError(t, err)
	assert.Equal(t, "http.request", got)
}

func TestCanonicalize_Idempotent(t *testing.T) {
	once, err := name.Canonicalize("Mixed-Case_Name")
	assert.NoError(t, err)
	twice, err := name.Canonicalize(once)
	assert.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestCanonicalize_CaseInsensitiveEquality(t *testing.T) {
	lower, err := name.Canonicalize("queue.offer")
	assert.NoError(t, err)
	upper, err := name.Canonicalize("QUEUE.OFFER")
	assert.NoError(t, err)
	assert.Equal(t, lower, upper)
}

func TestCanonicalize_TruncatesToMax(t *testing.T) {
	long := strings.Repeat("a", name.Max+10)
	got, err := name.Canonicalize(long)
	assert.NoError(t, err)
	assert.Len(t, got, name.Max)
	assert.Equal(t, strings.Repeat("a", name.Max), got)
}

func TestCanonicalize_RejectsNonASCII(t *testing.T) {
	_, err := name.Canonicalize("caf\xc3\xa9")
	assert.ErrorIs(t, err, name.ErrInvalid)
}

func TestCanonicalize_RejectsControlBytes(t *testing.T) {
	_, err := name.Canonicalize("bad\x01name")
	assert.ErrorIs(t, err, name.ErrInvalid)
}

func TestCanonicalize_RejectsEmpty(t *testing.T) {
	_, err := name.Canonicalize("")
	assert.ErrorIs(t, err, name.ErrInvalid)
}
