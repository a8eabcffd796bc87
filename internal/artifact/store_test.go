package artifact

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), nil)
	require.NoError(t, err)
	return s
}

func TestWriteReadDelete(t *testing.T) {
	s := newTestStore(t)

	path, err := s.Write("report.pdf", []byte("content"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "report.pdf"))
	assert.True(t, s.Exists("report.pdf"))

	got, err := s.Read("report.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("content"), got)

	require.NoError(t, s.Delete("report.pdf"))
	assert.False(t, s.Exists("report.pdf"))
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Delete("never-existed.xlsx"))
	_, err := s.Write("a.xlsx", []byte("x"))
	require.NoError(t, err)
	assert.NoError(t, s.Delete("a.xlsx"))
	assert.NoError(t, s.Delete("a.xlsx"))
}

func TestPathRejectsTraversal(t *testing.T) {
	s := newTestStore(t)
	for _, name := range []string{"", "../escape.pdf", "a/b.pdf", "..", "dir/../x.pdf"} {
		_, err := s.Path(name)
		assert.Error(t, err, "name %q", name)
	}
}

func TestUniqueName(t *testing.T) {
	a := UniqueName("Q4 Report (final).pdf", "extracted", ".xlsx")
	b := UniqueName("Q4 Report (final).pdf", "extracted", ".xlsx")

	assert.NotEqual(t, a, b, "same original must still yield distinct artifacts")
	assert.True(t, strings.HasPrefix(a, "Q4_Report__final_"), "got %s", a)
	assert.True(t, strings.HasSuffix(a, "_extracted.xlsx"), "got %s", a)
	assert.NotContains(t, a, " ")
	assert.NotContains(t, a, "(")
}

func TestUniqueNameEmptyStem(t *testing.T) {
	n := UniqueName(".pdf", "", ".pdf")
	assert.True(t, strings.HasPrefix(n, "document_"), "got %s", n)
	assert.True(t, strings.HasSuffix(n, ".pdf"))
}
