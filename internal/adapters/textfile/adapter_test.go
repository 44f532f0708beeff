package textfile

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlevchik/mnemo/internal/importer"
)

func readAll(t *testing.T, a *Adapter) []importer.RawRecord {
	t.Helper()
	var out []importer.RawRecord
	for {
		rec, err := a.Next()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, rec)
	}
}

func TestOpenTabSeparated(t *testing.T) {
	a, err := Open(strings.NewReader("hello\tbonjour\ngoodbye\tau revoir\n"))
	require.NoError(t, err)

	recs := readAll(t, a)
	require.Len(t, recs, 2)
	assert.Equal(t, []string{"hello", "bonjour"}, recs[0].Fields)
	assert.Equal(t, 1, recs[0].Index)
	assert.Equal(t, []string{"goodbye", "au revoir"}, recs[1].Fields)
	assert.Equal(t, 2, recs[1].Index)
	assert.Equal(t, 2, a.Hints().FieldCount)
}

func TestOpenGuessesDelimiter(t *testing.T) {
	cases := map[string]string{
		"semicolon": "a;b\n",
		"comma":     "a,b\n",
		"pipe":      "a|b\n",
		"space":     "a b\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			a, err := Open(strings.NewReader(input))
			require.NoError(t, err)
			recs := readAll(t, a)
			require.Len(t, recs, 1)
			assert.Equal(t, []string{"a", "b"}, recs[0].Fields)
		})
	}
}

func TestOpenSkipsCommentsAndBlankLines(t *testing.T) {
	input := "# exported deck\n\nhello\tbonjour\n\n# trailing comment\ngoodbye\tau revoir\n"
	a, err := Open(strings.NewReader(input))
	require.NoError(t, err)

	recs := readAll(t, a)
	require.Len(t, recs, 2)
	assert.Equal(t, 1, recs[0].Index)
	assert.Equal(t, 2, recs[1].Index)
}

func TestOpenLeadingTagsLine(t *testing.T) {
	input := "tags: vocab french\nhello\tbonjour\n"
	a, err := Open(strings.NewReader(input))
	require.NoError(t, err)

	recs := readAll(t, a)
	require.Len(t, recs, 1)
	assert.Equal(t, []string{"vocab", "french"}, recs[0].Tags)
}

func TestOpenStripsBOM(t *testing.T) {
	a, err := Open(strings.NewReader("\ufefffront\tback\n"))
	require.NoError(t, err)

	recs := readAll(t, a)
	require.Len(t, recs, 1)
	assert.Equal(t, "front", recs[0].Fields[0])
}

func TestOpenEmptyFileIsValidEmptyStream(t *testing.T) {
	a, err := Open(strings.NewReader(""))
	require.NoError(t, err)

	_, err = a.Next()
	assert.Equal(t, io.EOF, err)
}

func TestOpenRaggedRows(t *testing.T) {
	a, err := Open(strings.NewReader("a\tb\tc\nshort\n"))
	require.NoError(t, err)

	recs := readAll(t, a)
	require.Len(t, recs, 2)
	assert.Len(t, recs[0].Fields, 3)
	assert.Len(t, recs[1].Fields, 1)
}
