package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/agentide/internal/coord"
)

func TestFindMatchesLiteral(t *testing.T) {
	doc := New("file:///tmp/f.txt", "plaintext", "foo bar\nbar foo bar\nbaz")

	results, err := doc.FindMatches("bar", nil, SearchOptions{CaptureMatches: true})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, coord.NewRange(1, 5, 1, 8), results[0].Range)
	assert.Equal(t, "bar", results[0].Match)
	assert.Equal(t, coord.NewRange(2, 1, 2, 4), results[1].Range)
	assert.Equal(t, coord.NewRange(2, 9, 2, 12), results[2].Range)
}

func TestFindMatchesCaseFolding(t *testing.T) {
	doc := New("file:///tmp/f.txt", "plaintext", "Foo foo FOO")

	insensitive, err := doc.FindMatches("foo", nil, SearchOptions{})
	require.NoError(t, err)
	assert.Len(t, insensitive, 3)

	sensitive, err := doc.FindMatches("foo", nil, SearchOptions{MatchCase: true})
	require.NoError(t, err)
	assert.Len(t, sensitive, 1)
}

func TestFindMatchesLimit(t *testing.T) {
	doc := New("file:///tmp/f.txt", "plaintext", "a a a a a")

	results, err := doc.FindMatches("a", nil, SearchOptions{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestFindMatchesScopes(t *testing.T) {
	doc := New("file:///tmp/f.txt", "plaintext", "hit\nmiss hit\nhit\nhit")

	scopes := []coord.Range{
		coord.NewRange(1, 1, 1, -1),
		coord.NewRange(3, 1, 4, -1),
	}
	results, err := doc.FindMatches("hit", scopes, SearchOptions{})
	require.NoError(t, err)
	assert.Len(t, results, 3, "line 2 is outside every scope")
}

func TestFindMatchesRegex(t *testing.T) {
	doc := New("file:///tmp/f.txt", "plaintext", "x = 1\ny = 22\nz = abc")

	results, err := doc.FindMatches(`\w+ = \d+`, nil, SearchOptions{IsRegex: true, CaptureMatches: true})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "x = 1", results[0].Match)
	assert.Equal(t, "y = 22", results[1].Match)
}

func TestFindMatchesMultilineRegex(t *testing.T) {
	doc := New("file:///tmp/f.txt", "plaintext", "begin\nmiddle\nend")

	results, err := doc.FindMatches("middle\nend", nil, SearchOptions{CaptureMatches: true})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, coord.NewRange(2, 1, 3, 4), results[0].Range)
	assert.Equal(t, "middle\nend", results[0].Match)
}

func TestFindMatchesWholeWord(t *testing.T) {
	doc := New("file:///tmp/f.txt", "plaintext", "cat catalog cat concat")

	results, err := doc.FindMatches("cat", nil, SearchOptions{WordSeparators: " ", MatchCase: true})
	require.NoError(t, err)
	assert.Len(t, results, 2, "catalog and concat are not word-bounded matches")
}

func TestFindMatchesEmptyQuery(t *testing.T) {
	doc := New("file:///tmp/f.txt", "plaintext", "anything")

	_, err := doc.FindMatches("", nil, SearchOptions{})
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestReplace(t *testing.T) {
	doc := New("file:///tmp/f.txt", "plaintext", "old one\nold two\nkeep")

	n, applied, err := doc.Replace("old", "new", nil, SearchOptions{MatchCase: true})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "new one\nnew two\nkeep", doc.Content())

	// The returned batch carries the pre-replace match ranges.
	require.Len(t, applied, 2)
	assert.Equal(t, coord.NewRange(1, 1, 1, 4), applied[0].Range)
	assert.Equal(t, coord.NewRange(2, 1, 2, 4), applied[1].Range)
	assert.Equal(t, "new", applied[0].Text)

	// Replacement is a single undoable batch.
	_, err = doc.Undo()
	require.NoError(t, err)
	assert.Equal(t, "old one\nold two\nkeep", doc.Content())
}

func TestFindMatchesWholeWordMultibyteNeighbors(t *testing.T) {
	doc := New("file:///tmp/f.txt", "plaintext", "日cat ücat cat")

	results, err := doc.FindMatches("cat", nil, SearchOptions{WordSeparators: " \t"})
	require.NoError(t, err)
	require.Len(t, results, 1, "matches glued to multi-byte runes are not word-bounded")
	assert.Equal(t, coord.NewRange(1, 11, 1, 14), results[0].Range)
}

func TestFindMatchesWholeWordMultibyteSeparator(t *testing.T) {
	doc := New("file:///tmp/f.txt", "plaintext", "cat—cat")

	results, err := doc.FindMatches("cat", nil, SearchOptions{WordSeparators: "—"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, coord.NewRange(1, 1, 1, 4), results[0].Range)
	assert.Equal(t, coord.NewRange(1, 5, 1, 8), results[1].Range)
}
