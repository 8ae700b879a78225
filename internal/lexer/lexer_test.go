package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeBasicSelect(t *testing.T) {
	items, err := Tokenize(`SELECT * FROM person WHERE age >= 18;`)
	require.NoError(t, err)

	var toks []Token
	for _, it := range items {
		toks = append(toks, it.Tok)
	}
	assert.Equal(t, []Token{
		SELECT, STAR, FROM, IDENT, WHERE, IDENT, GTE, INT, SEMICOLON, EOF,
	}, toks)
}

func TestTokenizeKeywordsCaseInsensitive(t *testing.T) {
	items, err := Tokenize(`select * from Person`)
	require.NoError(t, err)
	assert.Equal(t, SELECT, items[0].Tok)
	assert.Equal(t, FROM, items[2].Tok)
	assert.Equal(t, "Person", items[3].Lit)
}

func TestTokenizeStringsAndEscapes(t *testing.T) {
	items, err := Tokenize(`'it''s' "hi\n"`)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(items), 2)
}

func TestTokenizeNumbers(t *testing.T) {
	cases := []struct {
		src string
		tok Token
	}{
		{"123", INT},
		{"12.5", FLOAT},
		{"1.2e10", FLOAT},
		{"5dec", DECIMAL},
		{"1h30m", DURATION},
	}
	for _, c := range cases {
		items, err := Tokenize(c.src)
		require.NoError(t, err, c.src)
		assert.Equal(t, c.tok, items[0].Tok, c.src)
	}
}

func TestTokenizeParam(t *testing.T) {
	items, err := Tokenize(`$name`)
	require.NoError(t, err)
	assert.Equal(t, PARAM, items[0].Tok)
	assert.Equal(t, "name", items[0].Lit)
}

func TestTokenizePrefixedStrings(t *testing.T) {
	items, err := Tokenize(`d"2024-01-01" u"018f..." r"person:1" s"strand"`)
	require.NoError(t, err)
	toks := []Token{items[0].Tok, items[1].Tok, items[2].Tok, items[3].Tok}
	assert.Equal(t, []Token{DATETIME_STRING, UUID_STRING, RECORD_STRING, STRAND_STRING}, toks)
}

func TestTokenizeOperators(t *testing.T) {
	items, err := Tokenize(`-> <- <-> :: .. ..= ?? ?: @@ **`)
	require.NoError(t, err)
	var toks []Token
	for _, it := range items {
		if it.Tok == EOF {
			continue
		}
		toks = append(toks, it.Tok)
	}
	assert.Equal(t, []Token{ARROW_OUT, ARROW_IN, ARROW_BOTH, DCOLON, DOTDOT, DOTDOTEQ, QUESTIONQUESTION, QUESTIONCOLON, ATAT, POW}, toks)
}

func TestTokenizeComments(t *testing.T) {
	items, err := Tokenize("SELECT 1 -- trailing\n// also\nFROM t")
	require.NoError(t, err)
	var toks []Token
	for _, it := range items {
		toks = append(toks, it.Tok)
	}
	assert.Equal(t, []Token{SELECT, INT, FROM, IDENT, EOF}, toks)
}

func TestLexerPartialInputMoreData(t *testing.T) {
	l := New(`'unterminated`)
	res := l.Next()
	assert.Equal(t, MoreData, res.Status)

	l.Src += ` string'`
	res = l.Next()
	assert.Equal(t, Ok, res.Status)
	assert.Equal(t, "unterminated string", res.Item.Lit)
}

func TestLexerEmptyOnWhitespaceOnly(t *testing.T) {
	l := New("   \n\t ")
	res := l.Next()
	assert.Equal(t, Empty, res.Status)
}

func TestLexerErrOnIllegalCharacter(t *testing.T) {
	items, err := Tokenize("SELECT ` FROM t")
	require.Error(t, err)
	_ = items
}

func TestTokenizeDurationChained(t *testing.T) {
	items, err := Tokenize("1h30m15s")
	require.NoError(t, err)
	assert.Equal(t, DURATION, items[0].Tok)
	assert.Equal(t, "1h30m15s", items[0].Lit)
}
