package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/oxhq/qdb/internal/qerr"
)

// PartialStatus mirrors spec.md §4.1/§9's streaming lexer/parser contract:
// a chunked reader (e.g. a REPL or a network frame) needs to know whether it
// should keep buffering, whether it got a complete token/statement, or
// whether the input is simply malformed no matter how much more arrives.
type PartialStatus int

const (
	// Empty: the buffer holds nothing but whitespace/comments — there is no
	// token to report yet, and none is pending.
	Empty PartialStatus = iota
	// MoreData: a token looks like it has started (e.g. an unterminated
	// string or block comment) but the buffer ran out before it closed.
	MoreData
	// Ok: a complete token was scanned.
	Ok
	// Err: the buffer contains bytes that can never become a valid token,
	// regardless of what follows.
	Err
)

// Item is one scanned token plus its source span.
type Item struct {
	Tok   Token
	Lit   string
	Start int
	End   int
}

// PartialResult is the lexer's streaming read outcome, spec.md §4.1.
type PartialResult struct {
	Status PartialStatus
	Item   Item
	Used   int // bytes consumed from the input on Ok/Err; 0 on Empty/MoreData
	Err    error
}

// Lexer scans SurrealQL source. It is re-entrant over partial input: call
// Next repeatedly, and on MoreData append more bytes to Src and call Next
// again — grounded on the pack's freeeve-machparse token/lexer split,
// generalized here into the single re-entrant scanner spec.md's streaming
// contract requires (machparse's lexer assumes the whole source is present).
type Lexer struct {
	Src string
	pos int
}

func New(src string) *Lexer { return &Lexer{Src: src} }

// Next scans one token starting at the lexer's current position. It never
// advances pos past a token boundary on MoreData, so the caller can safely
// grow Src and call Next again from the same logical offset.
func (l *Lexer) Next() PartialResult {
	start := l.pos
	if l.pos >= len(l.Src) {
		return PartialResult{Status: Empty}
	}

	n := l.skipTrivia(l.pos)
	if n < 0 {
		return PartialResult{Status: MoreData}
	}
	l.pos = n
	if l.pos >= len(l.Src) {
		return PartialResult{Status: Empty}
	}
	start = l.pos

	r, size := utf8.DecodeRuneInString(l.Src[l.pos:])

	switch {
	case r == '"' || r == '\'':
		return l.scanString(start, r, STRING)
	case isDigit(r):
		return l.scanNumber(start)
	case r == '$':
		return l.scanParam(start)
	case isIdentStart(r):
		return l.scanIdentOrPrefixedString(start)
	default:
		return l.scanOperator(start, r, size)
	}
}

// skipTrivia advances past whitespace and comments, returning the new
// position, or -1 if a comment is open-ended (needs MoreData).
func (l *Lexer) skipTrivia(pos int) int {
	for pos < len(l.Src) {
		r, size := utf8.DecodeRuneInString(l.Src[pos:])
		switch {
		case unicode.IsSpace(r):
			pos += size
		case r == '-' && strings.HasPrefix(l.Src[pos:], "--"):
			i := strings.IndexByte(l.Src[pos:], '\n')
			if i < 0 {
				return len(l.Src) // rest of buffer is comment; report Empty, not MoreData — EOF will close it
			}
			pos += i + 1
		case r == '/' && strings.HasPrefix(l.Src[pos:], "//"):
			i := strings.IndexByte(l.Src[pos:], '\n')
			if i < 0 {
				return len(l.Src)
			}
			pos += i + 1
		case r == '/' && strings.HasPrefix(l.Src[pos:], "/*"):
			i := strings.Index(l.Src[pos+2:], "*/")
			if i < 0 {
				return -1
			}
			pos += 2 + i + 2
		default:
			return pos
		}
	}
	return pos
}

func isDigit(r rune) bool      { return r >= '0' && r <= '9' }
func isIdentStart(r rune) bool { return unicode.IsLetter(r) || r == '_' }
func isIdentCont(r rune) bool  { return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' }

// identContinuesAt reports whether src[pos:] continues with a letter,
// used to reject e.g. matching duration suffix "d" against "dec" or "m"
// against "minutes". Digits are allowed to follow (chained durations like
// 1h30m legitimately continue with another digit group).
func identContinuesAt(src string, pos int) bool {
	if pos >= len(src) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(src[pos:])
	return unicode.IsLetter(r)
}

func (l *Lexer) scanString(start int, quote rune, tok Token) PartialResult {
	i := start + 1
	for i < len(l.Src) {
		r, size := utf8.DecodeRuneInString(l.Src[i:])
		if r == '\\' {
			i += size
			if i >= len(l.Src) {
				return PartialResult{Status: MoreData}
			}
			_, s2 := utf8.DecodeRuneInString(l.Src[i:])
			i += s2
			continue
		}
		if r == quote {
			l.pos = i + size
			lit := l.Src[start+1 : i]
			return PartialResult{Status: Ok, Used: l.pos - start, Item: Item{Tok: tok, Lit: unescape(lit), Start: start, End: l.pos}}
		}
		i += size
	}
	return PartialResult{Status: MoreData}
}

func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(s[i])
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// scanIdentOrPrefixedString handles bare identifiers/keywords and the
// quoted-literal prefixes d/u/r/s"..." (spec.md §3 Datetime/Uuid/RecordID/
// Strand literal syntax).
func (l *Lexer) scanIdentOrPrefixedString(start int) PartialResult {
	i := start
	for i < len(l.Src) {
		r, size := utf8.DecodeRuneInString(l.Src[i:])
		if !isIdentCont(r) {
			break
		}
		i += size
	}
	word := l.Src[start:i]

	if i < len(l.Src) && len(word) == 1 && (l.Src[i] == '"' || l.Src[i] == '\'') {
		var tok Token
		switch strings.ToLower(word) {
		case "d":
			tok = DATETIME_STRING
		case "u":
			tok = UUID_STRING
		case "r":
			tok = RECORD_STRING
		case "s":
			tok = STRAND_STRING
		default:
			tok = 0
		}
		if tok != 0 {
			quote, _ := utf8.DecodeRuneInString(l.Src[i:])
			saved := l.pos
			l.pos = i
			res := l.scanString(i, quote, tok)
			if res.Status != Ok {
				l.pos = saved
			}
			return res
		}
	}

	l.pos = i
	if kw, ok := Keywords[strings.ToLower(word)]; ok {
		return PartialResult{Status: Ok, Used: l.pos - start, Item: Item{Tok: kw, Lit: word, Start: start, End: l.pos}}
	}
	return PartialResult{Status: Ok, Used: l.pos - start, Item: Item{Tok: IDENT, Lit: word, Start: start, End: l.pos}}
}

func (l *Lexer) scanParam(start int) PartialResult {
	i := start + 1
	for i < len(l.Src) {
		r, size := utf8.DecodeRuneInString(l.Src[i:])
		if !isIdentCont(r) {
			break
		}
		i += size
	}
	if i == start+1 {
		return PartialResult{Status: MoreData}
	}
	l.pos = i
	return PartialResult{Status: Ok, Used: l.pos - start, Item: Item{Tok: PARAM, Lit: l.Src[start+1 : i], Start: start, End: l.pos}}
}

var durationSuffixes = []string{"ns", "us", "µs", "ms", "s", "m", "h", "d", "w", "y"}

// scanNumber covers int/float/decimal literals and duration literals
// (spec.md §3's Duration type shares the digit-prefix grammar, e.g. `1h30m`).
func (l *Lexer) scanNumber(start int) PartialResult {
	i := start
	for i < len(l.Src) && isDigit(rune(l.Src[i])) {
		i++
	}
	isFloat := false
	if i < len(l.Src) && l.Src[i] == '.' && i+1 < len(l.Src) && isDigit(rune(l.Src[i+1])) {
		isFloat = true
		i++
		for i < len(l.Src) && isDigit(rune(l.Src[i])) {
			i++
		}
	}
	if i < len(l.Src) && (l.Src[i] == 'e' || l.Src[i] == 'E') {
		j := i + 1
		if j < len(l.Src) && (l.Src[j] == '+' || l.Src[j] == '-') {
			j++
		}
		if j < len(l.Src) && isDigit(rune(l.Src[j])) {
			isFloat = true
			for j < len(l.Src) && isDigit(rune(l.Src[j])) {
				j++
			}
			i = j
		}
	}

	if i < len(l.Src) && strings.HasPrefix(strings.ToLower(l.Src[i:]), "dec") && !identContinuesAt(l.Src, i+3) {
		l.pos = i + 3
		return PartialResult{Status: Ok, Used: l.pos - start, Item: Item{Tok: DECIMAL, Lit: l.Src[start:i], Start: start, End: l.pos}}
	}

	if i < len(l.Src) {
		for _, suf := range durationSuffixes {
			if strings.HasPrefix(l.Src[i:], suf) && !identContinuesAt(l.Src, i+len(suf)) {
				j := i + len(suf)
				// Duration literals may chain (1h30m); keep consuming digit+suffix groups.
				for j < len(l.Src) && isDigit(rune(l.Src[j])) {
					k := j
					for k < len(l.Src) && isDigit(rune(l.Src[k])) {
						k++
					}
					matched := false
					for _, suf2 := range durationSuffixes {
						if strings.HasPrefix(l.Src[k:], suf2) && !identContinuesAt(l.Src, k+len(suf2)) {
							j = k + len(suf2)
							matched = true
							break
						}
					}
					if !matched {
						break
					}
				}
				l.pos = j
				return PartialResult{Status: Ok, Used: l.pos - start, Item: Item{Tok: DURATION, Lit: l.Src[start:j], Start: start, End: l.pos}}
			}
		}
		if strings.HasPrefix(strings.ToLower(l.Src[i:]), "f") && isFloat {
			l.pos = i + 1
			return PartialResult{Status: Ok, Used: l.pos - start, Item: Item{Tok: FLOAT, Lit: l.Src[start:i], Start: start, End: l.pos}}
		}
	}

	l.pos = i
	tok := INT
	if isFloat {
		tok = FLOAT
	}
	return PartialResult{Status: Ok, Used: l.pos - start, Item: Item{Tok: tok, Lit: l.Src[start:i], Start: start, End: l.pos}}
}

type opEntry struct {
	text string
	tok  Token
}

// Longest-match-first operator table.
var opTable = []opEntry{
	{"<->", ARROW_BOTH}, {"..=", DOTDOTEQ},
	{"->", ARROW_OUT}, {"<-", ARROW_IN}, {"::", DCOLON}, {"..", DOTDOT},
	{"**", POW}, {"==", EQ}, {"!=", NEQ}, {"<=", LTE}, {">=", GTE},
	{"??", QUESTIONQUESTION}, {"?:", QUESTIONCOLON}, {"@@", ATAT},
	{"+", PLUS}, {"-", MINUS}, {"*", STAR}, {"/", SLASH}, {"%", PERCENT},
	{"=", EQ}, {"<", LT}, {">", GT}, {"(", LPAREN}, {")", RPAREN},
	{"[", LBRACKET}, {"]", RBRACKET}, {"{", LBRACE}, {"}", RBRACE},
	{",", COMMA}, {";", SEMICOLON}, {".", DOT}, {":", COLON},
	{"?", QUESTION}, {"|", PIPE}, {"&", AMP}, {"@", AT},
	{"∋", CONTAINS}, {"∌", CONTAINSNOT}, {"⊇", CONTAINSALL}, {"⊉", CONTAINSNONE},
	{"∈", INSIDE}, {"∉", INSIDENOT}, {"⊆", INSIDEALL},
	{"×", MULTIPLY_UNI}, {"÷", DIVIDE_UNI},
}

func (l *Lexer) scanOperator(start int, r rune, size int) PartialResult {
	rest := l.Src[start:]
	for _, e := range opTable {
		if strings.HasPrefix(rest, e.text) {
			l.pos = start + len(e.text)
			return PartialResult{Status: Ok, Used: len(e.text), Item: Item{Tok: e.tok, Lit: e.text, Start: start, End: l.pos}}
		}
	}
	l.pos = start + size
	return PartialResult{
		Status: Err,
		Used:   size,
		Err:    qerr.New(qerr.ECParse, fmt.Sprintf("unexpected character %q", r)).WithSpan(start, l.pos),
	}
}

// Tokenize scans the whole source, assuming it is complete (non-streaming
// callers — the parser's normal entry point). It surfaces MoreData as a
// "statement is incomplete" qerr so callers distinguish truncated input from
// a genuine syntax error.
func Tokenize(src string) ([]Item, error) {
	l := New(src)
	var items []Item
	for {
		res := l.Next()
		switch res.Status {
		case Empty:
			items = append(items, Item{Tok: EOF, Start: len(src), End: len(src)})
			return items, nil
		case MoreData:
			return items, qerr.New(qerr.ECParse, "unexpected end of input").WithSpan(l.pos, len(src))
		case Err:
			return items, res.Err
		case Ok:
			items = append(items, res.Item)
		}
	}
}

// ParseIntLiteral/ParseFloatLiteral let the parser defer numeric conversion
// to value.Number construction without re-deriving the digit scan.
func ParseIntLiteral(lit string) (int64, error) { return strconv.ParseInt(lit, 10, 64) }
func ParseFloatLiteral(lit string) (float64, error) { return strconv.ParseFloat(lit, 64) }
