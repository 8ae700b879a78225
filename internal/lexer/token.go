// Package lexer converts SurrealQL source text into a token stream,
// supporting partial (streaming) input per spec.md §4.1. The token enum
// layout — a literal block, an operator block, a keyword block, each
// delimited by Begin/End sentinels — is grounded on the pack's
// freeeve-machparse/token package, generalized to SurrealQL's extra
// literal prefixes (d/u/r/s strings) and unicode operator aliases
// (× ÷ ∋ ⊇ …).
package lexer

// Token identifies a lexical category.
type Token int

const (
	ILLEGAL Token = iota
	EOF
	COMMENT

	literalBeg
	IDENT
	INT
	FLOAT
	DECIMAL // 123dec
	STRING
	DATETIME_STRING // d"..."
	UUID_STRING     // u"..."
	RECORD_STRING   // r"..."
	STRAND_STRING   // s"..."
	PARAM           // $name
	DURATION        // 1h2m
	literalEnd

	operatorBeg
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	POW // **
	EQ
	NEQ
	LT
	GT
	LTE
	GTE
	LPAREN
	RPAREN
	LBRACKET
	RBRACKET
	LBRACE
	RBRACE
	COMMA
	SEMICOLON
	DOT
	DOTDOT   // ..
	DOTDOTEQ // ..=
	COLON
	DCOLON // ::
	ARROW_OUT // ->
	ARROW_IN  // <-
	ARROW_BOTH // <->
	QUESTION
	QUESTIONQUESTION // ??
	QUESTIONCOLON    // ?:
	PIPE             // |
	AMP              // &
	AT
	ATAT // @@ full-text match tag opener (@1@ ... @@ query)
	CONTAINS    // ∋ CONTAINS
	CONTAINSNOT // ∌
	CONTAINSALL // ⊇
	CONTAINSANY
	CONTAINSNONE
	INSIDE    // ∈ IN
	INSIDENOT // ∉
	INSIDEALL
	INSIDEANY
	INSIDENONE
	MULTIPLY_UNI // ×
	DIVIDE_UNI   // ÷
	operatorEnd

	keywordBeg
	SELECT
	CREATE
	UPDATE
	UPSERT
	DELETE
	INSERT
	RELATE
	DEFINE
	REMOVE
	BEGIN
	COMMIT
	CANCEL
	IF
	THEN
	ELSE
	END
	FOR
	LET
	THROW
	BREAK
	CONTINUE
	USE
	INFO
	SHOW
	CHANGES
	SLEEP
	FROM
	WHERE
	WITH
	SPLIT
	GROUP
	ORDER
	LIMIT
	START
	FETCH
	VERSION
	EXPLAIN
	CONTENT
	MERGE
	REPLACE
	SET
	IGNORE
	RELATION
	ON
	DUPLICATE
	KEY
	RETURN
	BEFORE
	AFTER
	DIFF
	NONE
	NULL
	TRUE
	FALSE
	AND
	OR
	NOT
	IN
	ASC
	DESC
	ALL
	NAMESPACE
	DATABASE
	TABLE
	FIELD
	INDEX
	FUNCTION
	PARAM_KW
	SCOPE
	TOKEN_KW
	ANALYZER
	ACCESS
	USER
	EVENT
	MODEL
	FIELDS
	UNIQUE
	SEARCH
	FULLTEXT
	MTREE
	HNSW
	COUNT
	READONLY
	ASSERT
	DEFAULT
	TYPE
	ANALYZE
	TO
	AS
	ONLY
	PERMISSIONS
	FULL
	OVERWRITE
	EXISTS
	GRANT
	LIST
	BY
	keywordEnd
)

// Keywords maps the case-insensitive spelling to its Token. Lookup always
// lowercases first (spec.md §4.1 "keywords (case-insensitive)").
var Keywords = map[string]Token{
	"select": SELECT, "create": CREATE, "update": UPDATE, "upsert": UPSERT,
	"delete": DELETE, "insert": INSERT, "relate": RELATE, "define": DEFINE,
	"remove": REMOVE, "begin": BEGIN, "commit": COMMIT, "cancel": CANCEL,
	"if": IF, "then": THEN, "else": ELSE, "end": END, "for": FOR, "let": LET,
	"throw": THROW, "break": BREAK, "continue": CONTINUE, "use": USE,
	"info": INFO, "show": SHOW, "changes": CHANGES, "sleep": SLEEP,
	"from": FROM, "where": WHERE, "with": WITH, "split": SPLIT,
	"group": GROUP, "order": ORDER, "limit": LIMIT, "start": START,
	"fetch": FETCH, "version": VERSION, "explain": EXPLAIN,
	"content": CONTENT, "merge": MERGE, "replace": REPLACE, "set": SET,
	"ignore": IGNORE, "relation": RELATION, "on": ON, "duplicate": DUPLICATE,
	"key": KEY, "return": RETURN, "before": BEFORE, "after": AFTER,
	"diff": DIFF, "none": NONE, "null": NULL, "true": TRUE, "false": FALSE,
	"and": AND, "or": OR, "not": NOT, "in": IN, "asc": ASC, "desc": DESC,
	"all": ALL, "namespace": NAMESPACE, "database": DATABASE, "table": TABLE,
	"field": FIELD, "index": INDEX, "function": FUNCTION, "param": PARAM_KW,
	"scope": SCOPE, "token": TOKEN_KW, "analyzer": ANALYZER, "access": ACCESS,
	"user": USER, "event": EVENT, "model": MODEL, "fields": FIELDS,
	"unique": UNIQUE, "search": SEARCH, "fulltext": FULLTEXT, "mtree": MTREE,
	"hnsw": HNSW, "count": COUNT, "readonly": READONLY, "assert": ASSERT,
	"default": DEFAULT, "type": TYPE, "to": TO, "as": AS, "only": ONLY,
	"permissions": PERMISSIONS, "full": FULL, "overwrite": OVERWRITE,
	"exists": EXISTS, "grant": GRANT, "list": LIST, "contains": CONTAINS,
	"by": BY,
}

// IsKeyword reports whether tok is in the keyword range.
func IsKeyword(tok Token) bool { return tok > keywordBeg && tok < keywordEnd }

// IsLiteral reports whether tok is in the literal range.
func IsLiteral(tok Token) bool { return tok > literalBeg && tok < literalEnd }

// IsOperator reports whether tok is in the operator range.
func IsOperator(tok Token) bool { return tok > operatorBeg && tok < operatorEnd }

func (t Token) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return "UNKNOWN"
}

var tokenNames = func() map[Token]string {
	m := map[Token]string{
		ILLEGAL: "ILLEGAL", EOF: "EOF", COMMENT: "COMMENT",
		IDENT: "IDENT", INT: "INT", FLOAT: "FLOAT", DECIMAL: "DECIMAL",
		STRING: "STRING", PARAM: "PARAM", DURATION: "DURATION",
	}
	for k, v := range Keywords {
		m[v] = k
	}
	return m
}()
