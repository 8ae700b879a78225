package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/oxhq/qdb/internal/value"
)

// ParseKind resolves a DEFINE FIELD/PARAM TYPE annotation's raw text (as
// collected by the parser's parseKindRaw, e.g. "option<string>",
// "array<int>", "record<person|company>", "set<float,10>") into a
// value.Kind (spec.md §3). The parser only needs to balance `<...>`
// depth to collect the raw text; resolving it into the structural Kind
// tree is the catalog's job, since a table's types are a schema concern.
func ParseKind(raw string) (value.Kind, error) {
	p := &kindParser{s: raw}
	k, err := p.parseEitherInsideAngle()
	if err != nil {
		return value.Kind{}, err
	}
	p.skipSpace()
	if p.pos != len(p.s) {
		return value.Kind{}, fmt.Errorf("unexpected trailing text %q in type %q", p.s[p.pos:], raw)
	}
	return k, nil
}

type kindParser struct {
	s   string
	pos int
}

func (p *kindParser) skipSpace() {
	for p.pos < len(p.s) && p.s[p.pos] == ' ' {
		p.pos++
	}
}

func (p *kindParser) peek() byte {
	if p.pos >= len(p.s) {
		return 0
	}
	return p.s[p.pos]
}

// readIdent reads a bare word up to the next `<`, `>`, `|`, `,` or space,
// used both for the kind name itself and for table names inside record<...>.
func (p *kindParser) readIdent() string {
	start := p.pos
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c == '<' || c == '>' || c == '|' || c == ',' || c == ' ' {
			break
		}
		p.pos++
	}
	return p.s[start:p.pos]
}

func (p *kindParser) parse() (value.Kind, error) {
	p.skipSpace()
	name := p.readIdent()
	switch strings.ToLower(name) {
	case "", "any":
		return value.Any(), nil
	case "none":
		return value.NoneK(), nil
	case "null":
		return value.NullK(), nil
	case "bool":
		return value.BoolK(), nil
	case "int":
		return value.IntK(), nil
	case "float":
		return value.FloatK(), nil
	case "decimal":
		return value.DecimalK(), nil
	case "number":
		return value.NumberK(), nil
	case "string":
		return value.StringK(), nil
	case "bytes":
		return value.BytesK(), nil
	case "duration":
		return value.DurationK(), nil
	case "datetime":
		return value.DatetimeK(), nil
	case "uuid":
		return value.UuidK(), nil
	case "regex":
		return value.RegexK(), nil
	case "object":
		return value.ObjectK(), nil
	case "option":
		inner, err := p.parseAngleSingle()
		if err != nil {
			return value.Kind{}, err
		}
		return value.OptionK(inner), nil
	case "array":
		return p.parseArrayLike(false)
	case "set":
		return p.parseArrayLike(true)
	case "record":
		return p.parseRecord()
	case "geometry":
		return p.parseGeometry()
	case "file":
		return p.parseFile()
	default:
		// Either<Kind...> (`A|B`) is handled by parseEitherInsideAngle,
		// which calls parse once per variant; a name that isn't one of the
		// kinds above is an error.
		return value.Kind{}, fmt.Errorf("unknown type %q", name)
	}
}

func (p *kindParser) parseEitherFrom(first string) (value.Kind, error) {
	variants := []value.Kind{}
	k, err := (&kindParser{s: first}).parse()
	if err != nil {
		return value.Kind{}, fmt.Errorf("unknown type %q", first)
	}
	variants = append(variants, k)
	p.skipSpace()
	for p.peek() == '|' {
		p.pos++
		p.skipSpace()
		name := p.readIdent()
		v, err := (&kindParser{s: name}).parse()
		if err != nil {
			return value.Kind{}, fmt.Errorf("unknown type %q", name)
		}
		variants = append(variants, v)
		p.skipSpace()
	}
	if len(variants) == 1 {
		return variants[0], nil
	}
	return value.EitherK(variants...), nil
}

// parseAngleSingle parses `<Kind>` and returns Kind, for option<T>.
func (p *kindParser) parseAngleSingle() (value.Kind, error) {
	if p.peek() != '<' {
		return value.Kind{}, fmt.Errorf("expected '<' in type %q", p.s)
	}
	p.pos++
	inner, err := p.parseEitherInsideAngle()
	if err != nil {
		return value.Kind{}, err
	}
	if p.peek() != '>' {
		return value.Kind{}, fmt.Errorf("expected '>' in type %q", p.s)
	}
	p.pos++
	return inner, nil
}

// parseEitherInsideAngle parses a `A|B|C`-style either sequence up to the
// next unmatched `>` or `,`.
func (p *kindParser) parseEitherInsideAngle() (value.Kind, error) {
	variants := []value.Kind{}
	for {
		p.skipSpace()
		k, err := p.parse()
		if err != nil {
			return value.Kind{}, err
		}
		variants = append(variants, k)
		p.skipSpace()
		if p.peek() != '|' {
			break
		}
		p.pos++
	}
	if len(variants) == 1 {
		return variants[0], nil
	}
	return value.EitherK(variants...), nil
}

// parseArrayLike handles array<Kind>, array<Kind,Len>, set<Kind>,
// set<Kind,Len> — the optional length is a plain integer.
func (p *kindParser) parseArrayLike(isSet bool) (value.Kind, error) {
	if p.peek() != '<' {
		if isSet {
			return value.SetK(value.Any(), nil), nil
		}
		return value.ArrayK(value.Any(), nil), nil
	}
	p.pos++
	inner, err := p.parseEitherInsideAngle()
	if err != nil {
		return value.Kind{}, err
	}
	var length *int
	p.skipSpace()
	if p.peek() == ',' {
		p.pos++
		p.skipSpace()
		start := p.pos
		for p.pos < len(p.s) && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
			p.pos++
		}
		n, err := strconv.Atoi(p.s[start:p.pos])
		if err != nil {
			return value.Kind{}, fmt.Errorf("invalid length in type %q", p.s)
		}
		length = &n
	}
	p.skipSpace()
	if p.peek() != '>' {
		return value.Kind{}, fmt.Errorf("expected '>' in type %q", p.s)
	}
	p.pos++
	if isSet {
		return value.SetK(inner, length), nil
	}
	return value.ArrayK(inner, length), nil
}

// parseRecord handles record<table|table2|...> and bare `record`.
func (p *kindParser) parseRecord() (value.Kind, error) {
	if p.peek() != '<' {
		return value.RecordK(), nil
	}
	p.pos++
	var tables []string
	for {
		p.skipSpace()
		tables = append(tables, p.readIdent())
		p.skipSpace()
		if p.peek() != '|' {
			break
		}
		p.pos++
	}
	if p.peek() != '>' {
		return value.Kind{}, fmt.Errorf("expected '>' in type %q", p.s)
	}
	p.pos++
	return value.RecordK(tables...), nil
}

// parseGeometry handles geometry<point|polygon|...> and bare `geometry`.
func (p *kindParser) parseGeometry() (value.Kind, error) {
	if p.peek() != '<' {
		return value.GeometryK(), nil
	}
	p.pos++
	var variants []string
	for {
		p.skipSpace()
		variants = append(variants, p.readIdent())
		p.skipSpace()
		if p.peek() != '|' {
			break
		}
		p.pos++
	}
	if p.peek() != '>' {
		return value.Kind{}, fmt.Errorf("expected '>' in type %q", p.s)
	}
	p.pos++
	return value.GeometryK(variants...), nil
}

// parseFile handles file<bucket|bucket2|...> and bare `file`.
func (p *kindParser) parseFile() (value.Kind, error) {
	if p.peek() != '<' {
		return value.FileK(), nil
	}
	p.pos++
	var buckets []string
	for {
		p.skipSpace()
		buckets = append(buckets, p.readIdent())
		p.skipSpace()
		if p.peek() != '|' {
			break
		}
		p.pos++
	}
	if p.peek() != '>' {
		return value.Kind{}, fmt.Errorf("expected '>' in type %q", p.s)
	}
	p.pos++
	return value.FileK(buckets...), nil
}
