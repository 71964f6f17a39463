package query

import (
	"strconv"
	"strings"

	"github.com/bdx-project/bdx/internal/record"
)

// Parse compiles a query string into a Node tree per the grammar in
// spec §4.5.
func Parse(q string) (Node, error) {
	toks, err := lex(q)
	if err != nil {
		return nil, err
	}
	p := &parser{src: q, toks: toks}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, newParseError(q, p.peek().pos, "unexpected trailing input")
	}
	return n, nil
}

type parser struct {
	src  string
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

// isKeyword reports whether t is the case-sensitive keyword kw
// (AND/OR/NOT), i.e. a bare word token whose text matches exactly.
func isKeyword(t token, kw string) bool {
	return t.kind == tokWord && t.text == kw
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	children := []Node{left}
	for isKeyword(p.peek(), "OR") {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		children = append(children, right)
	}
	if len(children) == 1 {
		return left, nil
	}
	return &Or{Children: children}, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	children := []Node{left}
	for {
		t := p.peek()
		if isKeyword(t, "AND") {
			p.next()
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			children = append(children, right)
			continue
		}
		if startsUnary(t) {
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			children = append(children, right)
			continue
		}
		break
	}
	if len(children) == 1 {
		return left, nil
	}
	return &And{Children: children}, nil
}

// startsUnary reports whether t could begin a unary (implicit AND via
// juxtaposition), i.e. it isn't a closing token, OR, or EOF.
func startsUnary(t token) bool {
	switch t.kind {
	case tokEOF, tokRParen:
		return false
	}
	if isKeyword(t, "OR") {
		return false
	}
	return true
}

func (p *parser) parseUnary() (Node, error) {
	if isKeyword(p.peek(), "NOT") {
		p.next()
		child, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Not{Child: child}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Node, error) {
	t := p.peek()
	switch t.kind {
	case tokLParen:
		p.next()
		n, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokRParen {
			return nil, newParseError(p.src, p.peek().pos, "expected closing ')'")
		}
		p.next()
		return n, nil
	case tokQuoted:
		p.next()
		return p.leafForDefault(t.text, true)
	case tokWord:
		// field_expr requires IDENT immediately followed by ':'.
		if p.pos+1 < len(p.toks) && p.toks[p.pos+1].kind == tokColon {
			ident := t.text
			p.next() // IDENT
			p.next() // ':'
			return p.parseFieldValue(ident, t.pos)
		}
		p.next()
		return p.leafForDefault(t.text, false)
	default:
		return nil, newParseError(p.src, t.pos, "expected a term, field expression, NOT, or '('")
	}
}

func (p *parser) leafForDefault(raw string, quoted bool) (Node, error) {
	f, _ := record.FieldByName("name")
	return p.valueToNode(f, raw, quoted, 0)
}

func (p *parser) parseFieldValue(ident string, pos int) (Node, error) {
	f, ok := record.FieldByName(ident)
	if !ok {
		return nil, newParseError(p.src, pos, "unknown field "+strconv.Quote(ident))
	}
	t := p.peek()
	switch t.kind {
	case tokQuoted:
		p.next()
		return p.valueToNode(f, t.text, true, pos)
	case tokWord:
		p.next()
		return p.valueToNode(f, t.text, false, pos)
	default:
		return nil, newParseError(p.src, t.pos, "expected a value after '"+ident+":'")
	}
}

// valueToNode applies field-kind-specific semantics to one parsed
// value token (spec §4.5 "value" production) and produces the
// matching leaf node.
func (p *parser) valueToNode(f record.Field, raw string, quoted bool, pos int) (Node, error) {
	field := f.Prefix
	if f.Kind == record.FieldRange {
		return p.rangeValue(field, raw, pos)
	}

	if field == "relocations" && quoted && raw == "" {
		return nil, newParseError(p.src, pos, "relocations value must not be empty; use relocations:* to match any relocation")
	}

	if quoted {
		return &Term{Field: field, Value: normalizeTerm(f, raw)}, nil
	}

	if f.Kind == record.FieldWholeTerm || f.Kind == record.FieldMultiTerm {
		return wildcardNode(p, field, raw, pos, f)
	}

	// Tokenized field (including the default, implicit "name"):
	// split the bare value into sub-tokens exactly as indexing does,
	// trailing '*' becomes a prefix on the final sub-token, AND the
	// rest together.
	text := raw
	hasWildcard := false
	if strings.HasSuffix(text, "*") {
		if strings.Count(text, "*") > 1 || strings.Contains(text[:len(text)-1], "*") {
			return nil, newParseError(p.src, pos, "wildcards are prefix-only, e.g. foo*")
		}
		hasWildcard = true
		text = text[:len(text)-1]
	} else if strings.Contains(text, "*") {
		return nil, newParseError(p.src, pos, "wildcards are prefix-only, e.g. foo*")
	}

	toks := record.Tokenize(text)
	if len(toks) == 0 {
		return nil, newParseError(p.src, pos, "empty term")
	}
	var children []Node
	for i, tok := range toks {
		if hasWildcard && i == len(toks)-1 {
			children = append(children, &Prefix{Field: field, Value: tok})
		} else {
			children = append(children, &Term{Field: field, Value: tok})
		}
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return &And{Children: children}, nil
}

func wildcardNode(p *parser, field, raw string, pos int, f record.Field) (Node, error) {
	if raw == "*" {
		return &Prefix{Field: field, Value: ""}, nil
	}
	if strings.HasSuffix(raw, "*") {
		if strings.Count(raw, "*") > 1 || strings.Contains(raw[:len(raw)-1], "*") {
			return nil, newParseError(p.src, pos, "wildcards are prefix-only, e.g. foo*")
		}
		return &Prefix{Field: field, Value: raw[:len(raw)-1]}, nil
	}
	if strings.Contains(raw, "*") {
		return nil, newParseError(p.src, pos, "wildcards are prefix-only, e.g. foo*")
	}
	return &Term{Field: field, Value: normalizeTerm(f, raw)}, nil
}

// normalizeTerm matches a leaf value's casing to how that field was
// indexed: tokenized fields fold case, whole/multi-term fields keep
// the caller's exact casing (spec §4.2's field-kind schema).
func normalizeTerm(f record.Field, raw string) string {
	if f.Kind == record.FieldTokenized {
		return strings.ToLower(raw)
	}
	return raw
}

func (p *parser) rangeValue(field, raw string, pos int) (Node, error) {
	if strings.Contains(raw, "*") {
		return nil, newParseError(p.src, pos, field+" does not accept wildcards; use a numeric range")
	}
	if !strings.Contains(raw, "..") {
		v, err := strconv.ParseUint(raw, 0, 64)
		if err != nil {
			return nil, newParseError(p.src, pos, "expected a numeric value or range for "+field)
		}
		return &RangeMatch{Field: field, Range: record.Point(v)}, nil
	}
	i := strings.Index(raw, "..")
	loText, hiText := raw[:i], raw[i+2:]
	var lo, hi *uint64
	if loText != "" {
		v, err := strconv.ParseUint(loText, 0, 64)
		if err != nil {
			return nil, newParseError(p.src, pos, "invalid range lower bound")
		}
		lo = &v
	}
	if hiText != "" {
		v, err := strconv.ParseUint(hiText, 0, 64)
		if err != nil {
			return nil, newParseError(p.src, pos, "invalid range upper bound")
		}
		hi = &v
	}
	return &RangeMatch{Field: field, Range: record.Range[uint64]{Lo: lo, Hi: hi}}, nil
}
