package bind

import (
	"strconv"
	"strings"

	"github.com/wippyai/ffi-runtime/errors"
	"github.com/wippyai/ffi-runtime/types"
)

// Param is one declared parameter: a type descriptor plus either a name
// (the value arrives at call time) or a literal baked into the signature
// for the binding's lifetime.
type Param struct {
	Type    *types.Descriptor
	Name    string
	Literal any
	IsLit   bool
}

// Signature is a parsed function declaration: return descriptor, symbol
// name, and ordered parameters. Signatures are immutable after parsing.
type Signature struct {
	Return *types.Descriptor
	Symbol string
	Params []Param
}

// ParseSignature parses a C-like declaration such as
//
//	double pow(double base, double exp)
//	void * malloc(size_t size)
//	int ioctl(int fd, unsigned long 21505)
//
// into a Signature. Each parameter is a type token followed by a name or
// a numeric literal; `void` or an empty list declares zero parameters.
// Unrecognized type tokens fail with unknown_type.
func ParseSignature(reg *types.Registry, decl string) (*Signature, error) {
	open := strings.IndexByte(decl, '(')
	if open < 0 {
		return nil, errors.ParseFailed(decl, "missing parameter list")
	}
	trimmed := strings.TrimSpace(decl)
	if !strings.HasSuffix(trimmed, ")") {
		return nil, errors.ParseFailed(decl, "missing closing parenthesis")
	}

	retTok, symbol, err := splitHead(decl[:open], decl)
	if err != nil {
		return nil, err
	}
	ret, err := reg.Resolve(retTok)
	if err != nil {
		return nil, err
	}

	inner := strings.TrimSpace(trimmed[strings.IndexByte(trimmed, '(')+1 : len(trimmed)-1])
	params, err := parseParams(reg, inner, decl)
	if err != nil {
		return nil, err
	}

	return &Signature{Return: ret, Symbol: symbol, Params: params}, nil
}

// splitHead separates "void * malloc" into return token and symbol name.
func splitHead(head, decl string) (retTok, symbol string, err error) {
	spaced := strings.ReplaceAll(head, "*", " * ")
	fields := strings.Fields(spaced)
	if len(fields) < 2 {
		return "", "", errors.ParseFailed(decl, "expected a return type and a symbol name")
	}
	symbol = fields[len(fields)-1]
	if !isIdentifier(symbol) {
		return "", "", errors.ParseFailed(decl, "symbol name "+strconv.Quote(symbol)+" is not an identifier")
	}
	return strings.Join(fields[:len(fields)-1], " "), symbol, nil
}

func parseParams(reg *types.Registry, inner, decl string) ([]Param, error) {
	if inner == "" || inner == "void" {
		return nil, nil
	}

	parts := strings.Split(inner, ",")
	params := make([]Param, 0, len(parts))
	for _, part := range parts {
		spaced := strings.ReplaceAll(part, "*", " * ")
		fields := strings.Fields(spaced)
		if len(fields) < 2 {
			return nil, errors.ParseFailed(decl, "parameter "+strconv.Quote(strings.TrimSpace(part))+" needs a type and a name or literal")
		}

		last := fields[len(fields)-1]
		typeTok := strings.Join(fields[:len(fields)-1], " ")
		d, err := reg.Resolve(typeTok)
		if err != nil {
			return nil, err
		}

		if lit, ok := parseLiteral(last); ok {
			params = append(params, Param{Type: d, Literal: lit, IsLit: true})
			continue
		}
		if !isIdentifier(last) {
			return nil, errors.ParseFailed(decl, "parameter name "+strconv.Quote(last)+" is not an identifier")
		}
		params = append(params, Param{Type: d, Name: last})
	}
	return params, nil
}

func parseLiteral(tok string) (any, bool) {
	if i, err := strconv.ParseInt(tok, 0, 64); err == nil {
		return i, true
	}
	if u, err := strconv.ParseUint(tok, 0, 64); err == nil {
		return u, true
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return f, true
	}
	return nil, false
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_',
			r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Arity returns the number of parameters whose value arrives at call
// time, literals excluded.
func (s *Signature) Arity() int {
	n := 0
	for _, p := range s.Params {
		if !p.IsLit {
			n++
		}
	}
	return n
}

func (s *Signature) String() string {
	var b strings.Builder
	b.WriteString(s.Return.Name)
	b.WriteByte(' ')
	b.WriteString(s.Symbol)
	b.WriteByte('(')
	for i, p := range s.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Type.Name)
		b.WriteByte(' ')
		if p.IsLit {
			b.WriteString(litString(p.Literal))
		} else {
			b.WriteString(p.Name)
		}
	}
	b.WriteByte(')')
	return b.String()
}

func litString(v any) string {
	switch t := v.(type) {
	case int64:
		return strconv.FormatInt(t, 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	}
	return ""
}
