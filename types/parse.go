package types

import (
	"strconv"
	"strings"

	"github.com/wippyai/ffi-runtime/errors"
)

// normalizeToken canonicalizes a type token: qualifiers dropped, pointer
// stars space-separated, whitespace collapsed. "const char*" and
// "char  *" both normalize to "char *".
func normalizeToken(token string) string {
	spaced := strings.ReplaceAll(token, "*", " * ")
	fields := strings.Fields(spaced)

	out := fields[:0]
	for _, f := range fields {
		switch f {
		case "const", "volatile", "restrict":
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}

// splitPointerSuffix strips trailing " *" markers, returning the base
// token and the pointer depth.
func splitPointerSuffix(norm string) (base string, stars int) {
	base = norm
	for strings.HasSuffix(base, " *") {
		base = strings.TrimSuffix(base, " *")
		stars++
	}
	// A bare "*" has no base type.
	if base == "*" {
		return "", 0
	}
	return base, stars
}

func pointerSuffix(stars int) string {
	return strings.Repeat(" *", stars)
}

// splitArraySuffix recognizes a trailing fixed-size array declarator,
// as in "int[10]" or "point [4]".
func splitArraySuffix(norm, original string) (elem string, count uint32, ok bool, err error) {
	if !strings.HasSuffix(norm, "]") {
		return "", 0, false, nil
	}
	open := strings.LastIndex(norm, "[")
	if open < 0 {
		return "", 0, false, errors.ParseFailed(original, "unbalanced array brackets")
	}
	inner := strings.TrimSpace(norm[open+1 : len(norm)-1])
	n, perr := strconv.ParseUint(inner, 10, 32)
	if perr != nil || n == 0 {
		return "", 0, false, errors.ParseFailed(original, "array count must be a positive integer")
	}
	elem = strings.TrimSpace(norm[:open])
	if elem == "" {
		return "", 0, false, errors.ParseFailed(original, "array declarator has no element type")
	}
	return elem, uint32(n), true, nil
}

func arraySuffix(count uint32) string {
	return "[" + strconv.FormatUint(uint64(count), 10) + "]"
}
