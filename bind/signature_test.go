package bind

import (
	"testing"

	"github.com/wippyai/ffi-runtime/errors"
	"github.com/wippyai/ffi-runtime/types"
)

func TestParseSignature(t *testing.T) {
	reg := types.NewRegistry(types.Platform64)

	tests := []struct {
		decl     string
		symbol   string
		retKind  types.Kind
		nParams  int
		nLiteral int
	}{
		{"double pow(double base, double exp)", "pow", types.KindFloat, 2, 0},
		{"void * malloc(size_t size)", "malloc", types.KindPointer, 1, 0},
		{"uint strlen(char * s)", "strlen", types.KindUint, 1, 0},
		{"int rand()", "rand", types.KindInt, 0, 0},
		{"int getpid(void)", "getpid", types.KindInt, 0, 0},
		{"int ioctl(int fd, unsigned long 21505)", "ioctl", types.KindInt, 2, 1},
		{"void free(void * ptr)", "free", types.KindVoid, 1, 0},
		{"char * getenv(const char * name)", "getenv", types.KindString, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.decl, func(t *testing.T) {
			sig, err := ParseSignature(reg, tt.decl)
			if err != nil {
				t.Fatal(err)
			}
			if sig.Symbol != tt.symbol {
				t.Errorf("symbol: got %q, want %q", sig.Symbol, tt.symbol)
			}
			if sig.Return.Kind != tt.retKind {
				t.Errorf("return kind: got %v, want %v", sig.Return.Kind, tt.retKind)
			}
			if len(sig.Params) != tt.nParams {
				t.Fatalf("params: got %d, want %d", len(sig.Params), tt.nParams)
			}
			lits := 0
			for _, p := range sig.Params {
				if p.IsLit {
					lits++
				}
			}
			if lits != tt.nLiteral {
				t.Errorf("literals: got %d, want %d", lits, tt.nLiteral)
			}
		})
	}
}

func TestParseSignatureLiteralValue(t *testing.T) {
	reg := types.NewRegistry(types.Platform64)

	sig, err := ParseSignature(reg, "int fcntl(int fd, int 3)")
	if err != nil {
		t.Fatal(err)
	}
	p := sig.Params[1]
	if !p.IsLit || p.Literal.(int64) != 3 {
		t.Errorf("literal: got %+v", p)
	}
	if sig.Arity() != 1 {
		t.Errorf("arity with literal: got %d, want 1", sig.Arity())
	}
}

func TestParseSignatureErrors(t *testing.T) {
	reg := types.NewRegistry(types.Platform64)

	parseErrs := []string{
		"nonsense",
		"int f(",
		"f()",
		"int f(int)",
		"int f(int 1x)",
	}
	for _, decl := range parseErrs {
		if _, err := ParseSignature(reg, decl); !errors.IsKind(err, errors.KindInvalidInput) {
			t.Errorf("%q: got %v", decl, err)
		}
	}

	if _, err := ParseSignature(reg, "quaternion f(int a)"); !errors.IsKind(err, errors.KindUnknownType) {
		t.Errorf("unknown return type: got %v", err)
	}
	if _, err := ParseSignature(reg, "int f(quaternion a)"); !errors.IsKind(err, errors.KindUnknownType) {
		t.Errorf("unknown param type: got %v", err)
	}
}

func TestSignatureString(t *testing.T) {
	reg := types.NewRegistry(types.Platform64)

	// String renders canonical descriptor names, not the original tokens.
	sig, err := ParseSignature(reg, "void*  malloc( size_t   size )")
	if err != nil {
		t.Fatal(err)
	}
	if got := sig.String(); got != "void * malloc(uint64 size)" {
		t.Errorf("String: got %q", got)
	}
}
