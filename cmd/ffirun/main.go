package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	ffiruntime "github.com/wippyai/ffi-runtime"
	"github.com/wippyai/ffi-runtime/bind"
	"github.com/wippyai/ffi-runtime/handle"
	"github.com/wippyai/ffi-runtime/manifest"
	"github.com/wippyai/ffi-runtime/native"
	"github.com/wippyai/ffi-runtime/types"
)

func main() {
	var (
		manifestFile = flag.String("manifest", "", "Path to FFI manifest (YAML)")
		libPath      = flag.String("lib", "", "Library to load (overrides the manifest's)")
		callDecl     = flag.String("call", "", "Function to call: a manifest symbol or a full declaration")
		argsStr      = flag.String("args", "", "Call arguments (comma-separated)")
		list         = flag.Bool("list", false, "List bound functions and exit")
		interactive  = flag.Bool("i", false, "Interactive mode with TUI")
		verbose      = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	if *manifestFile == "" && *libPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: ffirun -manifest <ffi.yaml> [-call name] [-args a,b,...]")
		fmt.Fprintln(os.Stderr, "       ffirun -lib <libfoo.so> -call '<declaration>' [-args a,b,...]")
		fmt.Fprintln(os.Stderr, "       ffirun -manifest <ffi.yaml> -i  (interactive mode)")
		os.Exit(1)
	}

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err == nil {
			ffiruntime.SetLogger(logger)
			defer logger.Sync()
		}
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if *manifestFile == "" {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a manifest")
			os.Exit(1)
		}
		if err := runInteractive(*manifestFile, *libPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*manifestFile, *libPath, *callDecl, *argsStr, *list); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(manifestFile, libPath, callDecl, argsStr string, listOnly bool) error {
	ctx := context.Background()

	var m *manifest.Manifest
	if manifestFile != "" {
		var err error
		m, err = manifest.Load(manifestFile)
		if err != nil {
			return err
		}
		if libPath == "" {
			libPath = m.Library
		}
	}

	lib, err := native.Open(libPath)
	if err != nil {
		return err
	}
	defer lib.Close()

	reg := types.NewRegistry(types.HostPlatform())
	binder := bind.NewBinder(lib, reg, native.Memory{}, native.Allocator{})

	bound := map[string]*bind.Binding{}
	if m != nil {
		bound, err = m.Bind(binder)
		if err != nil {
			return err
		}
	}

	fmt.Printf("Library: %s\n", libPath)
	if len(bound) > 0 {
		fmt.Printf("\nBound functions:\n")
		for _, b := range sortedBindings(bound) {
			fmt.Printf("  %s\n", b.Signature())
		}
	}
	if listOnly {
		return nil
	}
	if callDecl == "" {
		return nil
	}

	b, ok := bound[callDecl]
	if !ok {
		// Not a manifest symbol; treat it as a full declaration.
		b, err = binder.BindDecl(callDecl)
		if err != nil {
			return err
		}
	}

	args, err := parseArgs(b.Signature(), argsStr)
	if err != nil {
		return err
	}

	fmt.Printf("\nCalling %s...\n", b.Signature().Symbol)
	result, err := b.Invoke(ctx, args...)
	if err != nil {
		return fmt.Errorf("call %s: %w", b.Signature().Symbol, err)
	}
	fmt.Printf("Result: %s\n", formatResult(result))
	return nil
}

// parseArgs converts comma-separated argument text per the declared
// parameter descriptors.
func parseArgs(sig *bind.Signature, argsStr string) ([]any, error) {
	var raw []string
	if argsStr != "" {
		raw = strings.Split(argsStr, ",")
	}
	args := make([]any, 0, len(raw))
	i := 0
	for _, p := range sig.Params {
		if p.IsLit {
			continue
		}
		if i >= len(raw) {
			return nil, fmt.Errorf("missing argument for parameter %q", p.Name)
		}
		v, err := convertArg(raw[i], p.Type)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", p.Name, err)
		}
		args = append(args, v)
		i++
	}
	if i != len(raw) {
		return nil, fmt.Errorf("%d argument(s) given, %d expected", len(raw), i)
	}
	return args, nil
}

func convertArg(value string, d *types.Descriptor) (any, error) {
	switch d.Kind {
	case types.KindString:
		return value, nil
	case types.KindFloat:
		return strconv.ParseFloat(value, 64)
	case types.KindPointer:
		if value == "null" || value == "0" {
			return nil, nil
		}
		return strconv.ParseUint(strings.TrimPrefix(value, "0x"), 16, 64)
	case types.KindInt:
		return strconv.ParseInt(value, 0, 64)
	case types.KindUint:
		return strconv.ParseUint(value, 0, 64)
	}
	return nil, fmt.Errorf("cannot pass %s from the command line", d.Name)
}

func formatResult(result any) string {
	switch v := result.(type) {
	case nil:
		return "(void)"
	case *handle.Handle:
		if v.IsNull() {
			return "null"
		}
		return fmt.Sprintf("0x%x", v.Address())
	default:
		return fmt.Sprintf("%v", v)
	}
}

func sortedBindings(bound map[string]*bind.Binding) []*bind.Binding {
	names := make([]string, 0, len(bound))
	for name := range bound {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*bind.Binding, 0, len(names))
	for _, name := range names {
		out = append(out, bound[name])
	}
	return out
}
