// Package manifest loads a library's FFI surface from a YAML document:
//
//	library: libm.so.6
//	opaque:
//	  - FILE
//	structs:
//	  - name: point
//	    fields:
//	      - { type: double, name: x }
//	      - { type: double, name: y }
//	functions:
//	  - double pow(double base, double exp)
//
// Applying a manifest registers its types; binding it resolves every
// declared function against a module in one pass, so a missing symbol
// or stale declaration fails at startup rather than mid-call.
package manifest
