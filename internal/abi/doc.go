// Package abi provides low-level helpers shared by the layout and marshal
// packages: offset alignment and bit-level numeric coercion matching C
// two's-complement semantics.
package abi
