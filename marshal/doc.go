// Package marshal converts values between their Go representation and
// the native bit representation a foreign call expects, per type
// descriptor.
//
// # Conversion Rules
//
// The rules reproduce C assignment semantics rather than guarding them:
//
//   - Integer to integer: truncate or sign-extend to the descriptor's
//     width with two's-complement wraparound. Losing magnitude is not an
//     error; 2^31 marshalled to int32 yields the minimum negative value.
//   - Arbitrary-precision integers (math/big) that fit no native width at
//     all fail with a coercion error. Truncation to a fitting width is
//     allowed, never an error.
//   - Float to integer: truncate toward zero.
//   - Non-numeric to numeric: coercion error.
//   - String to char *: the bytes are copied into a transient native
//     buffer with a NUL terminator and passed by address. The buffer is
//     owned by the call's Arena and freed when the call returns.
//   - nil to pointer: the zero address sentinel, never an error.
//
// Return values convert by the declared return descriptor alone. If the
// declaration disagrees with what the native function actually returns,
// the caller gets whatever the bit reinterpretation implies; the library
// preserves this deliberately and cannot detect it.
package marshal
