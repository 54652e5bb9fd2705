package abi

// AlignTo rounds offset up to the next multiple of align.
// align must be a power of two.
func AlignTo(offset, align uint32) uint32 {
	if align <= 1 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

// Truncate masks bits down to a width-byte integer. Width 8 is the
// identity; this is C integer conversion, magnitude is silently discarded.
func Truncate(bits uint64, width uint32) uint64 {
	if width >= 8 {
		return bits
	}
	return bits & (1<<(width*8) - 1)
}

// SignExtend interprets the low width bytes of bits as a signed
// two's-complement integer and extends it to 64 bits.
func SignExtend(bits uint64, width uint32) int64 {
	if width >= 8 {
		return int64(bits)
	}
	shift := 64 - width*8
	return int64(bits<<shift) >> shift
}
