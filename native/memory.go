//go:build darwin || freebsd || linux

package native

import (
	"encoding/binary"
	"unsafe"

	ffiruntime "github.com/wippyai/ffi-runtime"
	"github.com/wippyai/ffi-runtime/errors"
)

// Memory reads and writes process memory at absolute addresses. There
// is nothing to bounds-check against: an address is valid exactly when
// native code could dereference it, and a wrong one faults the process
// the same way it would in C.
type Memory struct{}

var _ ffiruntime.Memory = Memory{}

func at(addr uint64, length uint32) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(addr))), length)
}

func checkNull(addr uint64, length uint32) error {
	if addr == 0 {
		return errors.OutOfBounds(0, length)
	}
	return nil
}

func (Memory) Read(addr uint64, length uint32) ([]byte, error) {
	if err := checkNull(addr, length); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, at(addr, length))
	return out, nil
}

func (Memory) Write(addr uint64, data []byte) error {
	if err := checkNull(addr, uint32(len(data))); err != nil {
		return err
	}
	copy(at(addr, uint32(len(data))), data)
	return nil
}

func (Memory) ReadU8(addr uint64) (uint8, error) {
	if err := checkNull(addr, 1); err != nil {
		return 0, err
	}
	return at(addr, 1)[0], nil
}

func (Memory) ReadU16(addr uint64) (uint16, error) {
	if err := checkNull(addr, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(at(addr, 2)), nil
}

func (Memory) ReadU32(addr uint64) (uint32, error) {
	if err := checkNull(addr, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(at(addr, 4)), nil
}

func (Memory) ReadU64(addr uint64) (uint64, error) {
	if err := checkNull(addr, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(at(addr, 8)), nil
}

func (Memory) WriteU8(addr uint64, value uint8) error {
	if err := checkNull(addr, 1); err != nil {
		return err
	}
	at(addr, 1)[0] = value
	return nil
}

func (Memory) WriteU16(addr uint64, value uint16) error {
	if err := checkNull(addr, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(at(addr, 2), value)
	return nil
}

func (Memory) WriteU32(addr uint64, value uint32) error {
	if err := checkNull(addr, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(at(addr, 4), value)
	return nil
}

func (Memory) WriteU64(addr uint64, value uint64) error {
	if err := checkNull(addr, 8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(at(addr, 8), value)
	return nil
}
