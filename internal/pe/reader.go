// Package pe parses Windows 64-bit portable executable (PE32+) images.
//
// The parser is read-only: it never mutates the buffer it was given, and
// every accessor is a pure query over the buffer plus the headers cached at
// construction. All returned byte slices are owned copies.
package pe

import (
	"bytes"
	"fmt"

	"github.com/lunixbochs/struc"
)

// readStruct decodes a fixed-layout record of type T from buf at offset.
// T's on-disk width and field encoding come from its `struc` tags rather
// than Go's in-memory layout, since Go gives no guarantee that a struct's
// memory layout matches any particular wire format. The width struc reports
// for T is also what bounds the read, so the bounds check and the decode
// can never disagree about how many bytes T occupies.
func readStruct[T any](buf []byte, offset int) (T, error) {
	var v T

	size, err := struc.Sizeof(&v)
	if err != nil {
		return v, fmt.Errorf("计算结构体大小失败: %w", err)
	}

	if offset < 0 || size < 0 || offset+size > len(buf) {
		return v, fmt.Errorf("%w: 偏移0x%X 大小%d 缓冲区大小%d", ErrBufferOverflow, offset, size, len(buf))
	}

	if err := struc.Unpack(bytes.NewReader(buf[offset:offset+size]), &v); err != nil {
		return v, fmt.Errorf("解析结构体失败: %w", err)
	}

	return v, nil
}

// sizeofStruct returns the on-disk width of T as declared by its struc tags,
// without performing any read. Callers use it to compute strides (e.g. the
// entry count of a fixed-record directory) without hand-maintaining a
// parallel sizeof constant.
func sizeofStruct[T any]() int {
	var v T
	size, err := struc.Sizeof(&v)
	if err != nil {
		// Every type passed to sizeofStruct in this package is a
		// hand-written packed record; a tag error here is a programming
		// mistake, not a runtime condition callers should handle.
		panic(fmt.Sprintf("pe: 结构体标签无效: %v", err))
	}
	return size
}

// readCString reads a NUL-terminated string starting at offset, scanning
// forward until a zero byte or the buffer end. Reaching the buffer end
// without finding a terminator is reported as ErrTruncated.
func readCString(buf []byte, offset int) (string, error) {
	if offset < 0 || offset > len(buf) {
		return "", fmt.Errorf("%w: 偏移0x%X 缓冲区大小%d", ErrBufferOverflow, offset, len(buf))
	}

	end := bytes.IndexByte(buf[offset:], 0)
	if end == -1 {
		return "", fmt.Errorf("%w: 偏移0x%X", ErrTruncated, offset)
	}

	return string(buf[offset : offset+end]), nil
}
