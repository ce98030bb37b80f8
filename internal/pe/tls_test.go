package pe

import (
	"encoding/binary"
	"testing"
)

func TestTLSDirectoryCallbacks(t *testing.T) {
	const callbacksRVA = 0x5100

	tlsDir := make([]byte, 40)
	binary.LittleEndian.PutUint64(tlsDir[24:32], uint64(callbacksRVA))

	callbacks := make([]byte, 24) // two pointers + zero terminator
	binary.LittleEndian.PutUint64(callbacks[0:8], 0x140001000)
	binary.LittleEndian.PutUint64(callbacks[8:16], 0x140001020)

	buf := newPEBuilder().
		addSection(".tls", 0x5000, tlsDir, false).
		addSection(".tlscb", callbacksRVA, callbacks, false).
		setDataDirectory(dirTLS, 0x5000, uint32(len(tlsDir))).
		build()

	img, err := New(buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tls, err := img.TLSDirectory()
	if err != nil {
		t.Fatalf("TLSDirectory() error = %v", err)
	}
	if tls == nil {
		t.Fatal("TLSDirectory() = nil, want a value")
	}
	if len(tls.Callbacks) != 2 {
		t.Fatalf("len(Callbacks) = %d, want 2", len(tls.Callbacks))
	}
	if tls.Callbacks[0] != 0x140001000 {
		t.Errorf("Callbacks[0] = 0x%X, want 0x140001000", tls.Callbacks[0])
	}
}

func TestTLSDirectoryAbsent(t *testing.T) {
	img := testImage(t)

	tls, err := img.TLSDirectory()
	if err != nil {
		t.Fatalf("TLSDirectory() error = %v", err)
	}
	if tls != nil {
		t.Errorf("TLSDirectory() = %+v, want nil", tls)
	}
}
