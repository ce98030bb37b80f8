package pe

import (
	"encoding/binary"
	"testing"
)

// buildExportsSection lays out an export directory plus its name/ordinal/
// function tables and the name strings for a section placed at sectionRVA,
// returning the section bytes. Every RVA field is absolute (sectionRVA + local
// offset), since RVAToOffset resolves against the full image address
// space, not against the section's own start.
func buildExportsSection(sectionRVA uint32, names []string, functionRVAs []uint32) []byte {
	const (
		dirSize      = 40
		nameTableOff = dirSize
	)
	nameRVAs := make([]uint32, len(names))
	nameBytes := [][]byte{}
	cursor := uint32(nameTableOff + len(names)*4 + len(names)*2 + len(functionRVAs)*4)
	for i, n := range names {
		nameRVAs[i] = sectionRVA + cursor
		b := append([]byte(n), 0)
		nameBytes = append(nameBytes, b)
		cursor += uint32(len(b))
	}

	buf := make([]byte, cursor)

	namesOff := nameTableOff
	ordinalsOff := namesOff + len(names)*4
	functionsOff := ordinalsOff + len(names)*2

	binary.LittleEndian.PutUint32(buf[16:20], 1) // Base
	binary.LittleEndian.PutUint32(buf[20:24], uint32(len(functionRVAs)))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(len(names)))
	binary.LittleEndian.PutUint32(buf[28:32], sectionRVA+uint32(functionsOff))
	binary.LittleEndian.PutUint32(buf[32:36], sectionRVA+uint32(namesOff))
	binary.LittleEndian.PutUint32(buf[36:40], sectionRVA+uint32(ordinalsOff))

	for i, rva := range nameRVAs {
		binary.LittleEndian.PutUint32(buf[namesOff+i*4:namesOff+i*4+4], rva)
		binary.LittleEndian.PutUint16(buf[ordinalsOff+i*2:ordinalsOff+i*2+2], uint16(i))
	}
	for i, rva := range functionRVAs {
		binary.LittleEndian.PutUint32(buf[functionsOff+i*4:functionsOff+i*4+4], rva)
	}

	off := functionsOff + len(functionRVAs)*4
	for _, b := range nameBytes {
		copy(buf[off:], b)
		off += len(b)
	}

	return buf
}

func TestExportsNameResolution(t *testing.T) {
	section := buildExportsSection(0x3000, []string{"Foo", "Bar"}, []uint32{0x5000, 0x5010})

	buf := newPEBuilder().
		addSection(".edata", 0x3000, section, false).
		setDataDirectory(dirExport, 0x3000, uint32(len(section))).
		build()

	img, err := New(buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	exports, err := img.Exports()
	if err != nil {
		t.Fatalf("Exports() error = %v", err)
	}
	if exports == nil || len(exports.Entries) != 2 {
		t.Fatalf("Exports() = %+v, want 2 entries", exports)
	}

	want := map[string]uint64{
		"Foo": img.GetImageBase() + 0x5000,
		"Bar": img.GetImageBase() + 0x5010,
	}
	for _, e := range exports.Entries {
		if e.Address != want[e.Name] {
			t.Errorf("export %s address = 0x%X, want 0x%X", e.Name, e.Address, want[e.Name])
		}
		if e.IsForwarder {
			t.Errorf("export %s unexpectedly marked as forwarder", e.Name)
		}
	}
}

func TestExportsForwarder(t *testing.T) {
	const sectionRVA = 0x3000
	// A function RVA landing inside the export directory's own
	// [VirtualAddress, VirtualAddress+Size) range marks the entry as a
	// forwarder (its "address" is really a forwarder string pointer, not
	// code) per §4.11.
	forwarderRVA := sectionRVA + 4
	section := buildExportsSection(sectionRVA, []string{"Foo", "Forwarded"}, []uint32{0x5000, uint32(forwarderRVA)})

	buf := newPEBuilder().
		addSection(".edata", sectionRVA, section, false).
		setDataDirectory(dirExport, sectionRVA, uint32(len(section))).
		build()

	img, err := New(buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	exports, err := img.Exports()
	if err != nil {
		t.Fatalf("Exports() error = %v", err)
	}
	if exports == nil || len(exports.Entries) != 2 {
		t.Fatalf("Exports() = %+v, want 2 entries", exports)
	}

	byName := map[string]ExportEntry{}
	for _, e := range exports.Entries {
		byName[e.Name] = e
	}

	foo := byName["Foo"]
	if foo.IsForwarder {
		t.Errorf("Foo unexpectedly marked as forwarder")
	}

	fwd, ok := byName["Forwarded"]
	if !ok {
		t.Fatalf("missing Forwarded entry in %+v", exports.Entries)
	}
	if !fwd.IsForwarder {
		t.Errorf("Forwarded.IsForwarder = false, want true")
	}
	if fwd.ForwarderOrdinal != 1 {
		t.Errorf("Forwarded.ForwarderOrdinal = %d, want 1", fwd.ForwarderOrdinal)
	}
}

func TestExportsAbsentDirectory(t *testing.T) {
	buf := newPEBuilder().addSection(".text", 0x1000, []byte{0x90}, true).build()

	img, err := New(buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	exports, err := img.Exports()
	if err != nil {
		t.Fatalf("Exports() error = %v", err)
	}
	if exports != nil {
		t.Errorf("Exports() = %+v, want nil for an image with no export directory", exports)
	}
}
