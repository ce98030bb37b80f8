package pe

import "encoding/binary"

// peBuilder assembles a minimal, well-formed PE32+ buffer by hand so tests
// can exercise the parser without shipping real binaries into the repo.
type peBuilder struct {
	sections []builderSection
	dataDirs [numDataDirectories]dataDirectory
	imageBase uint64
	entryRVA  uint32
}

type builderSection struct {
	name    string
	rva     uint32
	data    []byte
	exec    bool
	write   bool
	readPerm bool
}

func newPEBuilder() *peBuilder {
	return &peBuilder{imageBase: 0x140000000, entryRVA: 0x1000}
}

func (b *peBuilder) addSection(name string, rva uint32, data []byte, exec bool) *peBuilder {
	b.sections = append(b.sections, builderSection{name: name, rva: rva, data: data, exec: exec, readPerm: true})
	return b
}

func (b *peBuilder) setDataDirectory(index int, virtualAddress, size uint32) *peBuilder {
	b.dataDirs[index] = dataDirectory{VirtualAddress: virtualAddress, Size: size}
	return b
}

// build lays out: 64-byte DOS header, 4-byte PE signature, 20-byte file
// header, 112-byte optional header prefix, 16 data directories (128
// bytes), one 40-byte section header per section, then each section's raw
// data in its own 0x200-byte file slot, in order, after the headers; each
// section header maps its declared rva to that slot's file offset.
func (b *peBuilder) build() []byte {
	const fileAlign = 0x200

	numSections := len(b.sections)
	headersEnd := 64 + 4 + 20 + 112 + 128 + numSections*40
	sectionFileStart := ((headersEnd + fileAlign - 1) / fileAlign) * fileAlign

	totalSize := sectionFileStart
	fileOffsets := make([]int, numSections)
	for i, s := range b.sections {
		fileOffsets[i] = sectionFileStart + i*fileAlign
		end := fileOffsets[i] + len(s.data)
		if end > totalSize {
			totalSize = end
		}
	}
	totalSize = ((totalSize + fileAlign - 1) / fileAlign) * fileAlign

	buf := make([]byte, totalSize)

	// DOS header: Magic=MZ, Lfanew points right after the 64-byte stub.
	binary.LittleEndian.PutUint16(buf[0:2], dosSignature)
	binary.LittleEndian.PutUint32(buf[60:64], 64)

	// NT signature.
	binary.LittleEndian.PutUint32(buf[64:68], ntSignature)

	// File header at 68.
	fh := 68
	binary.LittleEndian.PutUint16(buf[fh:fh+2], machineAMD64)
	binary.LittleEndian.PutUint16(buf[fh+2:fh+4], uint16(numSections))
	binary.LittleEndian.PutUint16(buf[fh+16:fh+18], 112+128) // SizeOfOptionalHeader

	// Optional header at fh+20.
	oh := fh + 20
	binary.LittleEndian.PutUint16(buf[oh:oh+2], magicPE32Plus)
	binary.LittleEndian.PutUint32(buf[oh+16:oh+20], b.entryRVA) // AddressOfEntryPoint
	binary.LittleEndian.PutUint64(buf[oh+24:oh+32], b.imageBase) // ImageBase
	binary.LittleEndian.PutUint32(buf[oh+108:oh+112], numDataDirectories) // NumberOfRvaAndSizes

	// Data directories at oh+112.
	dd := oh + 112
	for i := 0; i < numDataDirectories; i++ {
		binary.LittleEndian.PutUint32(buf[dd+i*8:dd+i*8+4], b.dataDirs[i].VirtualAddress)
		binary.LittleEndian.PutUint32(buf[dd+i*8+4:dd+i*8+8], b.dataDirs[i].Size)
	}

	// Section headers at dd+128.
	sh := dd + 128
	for i, s := range b.sections {
		off := sh + i*40
		nameBytes := []byte(s.name)
		for j := 0; j < 8 && j < len(nameBytes); j++ {
			buf[off+j] = nameBytes[j]
		}
		binary.LittleEndian.PutUint32(buf[off+8:off+12], uint32(len(s.data))) // VirtualSize
		binary.LittleEndian.PutUint32(buf[off+12:off+16], s.rva)
		binary.LittleEndian.PutUint32(buf[off+16:off+20], uint32(len(s.data))) // SizeOfRawData
		binary.LittleEndian.PutUint32(buf[off+20:off+24], uint32(fileOffsets[i]))

		var characteristics uint32
		if s.readPerm {
			characteristics |= scnMemRead
		}
		if s.write {
			characteristics |= scnMemWrite
		}
		if s.exec {
			characteristics |= scnMemExecute
		}
		binary.LittleEndian.PutUint32(buf[off+36:off+40], characteristics)

		copy(buf[fileOffsets[i]:], s.data)
	}

	return buf
}
