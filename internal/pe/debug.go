package pe

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

// debugDirectoryEntry is IMAGE_DEBUG_DIRECTORY.
type debugDirectoryEntry struct {
	Characteristics  uint32 `struc:"uint32,little"`
	TimeDateStamp    uint32 `struc:"uint32,little"`
	MajorVersion     uint16 `struc:"uint16,little"`
	MinorVersion     uint16 `struc:"uint16,little"`
	Type             uint32 `struc:"uint32,little"`
	SizeOfData       uint32 `struc:"uint32,little"`
	AddressOfRawData uint32 `struc:"uint32,little"`
	PointerToRawData uint32 `struc:"uint32,little"`
}

// debugTypeCodeView is IMAGE_DEBUG_TYPE_CODEVIEW.
const debugTypeCodeView = 2

const (
	cvSignatureRSDS = 0x53445352 // "RSDS"
	cvSignatureNB10 = 0x3031424E // "NB10"

	cvInfoPDB70NameOffset = 24 // signature(4) + GUID(16) + age(4)
	cvInfoPDB20NameOffset = 16 // signature(4) + offset(4) + signature(4) + age(4)
)

// DebugEntry is one decoded debug-directory record. Payload is nil when
// the directory entry carries no raw data (PointerToRawData or SizeOfData
// is zero).
type DebugEntry struct {
	Type             uint32
	TimeDateStamp    uint32
	PointerToRawData uint32
	Payload          []byte
}

// Debug reads the debug directory (data directory 6) per §4.9:
// directory.size / sizeof(DebugDirectory) fixed-width records, each
// optionally carrying a raw payload copied from the file.
func (img *Image) Debug() ([]DebugEntry, error) {
	dd := img.dataDirs[dirDebug]
	if dd.VirtualAddress == 0 {
		return nil, nil
	}

	offset, err := img.RVAToOffset(dd.VirtualAddress)
	if err != nil {
		return nil, fmt.Errorf("调试目录地址转换失败: %w", err)
	}

	entrySize := sizeofStruct[debugDirectoryEntry]()
	count := int(dd.Size) / entrySize
	out := make([]DebugEntry, 0, count)

	for i := 0; i < count; i++ {
		raw, err := readStruct[debugDirectoryEntry](img.buf, int(offset)+i*entrySize)
		if err != nil {
			return nil, fmt.Errorf("读取调试目录条目[%d]失败: %w", i, err)
		}

		entry := DebugEntry{
			Type:             raw.Type,
			TimeDateStamp:    raw.TimeDateStamp,
			PointerToRawData: raw.PointerToRawData,
		}

		if raw.PointerToRawData != 0 && raw.SizeOfData != 0 {
			start := int(raw.PointerToRawData)
			end := start + int(raw.SizeOfData)
			if start >= 0 && end <= len(img.buf) && end >= start {
				payload := make([]byte, end-start)
				copy(payload, img.buf[start:end])
				entry.Payload = payload
			}
		}

		out = append(out, entry)
	}

	return out, nil
}

// PDBPath returns the raw embedded PDB path of the first usable CodeView
// (RSDS or NB10) debug record, per §4.10.
func (img *Image) PDBPath() (string, bool) {
	entries, err := img.Debug()
	if err != nil {
		return "", false
	}

	for _, e := range entries {
		if e.Type != debugTypeCodeView || len(e.Payload) < 4 {
			continue
		}

		switch {
		case bytes.Equal(e.Payload[:4], []byte("RSDS")):
			if len(e.Payload) < cvInfoPDB70NameOffset {
				continue
			}
			if path, ok := cPathAt(e.Payload, cvInfoPDB70NameOffset); ok {
				return path, true
			}
		case bytes.Equal(e.Payload[:4], []byte("NB10")):
			if len(e.Payload) < cvInfoPDB20NameOffset {
				continue
			}
			if path, ok := cPathAt(e.Payload, cvInfoPDB20NameOffset); ok {
				return path, true
			}
		}
	}

	return "", false
}

// cPathAt reads a NUL-terminated path out of payload starting at offset,
// requiring the terminator to exist before the payload end.
func cPathAt(payload []byte, offset int) (string, bool) {
	end := bytes.IndexByte(payload[offset:], 0)
	if end == -1 {
		return "", false
	}
	return string(payload[offset : offset+end]), true
}

// PDBURL returns the MSDL-style download URL for the first usable RSDS or
// NB10 CodeView record, per §4.10. host is the symbol-server host to embed
// (the front end's configured value); an empty host defaults to
// msdl.microsoft.com; any other host is used as given.
func (img *Image) PDBURL(host string) (string, bool) {
	if host == "" {
		host = "msdl.microsoft.com"
	}

	entries, err := img.Debug()
	if err != nil {
		return "", false
	}

	for _, e := range entries {
		if e.Type != debugTypeCodeView || len(e.Payload) < 4 {
			continue
		}

		signature := binary.LittleEndian.Uint32(e.Payload[:4])
		switch signature {
		case cvSignatureRSDS:
			url, ok := img.rsdsURL(host, e.Payload)
			if ok {
				return url, true
			}
		case cvSignatureNB10:
			url, ok := img.nb10URL(host, e.Payload)
			if ok {
				return url, true
			}
		}
	}

	return "", false
}

// rsdsURL builds the symbol URL for an RSDS (PDB 7.0) CodeView record:
// signature(4) + GUID data1(4) data2(2) data3(2) data4[8](8) + age(4) + path.
func (img *Image) rsdsURL(host string, payload []byte) (string, bool) {
	const fixedSize = 24 // signature + GUID + age
	if len(payload) < fixedSize {
		return "", false
	}

	path, ok := cPathAt(payload, fixedSize)
	if !ok {
		return "", false
	}

	data1 := binary.LittleEndian.Uint32(payload[4:8])
	data2 := binary.LittleEndian.Uint16(payload[8:10])
	data3 := binary.LittleEndian.Uint16(payload[10:12])
	data4 := payload[12:20]
	age := binary.LittleEndian.Uint32(payload[20:24])

	guid := fmt.Sprintf("%08X%04X%04X%02X%02X%02X%02X%02X%02X%02X%02X",
		data1, data2, data3,
		data4[0], data4[1], data4[2], data4[3], data4[4], data4[5], data4[6], data4[7])

	filename := basenameWindows(path)
	return fmt.Sprintf("https://%s/download/symbols/%s/%s%d/%s", host, filename, guid, age, filename), true
}

// nb10URL builds the symbol URL for an NB10 (PDB 2.0) CodeView record:
// signature(4) + offset(4) + signature(4) + age(4) + path.
func (img *Image) nb10URL(host string, payload []byte) (string, bool) {
	const fixedSize = 16 // signature + offset + signature + age
	if len(payload) < fixedSize {
		return "", false
	}

	path, ok := cPathAt(payload, fixedSize)
	if !ok {
		return "", false
	}

	sig := binary.LittleEndian.Uint32(payload[8:12])
	age := binary.LittleEndian.Uint32(payload[12:16])

	guid := fmt.Sprintf("%08X", sig)
	filename := basenameWindows(path)
	return fmt.Sprintf("https://%s/download/symbols/%s/%s%d/%s", host, filename, guid, age, filename), true
}

// basenameWindows returns the final path component after splitting on
// either backslash or forward slash, matching how the embedded CodeView
// path is normally written by a Windows toolchain.
func basenameWindows(path string) string {
	idx := strings.LastIndexAny(path, `\/`)
	if idx == -1 {
		return path
	}
	return path[idx+1:]
}
