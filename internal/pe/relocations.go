package pe

import "fmt"

// relocationBlockHeader is IMAGE_BASE_RELOCATION.
type relocationBlockHeader struct {
	VirtualAddress uint32 `struc:"uint32,little"`
	SizeOfBlock    uint32 `struc:"uint32,little"`
}

// Relocation is one decoded base-relocation entry.
type Relocation struct {
	Type   uint16
	Offset uint16
}

// RelocationBlock groups the entries that share a page RVA.
type RelocationBlock struct {
	VirtualAddress uint32
	Entries        []Relocation
}

// RelocationTypeName names the IMAGE_REL_BASED_* constant, or "UNKNOWN" for
// a value outside the known set.
func RelocationTypeName(t uint16) string {
	switch t {
	case 0:
		return "ABSOLUTE"
	case 1:
		return "HIGH"
	case 2:
		return "LOW"
	case 3:
		return "HIGHLOW"
	case 4:
		return "HIGHADJ"
	case 10:
		return "DIR64"
	default:
		return "UNKNOWN"
	}
}

// Relocations walks the base relocation directory (data directory 5) per
// §4.6: a sequence of 8-byte block headers, each followed by
// (size_of_block-8)/2 16-bit packed entries.
func (img *Image) Relocations() ([]RelocationBlock, error) {
	dd := img.dataDirs[dirBaseReloc]
	if dd.VirtualAddress == 0 {
		return nil, nil
	}

	base, err := img.RVAToOffset(dd.VirtualAddress)
	if err != nil {
		return nil, fmt.Errorf("重定位目录地址转换失败: %w", err)
	}

	headerSize := sizeofStruct[relocationBlockHeader]()
	end := int(base) + int(dd.Size)
	var blocks []RelocationBlock

	for offset := int(base); offset < end; {
		hdr, err := readStruct[relocationBlockHeader](img.buf, offset)
		if err != nil {
			return nil, fmt.Errorf("读取重定位块头失败: %w", err)
		}
		if hdr.SizeOfBlock < uint32(headerSize) {
			return nil, fmt.Errorf("%w: 重定位块大小%d小于头部大小", ErrBufferOverflow, hdr.SizeOfBlock)
		}

		entryCount := (int(hdr.SizeOfBlock) - headerSize) / 2
		entries := make([]Relocation, 0, entryCount)
		for i := 0; i < entryCount; i++ {
			entryOffset := offset + headerSize + i*2
			if entryOffset+2 > len(img.buf) {
				return nil, fmt.Errorf("%w: 重定位条目[%d]", ErrBufferOverflow, i)
			}
			packed := uint16(img.buf[entryOffset]) | uint16(img.buf[entryOffset+1])<<8
			entries = append(entries, Relocation{
				Type:   packed >> 12,
				Offset: packed & 0x0FFF,
			})
		}

		blocks = append(blocks, RelocationBlock{VirtualAddress: hdr.VirtualAddress, Entries: entries})
		offset += int(hdr.SizeOfBlock)
	}

	return blocks, nil
}
