package pe

import "fmt"

// exportDirectory is IMAGE_EXPORT_DIRECTORY.
type exportDirectory struct {
	Characteristics       uint32 `struc:"uint32,little"`
	TimeDateStamp         uint32 `struc:"uint32,little"`
	MajorVersion          uint16 `struc:"uint16,little"`
	MinorVersion          uint16 `struc:"uint16,little"`
	Name                  uint32 `struc:"uint32,little"`
	Base                  uint32 `struc:"uint32,little"`
	NumberOfFunctions     uint32 `struc:"uint32,little"`
	NumberOfNames         uint32 `struc:"uint32,little"`
	AddressOfFunctions    uint32 `struc:"uint32,little"`
	AddressOfNames        uint32 `struc:"uint32,little"`
	AddressOfNameOrdinals uint32 `struc:"uint32,little"`
}

// ExportEntry is one name-exported function per §4.11. Pure-ordinal
// exports (no corresponding name-table entry) are never produced by this
// accessor.
type ExportEntry struct {
	Name             string
	Ordinal          uint32 // public ordinal: table index + export_directory.base
	ForwarderOrdinal uint32
	IsForwarder      bool
	Address          uint64 // 0 when the export has no function RVA
}

// Exports is the decoded export directory: the library's self-reported
// name plus every name-exported entry.
type Exports struct {
	LibraryName string
	Entries     []ExportEntry
}

// Exports reads the export directory (data directory 0) per §4.11.
func (img *Image) Exports() (*Exports, error) {
	dd := img.dataDirs[dirExport]
	if dd.VirtualAddress == 0 {
		return nil, nil
	}

	offset, err := img.RVAToOffset(dd.VirtualAddress)
	if err != nil {
		return nil, fmt.Errorf("导出目录地址转换失败: %w", err)
	}

	table, err := readStruct[exportDirectory](img.buf, int(offset))
	if err != nil {
		return nil, fmt.Errorf("读取导出目录失败: %w", err)
	}

	result := &Exports{}
	if table.Name != 0 {
		name, err := img.readRVAString(table.Name)
		if err != nil {
			return nil, fmt.Errorf("读取导出库名称失败: %w", err)
		}
		result.LibraryName = name
	}

	if table.NumberOfNames == 0 {
		return result, nil
	}

	functionsOffset, err := img.RVAToOffset(table.AddressOfFunctions)
	if err != nil {
		return nil, fmt.Errorf("导出函数表地址转换失败: %w", err)
	}
	namesOffset, err := img.RVAToOffset(table.AddressOfNames)
	if err != nil {
		return nil, fmt.Errorf("导出名称表地址转换失败: %w", err)
	}
	ordinalsOffset, err := img.RVAToOffset(table.AddressOfNameOrdinals)
	if err != nil {
		return nil, fmt.Errorf("导出序号表地址转换失败: %w", err)
	}

	base := img.GetImageBase()
	entries := make([]ExportEntry, 0, table.NumberOfNames)

	for i := uint32(0); i < table.NumberOfNames; i++ {
		nameRVA, err := img.readUint32At(int(namesOffset) + int(i)*4)
		if err != nil {
			return nil, fmt.Errorf("读取导出名称RVA[%d]失败: %w", i, err)
		}
		ordinal, err := img.readUint16At(int(ordinalsOffset) + int(i)*2)
		if err != nil {
			return nil, fmt.Errorf("读取导出序号[%d]失败: %w", i, err)
		}
		functionRVA, err := img.readUint32At(int(functionsOffset) + int(ordinal)*4)
		if err != nil {
			return nil, fmt.Errorf("读取导出函数RVA[%d]失败: %w", i, err)
		}

		var name string
		if nameRVA != 0 {
			name, err = img.readRVAString(nameRVA)
			if err != nil {
				return nil, fmt.Errorf("读取导出函数名称[%d]失败: %w", i, err)
			}
		}

		entry := ExportEntry{
			Name:    name,
			Ordinal: uint32(ordinal) + table.Base,
		}

		if functionRVA >= dd.VirtualAddress && functionRVA < dd.VirtualAddress+dd.Size {
			entry.IsForwarder = true
			entry.ForwarderOrdinal = uint32(ordinal)
		}
		if functionRVA != 0 {
			entry.Address = base + uint64(functionRVA)
		}

		entries = append(entries, entry)
	}

	result.Entries = entries
	return result, nil
}

// readUint32At reads a little-endian uint32 at a raw file offset.
func (img *Image) readUint32At(offset int) (uint32, error) {
	if offset < 0 || offset+4 > len(img.buf) {
		return 0, fmt.Errorf("%w: 偏移0x%X", ErrBufferOverflow, offset)
	}
	return uint32(img.buf[offset]) | uint32(img.buf[offset+1])<<8 |
		uint32(img.buf[offset+2])<<16 | uint32(img.buf[offset+3])<<24, nil
}

// readUint16At reads a little-endian uint16 at a raw file offset.
func (img *Image) readUint16At(offset int) (uint16, error) {
	if offset < 0 || offset+2 > len(img.buf) {
		return 0, fmt.Errorf("%w: 偏移0x%X", ErrBufferOverflow, offset)
	}
	return uint16(img.buf[offset]) | uint16(img.buf[offset+1])<<8, nil
}
