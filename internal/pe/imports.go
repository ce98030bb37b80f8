package pe

import (
	"errors"
	"fmt"
)

// importDescriptor is IMAGE_IMPORT_DESCRIPTOR.
type importDescriptor struct {
	ImportLookupTableRVA uint32 `struc:"uint32,little"`
	TimeDateStamp        uint32 `struc:"uint32,little"`
	ForwarderChain       uint32 `struc:"uint32,little"`
	NameRVA              uint32 `struc:"uint32,little"`
	ImportAddressTableRVA uint32 `struc:"uint32,little"`
}

// ImportEntry is one function or ordinal pulled in through a DLL's import
// address table.
type ImportEntry struct {
	Name    string // empty when Ordinal is set
	Ordinal uint16
	ByOrdinal bool
	// ThunkRVA is this entry's IAT slot: import_address_table_rva + index*8.
	ThunkRVA uint32
}

// Import is everything imported from a single DLL.
type Import struct {
	DLLName string
	Entries []ImportEntry
}

// Imports walks the import directory (data directory 1) per §4.5: one
// ImportDescriptor per DLL, terminated by a zero ImportLookupTableRVA or by
// the buffer end, each followed by its lookup table terminated by a zero
// 8-byte entry.
func (img *Image) Imports() ([]Import, error) {
	dd := img.dataDirs[dirImport]
	if dd.VirtualAddress == 0 {
		return nil, nil
	}

	descOffset, err := img.RVAToOffset(dd.VirtualAddress)
	if err != nil {
		return nil, fmt.Errorf("导入目录地址转换失败: %w", err)
	}

	descSize := sizeofStruct[importDescriptor]()
	var imports []Import

	for i := 0; ; i++ {
		desc, err := readStruct[importDescriptor](img.buf, int(descOffset)+i*descSize)
		if errors.Is(err, ErrBufferOverflow) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("读取导入描述符[%d]失败: %w", i, err)
		}
		if desc.ImportLookupTableRVA == 0 {
			break
		}

		dllName, err := img.readRVAString(desc.NameRVA)
		if err != nil {
			return nil, fmt.Errorf("读取导入DLL名称失败: %w", err)
		}

		entries, err := img.readImportLookupTable(desc.ImportLookupTableRVA, desc.ImportAddressTableRVA)
		if err != nil {
			return nil, fmt.Errorf("读取导入名称表失败: %w", err)
		}

		imports = append(imports, Import{DLLName: dllName, Entries: entries})
	}

	return imports, nil
}

// readImportLookupTable walks an ILT/IAT of 8-byte thunks starting at
// ilrRVA, stopping at the first zero entry. iatRVA is the descriptor's
// FirstThunk; each entry's ThunkRVA is iatRVA + index*8 (§4.5 step 3).
func (img *Image) readImportLookupTable(ilrRVA, iatRVA uint32) ([]ImportEntry, error) {
	offset, err := img.RVAToOffset(ilrRVA)
	if err != nil {
		return nil, err
	}

	var entries []ImportEntry
	for index := 0; ; index++ {
		thunkOffset := int(offset) + index*8
		if thunkOffset+8 > len(img.buf) {
			return nil, fmt.Errorf("%w: 导入名称表索引%d", ErrBufferOverflow, index)
		}
		entry := uint64(0)
		for b := 0; b < 8; b++ {
			entry |= uint64(img.buf[thunkOffset+b]) << (8 * b)
		}
		if entry == 0 {
			break
		}

		thunkRVA := iatRVA + uint32(index)*8

		if entry&(1<<63) != 0 {
			entries = append(entries, ImportEntry{Ordinal: uint16(entry & 0xFFFF), ByOrdinal: true, ThunkRVA: thunkRVA})
			continue
		}

		hintNameRVA := uint32(entry & 0x7FFFFFFF)
		hintOffset, err := img.RVAToOffset(hintNameRVA)
		if err != nil {
			return nil, fmt.Errorf("导入名称RVA转换失败: %w", err)
		}
		name, err := readCString(img.buf, int(hintOffset)+2)
		if err != nil {
			return nil, fmt.Errorf("读取导入函数名失败: %w", err)
		}
		entries = append(entries, ImportEntry{Name: name, ThunkRVA: thunkRVA})
	}
	return entries, nil
}

// readRVAString resolves rva to a file offset and reads a NUL-terminated
// string there.
func (img *Image) readRVAString(rva uint32) (string, error) {
	offset, err := img.RVAToOffset(rva)
	if err != nil {
		return "", err
	}
	return readCString(img.buf, int(offset))
}
