package pe

import "fmt"

// Section is a read-only, owned view of one section's raw bytes plus the
// metadata needed to place it in the image's address space.
type Section struct {
	Name             string
	Data             []byte
	VirtualAddressAbs uint64
	Executable       bool
}

// RVAToOffset converts a relative virtual address to a file offset by
// locating the unique section whose virtual range contains rva (invariant
// 2: at most one section may claim any given RVA in a well-formed image).
func (img *Image) RVAToOffset(rva uint32) (uint32, error) {
	for _, s := range img.sections {
		if rva >= s.VirtualAddress && rva < s.VirtualAddress+s.VirtualSize {
			return rva - s.VirtualAddress + s.PointerToRawData, nil
		}
	}
	return 0, fmt.Errorf("%w: 0x%X", ErrRVAUnmapped, rva)
}

// SectionNameForAddress returns the name of the section whose
// [image_base+virtual_address, image_base+virtual_address+size_of_raw_data]
// range contains address, or "" if none does. The upper bound is inclusive
// by design, so an address pointing exactly one past a section's last byte
// still resolves to it.
func (img *Image) SectionNameForAddress(address uint64) string {
	base := img.GetImageBase()
	for _, s := range img.sections {
		start := base + uint64(s.VirtualAddress)
		end := start + uint64(s.SizeOfRawData)
		if address >= start && address <= end {
			return s.name()
		}
	}
	return ""
}

// sectionByName returns the first section whose name, truncated at the
// first NUL, starts with name.
func (img *Image) sectionByName(name string) (sectionHeader, bool) {
	for _, s := range img.sections {
		n := s.name()
		if len(n) >= len(name) && n[:len(name)] == name {
			return s, true
		}
	}
	return sectionHeader{}, false
}

// rawSectionData copies a section's on-disk raw region, clamping to the
// buffer end so a section header lying about its own size can't make this
// read run past the buffer.
func (img *Image) rawSectionData(s sectionHeader) []byte {
	start := int(s.PointerToRawData)
	end := start + int(s.SizeOfRawData)
	if start > len(img.buf) {
		start = len(img.buf)
	}
	if end > len(img.buf) {
		end = len(img.buf)
	}
	if end < start {
		end = start
	}
	out := make([]byte, end-start)
	copy(out, img.buf[start:end])
	return out
}

// SectionData returns a copy of the named section's raw on-disk bytes.
// Matching is by prefix against the 8-byte, NUL-trimmed section name.
func (img *Image) SectionData(name string) ([]byte, error) {
	s, ok := img.sectionByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSectionNotFound, name)
	}
	return img.rawSectionData(s), nil
}

// TextSectionData is SectionData(".text").
func (img *Image) TextSectionData() ([]byte, error) {
	return img.SectionData(".text")
}

// AllSections returns every section, in file order, with Executable
// reflecting the IMAGE_SCN_MEM_EXECUTE characteristic bit.
func (img *Image) AllSections() []Section {
	base := img.GetImageBase()
	out := make([]Section, 0, len(img.sections))
	for _, s := range img.sections {
		out = append(out, Section{
			Name:              s.name(),
			Data:              img.rawSectionData(s),
			VirtualAddressAbs: base + uint64(s.VirtualAddress),
			Executable:        s.Characteristics&scnMemExecute != 0,
		})
	}
	return out
}

// ExecutableSections is AllSections filtered to IMAGE_SCN_MEM_EXECUTE
// sections; every returned Section has Executable set to true.
func (img *Image) ExecutableSections() []Section {
	all := img.AllSections()
	out := make([]Section, 0, len(all))
	for _, s := range all {
		if s.Executable {
			out = append(out, s)
		}
	}
	return out
}
