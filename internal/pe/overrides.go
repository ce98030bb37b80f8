package pe

// OverrideBaseAddress makes GetImageBase (and every accessor derived from
// it: section absolute addresses, export addresses, and GetEntryPoint while
// an entry-point override is set) report addr instead of the on-disk image
// base. A zero addr clears the override —
// zero is never a legitimate image base, so it doubles safely as the unset
// sentinel (§9 Open Question 3).
func (img *Image) OverrideBaseAddress(addr uint64) {
	img.overrideBase = addr
}

// OverrideEntryPoint makes GetEntryPoint report GetImageBase()+addr instead
// of the on-disk entry point RVA. A zero addr clears the override, for the
// same reason as OverrideBaseAddress.
func (img *Image) OverrideEntryPoint(addr uint64) {
	img.overrideEntry = addr
}

// GetImageBase returns the override when set, else the on-disk ImageBase
// from the optional header.
func (img *Image) GetImageBase() uint64 {
	if img.overrideBase != 0 {
		return img.overrideBase
	}
	return img.optional.ImageBase
}

// GetEntryPoint returns the effective entry point address: GetImageBase()
// plus the entry-point override when one is set, else the on-disk image
// base plus the on-disk AddressOfEntryPoint RVA.
func (img *Image) GetEntryPoint() uint64 {
	if img.overrideEntry != 0 {
		return img.GetImageBase() + img.overrideEntry
	}
	return img.optional.ImageBase + uint64(img.optional.AddressOfEntryPoint)
}
