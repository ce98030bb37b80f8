package pe

import "fmt"

// Subsystem and section-permission bits this package names directly;
// kept local rather than imported since this package never depends on
// debug/pe.
const (
	subsystemNative     = 1
	subsystemWindowsGUI = 2
	subsystemWindowsCUI = 3

	scnMemRead  = 0x40000000
	scnMemWrite = 0x80000000
)

// SectionReport is one section's summary: geometry, permissions, and
// entropy, ready for display.
type SectionReport struct {
	Name            string
	VirtualAddress  uint32
	VirtualSize     uint32
	SizeOfRawData   uint32
	Characteristics uint32
	Permissions     string
	Entropy         float64
}

// Report is the aggregate view assembled by BuildReport: every directory
// accessor's result, collected once so a front end has one call to make
// (§4.13).
type Report struct {
	Architecture string
	Subsystem    string
	ImageBase    uint64
	EntryPoint   uint64

	Sections    []SectionReport
	Imports     []Import
	Exports     *Exports
	Relocations []RelocationBlock
	Exceptions  []RuntimeFunction
	TLS         *TLS
	Debug       []DebugEntry
	PDBPath     string
	PDBURL      string
}

// BuildReport runs every directory accessor once and assembles a Report.
// Per §4.13, a missing or malformed directory yields an empty/absent
// field rather than failing the call: only a construction-time fault
// (never reached here, since img is already parsed) would abort it.
func (img *Image) BuildReport(symbolServerHost string) *Report {
	r := &Report{
		Architecture: "x64 (64位)",
		Subsystem:    subsystemName(img.optional.Subsystem),
		ImageBase:    img.GetImageBase(),
		EntryPoint:   img.GetEntryPoint(),
	}

	for _, s := range img.AllSections() {
		entropy, _ := img.SectionEntropy(s.Name)
		sh, ok := img.sectionByName(s.Name)
		characteristics := uint32(0)
		virtualSize := uint32(0)
		if ok {
			characteristics = sh.Characteristics
			virtualSize = sh.VirtualSize
		}
		r.Sections = append(r.Sections, SectionReport{
			Name:            s.Name,
			VirtualAddress:  uint32(s.VirtualAddressAbs - r.ImageBase),
			VirtualSize:     virtualSize,
			SizeOfRawData:   uint32(len(s.Data)),
			Characteristics: characteristics,
			Permissions:     sectionPermissions(characteristics),
			Entropy:         entropy,
		})
	}

	if imports, err := img.Imports(); err == nil {
		r.Imports = imports
	}
	if exports, err := img.Exports(); err == nil {
		r.Exports = exports
	}
	if relocs, err := img.Relocations(); err == nil {
		r.Relocations = relocs
	}
	if exceptions, err := img.Exceptions(); err == nil {
		r.Exceptions = exceptions
	}
	if tls, err := img.TLSDirectory(); err == nil {
		r.TLS = tls
	}
	if debug, err := img.Debug(); err == nil {
		r.Debug = debug
	}
	if path, ok := img.PDBPath(); ok {
		r.PDBPath = path
	}
	if url, ok := img.PDBURL(symbolServerHost); ok {
		r.PDBURL = url
	}

	return r
}

func subsystemName(subsystem uint16) string {
	switch subsystem {
	case subsystemWindowsGUI:
		return "Windows GUI"
	case subsystemWindowsCUI:
		return "Windows 控制台"
	case subsystemNative:
		return "Native"
	default:
		return fmt.Sprintf("未知 (0x%X)", subsystem)
	}
}

func sectionPermissions(c uint32) string {
	var perms [3]rune
	perms[0], perms[1], perms[2] = '-', '-', '-'

	if c&scnMemRead != 0 {
		perms[0] = 'R'
	}
	if c&scnMemWrite != 0 {
		perms[1] = 'W'
	}
	if c&scnMemExecute != 0 {
		perms[2] = 'X'
	}

	return string(perms[:])
}
