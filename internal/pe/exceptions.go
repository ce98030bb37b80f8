package pe

import "fmt"

// maxChainHops bounds UNW_FLAG_CHAININFO following so a cyclic or hostile
// chain cannot make directory parsing loop forever (§9 Open Question 1).
const maxChainHops = 32

// unwFlagChainInfo is the UNWIND_INFO flags-field value meaning this
// record's chained RUNTIME_FUNCTION follows immediately after its unwind
// codes, rather than this record owning exception/termination handler data.
const unwFlagChainInfo = 0x4

// runtimeFunction is RUNTIME_FUNCTION (x64).
type runtimeFunction struct {
	BeginAddress     uint32 `struc:"uint32,little"`
	EndAddress       uint32 `struc:"uint32,little"`
	UnwindInfoAddress uint32 `struc:"uint32,little"`
}

// unwindInfoHeader is the fixed 4-byte prefix of UNWIND_INFO, up to the
// start of its UnwindCode array. VersionAndFlags packs a 3-bit version and
// a 5-bit flags field; flags() unpacks the latter.
type unwindInfoHeader struct {
	VersionAndFlags uint8 `struc:"byte"`
	SizeOfProlog    uint8 `struc:"byte"`
	CountOfCodes    uint8 `struc:"byte"`
	FrameFields     uint8 `struc:"byte"`
}

func (u unwindInfoHeader) flags() uint8 {
	return u.VersionAndFlags >> 3
}

// unwindCodeSize is sizeof(UNWIND_CODE): a 1-byte prologue offset plus a
// packed 1-byte op/opinfo nibble pair.
const unwindCodeSize = 2

// RuntimeFunction is one decoded exception-directory entry: the resolved
// (possibly chain-followed) RUNTIME_FUNCTION, its UnwindInfo when
// available, and whether chain resolution had to give up early.
type RuntimeFunction struct {
	BeginAddress      uint32
	EndAddress        uint32
	UnwindInfoAddress uint32
	UnwindInfo        *UnwindInfo
	ChainTruncated    bool
}

// UnwindInfo is the subset of UNWIND_INFO this package surfaces.
type UnwindInfo struct {
	Version      uint8
	Flags        uint8
	SizeOfProlog uint8
	CountOfCodes uint8
}

// Exceptions walks the exception directory (data directory 3) per §4.7:
// directory.size / sizeof(RuntimeFunction) fixed-width entries, each
// chain-resolved through any UNW_FLAG_CHAININFO links.
func (img *Image) Exceptions() ([]RuntimeFunction, error) {
	dd := img.dataDirs[dirException]
	if dd.VirtualAddress == 0 {
		return nil, nil
	}

	base, err := img.RVAToOffset(dd.VirtualAddress)
	if err != nil {
		return nil, fmt.Errorf("异常目录地址转换失败: %w", err)
	}

	entrySize := sizeofStruct[runtimeFunction]()
	count := int(dd.Size) / entrySize
	out := make([]RuntimeFunction, 0, count)

	for i := 0; i < count; i++ {
		rf, err := readStruct[runtimeFunction](img.buf, int(base)+i*entrySize)
		if err != nil {
			return nil, fmt.Errorf("读取异常函数条目[%d]失败: %w", i, err)
		}

		resolved, truncated := img.resolveChainedFunction(rf, 0)

		entry := RuntimeFunction{
			BeginAddress:      resolved.BeginAddress,
			EndAddress:        resolved.EndAddress,
			UnwindInfoAddress: resolved.UnwindInfoAddress,
			ChainTruncated:    truncated,
		}

		if resolved.UnwindInfoAddress != 0 {
			if ui, err := img.readUnwindInfo(resolved.UnwindInfoAddress); err == nil {
				entry.UnwindInfo = ui
			}
		}

		out = append(out, entry)
	}

	return out, nil
}

// resolveChainedFunction follows UNW_FLAG_CHAININFO links starting from
// rf, up to maxChainHops hops. Any read failure along the way returns the
// last successfully read function with truncated=true, matching the
// original's policy of swallowing chain-resolution faults rather than
// failing the whole directory walk.
func (img *Image) resolveChainedFunction(rf runtimeFunction, hops int) (runtimeFunction, bool) {
	if rf.UnwindInfoAddress == 0 {
		return rf, false
	}
	if hops >= maxChainHops {
		return rf, true
	}

	uiOffset, err := img.RVAToOffset(rf.UnwindInfoAddress)
	if err != nil {
		return rf, true
	}

	hdr, err := readStruct[unwindInfoHeader](img.buf, int(uiOffset))
	if err != nil {
		return rf, true
	}

	if hdr.flags()&unwFlagChainInfo == 0 {
		return rf, false
	}

	index := int(hdr.CountOfCodes)
	if index%2 != 0 {
		index++
	}

	chainOffset := int(uiOffset) + sizeofStruct[unwindInfoHeader]() + index*unwindCodeSize
	chainFunc, err := readStruct[runtimeFunction](img.buf, chainOffset)
	if err != nil {
		return rf, true
	}

	return img.resolveChainedFunction(chainFunc, hops+1)
}

// readUnwindInfo reads just the UnwindInfo header at the file offset
// addrRVA resolves to.
func (img *Image) readUnwindInfo(addrRVA uint32) (*UnwindInfo, error) {
	offset, err := img.RVAToOffset(addrRVA)
	if err != nil {
		return nil, err
	}
	hdr, err := readStruct[unwindInfoHeader](img.buf, int(offset))
	if err != nil {
		return nil, err
	}
	return &UnwindInfo{
		Version:      hdr.VersionAndFlags & 0x7,
		Flags:        hdr.flags(),
		SizeOfProlog: hdr.SizeOfProlog,
		CountOfCodes: hdr.CountOfCodes,
	}, nil
}
