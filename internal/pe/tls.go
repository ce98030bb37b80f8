package pe

import "fmt"

// tlsDirectory64 is IMAGE_TLS_DIRECTORY64.
type tlsDirectory64 struct {
	StartAddressOfRawData uint64 `struc:"uint64,little"`
	EndAddressOfRawData   uint64 `struc:"uint64,little"`
	AddressOfIndex        uint64 `struc:"uint64,little"`
	AddressOfCallbacks    uint64 `struc:"uint64,little"`
	SizeOfZeroFill        uint32 `struc:"uint32,little"`
	Characteristics       uint32 `struc:"uint32,little"`
}

// TLS is the decoded thread-local-storage directory: the raw data range
// plus every registered callback address.
type TLS struct {
	StartAddressOfRawData uint64
	EndAddressOfRawData   uint64
	AddressOfIndex        uint64
	Callbacks             []uint64
}

// TLSDirectory reads the TLS directory (data directory 9) per §4.8. A
// zero AddressOfCallbacks means no callback table; otherwise it is a
// virtual address whose low 32 bits this method maps via RVAToOffset,
// then reads as a zero-terminated array of 8-byte callback pointers.
func (img *Image) TLSDirectory() (*TLS, error) {
	dd := img.dataDirs[dirTLS]
	if dd.VirtualAddress == 0 {
		return nil, nil
	}

	offset, err := img.RVAToOffset(dd.VirtualAddress)
	if err != nil {
		return nil, fmt.Errorf("TLS目录地址转换失败: %w", err)
	}

	raw, err := readStruct[tlsDirectory64](img.buf, int(offset))
	if err != nil {
		return nil, fmt.Errorf("读取TLS目录失败: %w", err)
	}

	tls := &TLS{
		StartAddressOfRawData: raw.StartAddressOfRawData,
		EndAddressOfRawData:   raw.EndAddressOfRawData,
		AddressOfIndex:        raw.AddressOfIndex,
	}

	if raw.AddressOfCallbacks != 0 {
		callbackOffset, err := img.RVAToOffset(uint32(raw.AddressOfCallbacks))
		if err != nil {
			return nil, fmt.Errorf("TLS回调表地址转换失败: %w", err)
		}

		for i := 0; ; i++ {
			entryOffset := int(callbackOffset) + i*8
			if entryOffset+8 > len(img.buf) {
				return nil, fmt.Errorf("%w: TLS回调表索引%d", ErrBufferOverflow, i)
			}
			var ptr uint64
			for b := 0; b < 8; b++ {
				ptr |= uint64(img.buf[entryOffset+b]) << (8 * b)
			}
			if ptr == 0 {
				break
			}
			tls.Callbacks = append(tls.Callbacks, ptr)
		}
	}

	return tls, nil
}
