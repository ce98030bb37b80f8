package pe

import "errors"

// Sentinel errors identify the fault kinds this package can report. Callers
// distinguish them with errors.Is; accessors wrap them with fmt.Errorf's %w
// so context travels with the error without losing the underlying kind.
var (
	// ErrNotPE means the buffer does not start with the MZ/DOS signature.
	ErrNotPE = errors.New("不是有效的PE文件：缺少MZ签名")

	// ErrBadNTSignature means the bytes at e_lfanew are not "PE\0\0".
	ErrBadNTSignature = errors.New("PE签名无效：期望在e_lfanew处找到PE\\0\\0")

	// ErrUnsupportedMachine means the file header's Machine field is not x64.
	ErrUnsupportedMachine = errors.New("不支持的机器类型：仅支持x64 (0x8664)")

	// ErrUnsupportedOptionalMagic means the optional header is not PE32+.
	ErrUnsupportedOptionalMagic = errors.New("不支持的可选头魔数：仅支持PE32+ (0x20B)")

	// ErrBufferOverflow means a fixed-size read would cross the end of the buffer.
	ErrBufferOverflow = errors.New("读取越界：超出缓冲区末尾")

	// ErrRVAUnmapped means an RVA does not fall inside any section.
	ErrRVAUnmapped = errors.New("RVA未映射到任何节区")

	// ErrSectionNotFound means no section matches the requested name.
	ErrSectionNotFound = errors.New("未找到节区")

	// ErrTruncated means a NUL terminator was not found before the buffer end.
	ErrTruncated = errors.New("字符串在缓冲区结束前未找到NUL终止符")

	// ErrChainTruncated means an exception-directory unwind chain could not
	// be fully resolved, either because a read along the chain failed or
	// because the chain exceeded the hop ceiling. Exceptions never returns it
	// as a call error: the condition is reported through the ChainTruncated
	// field of the best-effort resolved RuntimeFunction.
	ErrChainTruncated = errors.New("异常展开链未能完全解析")
)
