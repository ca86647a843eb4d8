package isa

// ErrorCode is the 32-bit signed value held by the VM's error register and
// returned as the process exit code. Positive values are in-band,
// negative values are errors; zero means success.
type ErrorCode int32

// Well-known error codes. User bytecode is free to SetError/SetErrorConst
// any other value; these are the only ones the VM itself produces.
const (
	NoError       ErrorCode = 0
	EOF           ErrorCode = 1
	GenericError  ErrorCode = -1
	UnexpectedEOF ErrorCode = -2
)
