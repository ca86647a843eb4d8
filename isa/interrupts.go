package isa

// Interrupt is a host-service request number popped by Intr/IntrConst and
// dispatched by the VM's interrupt handler (package vm).
type Interrupt byte

const (
	Print1 Interrupt = iota
	Print2
	Print4
	Print8
	PrintBytes
	PrintChar
	PrintString
	PrintStaticBytes
	PrintStaticString
	ReadBytes
	ReadAll

	interruptCount
)

var interruptNames = [...]string{
	Print1: "Print1", Print2: "Print2", Print4: "Print4", Print8: "Print8",
	PrintBytes:         "PrintBytes",
	PrintChar:          "PrintChar",
	PrintString:        "PrintString",
	PrintStaticBytes:   "PrintStaticBytes",
	PrintStaticString:  "PrintStaticString",
	ReadBytes:          "ReadBytes",
	ReadAll:            "ReadAll",
}

func (i Interrupt) String() string {
	if int(i) < len(interruptNames) && interruptNames[i] != "" {
		return interruptNames[i]
	}
	return "UnknownInterrupt"
}

// Valid reports whether i names a defined interrupt.
func (i Interrupt) Valid() bool {
	return i < interruptCount
}
