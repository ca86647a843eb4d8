// This file is part of ngaro - https://github.com/db47h/ngaro
//
// Copyright 2016 Denis Bernard <db047h@gmail.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vm

import (
	"io"
	"os"

	"github.com/hivm-go/hivm/internal/errwriter"
	"github.com/hivm-go/hivm/isa"
)

const defaultOpStackSize = 1024

// Option configures an Instance at construction time.
type Option func(*Instance) error

// OpStackSize sets the fixed size, in bytes, of the operand stack.
func OpStackSize(size int) Option {
	return func(i *Instance) error { i.stack = make([]byte, size); return nil }
}

// Input sets the reader ReadBytes/ReadAll pull from.
func Input(r io.Reader) Option {
	return func(i *Instance) error { i.input = r; return nil }
}

// Output sets the writer every Print* interrupt writes to.
func Output(w io.Writer) Option {
	return func(i *Instance) error { i.outputRaw = w; return nil }
}

// Instance is one running HiVM program: a bytecode image, a heap grown
// past the end of it, a downward-growing operand stack (which also holds
// Call's return addresses) and an error register.
type Instance struct {
	// PC is the current program counter: a byte offset into mem. It
	// starts at 0, where the image's own leading JumpConst instruction
	// sends it straight to the real entry point.
	PC int

	mem   []byte // code/data region followed by heap
	stack []byte // operand stack storage
	sp    int    // top-of-stack byte offset, grows downward from len(stack)

	errReg isa.ErrorCode

	allocSizes map[int]int // base address -> size, for Realloc/Free bookkeeping
	nextAlloc  int         // next heap offset to hand out

	halted bool // set by the Exit opcode to stop the run loop

	input     io.Reader
	outputRaw io.Writer
	output    *errwriter.Writer // wraps outputRaw; a failed write sets errReg instead of panicking
	insCount  int64
}

// New creates an Instance ready to execute image from byte 0. The
// image's own leading bytes are a real JumpConst instruction to the
// program's actual entry point, so no separate entry offset is needed:
// running from PC 0 does the right thing by construction. "Static"
// operations (LoadStaticN, PrintStaticBytes/String) address this same
// image/heap region directly — there is no separate literal pool at
// runtime, only the assembler-side symtab.Table that produced the
// addresses baked into the bytecode.
func New(image []byte, opts ...Option) (*Instance, error) {
	i := &Instance{
		PC:         0,
		mem:        append([]byte(nil), image...),
		allocSizes: make(map[int]int),
		nextAlloc:  len(image),
	}
	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, err
		}
	}
	if i.stack == nil {
		i.stack = make([]byte, defaultOpStackSize)
	}
	if i.input == nil {
		i.input = os.Stdin
	}
	if i.outputRaw == nil {
		i.outputRaw = os.Stdout
	}
	i.output = errwriter.Wrap(i.outputRaw)
	i.sp = len(i.stack)
	return i, nil
}

// InstructionCount returns the number of instructions executed so far.
func (i *Instance) InstructionCount() int64 { return i.insCount }

// StackBytesUsed returns how many bytes of the operand stack are in use.
func (i *Instance) StackBytesUsed() int { return len(i.stack) - i.sp }

// Error returns the current value of the VM's error register.
func (i *Instance) Error() isa.ErrorCode { return i.errReg }

// MemSize returns the current size of the combined code/data/heap region.
func (i *Instance) MemSize() int { return len(i.mem) }
