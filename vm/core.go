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
	"encoding/binary"

	"github.com/hivm-go/hivm/isa"
	"github.com/pkg/errors"
)

// Depth returns the number of bytes currently held on the operand stack.
func (i *Instance) Depth() int {
	return len(i.stack) - i.sp
}

// Push writes v's low width bytes onto the operand stack, unaligned, and
// moves the stack pointer down by width.
func (i *Instance) Push(v uint64, width int) {
	i.sp -= width
	if i.sp < 0 {
		panic(errors.Errorf("operand stack overflow pushing %d bytes", width))
	}
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	copy(i.stack[i.sp:i.sp+width], b[:width])
}

// Pop reads width bytes off the top of the operand stack, zero-extends
// them to 64 bits and moves the stack pointer back up.
func (i *Instance) Pop(width int) uint64 {
	if i.sp+width > len(i.stack) {
		panic(errors.Errorf("operand stack underflow popping %d bytes", width))
	}
	var b [8]byte
	copy(b[:width], i.stack[i.sp:i.sp+width])
	i.sp += width
	return binary.LittleEndian.Uint64(b[:])
}

// Peek reads width bytes at the top of the stack without popping them.
func (i *Instance) Peek(width int) uint64 {
	if i.sp+width > len(i.stack) {
		panic(errors.Errorf("operand stack underflow peeking %d bytes", width))
	}
	var b [8]byte
	copy(b[:width], i.stack[i.sp:i.sp+width])
	return binary.LittleEndian.Uint64(b[:])
}

// PushBytes pushes p verbatim; after the call, p[0] is on top of stack.
func (i *Instance) PushBytes(p []byte) {
	i.sp -= len(p)
	if i.sp < 0 {
		panic(errors.Errorf("operand stack overflow pushing %d bytes", len(p)))
	}
	copy(i.stack[i.sp:i.sp+len(p)], p)
}

// PopBytes pops and returns n bytes, the former top of stack first.
func (i *Instance) PopBytes(n int) []byte {
	if i.sp+n > len(i.stack) {
		panic(errors.Errorf("operand stack underflow popping %d bytes", n))
	}
	p := append([]byte(nil), i.stack[i.sp:i.sp+n]...)
	i.sp += n
	return p
}

// PeekBytes reads n bytes starting skip bytes below the current top,
// without popping. Used by DuplicateBytes.
func (i *Instance) PeekBytes(skip, n int) []byte {
	start := i.sp + skip
	if start+n > len(i.stack) || start < 0 {
		panic(errors.Errorf("operand stack underflow peeking %d bytes at skip %d", n, skip))
	}
	return append([]byte(nil), i.stack[start:start+n]...)
}

// fetch reads n bytes from the image at PC and advances PC past them.
func (i *Instance) fetch(n int) []byte {
	if i.PC < 0 || i.PC+n > len(i.mem) {
		panic(errors.Errorf("program counter %d ran off the end of the image fetching %d bytes", i.PC, n))
	}
	b := i.mem[i.PC : i.PC+n]
	i.PC += n
	return b
}

func (i *Instance) fetchUint64() uint64 {
	return binary.LittleEndian.Uint64(i.fetch(isa.AddressSize))
}

func (i *Instance) fetchByte() byte {
	return i.fetch(1)[0]
}
