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

import "github.com/pkg/errors"

// growTo ensures i.mem is at least n bytes long, zero-filling the gap.
func (i *Instance) growTo(n int) {
	if n <= len(i.mem) {
		return
	}
	grown := make([]byte, n)
	copy(grown, i.mem)
	i.mem = grown
}

// readMem reads n bytes at absolute address addr. It panics if addr+n
// runs past the current end of the arena.
func (i *Instance) readMem(addr, n int) []byte {
	if addr < 0 || addr+n > len(i.mem) {
		panic(errors.Errorf("memory access at %d..%d out of bounds (size %d)", addr, addr+n, len(i.mem)))
	}
	return i.mem[addr : addr+n]
}

// writeMem writes p at absolute address addr, growing the arena if the
// write runs past its current end (a program is free to Store past what
// Malloc handed it, same as any C-like flat address space).
func (i *Instance) writeMem(addr int, p []byte) {
	i.growTo(addr + len(p))
	copy(i.mem[addr:addr+len(p)], p)
}

// malloc hands out a fresh, non-overlapping block of n bytes past the
// current watermark and records its size for Realloc/Free bookkeeping.
// Matching the host allocator's own rules (spec.md's deferral for
// Realloc/Free edge cases), a zero-size request still returns a valid,
// distinct address.
func (i *Instance) malloc(n int) int {
	base := i.nextAlloc
	i.growTo(base + n)
	i.allocSizes[base] = n
	if n == 0 {
		n = 1 // keep the next block's address distinct from this one
	}
	i.nextAlloc = base + n
	return base
}

// realloc grows or shrinks the block at base. A nil (zero) base behaves
// like malloc. Shrinking truncates in place; growing allocates a fresh
// block and copies the old contents, like C's realloc.
func (i *Instance) realloc(base, n int) int {
	if base == 0 {
		return i.malloc(n)
	}
	old, ok := i.allocSizes[base]
	if !ok {
		return i.malloc(n)
	}
	if n <= old {
		i.allocSizes[base] = n
		return base
	}
	newBase := i.malloc(n)
	copy(i.mem[newBase:newBase+old], i.mem[base:base+old])
	delete(i.allocSizes, base)
	return newBase
}

// free releases the bookkeeping for a block. The bytes themselves are
// never reclaimed (the arena only grows), matching a bump allocator.
func (i *Instance) free(base int) {
	delete(i.allocSizes, base)
}
