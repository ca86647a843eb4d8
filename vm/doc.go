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

// Package vm implements the HiVM bytecode interpreter: a flat byte-
// addressable memory (the assembled image followed by a bump-allocated
// heap), a downward-growing, mixed-width operand stack, a 32-bit error
// register and a fetch-decode-execute loop over the isa package's opcode
// set.
//
// An Instance is constructed from an already-assembled image with New
// and driven to completion with Run. The image's own first instruction
// is always a JumpConst to the real entry point, so execution simply
// starts at byte 0 — there is no separate bootstrap step.
//
// Runtime faults (stack over/underflow, an out-of-bounds memory access,
// a program counter that runs off the end of the image) panic and are
// recovered by Run, which reports them as a single wrapped error. This
// mirrors the contract in spec.md §7: such conditions are undefined
// behavior that the bytecode producer is responsible for avoiding, not
// part of the VM's in-band error-register protocol.
package vm
