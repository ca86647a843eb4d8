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
	"math"

	"github.com/hivm-go/hivm/isa"
	"github.com/pkg/errors"
)

// intWidth returns the operand width in bytes encoded by an opcode's
// position inside one of the four-wide {1,2,4,8} families.
func intWidth(base, op isa.Opcode) int { return 1 << (op - base) }

// Run drives the fetch-decode-execute loop to completion: either the
// program executes Exit, or it runs off the end of the image (the VM
// then stops with whatever the error register already holds).
//
// If a runtime fault occurs (stack over/underflow, an out-of-bounds
// memory access, an unrecognized opcode), PC points at the instruction
// that triggered it and err describes the fault.
func (i *Instance) Run() (err error) {
	faultPC := i.PC
	defer func() {
		if e := recover(); e != nil {
			switch e := e.(type) {
			case error:
				i.PC = faultPC
				err = errors.Wrapf(e, "pc=%d stack=%d/%d", i.PC, i.Depth(), len(i.stack))
			default:
				panic(e)
			}
		}
	}()
	i.insCount = 0
	i.halted = false
	for !i.halted && i.PC < len(i.mem) {
		faultPC = i.PC
		i.step()
		i.insCount++
	}
	return nil
}

func (i *Instance) step() {
	op := isa.Opcode(i.fetchByte())
	switch {
	case op >= isa.AddInt1 && op <= isa.AddInt8:
		w := intWidth(isa.AddInt1, op)
		rhs, lhs := i.Pop(w), i.Pop(w)
		i.Push(lhs+rhs, w)
	case op >= isa.SubInt1 && op <= isa.SubInt8:
		w := intWidth(isa.SubInt1, op)
		rhs, lhs := i.Pop(w), i.Pop(w)
		i.Push(lhs-rhs, w)
	case op >= isa.MulInt1 && op <= isa.MulInt8:
		w := intWidth(isa.MulInt1, op)
		rhs, lhs := i.Pop(w), i.Pop(w)
		i.Push(lhs*rhs, w)
	case op >= isa.DivInt1 && op <= isa.DivInt8:
		w := intWidth(isa.DivInt1, op)
		rhs, lhs := i.Pop(w), i.Pop(w)
		i.Push(lhs/rhs, w)
	case op >= isa.ModInt1 && op <= isa.ModInt8:
		w := intWidth(isa.ModInt1, op)
		rhs, lhs := i.Pop(w), i.Pop(w)
		i.Push(lhs%rhs, w)

	case op == isa.AddFloat4 || op == isa.AddFloat8:
		i.floatOp(op, isa.AddFloat4, func(a, b float64) float64 { return a + b })
	case op == isa.SubFloat4 || op == isa.SubFloat8:
		i.floatOp(op, isa.SubFloat4, func(a, b float64) float64 { return a - b })
	case op == isa.MulFloat4 || op == isa.MulFloat8:
		i.floatOp(op, isa.MulFloat4, func(a, b float64) float64 { return a * b })
	case op == isa.DivFloat4 || op == isa.DivFloat8:
		i.floatOp(op, isa.DivFloat4, func(a, b float64) float64 { return a / b })
	case op == isa.ModFloat4 || op == isa.ModFloat8:
		i.floatOp(op, isa.ModFloat4, math.Mod)

	case op >= isa.LoadStatic1 && op <= isa.LoadStatic8:
		w := intWidth(isa.LoadStatic1, op)
		addr := int(i.fetchUint64())
		i.PushBytes(i.readMem(addr, w))
	case op == isa.LoadStaticBytes:
		addr := int(i.fetchUint64())
		count := int(i.fetchUint64())
		i.PushBytes(i.readMem(addr, count))

	case op >= isa.LoadConst1 && op <= isa.LoadConst8:
		w := intWidth(isa.LoadConst1, op)
		i.PushBytes(i.fetch(w))
	case op == isa.LoadConstBytes:
		count := int(i.fetchUint64())
		i.PushBytes(i.fetch(count))

	case op >= isa.Load1 && op <= isa.Load8:
		w := intWidth(isa.Load1, op)
		addr := int(i.Pop(isa.AddressSize))
		i.PushBytes(i.readMem(addr, w))
	case op == isa.LoadBytes:
		addr := int(i.Pop(isa.AddressSize))
		count := int(i.Pop(isa.AddressSize))
		i.PushBytes(i.readMem(addr, count))

	case op == isa.VirtualConstToReal:
		vaddr := int(i.fetchUint64())
		i.Push(uint64(vaddr), isa.AddressSize)
	case op == isa.VirtualToReal:
		vaddr := int(i.Pop(isa.AddressSize))
		i.Push(uint64(vaddr), isa.AddressSize)

	case op >= isa.Store1 && op <= isa.Store8:
		w := intWidth(isa.Store1, op)
		addr := int(i.Pop(isa.AddressSize))
		data := i.PopBytes(w)
		i.writeMem(addr, data)
	case op == isa.StoreBytes:
		addr := int(i.Pop(isa.AddressSize))
		count := int(i.Pop(isa.AddressSize))
		data := i.PopBytes(count)
		i.writeMem(addr, data)

	case op >= isa.Memmove1 && op <= isa.Memmove8:
		w := intWidth(isa.Memmove1, op)
		dest := int(i.Pop(isa.AddressSize))
		src := int(i.Pop(isa.AddressSize))
		i.writeMem(dest, append([]byte(nil), i.readMem(src, w)...))
	case op == isa.MemmoveBytes:
		dest := int(i.Pop(isa.AddressSize))
		src := int(i.Pop(isa.AddressSize))
		count := int(i.Pop(isa.AddressSize))
		i.writeMem(dest, append([]byte(nil), i.readMem(src, count)...))

	case op >= isa.Duplicate1 && op <= isa.Duplicate8:
		w := intWidth(isa.Duplicate1, op)
		i.PushBytes(i.PeekBytes(0, w))
	case op == isa.DuplicateBytes:
		count := int(i.Pop(isa.AddressSize))
		i.PushBytes(i.PeekBytes(0, count))

	case op == isa.Malloc:
		size := int(i.Pop(isa.AddressSize))
		i.Push(uint64(i.malloc(size)), isa.AddressSize)
	case op == isa.Realloc:
		size := int(i.Pop(isa.AddressSize))
		base := int(i.Pop(isa.AddressSize))
		i.Push(uint64(i.realloc(base, size)), isa.AddressSize)
	case op == isa.Free:
		base := int(i.Pop(isa.AddressSize))
		i.free(base)

	case op == isa.Intr:
		code := isa.Interrupt(i.Pop(isa.InterruptSize))
		i.interrupt(code)
	case op == isa.IntrConst:
		code := isa.Interrupt(i.fetchByte())
		i.interrupt(code)

	case op == isa.Exit:
		code := int32(i.Pop(isa.ErrorCodeSize))
		i.errReg = isa.ErrorCode(code)
		i.halted = true

	case op == isa.JumpConst:
		i.PC = int(i.fetchUint64())
	case op == isa.Jump:
		i.PC = int(i.Pop(isa.AddressSize))

	case op >= isa.JumpNotZeroConst1 && op <= isa.JumpNotZeroConst8:
		w := intWidth(isa.JumpNotZeroConst1, op)
		target := i.fetchUint64()
		if i.Pop(w) != 0 {
			i.PC = int(target)
		}
	case op >= isa.JumpNotZero1 && op <= isa.JumpNotZero8:
		w := intWidth(isa.JumpNotZero1, op)
		cond := i.Pop(w)
		target := i.Pop(isa.AddressSize)
		if cond != 0 {
			i.PC = int(target)
		}

	case op >= isa.JumpZeroConst1 && op <= isa.JumpZeroConst8:
		w := intWidth(isa.JumpZeroConst1, op)
		target := i.fetchUint64()
		if i.Pop(w) == 0 {
			i.PC = int(target)
		}
	case op >= isa.JumpZero1 && op <= isa.JumpZero8:
		w := intWidth(isa.JumpZero1, op)
		cond := i.Pop(w)
		target := i.Pop(isa.AddressSize)
		if cond == 0 {
			i.PC = int(target)
		}

	case op == isa.JumpErrorConst:
		target := i.fetchUint64()
		if i.errReg != isa.NoError {
			i.PC = int(target)
		}
	case op == isa.JumpError:
		target := i.Pop(isa.AddressSize)
		if i.errReg != isa.NoError {
			i.PC = int(target)
		}
	case op == isa.JumpNoErrorConst:
		target := i.fetchUint64()
		if i.errReg == isa.NoError {
			i.PC = int(target)
		}
	case op == isa.JumpNoError:
		target := i.Pop(isa.AddressSize)
		if i.errReg == isa.NoError {
			i.PC = int(target)
		}

	case op == isa.Call:
		target := i.fetchUint64()
		i.Push(uint64(i.PC), isa.AddressSize)
		i.PC = int(target)
	case op == isa.Return:
		i.PC = int(i.Pop(isa.AddressSize))

	case op == isa.ReadError:
		i.Push(uint64(uint32(i.errReg)), isa.ErrorCodeSize)
	case op == isa.SetError:
		i.errReg = isa.ErrorCode(int32(i.Pop(isa.ErrorCodeSize)))
	case op == isa.SetErrorConst:
		var b [4]byte
		copy(b[:], i.fetch(isa.ErrorCodeSize))
		i.errReg = isa.ErrorCode(int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16 | int32(b[3])<<24)

	case op == isa.LoadProgramCounter:
		i.Push(uint64(i.PC), isa.AddressSize)
	case op == isa.LoadStackPointer:
		i.Push(uint64(i.sp), isa.AddressSize)
	case op == isa.LoadStackBottom:
		i.Push(uint64(len(i.stack)), isa.AddressSize)
	case op == isa.LoadStackSize:
		i.Push(uint64(len(i.stack)), isa.AddressSize)

	case op == isa.Nop:
		// no-op

	default:
		panic(errors.Errorf("unrecognized opcode %d at pc %d", op, i.PC-1))
	}
}

// floatOp implements one of the five float arithmetic families, each
// spanning a 4-byte (float32) and 8-byte (float64) variant laid out
// consecutively in the isa const block.
func (i *Instance) floatOp(op, base isa.Opcode, f func(a, b float64) float64) {
	if op == base {
		rhs := math.Float32frombits(uint32(i.Pop(4)))
		lhs := math.Float32frombits(uint32(i.Pop(4)))
		i.Push(uint64(math.Float32bits(float32(f(float64(lhs), float64(rhs))))), 4)
		return
	}
	rhs := math.Float64frombits(i.Pop(8))
	lhs := math.Float64frombits(i.Pop(8))
	i.Push(math.Float64bits(f(lhs, rhs)), 8)
}
