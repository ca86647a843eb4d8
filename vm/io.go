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
	"fmt"
	"io"
	"io/ioutil"

	"github.com/hivm-go/hivm/isa"
)

// interrupt dispatches one host-service request. It pops its arguments
// from the operand stack in the order documented in the ISA's interrupt
// table and never fails the run itself — I/O errors land in the error
// register, observable by the program via ReadError/JumpError.
func (i *Instance) interrupt(code isa.Interrupt) {
	defer func() {
		if i.output.Err != nil {
			i.errReg = isa.GenericError
		}
	}()
	switch code {
	case isa.Print1, isa.Print2, isa.Print4, isa.Print8:
		width := 1 << (code - isa.Print1)
		fmt.Fprintf(i.output, "%d", i.Pop(width))

	case isa.PrintBytes:
		count := int(i.Pop(isa.AddressSize))
		ptr := int(i.Pop(isa.AddressSize))
		fmt.Fprintf(i.output, "%v", i.readMem(ptr, count))

	case isa.PrintChar:
		fmt.Fprintf(i.output, "%c", byte(i.Pop(1)))

	case isa.PrintString:
		length := int(i.Pop(isa.AddressSize))
		ptr := int(i.Pop(isa.AddressSize))
		i.output.Write(i.readMem(ptr, length))

	case isa.PrintStaticBytes:
		count := int(i.Pop(isa.AddressSize))
		vaddr := int(i.Pop(isa.AddressSize))
		fmt.Fprintf(i.output, "%v", i.readMem(vaddr, count))

	case isa.PrintStaticString:
		length := int(i.Pop(isa.AddressSize))
		vaddr := int(i.Pop(isa.AddressSize))
		i.output.Write(i.readMem(vaddr, length))

	case isa.ReadBytes:
		n := int(i.Pop(isa.AddressSize))
		buf := make([]byte, n)
		_, err := io.ReadFull(i.input, buf)
		switch err {
		case nil:
			i.PushBytes(buf)
		case io.EOF, io.ErrUnexpectedEOF:
			i.errReg = isa.UnexpectedEOF
		default:
			i.errReg = isa.GenericError
		}

	case isa.ReadAll:
		buf, err := ioutil.ReadAll(i.input)
		if err != nil {
			i.errReg = isa.GenericError
			return
		}
		i.PushBytes(buf)
		i.Push(uint64(len(buf)), isa.AddressSize)

	default:
		panic(fmt.Errorf("unhandled interrupt %d", code))
	}
}
