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
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/hivm-go/hivm/codegen"
	"github.com/pkg/errors"
)

// LoadImage reads a bytecode file produced by the assembler. The file
// must be at least codegen.HeaderSize bytes long; no further validation
// is performed here, the image's own leading JumpConst is what the VM
// executes first.
func LoadImage(fileName string) ([]byte, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, errors.Wrap(err, "open failed")
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "stat failed")
	}
	if st.Size() < codegen.HeaderSize {
		return nil, errors.Errorf("%s: truncated image, smaller than the %d byte header", fileName, codegen.HeaderSize)
	}
	buf := make([]byte, st.Size())
	if _, err := io.ReadFull(bufio.NewReader(f), buf); err != nil {
		return nil, errors.Wrap(err, "read failed")
	}
	return buf, nil
}

// SaveImage writes image to fileName atomically: it is written to a
// temporary file in the same directory first, then renamed into place,
// so a failed or interrupted write never leaves a partial bytecode file
// where the old (or no) one was.
func SaveImage(fileName string, image []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(fileName), ".hivm-*")
	if err != nil {
		return errors.Wrap(err, "create failed")
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()
	w := bufio.NewWriter(tmp)
	if _, err = w.Write(image); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write failed")
	}
	if err = w.Flush(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "flush failed")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "close failed")
	}
	if err = os.Rename(tmp.Name(), fileName); err != nil {
		return errors.Wrap(err, "rename failed")
	}
	return nil
}

