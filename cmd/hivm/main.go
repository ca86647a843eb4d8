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

// hivm runs a HiVM bytecode image.
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hivm-go/hivm/vm"
)

var (
	rawTTY bool
	stats  bool
)

var rootCmd = &cobra.Command{
	Use:   "hivm <input> [opstack_size]",
	Short: "Run a HiVM bytecode image",
	Args:  cobra.RangeArgs(1, 2),
	Run:   run,
}

func init() {
	rootCmd.Flags().BoolVar(&rawTTY, "raw-tty", rawTTYDefault, "put stdin in raw/cbreak mode before running")
	rootCmd.Flags().BoolVar(&stats, "stats", false, "print instruction count and wall-clock MHz on exit")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) {
	image, err := vm.LoadImage(args[0])
	if err != nil {
		fatal(err)
	}

	var opts []vm.Option
	if len(args) == 2 {
		size, err := strconv.Atoi(args[1])
		if err != nil {
			fatal(errors.Wrap(err, "invalid opstack_size"))
		}
		opts = append(opts, vm.OpStackSize(size))
	}

	var tearDown func()
	if rawTTY {
		tearDown, err = setRawIO()
		if err != nil {
			// Raw mode is a convenience, not a requirement: fall back to
			// line-buffered stdin rather than refusing to run.
			fmt.Fprintf(os.Stderr, "hivm: raw-tty unavailable: %v\n", err)
		} else {
			defer tearDown()
		}
	}

	i, err := vm.New(image, opts...)
	if err != nil {
		fatal(err)
	}

	start := time.Now()
	runErr := i.Run()
	if stats {
		delta := time.Since(start)
		fmt.Fprintf(os.Stderr, "Executed %d instructions in %v (%.3f MHz).\n", i.InstructionCount(), delta,
			float64(i.InstructionCount())/float64(delta)*float64(time.Second)/1e6)
	}
	if runErr != nil {
		fatal(runErr)
	}

	os.Exit(int(i.Error()))
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
