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

// hiasm assembles a HiVM source file into a bytecode image.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hivm-go/hivm/codegen"
	"github.com/hivm-go/hivm/diag"
	"github.com/hivm-go/hivm/module"
	"github.com/hivm-go/hivm/parser"
	"github.com/hivm-go/hivm/symtab"
	"github.com/hivm-go/hivm/vm"
)

var (
	verbose      bool
	includePaths []string
	colorMode    string
)

var rootCmd = &cobra.Command{
	Use:   "hiasm <input> [output]",
	Short: "Assemble a HiVM source file into a bytecode image",
	Args:  cobra.RangeArgs(1, 2),
	Run:   run,
}

func init() {
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log each loaded unit and generated section")
	rootCmd.Flags().StringSliceVarP(&includePaths, "include", "L", nil, "comma-separated include search paths")
	rootCmd.Flags().StringVar(&colorMode, "color", "auto", "diagnostics color: auto|always|never")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) {
	input := args[0]
	output := defaultOutput(input)
	if len(args) == 2 {
		output = args[1]
	}

	color := colorEnabled(colorMode, os.Stderr)
	log := diag.NewLogger("hiasm", verbose)

	table := symtab.New()
	mgr := module.New(includePaths)
	p := parser.New(table, mgr)

	nodes, err := p.ParseFile(input)
	if err != nil {
		diag.Exit(err, color)
	}
	for _, u := range mgr.Units() {
		log.Printf("loaded %s", u.Path)
	}

	img, err := codegen.Generate(table, nodes)
	if err != nil {
		diag.Exit(err, color)
	}
	for _, n := range nodes {
		if sec, ok := n.Value.(parser.Section); ok {
			log.Printf("generated section %s", sec.Name)
		}
	}

	if err := vm.SaveImage(output, img); err != nil {
		diag.Exit(err, color)
	}
	log.Printf("wrote %s (%d bytes)", output, len(img))
}

func defaultOutput(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".out"
}

func colorEnabled(mode string, f *os.File) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default:
		st, err := f.Stat()
		return err == nil && st.Mode()&os.ModeCharDevice != 0
	}
}
