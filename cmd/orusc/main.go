// Command orusc is the Orus compiler and runner.
//
// Usage:
//
//	orusc [flags] <source.orus>
//
// Flags:
//
//	-emit <stage>   Emit intermediate output: tokens, ast, bytecode, run (default: run)
//	-entry <name>   Entry-point function name (default: main)
//	-config <path>  Optional TOML config file (see internal/config)
//	-trace          Dump global registers with go-spew after a run
//	-version        Print version and exit
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/davecgh/go-spew/spew"

	"github.com/jordyorel/orus-lang-sub001/internal/compiler"
	"github.com/jordyorel/orus-lang-sub001/internal/config"
	"github.com/jordyorel/orus-lang-sub001/internal/diag"
	"github.com/jordyorel/orus-lang-sub001/internal/heap"
	"github.com/jordyorel/orus-lang-sub001/internal/lexer"
	"github.com/jordyorel/orus-lang-sub001/internal/natives"
	"github.com/jordyorel/orus-lang-sub001/internal/parser"
	"github.com/jordyorel/orus-lang-sub001/internal/types"
	"github.com/jordyorel/orus-lang-sub001/internal/vm"
)

const version = "0.1.0"

func main() {
	var (
		emit       = flag.String("emit", "run", "Emit stage: tokens, ast, bytecode, run")
		entry      = flag.String("entry", "main", "Entry-point function name")
		configPath = flag.String("config", "", "Optional TOML config file")
		trace      = flag.Bool("trace", false, "Dump global registers after a run")
		ver        = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *ver {
		fmt.Printf("orusc %s\n", version)
		return
	}

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: orusc [flags] <source.orus>")
		os.Exit(1)
	}

	filename := flag.Arg(0)
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: loading config: %v\n", err)
		os.Exit(1)
	}

	switch *emit {
	case "tokens":
		emitTokens(filename, string(source))
	case "ast":
		os.Exit(emitAST(filename, string(source)))
	case "bytecode":
		os.Exit(emitBytecode(filename, string(source)))
	case "run":
		os.Exit(run(filename, string(source), *entry, cfg, *trace))
	default:
		fmt.Fprintf(os.Stderr, "unknown emit stage: %s\n", *emit)
		os.Exit(1)
	}
}

func emitTokens(filename, source string) {
	l := lexer.New(filename, source)
	for _, tok := range l.Tokenize() {
		fmt.Printf("%s\t%s\t%q\n", tok.Pos, tok.Type, tok.Literal)
	}
}

func checkProgram(filename, source string) (*diag.Reporter, *compiler.Program, *natives.Registry) {
	reporter := diag.NewReporter()
	prog := parser.Parse(filename, source, reporter)
	if reporter.Failed() {
		return reporter, nil, nil
	}
	checker := types.NewChecker(reporter)
	checker.Check(prog)
	if reporter.Failed() {
		return reporter, nil, nil
	}
	nativeReg := natives.New()
	compiled := compiler.Compile(prog, checker, nativeReg, reporter, filename)
	return reporter, compiled, nativeReg
}

func emitAST(filename, source string) int {
	reporter := diag.NewReporter()
	prog := parser.Parse(filename, source, reporter)
	if reporter.Failed() {
		return reportErrors(reporter)
	}
	fmt.Println(prog.String())
	return 0
}

func emitBytecode(filename, source string) int {
	reporter, compiled, _ := checkProgram(filename, source)
	if reporter.Failed() {
		return reportErrors(reporter)
	}
	fmt.Println("main:")
	for _, line := range Disassemble(compiled.Main) {
		fmt.Println("  " + line)
	}
	for _, name := range compiled.FunctionOrder {
		fmt.Printf("%s:\n", name)
		for _, line := range Disassemble(compiled.Functions[name]) {
			fmt.Println("  " + line)
		}
	}
	return 0
}

func run(filename, source, entry string, cfg *config.Config, trace bool) int {
	reporter, compiled, nativeReg := checkProgram(filename, source)
	if reporter.Failed() {
		return reportErrors(reporter)
	}

	h := heap.New(cfg.HeapTriggerThreshold)
	machine := vm.New(compiled, nativeReg, h)
	result, value := machine.Run(compiled, entry)
	if result != vm.OK {
		fmt.Fprintf(os.Stderr, "%s\n", machine.LastError())
		return 1
	}
	fmt.Println(value.String())
	if trace {
		dumpGlobals(machine, compiled)
	}
	return 0
}

func reportErrors(r *diag.Reporter) int {
	for _, e := range r.Errors() {
		fmt.Fprintln(os.Stderr, e.Error())
	}
	return 1
}

func dumpGlobals(machine *vm.VM, compiled *compiler.Program) {
	names := make([]string, 0, len(compiled.Globals))
	for name := range compiled.Globals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		reg := compiled.Globals[name]
		fmt.Printf("%s (r%d) = %s\n", name, reg, spew.Sdump(machine.Global(reg)))
	}
}
