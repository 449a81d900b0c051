// Command bendu is the compiler/VM driver (spec §6's "CLI contract"):
// subcommands compile, dis, test, plus the supplemental repl, debug,
// cache, and fetch subcommands (spec §12 and SPEC_FULL.md §11-12).
// Spec §1 treats the CLI argument parser as an external collaborator;
// this file is the thin glue the spec assumes exists, grounded on the
// teacher's cmd/funxy/main.go (flag-based subcommand dispatch, exit
// code 1 on any error).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/peterh/liner"

	"github.com/bendu-lang/bendu/internal/ast"
	"github.com/bendu-lang/bendu/internal/builtins"
	"github.com/bendu-lang/bendu/internal/bytecode"
	"github.com/bendu-lang/bendu/internal/cache"
	"github.com/bendu-lang/bendu/internal/cacheindex"
	"github.com/bendu-lang/bendu/internal/compile"
	"github.com/bendu-lang/bendu/internal/config"
	"github.com/bendu-lang/bendu/internal/diag"
	"github.com/bendu-lang/bendu/internal/infer"
	"github.com/bendu-lang/bendu/internal/loader"
	"github.com/bendu-lang/bendu/internal/parser"
	"github.com/bendu-lang/bendu/internal/registry"
	"github.com/bendu-lang/bendu/internal/signature"
	"github.com/bendu-lang/bendu/internal/types"
	"github.com/bendu-lang/bendu/internal/usercfg"
	"github.com/bendu-lang/bendu/internal/vm"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	printer := diag.NewPrinter(os.Stderr)
	cfg, err := usercfg.Load()
	if err != nil {
		printer.PrintErr(fmt.Errorf("reading user config: %w", err))
	}
	switch cfg.Color {
	case usercfg.ColorAlways:
		printer.SetColorOverride(true)
	case usercfg.ColorNever:
		printer.SetColorOverride(false)
	}

	var runErr error
	switch os.Args[1] {
	case "compile":
		runErr = cmdCompile(os.Args[2:], printer)
	case "run":
		runErr = cmdRun(os.Args[2:], printer)
	case "dis":
		runErr = cmdDis(os.Args[2:], printer)
	case "test":
		runErr = cmdTest(os.Args[2:], printer)
	case "repl":
		runErr = cmdRepl(os.Args[2:])
	case "debug":
		runErr = cmdDebug(os.Args[2:], printer)
	case "cache":
		runErr = cmdCache(os.Args[2:], printer)
	case "fetch":
		runErr = cmdFetch(os.Args[2:], printer)
	default:
		usage()
		os.Exit(1)
	}

	if runErr != nil {
		printer.PrintErr(runErr)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: bendu <compile|run|dis|test|repl|debug|cache|fetch> [args]")
}

func newCache() *cache.Cache {
	return cache.New(config.CacheRoot(), builtins.NewTable())
}

// cmdCompile implements `bendu compile <file.bendu>` (spec §6).
func cmdCompile(args []string, printer *diag.Printer) error {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("compile: expected exactly one file argument")
	}

	c := newCache()
	entry, err := c.EntryFor(fs.Arg(0))
	if err != nil {
		return err
	}
	if err := entry.Compile(); err != nil {
		return err
	}

	idx, idxErr := cacheindex.Open(filepath.Join(config.CacheRoot(), "index.db"))
	if idxErr == nil {
		defer idx.Close()
		bcFile, _ := entry.ByteCodeFile()
		idx.Upsert(cacheindex.Record{
			SourceID:       entry.Source,
			PackageID:      config.TrimSourceExt(filepath.Base(entry.Source)),
			LastCompiledMs: time.Now().UnixMilli(),
			BytecodePath:   bcFile,
		})
	}

	bcFile, _ := entry.ByteCodeFile()
	info, _ := os.Stat(bcFile)
	if info != nil {
		fmt.Fprintf(os.Stdout, "compiled %s -> %s (%s)\n", entry.Source, bcFile, humanize.Bytes(uint64(info.Size())))
	}
	return nil
}

// cmdRun compiles (if needed, via the Package Cache) and executes a
// top-level source file end to end, wiring internal/loader as the
// VM's Resolver so imported packages are compiled and loaded through
// the cache. vm.Load loads all of a package's imports before running
// its initializer, not at their first cross-package access.
func cmdRun(args []string, printer *diag.Printer) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("run: expected exactly one file argument")
	}

	c := newCache()
	entry, err := c.EntryFor(fs.Arg(0))
	if err != nil {
		return err
	}

	ld := loader.New(c)
	machine := vm.New()
	machine.Builtins = builtins.Funcs()
	machine.Resolver = ld

	// ld.Resolve compiles entry.Source through the Package Cache if it
	// isn't already up to date, then strips its bytecode-file header.
	imports, code, err := ld.Resolve(entry.Source)
	if err != nil {
		return err
	}
	pkg := machine.RegisterPackage(entry.Source, imports, code)
	if err := machine.Load(pkg); err != nil {
		return err
	}
	return nil
}

// cmdDis implements `bendu dis [--file <path> | --expression <expr>]`.
func cmdDis(args []string, printer *diag.Printer) error {
	fs := flag.NewFlagSet("dis", flag.ExitOnError)
	file := fs.String("file", "", "disassemble a compiled .bc file")
	expr := fs.String("expression", "", "disassemble a standalone expression")
	fs.Parse(args)

	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			return err
		}
		h, off, err := bytecode.ParseHeader(data)
		if err != nil {
			return err
		}
		if err := bytecode.VerifyMagic(h, config.BytecodeMagic, config.BytecodeMajorVersion, config.BytecodeMinorVersion); err != nil {
			return err
		}
		fmt.Print(bytecode.Disassemble(data[off:], h.Imports))
		return nil
	}

	if *expr == "" {
		return fmt.Errorf("dis: one of --file or --expression is required")
	}
	chunk, _, errs := compileStandaloneExpr(*expr)
	if len(errs) > 0 {
		return errs[0]
	}
	fmt.Print(bytecode.Disassemble(chunk.Code, chunk.Imports))
	return nil
}

// cmdTest implements `bendu test --expression <expr> --line <n> --bc <vm-path>`
// (spec §6), the markdown test harness's execution primitive: it loads
// an already-compiled package image for context, evaluates expr as a
// trailing expression, and prints the resulting value (or a fatal
// runtime diagnostic per spec §5).
func cmdTest(args []string, printer *diag.Printer) error {
	fs := flag.NewFlagSet("test", flag.ExitOnError)
	expr := fs.String("expression", "", "expression to evaluate")
	line := fs.Int("line", 0, "source line of the expression, for diagnostics")
	bc := fs.String("bc", "", "path to a compiled .bc file providing context")
	fs.Parse(args)
	config.IsTestMode = true

	if *expr == "" {
		return fmt.Errorf("test: --expression is required")
	}

	machine := vm.New()
	machine.Builtins = builtins.Funcs()

	if *bc != "" {
		data, err := os.ReadFile(*bc)
		if err != nil {
			return fmt.Errorf("test: reading %s: %w", *bc, err)
		}
		h, off, err := bytecode.ParseHeader(data)
		if err != nil {
			return err
		}
		pkg := machine.RegisterPackage(*bc, h.Imports, data[off:])
		if err := machine.Load(pkg); err != nil {
			return fmt.Errorf("test: loading %s: %w", *bc, err)
		}
	}

	chunk, _, errs := compileStandaloneExpr(*expr)
	if len(errs) > 0 {
		return fmt.Errorf("%s:%d: %w", *bc, *line, errs[0])
	}

	exprPkg := machine.RegisterPackage(fmt.Sprintf("%s:line-%d", *bc, *line), nil, chunk.Code)
	result, err := machine.RunExpression(exprPkg)
	if err != nil {
		return err
	}
	fmt.Println(result.String())
	return nil
}

// cmdRepl implements the supplemental interactive REPL (SPEC_FULL.md
// §10), backed by peterh/liner for history and line editing instead of
// the teacher's raw stdin loop.
func cmdRepl(args []string) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	machine := vm.New()
	machine.Builtins = builtins.Funcs()
	env := types.NewEnv()

	fmt.Println("bendu repl — Ctrl-D to exit")
	for {
		input, err := line.Prompt("bendu> ")
		if err != nil {
			fmt.Println()
			return nil
		}
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		prog, parseErrs := parser.Parse(input, "<repl>")
		if len(parseErrs) > 0 {
			fmt.Fprintln(os.Stderr, parseErrs[0])
			continue
		}
		result := infer.Check(prog, env)
		if len(result.Errors) > 0 {
			fmt.Fprintln(os.Stderr, result.Errors[0])
			continue
		}
		chunk, _, err := compile.CompileProgram(prog, env, builtins.NewTable())
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		trimTrailingDiscard(chunk, prog)

		pkg := machine.RegisterPackage(fmt.Sprintf("<repl>:%d", replCounter()), nil, chunk.Code)
		value, err := machine.RunExpression(pkg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		if !value.IsUnit() {
			fmt.Println(value.String())
		}
	}
}

var replSeq int

func replCounter() int { replSeq++; return replSeq }

// cmdDebug implements the supplemental interactive debugger
// (SPEC_FULL.md §12), grounded in the teacher's
// internal/vm/debugger_cli.go and wired to peterh/liner instead of a
// raw stdin loop. It reads a .bc file's header and accepts three
// commands: `break <offset>` records a breakpoint, `list` prints the
// disassembly, and `quit` (or `q`) exits. It never runs the VM, so a
// recorded breakpoint is never hit, and there is no stepping,
// continuing or frame inspection.
func cmdDebug(args []string, printer *diag.Printer) error {
	fs := flag.NewFlagSet("debug", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("debug: expected exactly one .bc file argument")
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	h, off, err := bytecode.ParseHeader(data)
	if err != nil {
		return err
	}
	code := data[off:]

	ln := liner.NewLiner()
	defer ln.Close()

	breakpoints := map[int]bool{}
	fmt.Printf("bendu debug: %s (%d imports, %d bytes of code)\n", fs.Arg(0), len(h.Imports), len(code))
	fmt.Println("commands: break <offset>, list, quit")
	for {
		input, err := ln.Prompt("(bendu-dbg) ")
		if err != nil {
			return nil
		}
		ln.AppendHistory(input)
		var offset int
		switch {
		case input == "quit" || input == "q":
			return nil
		case input == "list":
			fmt.Print(bytecode.Disassemble(code, h.Imports))
		case sscanOffset(input, &offset):
			breakpoints[offset] = true
			fmt.Printf("breakpoint set at offset %d\n", offset)
		default:
			fmt.Println("unknown command")
		}
	}
}

func sscanOffset(input string, offset *int) bool {
	var kw string
	n, err := fmt.Sscanf(input, "%s %d", &kw, offset)
	return err == nil && n == 2 && kw == "break"
}

// cmdCache implements `bendu cache ls|gc`, backed by the sqlite cache
// index (SPEC_FULL.md §11, internal/cacheindex).
func cmdCache(args []string, printer *diag.Printer) error {
	if len(args) == 0 {
		return fmt.Errorf("cache: expected a subcommand (ls|gc)")
	}
	idx, err := cacheindex.Open(filepath.Join(config.CacheRoot(), "index.db"))
	if err != nil {
		return err
	}
	defer idx.Close()

	switch args[0] {
	case "ls":
		recs, err := idx.List()
		if err != nil {
			return err
		}
		for _, r := range recs {
			compiledAt := time.UnixMilli(r.LastCompiledMs).Format(time.RFC3339)
			fmt.Printf("%-40s %-20s %s\n", r.SourceID, r.PackageID, compiledAt)
			if data, err := os.ReadFile(sigPathFor(r)); err == nil {
				if sigs, err := signature.Parse(string(data)); err == nil {
					for _, s := range sigs {
						fmt.Printf("    %s %s\n", s.Kind, s.Name)
					}
				}
			}
		}
		return nil
	case "gc":
		fs := flag.NewFlagSet("cache gc", flag.ExitOnError)
		olderThan := fs.Duration("older-than", 30*24*time.Hour, "evict entries older than this")
		fs.Parse(args[1:])
		stale, err := idx.EvictOlderThan(*olderThan)
		if err != nil {
			return err
		}
		for _, r := range stale {
			os.Remove(r.BytecodePath)
		}
		fmt.Printf("evicted %d stale cache entries\n", len(stale))
		return nil
	default:
		return fmt.Errorf("cache: unknown subcommand %q", args[0])
	}
}

// sigPathFor derives a cache entry's signature-file path from its
// bytecode-file path (spec §4.4: the two artifacts are siblings in the
// same cache directory, differing only by extension).
func sigPathFor(r cacheindex.Record) string {
	ext := filepath.Ext(r.BytecodePath)
	return r.BytecodePath[:len(r.BytecodePath)-len(ext)] + ".sig"
}

// cmdFetch implements `bendu fetch <package>` (SPEC_FULL.md §11): pull
// a package's compiled artifacts from a remote registry over gRPC when
// it isn't present in the local Package Cache.
func cmdFetch(args []string, printer *diag.Printer) error {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	registryAddr := fs.String("registry", "", "registry host:port")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("fetch: expected exactly one package argument")
	}
	if *registryAddr == "" {
		return fmt.Errorf("fetch: --registry is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := registry.Dial(ctx, *registryAddr)
	if err != nil {
		return err
	}
	defer client.Close()

	fetched, err := client.Fetch(ctx, fs.Arg(0))
	if err != nil {
		return err
	}

	c := newCache()
	entry, err := c.EntryFor(fs.Arg(0))
	if err != nil {
		return err
	}
	bcFile, err := entry.ByteCodeFile()
	if err != nil {
		return err
	}
	sigFile, err := entry.SignatureFile()
	if err != nil {
		return err
	}
	depsFile, err := entry.DepsFile()
	if err != nil {
		return err
	}
	if err := os.WriteFile(bcFile, fetched.Bytecode, 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(sigFile, fetched.Signature, 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(depsFile, fetched.Deps, 0o644); err != nil {
		return err
	}
	fmt.Printf("fetched %s -> %s\n", fs.Arg(0), bcFile)
	return nil
}

// compileStandaloneExpr wraps a bare expression (as used by `dis
// --expression` and `test --expression`) in a one-off program, running
// it through the full inference+compile pipeline and leaving its value
// on the stack rather than discarding it, so the caller can disassemble
// or execute it directly.
func compileStandaloneExpr(src string) (*bytecode.Chunk, []compile.Export, []error) {
	prog, parseErrs := parser.Parse(src, "<expr>")
	if len(parseErrs) > 0 {
		return nil, nil, parseErrs
	}
	env := types.NewEnv()
	result := infer.Check(prog, env)
	if len(result.Errors) > 0 {
		return nil, nil, result.Errors
	}
	chunk, exports, err := compile.CompileProgram(prog, env, builtins.NewTable())
	if err != nil {
		return nil, nil, []error{err}
	}
	trimTrailingDiscard(chunk, prog)
	return chunk, exports, nil
}

// trimTrailingDiscard undoes compile_stmt.go's unconditional "DISCARD
// after every expression statement" for the *last* statement of a
// standalone snippet, so its value survives to the top of the stack at
// RET instead of being thrown away — needed only by this CLI-level
// glue (never by a real multi-statement package, where every binding
// is reached by name instead).
func trimTrailingDiscard(chunk *bytecode.Chunk, prog *ast.Program) {
	if len(prog.Statements) == 0 {
		return
	}
	if _, ok := prog.Statements[len(prog.Statements)-1].(*ast.ExpressionStatement); !ok {
		return
	}
	// Layout is: ... <expr bytes> DISCARD(1 byte) RET(1 byte).
	n := len(chunk.Code)
	if n >= 2 && bytecode.Opcode(chunk.Code[n-2]) == bytecode.DISCARD && bytecode.Opcode(chunk.Code[n-1]) == bytecode.RET {
		chunk.Code = append(chunk.Code[:n-2], byte(bytecode.RET))
	}
}
