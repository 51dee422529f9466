package cmd

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/skx/ttc/ast"
	"github.com/skx/ttc/compiler"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

var (
	outputFile string
	emitOnly   bool
	assemble   bool
	runBin     bool
	dumpTokens bool
	dumpAST    bool
)

var buildCmd = &cobra.Command{
	Use:   "build [file.ttc]",
	Short: "Compile a TTC source file to NASM assembly",
	Long: `build lexes, parses, type-checks and generates x86-64 NASM
assembly for a single TTC source file.

By default the assembly is written alongside the source with a .asm
extension. --assemble additionally invokes nasm and ld to produce a
native Linux binary; --run assembles and immediately executes it,
exiting with the program's own exit code.

Examples:
  # Just emit assembly to stdout-adjacent file
  ttc build program.ttc

  # Assemble and link, but don't run
  ttc build program.ttc --assemble

  # Build and run, propagating the exit code
  ttc build program.ttc --run`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output assembly file (default: <input>.asm)")
	buildCmd.Flags().BoolVar(&emitOnly, "emit-only", false, "emit assembly only, never invoke nasm/ld")
	buildCmd.Flags().BoolVar(&assemble, "assemble", false, "assemble and link the generated assembly with nasm and ld")
	buildCmd.Flags().BoolVar(&runBin, "run", false, "assemble, link and run the program, exiting with its exit code")
	buildCmd.Flags().BoolVar(&dumpTokens, "dump-tokens", false, "print the lexer's token stream to stderr after a successful compile")
	buildCmd.Flags().BoolVar(&dumpAST, "dump-ast", false, "print the parsed, type-checked statement tree to stderr after a successful compile")
}

func runBuild(_ *cobra.Command, args []string) error {
	if runBin {
		assemble = true
	}

	filename := args[0]
	source, err := os.ReadFile(filename)
	if err != nil {
		return ioError(fmt.Errorf("reading %s: %w", filename, err))
	}

	c := compiler.New(string(source))
	c.SetDebug(dumpTokens)

	asm, err := c.Compile()
	if err != nil {
		return err
	}

	if dumpTokens {
		for _, tok := range c.Tokens() {
			fmt.Fprintf(os.Stderr, "%-12s %-8s %-12q line %d, column %d\n",
				tok.Kind, tok.Type, tok.Literal, tok.Line, tok.Column)
		}
	}

	if dumpAST {
		stmts := c.Statements()
		for i := range stmts {
			fmt.Fprint(os.Stderr, ast.PrintStatement(&stmts[i]))
		}
	}

	asmPath := outputFile
	if asmPath == "" {
		ext := filepath.Ext(filename)
		asmPath = strings.TrimSuffix(filename, ext) + ".asm"
	}
	if err := os.WriteFile(asmPath, []byte(asm), 0644); err != nil {
		return ioError(fmt.Errorf("writing %s: %w", asmPath, err))
	}
	if verbose {
		log.Printf("wrote %s", asmPath)
	}

	if emitOnly || !assemble {
		return nil
	}

	binPath := strings.TrimSuffix(asmPath, filepath.Ext(asmPath))
	if err := assembleAndLink(asmPath, binPath); err != nil {
		return err
	}
	if verbose {
		log.Printf("built %s", binPath)
	}

	if !runBin {
		return nil
	}

	code, err := runAndWait(binPath)
	if err != nil {
		return err
	}
	os.Exit(code)
	return nil
}

// assembleAndLink assembles and links the emitted NASM source into a
// native binary via a two-stage nasm+ld pipeline: the output is
// already a self-contained _start entry point, not something libc's
// startup code expects to call as main.
func assembleAndLink(asmPath, binPath string) error {
	objPath := strings.TrimSuffix(asmPath, filepath.Ext(asmPath)) + ".o"

	nasm := exec.Command("nasm", "-f", "elf64", asmPath, "-o", objPath)
	nasm.Stdout = os.Stdout
	nasm.Stderr = os.Stderr
	if err := nasm.Run(); err != nil {
		return subprocessError(fmt.Errorf("nasm failed: %w", err))
	}

	ld := exec.Command("ld", objPath, "-o", binPath)
	ld.Stdout = os.Stdout
	ld.Stderr = os.Stderr
	if err := ld.Run(); err != nil {
		return subprocessError(fmt.Errorf("ld failed: %w", err))
	}
	return nil
}

// runAndWait starts the compiled binary directly (it has no libc
// dependency to satisfy) and recovers its wait status via
// unix.Wait4, rather than relying on os/exec's own Wait bookkeeping,
// so a --run invocation reflects exactly what the kernel reported.
func runAndWait(binPath string) (int, error) {
	proc, err := os.StartProcess(binPath, []string{binPath}, &os.ProcAttr{
		Files: []*os.File{os.Stdin, os.Stdout, os.Stderr},
	})
	if err != nil {
		return -1, subprocessError(fmt.Errorf("starting %s: %w", binPath, err))
	}

	var ws unix.WaitStatus
	if _, err := unix.Wait4(proc.Pid, &ws, 0, nil); err != nil {
		return -1, runRecoveryError(fmt.Errorf("waiting for %s: %w", binPath, err))
	}
	if ws.Exited() {
		return ws.ExitStatus(), nil
	}
	return -1, runRecoveryError(fmt.Errorf("%s did not exit normally (wait status %v)", binPath, ws))
}
