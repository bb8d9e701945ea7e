// Command sharp runs Sharp scripts and hosts the interactive REPL.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	sharp "github.com/robert-sarah/Sharp"
)

const (
	appName     = "sharp"
	historyFile = ".sharp_history"
	promptMain  = ">>> "
	promptCont  = "... "
)

var (
	errColor    = color.New(color.FgRed)
	valueColor  = color.New(color.FgCyan)
	bannerColor = color.New(color.FgGreen)
)

func main() {
	if len(os.Args) < 2 {
		// bare invocation drops into the REPL, like python
		os.Exit(cmdRepl(nil))
	}

	cmd := os.Args[1]
	switch cmd {
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "version":
		fmt.Println(sharp.Version)
		return
	case "-h", "--help", "help":
		usage()
		os.Exit(0)
	default:
		// `sharp file.sharp` is shorthand for `sharp run file.sharp`
		if strings.HasSuffix(cmd, sharp.DefaultExt) {
			os.Exit(cmdRun(os.Args[1:]))
		}
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Printf(`Sharp %s

Usage:
  %s run <file%s> [args...]   Run a script.
  %s repl                       Start the REPL.
  %s version                    Print the version.

Running %s with no arguments starts the REPL.
`, sharp.Version, appName, sharp.DefaultExt, appName, appName, appName)
}

func cmdRun(args []string) int {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "usage: %s run <file%s> [args...]\n", appName, sharp.DefaultExt)
		return 2
	}
	file := args[0]

	ip := sharp.NewInterpreter()
	ip.Argv = append([]string{fileAbsOrOrig(file)}, args[1:]...)

	if _, err := ip.RunFile(file); err != nil {
		src, rerr := os.ReadFile(file)
		if rerr == nil {
			err = sharp.WrapErrorWithName(err, filepath.Base(file), string(src))
		}
		errColor.Fprintln(os.Stderr, err.Error())
		return 1
	}
	return 0
}

func fileAbsOrOrig(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func cmdRepl(_ []string) int {
	bannerColor.Printf("Sharp %s\n", sharp.Version)
	fmt.Println("Ctrl+C cancels input, Ctrl+D exits. Type :quit to exit.")

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	ip := sharp.NewInterpreter()

	for {
		code, ok := readBlock(ln, promptMain, promptCont)
		if !ok {
			fmt.Println()
			break
		}

		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			switch strings.ToLower(trimmed) {
			case ":quit", ":q", ":exit":
				return 0
			default:
				fmt.Println("unknown command. Type :quit to exit.")
			}
			continue
		}

		v, err := ip.EvalPersistentSource(code)
		if err != nil {
			errColor.Fprintln(os.Stderr, sharp.WrapErrorWithSource(err, code).Error())
			continue
		}
		if v.Tag != sharp.VTNil {
			valueColor.Println(ip.Repr(v))
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}

	return 0
}

// readBlock accumulates lines until the input parses or fails with a
// hard error. An incomplete parse (open bracket, suite after ':') keeps
// prompting with the continuation prompt.
func readBlock(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		// a block opener keeps prompting until its suite parses
		if _, perr := sharp.ParseInteractive(src + "\n"); perr != nil && sharp.IsIncomplete(perr) {
			continue
		}
		return src, true
	}
}
