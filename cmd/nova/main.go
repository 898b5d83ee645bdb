// Command nova is the Nova language driver: it runs scripts, starts an
// interactive REPL, and scaffolds new projects behind a small urfave/cli
// command surface.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/repr"
	"github.com/peterh/liner"
	"github.com/urfave/cli/v2"
	"github.com/ztrue/tracerr"
	"gopkg.in/yaml.v2"

	"github.com/novalang/nova/lang"
	"github.com/novalang/nova/parser"
	"github.com/novalang/nova/runtime"
	"github.com/novalang/nova/stdlib"
)

var (
	astFlag      bool
	logLevelFlag string
)

func main() {
	log.SetFlags(0) // tracerr renders its own position/context; don't double it with a timestamp prefix

	app := &cli.App{
		Name:  "nova",
		Usage: "the Nova language interpreter",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "ast", Usage: "parse only, print the AST instead of running it", Destination: &astFlag},
			&cli.StringFlag{Name: "log-level", Usage: "trace|info", Value: "info", Destination: &logLevelFlag},
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "run a Nova source file",
				ArgsUsage: "FILE[.nova]",
				Action:    runCommand,
			},
			{
				Name:   "repl",
				Usage:  "start an interactive Nova session",
				Action: func(c *cli.Context) error { return replCommand() },
			},
			{
				Name:      "init",
				Usage:     "scaffold a new Nova project",
				ArgsUsage: "NAME",
				Action:    initCommand,
			},
		},
		Action: func(c *cli.Context) error {
			if c.Args().Len() > 0 {
				return runCommand(c)
			}
			return replCommand()
		},
	}

	if err := app.Run(os.Args); err != nil {
		tracerr.PrintSourceColor(err)
		os.Exit(1)
	}
}

func trace(format string, args ...interface{}) {
	if logLevelFlag == "trace" {
		log.Printf(format, args...)
	}
}

// applyLogLevel gates the lexer/parser/evaluator's own trace logging behind
// the same --log-level flag this driver's own trace() calls use.
func applyLogLevel() {
	on := logLevelFlag == "trace"
	parser.SetTrace(on)
	lang.SetTrace(on)
}

func resolveScriptPath(name string) string {
	if _, err := os.Stat(name); err == nil {
		return name
	}
	if !strings.HasSuffix(name, ".nova") {
		withExt := name + ".nova"
		if _, err := os.Stat(withExt); err == nil {
			return withExt
		}
	}
	return name
}

func runCommand(c *cli.Context) error {
	applyLogLevel()
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("run requires a file argument")
	}
	path := resolveScriptPath(name)
	trace("nova: loading %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if astFlag {
		prog, err := parser.Parse(string(data))
		if err != nil {
			return err
		}
		repr.Println(prog)
		return nil
	}

	ev := runtime.NewInterpreter()
	stdlib.Install(ev)
	if _, err := runtime.EvaluateString(ev, string(data)); err != nil {
		return err
	}
	return nil
}

// novaModule is a project's nova.yaml manifest.
type novaModule struct {
	Name string `yaml:"name"`
}

func initCommand(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("init requires a project name")
	}
	if err := os.MkdirAll(name, 0o755); err != nil {
		return err
	}
	manifest := novaModule{Name: name}
	out, err := yaml.Marshal(manifest)
	if err != nil {
		return err
	}
	manifestPath := filepath.Join(name, "nova.yaml")
	if err := os.WriteFile(manifestPath, out, 0o644); err != nil {
		return err
	}
	mainPath := filepath.Join(name, "main.nova")
	stub := "fn main() {\n    print(\"hello, nova\");\n}\n\nmain();\n"
	return os.WriteFile(mainPath, []byte(stub), 0o644)
}

func replCommand() error {
	applyLogLevel()
	ev := runtime.NewInterpreter()
	stdlib.Install(ev)
	if isInteractive() {
		runInteractiveREPL(ev)
	} else {
		runBufferedREPL(ev, bufio.NewReader(os.Stdin))
	}
	return nil
}

func isInteractive() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// runBufferedREPL reads a non-interactive stream (e.g. piped input or a test
// harness) line by line, evaluating the buffered text whenever its brackets
// balance at a line end (see looksComplete), and once more at end of input.
func runBufferedREPL(ev *lang.Evaluator, reader *bufio.Reader) {
	var buffer strings.Builder
	for {
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			fmt.Fprintf(os.Stderr, "read error: %v\n", err)
			return
		}
		buffer.WriteString(line)
		if errors.Is(err, io.EOF) {
			evalAndReport(ev, buffer.String())
			return
		}
		if looksComplete(buffer.String()) {
			evalAndReport(ev, buffer.String())
			buffer.Reset()
		}
	}
}

func runInteractiveREPL(ev *lang.Evaluator) {
	state := liner.NewLiner()
	defer state.Close()
	state.SetCtrlCAborts(true)

	historyPath := replHistoryPath()
	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			state.ReadHistory(f)
			f.Close()
		}
		defer func() {
			if f, err := os.Create(historyPath); err == nil {
				state.WriteHistory(f)
				f.Close()
			}
		}()
	}

	var buffer strings.Builder
	for {
		prompt := "nova> "
		if buffer.Len() > 0 {
			prompt = "....  "
		}
		input, err := state.Prompt(prompt)
		if err != nil {
			switch {
			case errors.Is(err, liner.ErrPromptAborted):
				fmt.Println()
				buffer.Reset()
				continue
			case errors.Is(err, io.EOF):
				fmt.Println()
				return
			default:
				fmt.Fprintf(os.Stderr, "read error: %v\n", err)
				return
			}
		}
		buffer.WriteString(input)
		buffer.WriteString("\n")

		src := buffer.String()
		if !looksComplete(src) {
			continue
		}
		buffer.Reset()
		if trimmed := strings.TrimSpace(src); trimmed != "" {
			state.AppendHistory(trimmed)
		}
		evalAndReport(ev, src)
	}
}

// looksComplete is a brace/paren-balance heuristic for deciding when a
// REPL line should be submitted rather than continued onto the next line.
func looksComplete(src string) bool {
	depth := 0
	for _, r := range src {
		switch r {
		case '{', '(', '[':
			depth++
		case '}', ')', ']':
			depth--
		}
	}
	return depth <= 0
}

func evalAndReport(ev *lang.Evaluator, src string) {
	prog, err := parser.Parse(src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse error: %v\n", err)
		return
	}
	for _, stmt := range prog.Stmts {
		val, err := ev.EvalStmt(stmt, ev.Global)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return
		}
		if val.Kind != lang.KindNull {
			fmt.Println(lang.Str(val))
		}
	}
}

func replHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".nova_history")
}
