package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yndnr/respkv/internal/cli/output"
	"github.com/yndnr/respkv/pkg/resp"
)

// ExecFunc sends one command to the server.
type ExecFunc func(ctx context.Context, args []string) (resp.Value, error)

// Options configures a REPL.
type Options struct {
	Input  io.Reader
	Output io.Writer
	// Prompt defaults to "respkv> ".
	Prompt string
	Exec   ExecFunc
	// Formatter defaults to text output.
	Formatter output.Formatter
	// HistoryFile is loaded on start and saved on exit. Empty disables
	// persistence.
	HistoryFile string
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	prompt    string
	exec      ExecFunc
	formatter output.Formatter
	completer *Completer
	history   *History
}

// New creates a new REPL instance.
func New(opts Options) *REPL {
	r := &REPL{
		input:     opts.Input,
		output:    opts.Output,
		prompt:    opts.Prompt,
		exec:      opts.Exec,
		formatter: opts.Formatter,
		completer: NewCompleter(),
		history:   NewHistory(opts.HistoryFile),
	}
	if r.input == nil {
		r.input = os.Stdin
	}
	if r.output == nil {
		r.output = os.Stdout
	}
	if r.prompt == "" {
		r.prompt = "respkv> "
	}
	if r.formatter == nil {
		r.formatter = &output.TextFormatter{}
	}
	return r
}

// Run starts the REPL loop. It returns nil on exit, quit or end of input,
// and ctx.Err() when ctx ends.
func (r *REPL) Run(ctx context.Context) error {
	if err := r.history.Load(); err != nil {
		fmt.Fprintf(r.output, "Warning: could not load history: %v\n", err)
	}
	defer func() {
		if err := r.history.Save(); err != nil {
			fmt.Fprintf(r.output, "Warning: could not save history: %v\n", err)
		}
	}()

	reader := bufio.NewReader(r.input)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(r.output, r.prompt)

		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) && line == "" {
			fmt.Fprintln(r.output)
			return nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.history.Add(line)

		args, splitErr := SplitArgs(line)
		if splitErr != nil {
			fmt.Fprintln(r.output, "Invalid argument(s)")
			continue
		}

		switch strings.ToLower(args[0]) {
		case "exit", "quit":
			return nil
		case "help":
			r.help(strings.Join(args[1:], " "))
			continue
		}

		if err := r.execute(ctx, args); err != nil {
			fmt.Fprintf(r.output, "Error: %v\n", err)
		}
	}
}

func (r *REPL) execute(ctx context.Context, args []string) error {
	if r.exec == nil {
		return errors.New("not connected")
	}
	v, err := r.exec(ctx, args)
	if err != nil {
		return err
	}
	return r.formatter.Format(r.output, v)
}

func (r *REPL) help(prefix string) {
	names := r.completer.Complete(prefix)
	if len(names) == 0 {
		fmt.Fprintf(r.output, "No command matches %q\n", prefix)
		return
	}
	for _, name := range names {
		cmd, _ := r.completer.Lookup(name)
		usage := strings.ToUpper(cmd.Name)
		if cmd.Args != "" {
			usage += " " + cmd.Args
		}
		fmt.Fprintf(r.output, "  %-40s %s\n", usage, cmd.Summary)
	}
}
