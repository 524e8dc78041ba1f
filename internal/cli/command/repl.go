package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/respkv/internal/cli/repl"
	"github.com/yndnr/respkv/pkg/resp"
)

// ReplCommand returns the interactive mode command.
func ReplCommand() *cli.Command {
	return &cli.Command{
		Name:  "repl",
		Usage: "Start interactive mode",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "history",
				Usage: "History file (empty string disables)",
				Value: repl.DefaultHistoryFile(),
			},
		},
		Action: runREPL,
	}
}

func runREPL(c *cli.Context) error {
	if c.NArg() > 0 {
		return fmt.Errorf("unknown command %q", c.Args().First())
	}

	formatter, err := Formatter(c)
	if err != nil {
		return err
	}

	client, err := Connect(c)
	if err != nil {
		return err
	}
	defer func() { client.Close() }()

	// Reconnect once after a broken connection, as redis-cli does.
	exec := func(ctx context.Context, args []string) (resp.Value, error) {
		v, err := client.Do(ctx, args...)
		if err == nil {
			return v, nil
		}
		client.Close()
		next, dialErr := Connect(c)
		if dialErr != nil {
			return resp.Value{}, fmt.Errorf("%w (reconnect failed: %v)", err, dialErr)
		}
		client = next
		return client.Do(ctx, args...)
	}

	historyFile := repl.DefaultHistoryFile()
	if c.Command != nil && c.Command.Name == "repl" {
		historyFile = c.String("history")
	}

	r := repl.New(repl.Options{
		Input:       c.App.Reader,
		Output:      stdout(c),
		Prompt:      client.Addr() + "> ",
		Exec:        exec,
		Formatter:   formatter,
		HistoryFile: historyFile,
	})
	return r.Run(c.Context)
}
