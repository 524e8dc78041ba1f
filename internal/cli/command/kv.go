package command

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"
)

// PingCommand returns the ping command.
func PingCommand() *cli.Command {
	return &cli.Command{
		Name:      "ping",
		Usage:     "Check that the server is alive",
		ArgsUsage: " ",
		Action: func(c *cli.Context) error {
			if err := exactArgs(c, 0); err != nil {
				return err
			}
			return runCommand(c, "PING")
		},
	}
}

// EchoCommand returns the echo command.
func EchoCommand() *cli.Command {
	return &cli.Command{
		Name:      "echo",
		Usage:     "Ask the server to echo a message",
		ArgsUsage: "<message>",
		Action: func(c *cli.Context) error {
			if err := exactArgs(c, 1); err != nil {
				return err
			}
			return runCommand(c, "ECHO", c.Args().First())
		},
	}
}

// GetCommand returns the get command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Get the value of a key",
		ArgsUsage: "<key>",
		Action: func(c *cli.Context) error {
			if err := exactArgs(c, 1); err != nil {
				return err
			}
			return runCommand(c, "GET", c.Args().First())
		},
	}
}

// SetCommand returns the set command.
func SetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Set a key, optionally with an expiry",
		ArgsUsage: "<key> <value>",
		Flags: []cli.Flag{
			&cli.Uint64Flag{
				Name:  "px",
				Usage: "Expire the key after this many milliseconds",
			},
		},
		Action: func(c *cli.Context) error {
			if err := exactArgs(c, 2); err != nil {
				return err
			}
			args := []string{"SET", c.Args().Get(0), c.Args().Get(1)}
			if c.IsSet("px") {
				args = append(args, "PX", strconv.FormatUint(c.Uint64("px"), 10))
			}
			return runCommand(c, args...)
		},
	}
}

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Server configuration commands",
		Subcommands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Get a configuration parameter (dir, dbfilename)",
				ArgsUsage: "<parameter>",
				Action: func(c *cli.Context) error {
					if err := exactArgs(c, 1); err != nil {
						return err
					}
					return runCommand(c, "CONFIG", "GET", c.Args().First())
				},
			},
		},
	}
}

// RawCommand returns the raw command, which sends its arguments verbatim.
func RawCommand() *cli.Command {
	return &cli.Command{
		Name:      "raw",
		Usage:     "Send any command, e.g. raw SET k v PX 100",
		ArgsUsage: "<command> [args...]",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("raw: command required")
			}
			return runCommand(c, c.Args().Slice()...)
		},
	}
}

// runCommand sends one command and prints the reply.
func runCommand(c *cli.Context, args ...string) error {
	formatter, err := Formatter(c)
	if err != nil {
		return err
	}

	client, err := Connect(c)
	if err != nil {
		return err
	}
	defer client.Close()

	v, err := client.Do(c.Context, args...)
	if err != nil {
		return err
	}
	if err := formatter.Format(stdout(c), v); err != nil {
		return err
	}
	if v.IsError() {
		return ErrReply
	}
	return nil
}

func exactArgs(c *cli.Context, n int) error {
	if c.NArg() != n {
		return fmt.Errorf("%s: expected %d argument(s), got %d", c.Command.FullName(), n, c.NArg())
	}
	return nil
}
