package command

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/respkv/internal/cli/connection"
	"github.com/yndnr/respkv/internal/cli/output"
	"github.com/yndnr/respkv/internal/infra/buildinfo"
)

// ErrReply is returned when the server answered with an error reply. The
// reply has already been printed.
var ErrReply = errors.New("server replied with an error")

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "respkv-cli",
		Usage:   "Command-line client for respkv-server",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			PingCommand(),
			EchoCommand(),
			GetCommand(),
			SetCommand(),
			ConfigCommand(),
			RawCommand(),
			ReplCommand(),
		},
		Action: runREPL,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "respkv server address (host:port)",
			EnvVars: []string{"RESPKV_SERVER"},
			Value:   connection.DefaultAddr,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: text, json, yaml",
			Value:   string(output.FormatText),
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Dial and per-command timeout (0 disables)",
			Value: 5 * time.Second,
		},
		&cli.BoolFlag{
			Name:  "tls",
			Usage: "Connect using TLS",
		},
		&cli.StringFlag{
			Name:  "cacert",
			Usage: "PEM file with extra CA certificates to trust (implies --tls)",
		},
		&cli.BoolFlag{
			Name:  "insecure",
			Usage: "Skip server certificate verification (implies --tls)",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Server  string
	Output  string
	Timeout time.Duration

	TLS      bool
	CACert   string
	Insecure bool
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Server:   c.String("server"),
		Output:   c.String("output"),
		Timeout:  c.Duration("timeout"),
		TLS:      c.Bool("tls"),
		CACert:   c.String("cacert"),
		Insecure: c.Bool("insecure"),
	}
}

// Connect dials the server named by the global flags.
func Connect(c *cli.Context) (*connection.Client, error) {
	flags := ParseGlobalFlags(c)

	tlsOpts := connection.TLSOptions{
		Enabled:  flags.TLS || flags.CACert != "" || flags.Insecure,
		CAFile:   flags.CACert,
		Insecure: flags.Insecure,
	}
	tlsCfg, err := tlsOpts.Config(flags.Server)
	if err != nil {
		return nil, err
	}

	return connection.Dial(c.Context, connection.Options{
		Addr:    flags.Server,
		Timeout: flags.Timeout,
		TLS:     tlsCfg,
	})
}

// Formatter returns the formatter selected by --output.
func Formatter(c *cli.Context) (output.Formatter, error) {
	format, err := output.ParseFormat(ParseGlobalFlags(c).Output)
	if err != nil {
		return nil, err
	}
	return output.NewFormatter(format), nil
}

// stdout returns the writer commands print to.
func stdout(c *cli.Context) io.Writer {
	if c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
