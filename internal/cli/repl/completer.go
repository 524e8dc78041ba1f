package repl

import (
	"sort"
	"strings"
)

// CommandInfo describes a command for help output.
type CommandInfo struct {
	Name    string
	Args    string
	Summary string
}

var knownCommands = []CommandInfo{
	{"ping", "", "Check that the server is alive"},
	{"echo", "message", "Return message"},
	{"get", "key", "Get the value of key"},
	{"set", "key value [PX milliseconds]", "Set key to value, optionally expiring"},
	{"config get", "parameter", "Get a configuration parameter (dir, dbfilename)"},
	{"help", "[prefix]", "Show commands"},
	{"exit", "", "Leave the REPL"},
	{"quit", "", "Leave the REPL"},
}

// Completer provides command completion for the REPL.
type Completer struct {
	commands []CommandInfo
}

// NewCompleter creates a new Completer.
func NewCompleter() *Completer {
	return &Completer{commands: knownCommands}
}

// Complete returns the command names starting with prefix, ignoring case.
func (c *Completer) Complete(prefix string) []string {
	prefix = strings.ToLower(strings.Join(strings.Fields(prefix), " "))

	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd.Name, prefix) {
			suggestions = append(suggestions, cmd.Name)
		}
	}
	sort.Strings(suggestions)
	return suggestions
}

// Lookup returns the command called name, ignoring case.
func (c *Completer) Lookup(name string) (CommandInfo, bool) {
	name = strings.ToLower(name)
	for _, cmd := range c.commands {
		if cmd.Name == name {
			return cmd, true
		}
	}
	return CommandInfo{}, false
}
