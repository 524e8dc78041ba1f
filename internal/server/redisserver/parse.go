package redisserver

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"github.com/yndnr/respkv/internal/core/domain"
	"github.com/yndnr/respkv/pkg/resp"
)

// maxEchoedName bounds how much of an unknown command name is echoed back.
const maxEchoedName = 128

// Parse converts a decoded protocol value into a command. It never fails;
// anything that does not validate becomes domain.Invalid with a reason
// suitable for an error reply. Checks run in order and the first failure
// wins.
func Parse(v resp.Value) domain.Command {
	if v.Kind != resp.KindArray {
		return invalid("ERR command must be an array")
	}
	if len(v.Array) == 0 {
		return invalid("ERR command must be a non-empty array")
	}
	if v.Array[0].Kind != resp.KindBulkString {
		return invalid("ERR command name must be a bulk string")
	}

	args := v.Array
	name := normalizeCommandName(args[0].Bulk)

	switch name {
	case "ping":
		if len(args) != 1 {
			return wrongArity(name, "1", len(args))
		}
		return domain.Ping{}

	case "echo":
		if len(args) != 2 {
			return wrongArity(name, "2", len(args))
		}
		payload, bad := bulkArg(name, args, 1)
		if bad != nil {
			return *bad
		}
		return domain.Echo{Payload: payload}

	case "get":
		if len(args) != 2 {
			return wrongArity(name, "2", len(args))
		}
		key, bad := bulkArg(name, args, 1)
		if bad != nil {
			return *bad
		}
		return domain.Get{Key: key}

	case "set":
		return parseSet(args)

	case "config":
		return parseConfig(args)

	default:
		return invalid(fmt.Sprintf("ERR unknown command '%s'", printable(args[0].Bulk)))
	}
}

func parseSet(args []resp.Value) domain.Command {
	const name = "set"
	if len(args) != 3 && len(args) != 5 {
		return wrongArity(name, "3 or 5", len(args))
	}

	key, bad := bulkArg(name, args, 1)
	if bad != nil {
		return *bad
	}
	value, bad := bulkArg(name, args, 2)
	if bad != nil {
		return *bad
	}
	if len(args) == 3 {
		return domain.Set{Key: key, Value: value}
	}

	opt, bad := bulkArg(name, args, 3)
	if bad != nil {
		return *bad
	}
	if !bytes.EqualFold(opt, []byte("px")) {
		return invalid("ERR syntax error: argument 3 of 'set' must be 'px'")
	}
	raw, bad := bulkArg(name, args, 4)
	if bad != nil {
		return *bad
	}
	ms, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return invalid("ERR argument 4 of 'set' must be an unsigned integer number of milliseconds")
	}
	return domain.SetWithExpiry{Key: key, Value: value, TTLMillis: ms}
}

func parseConfig(args []resp.Value) domain.Command {
	const name = "config"
	if len(args) != 3 {
		return wrongArity(name, "3", len(args))
	}

	sub, bad := bulkArg(name, args, 1)
	if bad != nil {
		return *bad
	}
	if !bytes.EqualFold(sub, []byte("get")) {
		return invalid("ERR argument 1 of 'config' must be 'get'")
	}
	param, bad := bulkArg(name, args, 2)
	if bad != nil {
		return *bad
	}
	return domain.ConfigGet{Param: param}
}

// bulkArg returns args[i] if it is a bulk string, or the Invalid command
// describing why it is not.
func bulkArg(name string, args []resp.Value, i int) ([]byte, *domain.Invalid) {
	if args[i].Kind != resp.KindBulkString {
		return nil, &domain.Invalid{Reason: fmt.Sprintf(
			"ERR argument %d of '%s' must be a bulk string, got %s", i, name, args[i].Kind)}
	}
	return args[i].Bulk, nil
}

func wrongArity(name, want string, got int) domain.Invalid {
	return domain.Invalid{Reason: fmt.Sprintf(
		"ERR wrong number of arguments for '%s' command: got %d elements, want %s", name, got, want)}
}

func invalid(reason string) domain.Invalid {
	return domain.Invalid{Reason: reason}
}

// normalizeCommandName case-folds an ASCII command name for lookup.
// Names with other bytes are returned unchanged: Unicode folding would
// map look-alikes such as "ſet" onto "set".
func normalizeCommandName(b []byte) string {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return string(b)
		}
	}
	return cases.Fold().String(string(b))
}

// printable makes client bytes safe to embed in a single-line reply.
func printable(b []byte) string {
	if len(b) > maxEchoedName {
		b = b[:maxEchoedName]
	}
	return strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' {
			return ' '
		}
		return r
	}, string(b))
}
