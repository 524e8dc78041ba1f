package domain

// Command is a parsed client request. The set of implementations is closed:
// Invalid, Ping, Echo, Get, Set, SetWithExpiry and ConfigGet.
type Command interface {
	// Name returns the lowercase command name used in logs and metrics.
	Name() string
	command()
}

// Invalid is a request that failed validation. Reason is sent back to the
// client verbatim as an error reply.
type Invalid struct {
	Reason string
}

// Ping checks liveness.
type Ping struct{}

// Echo returns Payload unchanged.
type Echo struct {
	Payload []byte
}

// Get reads the value stored at Key.
type Get struct {
	Key []byte
}

// Set stores Value at Key and clears any expiry.
type Set struct {
	Key   []byte
	Value []byte
}

// SetWithExpiry stores Value at Key, expiring TTLMillis milliseconds from now.
type SetWithExpiry struct {
	Key       []byte
	Value     []byte
	TTLMillis uint64
}

// ConfigGet reads a startup configuration parameter.
type ConfigGet struct {
	Param []byte
}

func (Invalid) Name() string       { return "invalid" }
func (Ping) Name() string          { return "ping" }
func (Echo) Name() string          { return "echo" }
func (Get) Name() string           { return "get" }
func (Set) Name() string           { return "set" }
func (SetWithExpiry) Name() string { return "set" }
func (ConfigGet) Name() string     { return "config|get" }

func (Invalid) command()       {}
func (Ping) command()          {}
func (Echo) command()          {}
func (Get) command()           {}
func (Set) command()           {}
func (SetWithExpiry) command() {}
func (ConfigGet) command()     {}

// Names of the configuration parameters ConfigGet recognizes.
const (
	ConfigDir        = "dir"
	ConfigDBFilename = "dbfilename"

	// DefaultDBFilename is used when a snapshot directory is configured
	// without a file name.
	DefaultDBFilename = "dump.rdb"
)
