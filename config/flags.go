package config

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"
)

// Flags holds parsed command-line flags.
type Flags struct {
	// Commands
	Help        bool
	Version     bool
	WriteConfig bool

	// Core
	Config string

	// Mining
	Threads int
	Timeout time.Duration

	// Logging
	LogLevel string
	LogFile  string
	LogJSON  bool

	// Remaining args
	Args []string

	// Explicitly-set flags (for zero-value overrides).
	SetTimeout bool
	SetLogJSON bool
}

// ParseFlags parses command-line flags (without the program name).
func ParseFlags(args []string) (*Flags, error) {
	f := &Flags{}
	fs := flag.NewFlagSet("powledger", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	// Commands
	fs.BoolVar(&f.Help, "help", false, "Show help message")
	fs.BoolVar(&f.Help, "h", false, "Show help message (shorthand)")
	fs.BoolVar(&f.Version, "version", false, "Show version information")
	fs.BoolVar(&f.Version, "v", false, "Show version (shorthand)")
	fs.BoolVar(&f.WriteConfig, "write-config", false, "Write a default config file to --config and exit")

	// Core
	fs.StringVar(&f.Config, "config", "", "Config file path")
	fs.StringVar(&f.Config, "c", "", "Config file path (shorthand)")

	// Mining
	fs.IntVar(&f.Threads, "threads", 0, "Parallel mining threads")
	fs.DurationVar(&f.Timeout, "timeout", 0, "Per-block mining timeout (0 = none)")

	// Logging
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "Output logs as JSON")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			f.Help = true
			return f, nil
		}
		return nil, err
	}

	f.SetTimeout = isFlagSet(fs, "timeout")
	f.SetLogJSON = isFlagSet(fs, "log-json")
	f.Args = fs.Args()

	// Detect unparsed flags caused by positional arguments stopping the parser.
	for _, arg := range f.Args {
		if strings.HasPrefix(arg, "-") {
			return nil, fmt.Errorf("flag %q was not parsed (positional argument stopped parsing)", arg)
		}
	}

	return f, nil
}

// ApplyFlags applies command-line flags to a Config struct.
func ApplyFlags(cfg *Config, f *Flags) {
	// Mining
	if f.Threads != 0 {
		cfg.Mining.Threads = f.Threads
	}
	if f.SetTimeout {
		cfg.Mining.Timeout = f.Timeout
	}

	// Logging
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	if f.SetLogJSON {
		cfg.Log.JSON = f.LogJSON
	}
}

// isFlagSet checks if a flag was explicitly set.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// PrintUsage writes the command-line help text.
func PrintUsage(w io.Writer) {
	usage := `powledger - proof-of-work append-only ledger demo

Usage:
  powledger [options]
  powledger --help

Commands:
  --help, -h       Show this help message
  --version, -v    Show version information
  --write-config   Write a default config file to --config and exit

Core Options:
  --config, -c     Config file path (key = value format, optional)

Mining Options:
  --threads        Parallel nonce search workers (default: 1)
  --timeout        Give up mining a block after this long, e.g. 30s (default: none)

Logging Options:
  --log-level      Log level: debug, info, warn, error (default: info)
  --log-file       Log file path (default: stdout only)
  --log-json       Output logs as JSON

Note:
  Difficulty (4 leading zero hex digits) and the genesis block are protocol
  constants and cannot be changed at runtime.
`
	fmt.Fprint(w, usage)
}

// Load loads configuration with the following precedence:
// 1. Default values
// 2. Config file (if --config is given)
// 3. Command-line flags
func Load(args []string) (*Config, *Flags, error) {
	flags, err := ParseFlags(args)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing flags: %w", err)
	}

	cfg := Default()

	if flags.Config != "" {
		fileValues, err := LoadFile(flags.Config)
		if err != nil {
			return nil, nil, fmt.Errorf("loading config file: %w", err)
		}
		if err := ApplyFileConfig(cfg, fileValues); err != nil {
			return nil, nil, fmt.Errorf("applying config file: %w", err)
		}
	}

	// Apply flags (highest precedence)
	ApplyFlags(cfg, flags)
	if err := Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, flags, nil
}

// LoadFromFile loads config from defaults + conf file only (no CLI flags).
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()
	fileValues, err := LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config file: %w", err)
	}
	if err := ApplyFileConfig(cfg, fileValues); err != nil {
		return nil, fmt.Errorf("applying config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
