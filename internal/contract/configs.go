package contract

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/huangsam/srcmeasure/schema"
)

// Default values for configuration.
const (
	DefaultCommandTimeout = 30 * time.Minute
	DefaultSloccountBin   = "sloccount"
	DefaultOutputBase     = "results"
)

// DefaultRepoAliases maps repo shorthands to URL prefixes, as used by Baserock definitions.
var DefaultRepoAliases = map[string]string{
	"baserock":    "git://git.baserock.org/baserock/",
	"upstream":    "git://git.baserock.org/delta/",
	"freedesktop": "git://anongit.freedesktop.org/",
	"github":      "https://github.com/",
	"gnome":       "git://git.gnome.org/",
}

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for a measurement run.
// This struct is the "final, validated" config.
type Config struct {
	DefinitionsDir string // Absolute path of the definitions tree
	Root           string // Root definition identifier (positional argument)

	ScratchDir string // Parent of the per-item working directories
	MirrorDir  string // Persistent mirror store

	Output     schema.OutputMode
	OutputFile string

	LineCounter    schema.LineCounterKind
	SloccountBin   string
	CommandTimeout time.Duration // Per external invocation (0 = none)

	IncludeRoot   bool
	Order         schema.ProcessOrder
	OnError       schema.FailurePolicy
	ActivityScope schema.ActivityScope

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	RepoAliases map[string]string

	LogFormat schema.LogFormat
	UseColors bool
	Verbose   bool
	Width     int // Table width override (0 = detect terminal)
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	RootStr string

	Definitions      string            `mapstructure:"definitions"`
	ScratchDir       string            `mapstructure:"scratch-dir"`
	MirrorDir        string            `mapstructure:"mirror-dir"`
	Output           string            `mapstructure:"output"`
	OutputFile       string            `mapstructure:"output-file"`
	LineCounter      string            `mapstructure:"line-counter"`
	SloccountBin     string            `mapstructure:"sloccount-bin"`
	CommandTimeout   string            `mapstructure:"command-timeout"`
	IncludeRoot      string            `mapstructure:"include-root"`
	Order            string            `mapstructure:"order"`
	OnError          string            `mapstructure:"on-error"`
	ActivityScope    string            `mapstructure:"activity-scope"`
	HistoryBackend   string            `mapstructure:"history-backend"`
	HistoryDBConnect string            `mapstructure:"history-db-connect"`
	LogFormat        string            `mapstructure:"log-format"`
	Color            string            `mapstructure:"color"`
	Verbose          bool              `mapstructure:"verbose"`
	Width            int               `mapstructure:"width"`
	RepoAliases      map[string]string `mapstructure:"repo-aliases"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.RepoAliases != nil {
		clone.RepoAliases = make(map[string]string, len(c.RepoAliases))
		maps.Copy(clone.RepoAliases, c.RepoAliases)
	}
	return &clone
}

// Params returns the settings recorded alongside a run in the history store.
func (c *Config) Params() map[string]any {
	return map[string]any{
		"definitions":     c.DefinitionsDir,
		"line_counter":    string(c.LineCounter),
		"order":           string(c.Order),
		"on_error":        string(c.OnError),
		"activity_scope":  string(c.ActivityScope),
		"include_root":    c.IncludeRoot,
		"command_timeout": c.CommandTimeout.String(),
	}
}

// ResolvedOutputFile returns the report destination, defaulting to results.<ext> in the working directory.
func (c *Config) ResolvedOutputFile() string {
	if c.OutputFile != "" {
		return c.OutputFile
	}
	if c.Output == schema.TextOut {
		return ""
	}
	return DefaultOutputBase + schema.DefaultExtension(c.Output)
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validatePolicies(cfg, input); err != nil {
		return err
	}
	if err := validateHistoryBackend(cfg, input); err != nil {
		return err
	}
	if err := resolveDirectories(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateSimpleInputs processes output, counter and logging fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.Root = NormalizeDefinitionID(input.RootStr)
	cfg.OutputFile = input.OutputFile
	cfg.Verbose = input.Verbose

	colors, err := ParseBoolString(defaultString(input.Color, "yes"))
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	cfg.Output = schema.OutputMode(strings.ToLower(defaultString(input.Output, string(schema.CSVOut))))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be csv, text, json, parquet", input.Output)
	}

	cfg.LineCounter = schema.LineCounterKind(strings.ToLower(defaultString(input.LineCounter, string(schema.SlocCountCounter))))
	if _, ok := schema.ValidLineCounters[cfg.LineCounter]; !ok {
		return fmt.Errorf("invalid line counter '%s'. must be sloccount, native", input.LineCounter)
	}
	cfg.SloccountBin = defaultString(input.SloccountBin, DefaultSloccountBin)

	cfg.CommandTimeout = DefaultCommandTimeout
	if input.CommandTimeout != "" {
		d, err := time.ParseDuration(input.CommandTimeout)
		if err != nil {
			return fmt.Errorf("invalid --command-timeout '%s': %w", input.CommandTimeout, err)
		}
		if d < 0 {
			return fmt.Errorf("command-timeout cannot be negative (received %s)", d)
		}
		cfg.CommandTimeout = d
	}

	cfg.LogFormat = schema.LogFormat(strings.ToLower(defaultString(input.LogFormat, string(schema.ConsoleLog))))
	if _, ok := schema.ValidLogFormats[cfg.LogFormat]; !ok {
		return fmt.Errorf("invalid log format '%s'. must be console, json", input.LogFormat)
	}

	if input.Width < 0 {
		return fmt.Errorf("width cannot be negative (received %d)", input.Width)
	}
	cfg.Width = input.Width

	cfg.RepoAliases = make(map[string]string, len(DefaultRepoAliases)+len(input.RepoAliases))
	maps.Copy(cfg.RepoAliases, DefaultRepoAliases)
	maps.Copy(cfg.RepoAliases, input.RepoAliases)
	return nil
}

// validatePolicies processes the run controller's policy switches.
func validatePolicies(cfg *Config, input *ConfigRawInput) error {
	includeRoot, err := ParseBoolString(defaultString(input.IncludeRoot, "yes"))
	if err != nil {
		return fmt.Errorf("invalid --include-root value: %w", err)
	}
	cfg.IncludeRoot = includeRoot

	cfg.Order = schema.ProcessOrder(strings.ToLower(defaultString(input.Order, string(schema.ReverseOrder))))
	if _, ok := schema.ValidProcessOrders[cfg.Order]; !ok {
		return fmt.Errorf("invalid order '%s'. must be reverse, dependency", input.Order)
	}

	cfg.OnError = schema.FailurePolicy(strings.ToLower(defaultString(input.OnError, string(schema.SkipOnError))))
	if _, ok := schema.ValidFailurePolicies[cfg.OnError]; !ok {
		return fmt.Errorf("invalid on-error policy '%s'. must be skip, abort", input.OnError)
	}

	cfg.ActivityScope = schema.ActivityScope(strings.ToLower(defaultString(input.ActivityScope, string(schema.RefScope))))
	if _, ok := schema.ValidActivityScopes[cfg.ActivityScope]; !ok {
		return fmt.Errorf("invalid activity scope '%s'. must be ref, all", input.ActivityScope)
	}
	return nil
}

// validateHistoryBackend validates the run history backend configuration.
func validateHistoryBackend(cfg *Config, input *ConfigRawInput) error {
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(defaultString(input.HistoryBackend, string(schema.NoneBackend))))
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	return ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect)
}

// resolveDirectories makes the definitions, scratch and mirror paths absolute.
func resolveDirectories(cfg *Config, input *ConfigRawInput) error {
	defs, err := filepath.Abs(defaultString(input.Definitions, "."))
	if err != nil {
		return err
	}
	info, err := os.Stat(defs)
	if err != nil {
		return fmt.Errorf("definitions tree %q: %w", defs, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("definitions tree %q is not a directory", defs)
	}
	cfg.DefinitionsDir = defs

	if cfg.ScratchDir, err = filepath.Abs(defaultString(input.ScratchDir, DefaultScratchDir())); err != nil {
		return err
	}
	if cfg.MirrorDir, err = filepath.Abs(defaultString(input.MirrorDir, DefaultMirrorDir())); err != nil {
		return err
	}
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// NormalizeDefinitionID cleans a definition identifier into a slash-separated relative path.
func NormalizeDefinitionID(id string) string {
	for {
		next := strings.TrimSpace(id)
		if next == "" {
			return ""
		}
		next = strings.TrimPrefix(filepath.ToSlash(filepath.Clean(next)), "./")
		if next == id {
			return next
		}
		id = next
	}
}

func defaultString(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}
