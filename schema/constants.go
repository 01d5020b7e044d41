package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the results artifact.
	OutputMode string

	// DatabaseBackend represents the database backend for run history.
	DatabaseBackend string

	// LineCounterKind selects the line-count analyzer.
	LineCounterKind string

	// ProcessOrder selects the order in which walked components are measured.
	ProcessOrder string

	// FailurePolicy selects what happens when a single work item fails.
	FailurePolicy string

	// LogFormat selects how measurement events are rendered.
	LogFormat string

	// ActivityScope selects which history the activity analyzer looks at.
	ActivityScope string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv" // default
	TextOut    OutputMode = "text"
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All history backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite"
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none" // default
)

// All line counters supported.
const (
	SlocCountCounter LineCounterKind = "sloccount" // default
	NativeCounter    LineCounterKind = "native"
)

// All processing orders supported.
const (
	ReverseOrder    ProcessOrder = "reverse" // default
	DependencyOrder ProcessOrder = "dependency"
)

// All failure policies supported.
const (
	SkipOnError  FailurePolicy = "skip" // default
	AbortOnError FailurePolicy = "abort"
)

// All log formats supported.
const (
	ConsoleLog LogFormat = "console" // default
	JSONLog    LogFormat = "json"
)

// All activity scopes supported.
const (
	RefScope ActivityScope = "ref" // default
	AllScope ActivityScope = "all"
)

// SLOCUnmeasured marks a line count that could not be computed.
const SLOCUnmeasured = -1

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid history backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidLineCounters lists all valid line counters.
var ValidLineCounters = map[LineCounterKind]struct{}{
	SlocCountCounter: {},
	NativeCounter:    {},
}

// ValidProcessOrders lists all valid processing orders.
var ValidProcessOrders = map[ProcessOrder]struct{}{
	ReverseOrder:    {},
	DependencyOrder: {},
}

// ValidFailurePolicies lists all valid failure policies.
var ValidFailurePolicies = map[FailurePolicy]struct{}{
	SkipOnError:  {},
	AbortOnError: {},
}

// ValidLogFormats lists all valid log formats.
var ValidLogFormats = map[LogFormat]struct{}{
	ConsoleLog: {},
	JSONLog:    {},
}

// ValidActivityScopes lists all valid activity scopes.
var ValidActivityScopes = map[ActivityScope]struct{}{
	RefScope: {},
	AllScope: {},
}

// DefaultExtension returns the file extension used for an output mode.
func DefaultExtension(mode OutputMode) string {
	switch mode {
	case JSONOut:
		return ".json"
	case ParquetOut:
		return ".parquet"
	case TextOut:
		return ".txt"
	default:
		return ".csv"
	}
}
