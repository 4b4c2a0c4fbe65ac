package config

const ScenarioFileExt = ".yaml"

// ScenarioFileExtensions are all recognized scenario file extensions
var ScenarioFileExtensions = []string{".yaml", ".yml"}

// IsTestMode indicates if the program is running in test mode.
// Generated identifiers (metas, rigid variables) print as "?" so output
// is deterministic.
var IsTestMode = false

// TestModeEnv enables test mode in the CLI when set to "1".
const TestModeEnv = "TROMPE_TEST_MODE"

// Built-in type names
const (
	UnitTypeName   = "unit"
	BoolTypeName   = "bool"
	IntTypeName    = "int"
	FloatTypeName  = "float"
	StringTypeName = "string"
	ListTypeName   = "list"
	TupleTypeName  = "tuple"
	OptionTypeName = "option"
	RefTypeName    = "ref"
	FunTypeName    = "fun"
	ExnTypeName    = "exn"
)

// GroundTypeNames lists the argument-free built-in types in prelude order.
var GroundTypeNames = []string{UnitTypeName, BoolTypeName, IntTypeName, FloatTypeName, StringTypeName}

// Configuration file names, searched in this order.
var ConfigFileNames = []string{"trompe.yaml", "trompe.yml"}

// PreludeOrigin is the origin recorded for built-in symbols.
const PreludeOrigin = "prelude"
