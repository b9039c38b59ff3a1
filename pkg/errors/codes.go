package errors

// -----------------------------------------------------------------------------
// Configuration Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrConfigParseFailed indicates the configuration file could not be parsed.
	ErrConfigParseFailed = "CONFIG_PARSE_FAILED"

	// ErrConfigInvalid indicates configuration values are invalid.
	ErrConfigInvalid = "CONFIG_INVALID"

	// ErrConfigReadFailed indicates the config file exists but could not be read.
	ErrConfigReadFailed = "CONFIG_READ_FAILED"

	// ErrConfigWriteFailed indicates the config file could not be written.
	ErrConfigWriteFailed = "CONFIG_WRITE_FAILED"
)

// -----------------------------------------------------------------------------
// Key File Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrKeyParseFailed indicates the key file is not valid JSON or YAML.
	ErrKeyParseFailed = "KEY_PARSE_FAILED"

	// ErrKeyFieldMissing indicates a required field (plaintext, ciphertext,
	// key) is absent from the key file.
	ErrKeyFieldMissing = "KEY_FIELD_MISSING"

	// ErrKeyFieldType indicates a field has the wrong type, e.g. a number
	// where a string is expected.
	ErrKeyFieldType = "KEY_FIELD_TYPE"

	// ErrKeyUnsupportedFormat indicates the key file extension is unknown.
	ErrKeyUnsupportedFormat = "KEY_UNSUPPORTED_FORMAT"
)

// -----------------------------------------------------------------------------
// Vector File Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrVectorsParseFailed indicates a vector component is not a number.
	ErrVectorsParseFailed = "VECTORS_PARSE_FAILED"

	// ErrVectorsDimensionMismatch indicates rows of unequal arity.
	ErrVectorsDimensionMismatch = "VECTORS_DIMENSION_MISMATCH"

	// ErrVectorsEmpty indicates no usable rows were found.
	ErrVectorsEmpty = "VECTORS_EMPTY"

	// ErrVectorsSymbolNotFound indicates a queried symbol has no vector.
	ErrVectorsSymbolNotFound = "VECTORS_SYMBOL_NOT_FOUND"
)

// -----------------------------------------------------------------------------
// Projection Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrProjectionTooFewPoints indicates fewer than two rows were supplied,
	// which leaves no valid perplexity.
	ErrProjectionTooFewPoints = "PROJECTION_TOO_FEW_POINTS"

	// ErrProjectionInvalidParams indicates an out-of-range parameter.
	ErrProjectionInvalidParams = "PROJECTION_INVALID_PARAMS"

	// ErrProjectionCancelled indicates the context was cancelled mid-run.
	ErrProjectionCancelled = "PROJECTION_CANCELLED"
)

// -----------------------------------------------------------------------------
// Render / Export Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrPlotInvalidMode indicates an unknown coloring mode.
	ErrPlotInvalidMode = "PLOT_INVALID_MODE"

	// ErrPlotInputMismatch indicates coordinates and vocabulary differ in length.
	ErrPlotInputMismatch = "PLOT_INPUT_MISMATCH"

	// ErrPlotNoPath indicates no output path was supplied.
	ErrPlotNoPath = "PLOT_NO_PATH"

	// ErrPlotSaveFailed indicates the figure could not be written.
	ErrPlotSaveFailed = "PLOT_SAVE_FAILED"

	// ErrExportInvalidDialect indicates an unknown CSV dialect.
	ErrExportInvalidDialect = "EXPORT_INVALID_DIALECT"
)

// -----------------------------------------------------------------------------
// Command / IO Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrCommandUnknown indicates an unknown subcommand.
	ErrCommandUnknown = "COMMAND_UNKNOWN"

	// ErrCommandInvalidArgs indicates bad flags or arguments.
	ErrCommandInvalidArgs = "COMMAND_INVALID_ARGS"

	// ErrIOFileNotFound indicates an input file does not exist.
	ErrIOFileNotFound = "IO_FILE_NOT_FOUND"

	// ErrIOReadFailed indicates a read failure.
	ErrIOReadFailed = "IO_READ_FAILED"

	// ErrIOWriteFailed indicates a write failure.
	ErrIOWriteFailed = "IO_WRITE_FAILED"

	// ErrIODirCreateFailed indicates an output directory could not be created.
	ErrIODirCreateFailed = "IO_DIR_CREATE_FAILED"
)
