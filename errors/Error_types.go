package errors

// ERR is the error code carried by every *Error.
type ERR int32

const (
	ERR_UNKNOWN          ERR = 0
	ERR_INVALID_ARGUMENT ERR = 1
	ERR_NOT_FOUND        ERR = 3
	ERR_PROCESSING       ERR = 4
	ERR_CONFIGURATION    ERR = 5
	ERR_CONTEXT_CANCELED ERR = 6
	ERR_ERROR            ERR = 9

	// precondition violations
	ERR_NOT_INITIALIZED       ERR = 20
	ERR_START_HASH_NOT_FOUND  ERR = 21
	ERR_ARITHMETIC_OVERFLOW   ERR = 22
	ERR_INVALID_CHAIN_HEADER  ERR = 23
	ERR_INVALID_ACCUMULATED   ERR = 24
	ERR_WEAKER_CHAIN          ERR = 25
	ERR_SYNC_SESSION_FAILURE  ERR = 26
	ERR_HEADER_ALREADY_EXISTS ERR = 27

	// consensus violations
	ERR_INVALID_BLOCK_HEIGHT          ERR = 40
	ERR_CHAIN_LINK_BROKEN             ERR = 41
	ERR_FUTURE_TIME_LIMIT             ERR = 42
	ERR_TIMESTAMP_TOO_EARLY           ERR = 43
	ERR_ACHIEVED_DIFFICULTY_TOO_LOW   ERR = 44
	ERR_BAD_BLOCK                     ERR = 45
	ERR_INVALID_POW_DATA              ERR = 46
	ERR_OLD_SEED_HASH                 ERR = 47
	ERR_INVALID_POW                   ERR = 48
	ERR_UNSUPPORTED_POW_ALGORITHM     ERR = 49
	ERR_INVALID_TARGET_DIFFICULTY     ERR = 50
	ERR_INVALID_MERGE_MINING_ROOT     ERR = 51
	ERR_INVALID_BLOCK_HEADER_ENCODING ERR = 52

	// storage
	ERR_STORAGE_ERROR       ERR = 70
	ERR_STORAGE_UNAVAILABLE ERR = 71
)

var ERR_name = map[int32]string{
	0:  "UNKNOWN",
	1:  "INVALID_ARGUMENT",
	3:  "NOT_FOUND",
	4:  "PROCESSING",
	5:  "CONFIGURATION",
	6:  "CONTEXT_CANCELED",
	9:  "ERROR",
	20: "NOT_INITIALIZED",
	21: "START_HASH_NOT_FOUND",
	22: "ARITHMETIC_OVERFLOW",
	23: "INVALID_CHAIN_HEADER",
	24: "INVALID_ACCUMULATED",
	25: "WEAKER_CHAIN",
	26: "SYNC_SESSION_FAILURE",
	27: "HEADER_ALREADY_EXISTS",
	40: "INVALID_BLOCK_HEIGHT",
	41: "CHAIN_LINK_BROKEN",
	42: "FUTURE_TIME_LIMIT",
	43: "TIMESTAMP_TOO_EARLY",
	44: "ACHIEVED_DIFFICULTY_TOO_LOW",
	45: "BAD_BLOCK",
	46: "INVALID_POW_DATA",
	47: "OLD_SEED_HASH",
	48: "INVALID_POW",
	49: "UNSUPPORTED_POW_ALGORITHM",
	50: "INVALID_TARGET_DIFFICULTY",
	51: "INVALID_MERGE_MINING_ROOT",
	52: "INVALID_BLOCK_HEADER_ENCODING",
	70: "STORAGE_ERROR",
	71: "STORAGE_UNAVAILABLE",
}

func (x ERR) String() string {
	if name, ok := ERR_name[int32(x)]; ok {
		return name
	}

	return "UNKNOWN"
}

var (
	ErrUnknown              = New(ERR_UNKNOWN, "unknown error")
	ErrInvalidArgument      = New(ERR_INVALID_ARGUMENT, "invalid argument")
	ErrNotFound             = New(ERR_NOT_FOUND, "not found")
	ErrProcessing           = New(ERR_PROCESSING, "error processing")
	ErrConfiguration        = New(ERR_CONFIGURATION, "configuration error")
	ErrContextCanceled      = New(ERR_CONTEXT_CANCELED, "context canceled")
	ErrError                = New(ERR_ERROR, "generic error")
	ErrNotInitialized       = New(ERR_NOT_INITIALIZED, "validator state is not initialized")
	ErrStartHashNotFound    = New(ERR_START_HASH_NOT_FOUND, "start hash not found")
	ErrArithmeticOverflow   = New(ERR_ARITHMETIC_OVERFLOW, "arithmetic overflow")
	ErrInvalidChainHeader   = New(ERR_INVALID_CHAIN_HEADER, "header and accumulated data do not match")
	ErrInvalidAccumulated   = New(ERR_INVALID_ACCUMULATED, "invalid accumulated data")
	ErrWeakerChain          = New(ERR_WEAKER_CHAIN, "remote chain is weaker than the local chain")
	ErrSyncSessionFailure   = New(ERR_SYNC_SESSION_FAILURE, "header sync session failed")
	ErrHeaderAlreadyExists  = New(ERR_HEADER_ALREADY_EXISTS, "header already exists")
	ErrInvalidBlockHeight   = New(ERR_INVALID_BLOCK_HEIGHT, "invalid block height")
	ErrChainLinkBroken      = New(ERR_CHAIN_LINK_BROKEN, "chain link broken")
	ErrFutureTimeLimit      = New(ERR_FUTURE_TIME_LIMIT, "timestamp exceeds the future time limit")
	ErrTimestampTooEarly    = New(ERR_TIMESTAMP_TOO_EARLY, "timestamp is not greater than the median timestamp")
	ErrDifficultyTooLow     = New(ERR_ACHIEVED_DIFFICULTY_TOO_LOW, "achieved difficulty is below the target")
	ErrBadBlock             = New(ERR_BAD_BLOCK, "block is known to be bad")
	ErrInvalidPowData       = New(ERR_INVALID_POW_DATA, "invalid proof of work data")
	ErrOldSeedHash          = New(ERR_OLD_SEED_HASH, "randomx seed hash is too old")
	ErrInvalidPow           = New(ERR_INVALID_POW, "invalid proof of work")
	ErrUnsupportedPowAlgo   = New(ERR_UNSUPPORTED_POW_ALGORITHM, "unsupported proof of work algorithm")
	ErrInvalidTarget        = New(ERR_INVALID_TARGET_DIFFICULTY, "invalid target difficulty")
	ErrInvalidMergeMining   = New(ERR_INVALID_MERGE_MINING_ROOT, "merge mining root does not commit to the header")
	ErrInvalidHeaderEncoded = New(ERR_INVALID_BLOCK_HEADER_ENCODING, "invalid block header encoding")
	ErrStorageError         = New(ERR_STORAGE_ERROR, "storage error")
	ErrStorageUnavailable   = New(ERR_STORAGE_UNAVAILABLE, "storage unavailable")
)

// errors initialization functions

func NewUnknownError(message string, params ...interface{}) error {
	return New(ERR_UNKNOWN, message, params...)
}

func NewInvalidArgumentError(message string, params ...interface{}) error {
	return New(ERR_INVALID_ARGUMENT, message, params...)
}

func NewNotFoundError(message string, params ...interface{}) error {
	return New(ERR_NOT_FOUND, message, params...)
}

func NewProcessingError(message string, params ...interface{}) error {
	return New(ERR_PROCESSING, message, params...)
}

func NewConfigurationError(message string, params ...interface{}) error {
	return New(ERR_CONFIGURATION, message, params...)
}

func NewContextCanceledError(message string, params ...interface{}) error {
	return New(ERR_CONTEXT_CANCELED, message, params...)
}

func NewError(message string, params ...interface{}) error {
	return New(ERR_ERROR, message, params...)
}

func NewNotInitializedError(message string, params ...interface{}) error {
	return New(ERR_NOT_INITIALIZED, message, params...)
}

func NewStartHashNotFoundError(message string, params ...interface{}) error {
	return New(ERR_START_HASH_NOT_FOUND, message, params...)
}

func NewArithmeticOverflowError(message string, params ...interface{}) error {
	return New(ERR_ARITHMETIC_OVERFLOW, message, params...)
}

func NewInvalidChainHeaderError(message string, params ...interface{}) error {
	return New(ERR_INVALID_CHAIN_HEADER, message, params...)
}

func NewInvalidAccumulatedDataError(message string, params ...interface{}) error {
	return New(ERR_INVALID_ACCUMULATED, message, params...)
}

func NewWeakerChainError(message string, params ...interface{}) error {
	return New(ERR_WEAKER_CHAIN, message, params...)
}

func NewSyncSessionError(message string, params ...interface{}) error {
	return New(ERR_SYNC_SESSION_FAILURE, message, params...)
}

func NewHeaderAlreadyExistsError(message string, params ...interface{}) error {
	return New(ERR_HEADER_ALREADY_EXISTS, message, params...)
}

// NewInvalidBlockHeightError records the expected and actual heights in the error data.
func NewInvalidBlockHeightError(expected, actual uint64) error {
	return New(ERR_INVALID_BLOCK_HEIGHT, "expected height %d, got %d", expected, actual).
		WithData(DataKeyExpected, expected).
		WithData(DataKeyActual, actual)
}

// NewChainLinkBrokenError records the received prev hash (actual) and the hash it should link to (expected).
func NewChainLinkBrokenError(actual, expected string) error {
	return New(ERR_CHAIN_LINK_BROKEN, "prev hash %s does not match expected %s", actual, expected).
		WithData(DataKeyActual, actual).
		WithData(DataKeyExpected, expected)
}

func NewFutureTimeLimitError(message string, params ...interface{}) error {
	return New(ERR_FUTURE_TIME_LIMIT, message, params...)
}

func NewTimestampTooEarlyError(message string, params ...interface{}) error {
	return New(ERR_TIMESTAMP_TOO_EARLY, message, params...)
}

func NewAchievedDifficultyTooLowError(achieved, target uint64) error {
	return New(ERR_ACHIEVED_DIFFICULTY_TOO_LOW, "achieved difficulty %d is below target %d", achieved, target).
		WithData(DataKeyAchieved, achieved).
		WithData(DataKeyTarget, target)
}

func NewBadBlockError(message string, params ...interface{}) error {
	return New(ERR_BAD_BLOCK, message, params...)
}

func NewInvalidPowDataError(message string, params ...interface{}) error {
	return New(ERR_INVALID_POW_DATA, message, params...)
}

func NewOldSeedHashError(message string, params ...interface{}) error {
	return New(ERR_OLD_SEED_HASH, message, params...)
}

func NewInvalidPowError(message string, params ...interface{}) error {
	return New(ERR_INVALID_POW, message, params...)
}

func NewUnsupportedPowAlgorithmError(message string, params ...interface{}) error {
	return New(ERR_UNSUPPORTED_POW_ALGORITHM, message, params...)
}

func NewInvalidTargetDifficultyError(message string, params ...interface{}) error {
	return New(ERR_INVALID_TARGET_DIFFICULTY, message, params...)
}

func NewInvalidMergeMiningRootError(message string, params ...interface{}) error {
	return New(ERR_INVALID_MERGE_MINING_ROOT, message, params...)
}

func NewInvalidBlockHeaderEncodingError(message string, params ...interface{}) error {
	return New(ERR_INVALID_BLOCK_HEADER_ENCODING, message, params...)
}

func NewStorageError(message string, params ...interface{}) error {
	return New(ERR_STORAGE_ERROR, message, params...)
}

func NewStorageUnavailableError(message string, params ...interface{}) error {
	return New(ERR_STORAGE_UNAVAILABLE, message, params...)
}
