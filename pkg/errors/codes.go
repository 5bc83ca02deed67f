package errors

// ErrorCode is a string identifier for a specific failure category.  Codes are
// grouped by module prefix so that log queries and metric labels can aggregate
// on the failing subsystem.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	CodeOK              ErrorCode = "OK"
	CodeUnknown         ErrorCode = "COMMON_000"
	CodeInternal        ErrorCode = "COMMON_001"
	CodeInvalidParam    ErrorCode = "COMMON_002"
	CodeNotFound        ErrorCode = "COMMON_003"
	CodeTimeout         ErrorCode = "COMMON_004"
	CodeValidation      ErrorCode = "COMMON_005"
	CodeExternalService ErrorCode = "COMMON_006"
)

// Dataset and registry error codes.
const (
	CodeUnknownDataset  ErrorCode = "DATA_001"
	CodeDatasetLoad     ErrorCode = "DATA_002"
	CodeUnknownProperty ErrorCode = "DATA_003"
)

// Model serving error codes.
const (
	CodeServingUnavailable ErrorCode = "MODEL_001"
	CodeEncodeFailed       ErrorCode = "MODEL_002"
	CodeDecodeFailed       ErrorCode = "MODEL_003"
	CodeCheckpointMissing  ErrorCode = "MODEL_004"
)

// Generation pipeline error codes.
const (
	CodeReconstruction ErrorCode = "GEN_001"
	CodeCacheCorrupt   ErrorCode = "GEN_002"
	CodeResultWrite    ErrorCode = "GEN_003"
)

// Artifact storage and telemetry error codes.
const (
	CodeUploadFailed ErrorCode = "STORE_001"
	CodeMetricsPush  ErrorCode = "STORE_002"
)
