package errors

// ErrorCode is the stable, machine-readable code returned in error bodies.
type ErrorCode int32

const (
	ErrorCode_UNSPECIFIED ErrorCode = 0
	ErrorCode_HTTP_OK     ErrorCode = 200

	// General
	ErrorCode_INTERNAL          ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT  ErrorCode = 1001
	ErrorCode_NOT_FOUND         ErrorCode = 1002
	ErrorCode_ALREADY_EXISTS    ErrorCode = 1003
	ErrorCode_PERMISSION_DENIED ErrorCode = 1004
	ErrorCode_UNAUTHENTICATED   ErrorCode = 1005
	ErrorCode_FORBIDDEN         ErrorCode = 1006
	ErrorCode_INVALID_PAYLOAD   ErrorCode = 1007
	ErrorCode_CONFLICT          ErrorCode = 1008

	// Auth
	ErrorCode_AUTH_INVALID_TOKEN ErrorCode = 2000
	ErrorCode_AUTH_TOKEN_EXPIRED ErrorCode = 2001

	// Interview engine
	ErrorCode_INTERVIEW_SESSION_NOT_FOUND ErrorCode = 3000
	ErrorCode_INTERVIEW_INVALID_STATE     ErrorCode = 3001
	ErrorCode_INTERVIEW_EVALUATION_FAILED ErrorCode = 3002
	ErrorCode_INTERVIEW_GENERATION_FAILED ErrorCode = 3003
	ErrorCode_INTERVIEW_PARSE_FAILED      ErrorCode = 3004
	ErrorCode_INTERVIEW_OUT_OF_RANGE      ErrorCode = 3005
	ErrorCode_INTERVIEW_CONCURRENT_UPDATE ErrorCode = 3006

	// AI / analysis
	ErrorCode_AI_ANALYSIS_FAILED      ErrorCode = 4000
	ErrorCode_AI_TRANSCRIPTION_FAILED ErrorCode = 4001
	ErrorCode_AI_SERVICE_UNAVAILABLE  ErrorCode = 4002

	// Integrations
	ErrorCode_INTEGRATION_STORAGE_FAILED ErrorCode = 5000
	ErrorCode_INTEGRATION_CACHE_FAILED   ErrorCode = 5001
	ErrorCode_DB_QUERY_FAILED            ErrorCode = 5002
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_UNSPECIFIED:                 "UNSPECIFIED",
	ErrorCode_HTTP_OK:                     "HTTP_OK",
	ErrorCode_INTERNAL:                    "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:            "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                   "NOT_FOUND",
	ErrorCode_ALREADY_EXISTS:              "ALREADY_EXISTS",
	ErrorCode_PERMISSION_DENIED:           "PERMISSION_DENIED",
	ErrorCode_UNAUTHENTICATED:             "UNAUTHENTICATED",
	ErrorCode_FORBIDDEN:                   "FORBIDDEN",
	ErrorCode_INVALID_PAYLOAD:             "INVALID_PAYLOAD",
	ErrorCode_CONFLICT:                    "CONFLICT",
	ErrorCode_AUTH_INVALID_TOKEN:          "AUTH_INVALID_TOKEN",
	ErrorCode_AUTH_TOKEN_EXPIRED:          "AUTH_TOKEN_EXPIRED",
	ErrorCode_INTERVIEW_SESSION_NOT_FOUND: "INTERVIEW_SESSION_NOT_FOUND",
	ErrorCode_INTERVIEW_INVALID_STATE:     "INTERVIEW_INVALID_STATE",
	ErrorCode_INTERVIEW_EVALUATION_FAILED: "INTERVIEW_EVALUATION_FAILED",
	ErrorCode_INTERVIEW_GENERATION_FAILED: "INTERVIEW_GENERATION_FAILED",
	ErrorCode_INTERVIEW_PARSE_FAILED:      "INTERVIEW_PARSE_FAILED",
	ErrorCode_INTERVIEW_OUT_OF_RANGE:      "INTERVIEW_OUT_OF_RANGE",
	ErrorCode_INTERVIEW_CONCURRENT_UPDATE: "INTERVIEW_CONCURRENT_UPDATE",
	ErrorCode_AI_ANALYSIS_FAILED:          "AI_ANALYSIS_FAILED",
	ErrorCode_AI_TRANSCRIPTION_FAILED:     "AI_TRANSCRIPTION_FAILED",
	ErrorCode_AI_SERVICE_UNAVAILABLE:      "AI_SERVICE_UNAVAILABLE",
	ErrorCode_INTEGRATION_STORAGE_FAILED:  "INTEGRATION_STORAGE_FAILED",
	ErrorCode_INTEGRATION_CACHE_FAILED:    "INTEGRATION_CACHE_FAILED",
	ErrorCode_DB_QUERY_FAILED:             "DB_QUERY_FAILED",
}

// String returns the symbolic name of the code
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
