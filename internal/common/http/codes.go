package http

const (
	CodeUnknown              = "UNKNOWN"
	CodeMethodNotAllowed     = "METHOD_NOT_ALLOWED"
	CodeInvalidJSON          = "INVALID_JSON"
	CodeRateLimited          = "RATE_LIMITED"
	CodeRequestTooLarge      = "REQUEST_TOO_LARGE"
	CodeMissingRefreshToken  = "MISSING_REFRESH_TOKEN"
	CodeMissingAuthorization = "MISSING_AUTHORIZATION"
	CodeInvalidToken         = "INVALID_TOKEN"
)
