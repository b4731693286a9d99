// internal/api/error_codes.go
package api

// API错误代码常量
const (
	// 通用错误
	ErrorBadRequest    = "BAD_REQUEST"
	ErrorNotFound      = "NOT_FOUND"
	ErrorInternalError = "INTERNAL_ERROR"

	// 分析相关错误
	ErrorAnalysisFailed   = "ANALYSIS_FAILED"
	ErrorValidationFailed = "VALIDATION_FAILED"
	ErrorEmptyInput       = "EMPTY_INPUT"

	// 类型模板相关错误
	ErrorGenreNotFound = "GENRE_NOT_FOUND"

	// 项目结果相关错误
	ErrorProjectNotFound  = "PROJECT_NOT_FOUND"
	ErrorResultSaveFailed = "RESULT_SAVE_FAILED"

	// 限流
	ErrorRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
)
