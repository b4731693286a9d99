// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

// ErrorType 定义错误类型
type ErrorType string

const (
	// ErrorTypeValidation 缺失或为空的必需输入
	ErrorTypeValidation ErrorType = "validation_error"
	// ErrorTypeAnalysis 分析过程失败，包装内部错误
	ErrorTypeAnalysis ErrorType = "analysis_error"
	// ErrorTypeLookup 未知的类型键
	ErrorTypeLookup ErrorType = "lookup_error"
	// ErrorTypeNotFound 资源不存在
	ErrorTypeNotFound ErrorType = "not_found"
)

// AppError 应用程序错误结构
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
	Code    string // 用户友好的错误代码
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap 实现错误链接
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError 创建新的 AppError
func NewAppError(errType ErrorType, message string, originalError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     originalError,
		Code:    generateErrorCode(errType),
	}
}

// NewValidationError 创建验证错误
func NewValidationError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeValidation, message, originalError)
}

// NewAnalysisError 创建分析错误
func NewAnalysisError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeAnalysis, message, originalError)
}

// NewLookupError 创建未知类型键错误
func NewLookupError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeLookup, message, originalError)
}

// NewNotFoundError 创建未找到错误
func NewNotFoundError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeNotFound, message, originalError)
}

// hasType 沿错误链查找指定类型
// 分析错误包装验证/查找错误后，内层类型仍可被识别
func hasType(err error, t ErrorType) bool {
	for err != nil {
		if appError, ok := err.(*AppError); ok && appError.Type == t {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsValidationError 检查是否为验证错误
func IsValidationError(err error) bool {
	return hasType(err, ErrorTypeValidation)
}

// IsAnalysisError 检查是否为分析错误
func IsAnalysisError(err error) bool {
	return hasType(err, ErrorTypeAnalysis)
}

// IsLookupError 检查是否为未知类型键错误
func IsLookupError(err error) bool {
	return hasType(err, ErrorTypeLookup)
}

// IsNotFoundError 检查是否为未找到错误
func IsNotFoundError(err error) bool {
	return hasType(err, ErrorTypeNotFound)
}

// generateErrorCode 根据错误类型生成错误代码
func generateErrorCode(errType ErrorType) string {
	switch errType {
	case ErrorTypeValidation:
		return "VALIDATION_ERROR"
	case ErrorTypeAnalysis:
		return "ANALYSIS_ERROR"
	case ErrorTypeLookup:
		return "LOOKUP_ERROR"
	case ErrorTypeNotFound:
		return "NOT_FOUND"
	default:
		return "UNKNOWN_ERROR"
	}
}

// WrapAnalysis 将任意内部错误统一包装为分析错误
// 公共入口捕获所有内部异常后只对外抛出一个带类型的分析错误
func WrapAnalysis(message string, err error) *AppError {
	if err == nil {
		return NewAnalysisError(message, nil)
	}

	var appError *AppError
	if errors.As(err, &appError) && appError.Type == ErrorTypeAnalysis {
		// 已经是分析错误，只补充上下文
		return &AppError{
			Type:    ErrorTypeAnalysis,
			Message: fmt.Sprintf("%s: %s", message, appError.Message),
			Err:     appError,
			Code:    appError.Code,
		}
	}

	return NewAnalysisError(message, err)
}
