// internal/apperrors/errors.go
package apperrors

import (
	"errors"
	"fmt"
)

// ErrorType 定义错误类型
type ErrorType string

const (
	// 管线使用的错误类型
	ErrorTypeValidation      ErrorType = "validation_error"
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeAlreadyExists   ErrorType = "already_exists"
	ErrorTypeOutOfOrder      ErrorType = "out_of_order"
	ErrorTypeInvalidStruct   ErrorType = "invalid_structure"
	ErrorTypeGeneration      ErrorType = "generation_error"
	ErrorTypeUnsupportedFile ErrorType = "unsupported_format"
	ErrorTypeProcessing      ErrorType = "processing_error"
)

// AppError 应用程序错误结构
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
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

// New 创建新的 AppError
func New(errType ErrorType, message string, originalError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     originalError,
	}
}

// NewNotFound 创建未找到错误
func NewNotFound(message string) *AppError {
	return New(ErrorTypeNotFound, message, nil)
}

// NewAlreadyExists 创建重复项目错误
func NewAlreadyExists(message string) *AppError {
	return New(ErrorTypeAlreadyExists, message, nil)
}

// NewOutOfOrder 创建阶段顺序错误
func NewOutOfOrder(message string) *AppError {
	return New(ErrorTypeOutOfOrder, message, nil)
}

// NewInvalidStructure 创建结构无效错误
func NewInvalidStructure(message string) *AppError {
	return New(ErrorTypeInvalidStruct, message, nil)
}

// NewGeneration 创建生成失败错误
func NewGeneration(message string, originalError error) *AppError {
	return New(ErrorTypeGeneration, message, originalError)
}

// NewUnsupportedFormat 创建不支持的文件格式错误
func NewUnsupportedFormat(message string) *AppError {
	return New(ErrorTypeUnsupportedFile, message, nil)
}

// NewValidation 创建验证错误
func NewValidation(message string) *AppError {
	return New(ErrorTypeValidation, message, nil)
}

// NewProcessing 创建处理错误
func NewProcessing(message string, originalError error) *AppError {
	return New(ErrorTypeProcessing, message, originalError)
}

// TypeOf 返回错误的类型；非 AppError 返回空字符串
func TypeOf(err error) ErrorType {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type
	}
	return ""
}

func isType(err error, t ErrorType) bool {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type == t
	}
	return false
}

// IsNotFound 检查是否为未找到错误
func IsNotFound(err error) bool { return isType(err, ErrorTypeNotFound) }

// IsAlreadyExists 检查是否为重复项目错误
func IsAlreadyExists(err error) bool { return isType(err, ErrorTypeAlreadyExists) }

// IsOutOfOrder 检查是否为阶段顺序错误
func IsOutOfOrder(err error) bool { return isType(err, ErrorTypeOutOfOrder) }

// IsInvalidStructure 检查是否为结构无效错误
func IsInvalidStructure(err error) bool { return isType(err, ErrorTypeInvalidStruct) }

// IsGeneration 检查是否为生成失败错误
func IsGeneration(err error) bool { return isType(err, ErrorTypeGeneration) }

// IsUnsupportedFormat 检查是否为不支持的文件格式错误
func IsUnsupportedFormat(err error) bool { return isType(err, ErrorTypeUnsupportedFile) }
