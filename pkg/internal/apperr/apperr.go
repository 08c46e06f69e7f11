// Package apperr 定义业务错误码及其到 HTTP 状态码的映射.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code 业务错误码.
type Code string

const (
	CodeInvalidArgument    Code = "invalid_argument"
	CodeNotFound           Code = "not_found"
	CodeForbidden          Code = "forbidden"
	CodeQuotaExceeded      Code = "quota_exceeded"
	CodeInvalidAssertion   Code = "invalid_assertion"
	CodeExpiredAssertion   Code = "expired_assertion"
	CodeSizeMismatch       Code = "size_mismatch"
	CodeCorruptState       Code = "corrupt_state"
	CodeFileTooLarge       Code = "file_too_large"
	CodeUnauthorized       Code = "unauthorized"
	CodeInternal           Code = "internal"
	CodeStorageUnavailable Code = "storage_unavailable"
)

// Error 携带业务错误码的错误.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap 返回底层错误.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is 按错误码比较，使 errors.Is(err, apperr.New(code, "")) 可用.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}

	return false
}

// New 创建业务错误.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf 创建带格式化消息的业务错误.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap 包装底层错误并附加业务错误码.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// CodeOf 提取错误的业务错误码；非业务错误返回 CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return CodeInternal
}

// HTTPStatus 返回错误码对应的 HTTP 状态码.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeInvalidArgument, CodeSizeMismatch:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeInvalidAssertion, CodeExpiredAssertion:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeQuotaExceeded:
		return http.StatusInsufficientStorage
	case CodeCorruptState:
		return http.StatusConflict
	case CodeStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
