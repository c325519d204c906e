package api

import (
	"errors"
	"fmt"
	"strings"
)

// TransportError 请求没有完成，或者 HTTP 状态码不是 2xx
type TransportError struct {
	StatusCode int // 0 表示请求没有拿到响应
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("Request failed with status %d", e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("Request failed: %v", e.Err)
	}
	return "Request failed"
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServiceError 请求成功但响应 success=false
type ServiceError struct {
	Message string
}

func (e *ServiceError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return "Server returned an error."
	}
	return e.Message
}

// ValidationError 客户端前置条件不满足，不会发出网络请求
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// 常见校验错误
var (
	ErrNotAnImage    = &ValidationError{Message: "Please choose an image file."}
	ErrEmptyImage    = &ValidationError{Message: "Please upload or capture a photo first."}
	ErrEmptyQuestion = &ValidationError{Message: "Please type a question first."}
)

// Message 把任意错误转换成一条展示给用户的文案
// 三类错误在上层不再区分
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var (
		transportErr  *TransportError
		serviceErr    *ServiceError
		validationErr *ValidationError
	)
	switch {
	case errors.As(err, &validationErr):
		return validationErr.Error()
	case errors.As(err, &serviceErr):
		return serviceErr.Error()
	case errors.As(err, &transportErr):
		return transportErr.Error()
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return fallback
}

// IsValidation 是否为客户端校验错误
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
