package domain

import (
	"errors"
	"fmt"
)

// ErrorKind классифицирует отказ прокси. Клиент видит только сообщение,
// вид ошибки уходит в логи, метрики, аудит и заголовок X-SuperAI-Error-Kind.
type ErrorKind string

const (
	KindConfiguration  ErrorKind = "configuration"
	KindUpstream       ErrorKind = "upstream"
	KindInvalidAction  ErrorKind = "invalid_action"
	KindInvalidRequest ErrorKind = "invalid_request"
	KindParse          ErrorKind = "parse"
	KindInternal       ErrorKind = "internal"
)

type ProxyError struct {
	Kind    ErrorKind
	Message string // Публичный текст для поля error
	Cause   error  // Детали (статус/тело апстрима): только для логов
}

func (e *ProxyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ProxyError) Unwrap() error { return e.Cause }

func NewConfigurationError(msg string) *ProxyError {
	return &ProxyError{Kind: KindConfiguration, Message: msg}
}

func NewUpstreamError(msg string, cause error) *ProxyError {
	return &ProxyError{Kind: KindUpstream, Message: msg, Cause: cause}
}

func NewInvalidActionError() *ProxyError {
	return &ProxyError{Kind: KindInvalidAction, Message: "Invalid action"}
}

func NewInvalidRequestError(msg string) *ProxyError {
	return &ProxyError{Kind: KindInvalidRequest, Message: msg}
}

func NewParseError(cause error) *ProxyError {
	return &ProxyError{Kind: KindParse, Message: "Invalid request body", Cause: cause}
}

// KindOf возвращает вид ошибки; всё, что не ProxyError, считается internal.
func KindOf(err error) ErrorKind {
	var pErr *ProxyError
	if errors.As(err, &pErr) {
		return pErr.Kind
	}
	return KindInternal
}

// PublicMessage: текст, который безопасно отдать клиенту.
func PublicMessage(err error) string {
	var pErr *ProxyError
	if errors.As(err, &pErr) {
		return pErr.Message
	}
	return "Unknown error"
}
