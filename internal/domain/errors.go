package domain

import (
	"errors"
	"net/http"
)

// ErrorCode машинный код ошибки, отдаётся клиенту и пишется в billing-события
type ErrorCode string

const (
	CodeInvalidInput    ErrorCode = "INVALID_INPUT"     // невалидная форма/поля запроса
	CodeUnauthorized    ErrorCode = "UNAUTHORIZED"      // нет сессии
	CodeNotEnoughTokens ErrorCode = "NOT_ENOUGH_TOKENS" // недостаточно токенов на балансе
	CodePayloadTooLarge ErrorCode = "PAYLOAD_TOO_LARGE" // картинка больше лимита тарифа
	CodeRateLimited     ErrorCode = "RATE_LIMITED"      // превышен лимит запросов
	CodeProviderError   ErrorCode = "PROVIDER_ERROR"    // провайдер ответил не-2xx
	CodeNoImageReturned ErrorCode = "NO_IMAGE_RETURNED" // 2xx, но картинки в ответе нет
	CodeModelTimeout    ErrorCode = "MODEL_TIMEOUT"     // провайдер не уложился в таймаут
	CodeUploadFailed    ErrorCode = "UPLOAD_FAILED"     // не записали blob в S3
	CodeDBInsertFailed  ErrorCode = "DB_INSERT_FAILED"  // не записали метаданные (blob откачен)
	CodeLedgerFailure   ErrorCode = "LEDGER_FAILURE"    // леджер-сервис недоступен/ошибка
	CodeNotFound        ErrorCode = "NOT_FOUND"         // объект не найден или чужой
	CodeInternal        ErrorCode = "INTERNAL"
)

// HTTPStatus маппит код ошибки в HTTP-статус
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotEnoughTokens:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeProviderError, CodeNoImageReturned:
		return http.StatusBadGateway
	case CodeModelTimeout:
		return http.StatusGatewayTimeout
	default:
		// UPLOAD_FAILED, DB_INSERT_FAILED, LEDGER_FAILURE, INTERNAL
		return http.StatusInternalServerError
	}
}

// Error типизированная ошибка конвейера генерации.
// Detail хранит диагностику внешнего сервиса (статус/тело ответа) для саппорта,
// наружу отдаётся вместе с кодом, но никогда не влияет на выбор статуса
type Error struct {
	Code    ErrorCode
	Message string
	Detail  string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return string(e.Code) + ": " + e.Message
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError создаёт типизированную ошибку без вложенной причины
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError оборачивает причину в типизированную ошибку
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// WithDetail прикладывает диагностику внешнего сервиса
func (e *Error) WithDetail(detail string) *Error {
	e.Detail = detail
	return e
}

// AsError достаёт типизированную ошибку из цепочки; ok=false если её там нет
func AsError(err error) (*Error, bool) {
	var typed *Error
	if errors.As(err, &typed) {
		return typed, true
	}
	return nil, false
}

// CodeOf возвращает код ошибки из цепочки, INTERNAL для нетипизированных
func CodeOf(err error) ErrorCode {
	if typed, ok := AsError(err); ok {
		return typed.Code
	}
	return CodeInternal
}
